package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcheck/internal/adapter/cli"
	"deepcheck/internal/domain"
)

type fakeVerifier struct {
	claims map[string]domain.ClaimAnalysis
	media  map[string]domain.MediaAnalysis
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		claims: make(map[string]domain.ClaimAnalysis),
		media:  make(map[string]domain.MediaAnalysis),
	}
}

func (f *fakeVerifier) SubmitClaim(ctx context.Context, text, sourceURL, sourceTitle string) (domain.ClaimAnalysis, error) {
	analysis := domain.ClaimAnalysis{
		ID:          fmt.Sprintf("claim-%d", len(f.claims)+1),
		Text:        text,
		SourceURL:   sourceURL,
		SourceTitle: sourceTitle,
		Status:      domain.StatusPending,
		SubmittedAt: time.Now(),
	}
	f.claims[analysis.ID] = analysis
	return analysis, nil
}

func (f *fakeVerifier) StartClaimAnalysis(ctx context.Context, id string) (domain.ClaimAnalysis, error) {
	analysis, ok := f.claims[id]
	if !ok {
		return domain.ClaimAnalysis{}, fmt.Errorf("claim %s not found", id)
	}
	analysis.Status = domain.StatusCompleted
	analysis.CredibilityScore = 0.95
	analysis.Result = &domain.ConsensusResult{
		FinalVerdict:    domain.VerdictTrue,
		FinalConfidence: 0.9,
		Agreement:       true,
		Explanation:     "Corroborated by both sources.",
	}
	f.claims[id] = analysis
	return analysis, nil
}

func (f *fakeVerifier) SubmitMedia(ctx context.Context, fileName, filePath string, kind domain.MediaKind, sizeBytes int64) (domain.MediaAnalysis, error) {
	analysis := domain.MediaAnalysis{
		ID:          fmt.Sprintf("media-%d", len(f.media)+1),
		FileName:    fileName,
		FilePath:    filePath,
		Kind:        kind,
		SizeBytes:   sizeBytes,
		Status:      domain.StatusPending,
		SubmittedAt: time.Now(),
	}
	f.media[analysis.ID] = analysis
	return analysis, nil
}

func (f *fakeVerifier) StartMediaAnalysis(ctx context.Context, id string) (domain.MediaAnalysis, error) {
	analysis, ok := f.media[id]
	if !ok {
		return domain.MediaAnalysis{}, fmt.Errorf("media %s not found", id)
	}
	analysis.Status = domain.StatusCompleted
	analysis.Result = &domain.ConsensusResult{
		FinalVerdict:    domain.VerdictManipulated,
		FinalConfidence: 0.8,
		Agreement:       true,
		MergedFindings: []domain.Finding{
			{Kind: domain.FindingAnatomicalError, Description: "six fingers", Severity: domain.SeverityHigh},
		},
	}
	f.media[id] = analysis
	return analysis, nil
}

func (f *fakeVerifier) SaveClaimAnalysis(ctx context.Context, analysis domain.ClaimAnalysis) error {
	f.claims[analysis.ID] = analysis
	return nil
}

func (f *fakeVerifier) SaveMediaAnalysis(ctx context.Context, analysis domain.MediaAnalysis) error {
	f.media[analysis.ID] = analysis
	return nil
}

func (f *fakeVerifier) GetClaimAnalysis(ctx context.Context, id string) (domain.ClaimAnalysis, error) {
	analysis, ok := f.claims[id]
	if !ok {
		return domain.ClaimAnalysis{}, fmt.Errorf("claim %s not found", id)
	}
	return analysis, nil
}

func (f *fakeVerifier) ListClaimAnalyses(ctx context.Context, limit int) ([]domain.ClaimAnalysis, error) {
	var out []domain.ClaimAnalysis
	for _, analysis := range f.claims {
		out = append(out, analysis)
	}
	return out, nil
}

func (f *fakeVerifier) GetMediaAnalysis(ctx context.Context, id string) (domain.MediaAnalysis, error) {
	analysis, ok := f.media[id]
	if !ok {
		return domain.MediaAnalysis{}, fmt.Errorf("media %s not found", id)
	}
	return analysis, nil
}

func (f *fakeVerifier) ListMediaAnalyses(ctx context.Context, limit int) ([]domain.MediaAnalysis, error) {
	var out []domain.MediaAnalysis
	for _, analysis := range f.media {
		out = append(out, analysis)
	}
	return out, nil
}

func newTestCLI(verifier *fakeVerifier) (*bytes.Buffer, cli.Dependencies) {
	out := &bytes.Buffer{}
	deps := cli.Dependencies{
		Verifier:   verifier,
		MediaStore: verifier,
		ClaimStore: verifier,
		Args:       cli.Arguments{OutWriter: out, ErrWriter: out},
		Version:    "test",
	}
	return out, deps
}

func TestVerifyClaimCommand(t *testing.T) {
	// Given
	verifier := newFakeVerifier()
	out, deps := newTestCLI(verifier)
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"verify-claim", "The dam failed on Tuesday.", "--source-url", "https://example.com"})

	// When
	err := root.Execute()

	// Then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "verdict: true")
	assert.Contains(t, out.String(), "credibility: 0.95")
	assert.Equal(t, "https://example.com", verifier.claims["claim-1"].SourceURL)
}

func TestVersionFlag(t *testing.T) {
	// Given
	out, deps := newTestCLI(newFakeVerifier())
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"--version"})

	// When
	err := root.Execute()

	// Then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "test")
}

func TestShowCommand(t *testing.T) {
	// Given
	verifier := newFakeVerifier()
	_, err := verifier.SubmitClaim(context.Background(), "claim text", "", "")
	require.NoError(t, err)
	out, deps := newTestCLI(verifier)
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"show", "claim-1"})

	// When
	err = root.Execute()

	// Then
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"id": "claim-1"`)
	assert.Contains(t, out.String(), `"status": "pending"`)
}

func TestShowCommand_UnknownID(t *testing.T) {
	// Given
	_, deps := newTestCLI(newFakeVerifier())
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"show", "nope"})

	// When
	err := root.Execute()

	// Then
	assert.Error(t, err)
}

func TestListCommand_Empty(t *testing.T) {
	// Given
	out, deps := newTestCLI(newFakeVerifier())
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"list"})

	// When
	err := root.Execute()

	// Then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "nothing submitted yet")
}

func TestListCommand_RendersTables(t *testing.T) {
	// Given
	verifier := newFakeVerifier()
	submitted, err := verifier.SubmitClaim(context.Background(), "The dam failed on Tuesday.", "", "")
	require.NoError(t, err)
	_, err = verifier.StartClaimAnalysis(context.Background(), submitted.ID)
	require.NoError(t, err)
	out, deps := newTestCLI(verifier)
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"list"})

	// When
	err = root.Execute()

	// Then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "claim-1")
	assert.Contains(t, out.String(), "completed")
}

func TestListCommand_TruncatesMultibyteClaimCleanly(t *testing.T) {
	// Given: a claim longer than the table cap, made of multibyte runes
	verifier := newFakeVerifier()
	_, err := verifier.SubmitClaim(context.Background(), strings.Repeat("日", 70), "", "")
	require.NoError(t, err)
	out, deps := newTestCLI(verifier)
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"list"})

	// When
	err = root.Execute()

	// Then: the cut falls on a rune boundary, never mid-character
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(out.String()))
	assert.Contains(t, out.String(), strings.Repeat("日", 57)+"...")
}

func TestServeCommand_NotConfigured(t *testing.T) {
	// Given
	_, deps := newTestCLI(newFakeVerifier())
	root := cli.NewRootCommand(deps)
	root.SetArgs([]string{"serve"})

	// When
	err := root.Execute()

	// Then
	assert.Error(t, err)
}

package metadata_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/metadata"
)

func TestScore_CleanCameraFileYieldsNoFindings(t *testing.T) {
	// Given
	captured := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	modified := captured.Add(2 * time.Hour)
	meta := domain.FileMetadata{
		Width:       4032,
		Height:      3024,
		HasExif:     true,
		Software:    "Adobe Lightroom",
		CaptureTime: &captured,
		ModifyTime:  &modified,
	}

	// When
	findings := metadata.NewScorer().Score(meta)

	// Then
	assert.Empty(t, findings)
}

func TestScore_MissingExif(t *testing.T) {
	// Given
	meta := domain.FileMetadata{Width: 4032, Height: 3024, HasExif: false}

	// When
	findings := metadata.NewScorer().Score(meta)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingMissingExif, findings[0].Kind)
	assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
}

func TestScore_AISoftwareSignature(t *testing.T) {
	// Given
	meta := domain.FileMetadata{
		Width:    3000,
		Height:   2000,
		HasExif:  true,
		Software: "Stable Diffusion web UI 1.10",
	}

	// When
	findings := metadata.NewScorer().Score(meta)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingAISoftwareSignature, findings[0].Kind)
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "stable diffusion")
}

func TestScore_GeneratorDimensions(t *testing.T) {
	// Given
	meta := domain.FileMetadata{Width: 1024, Height: 1024, HasExif: true}

	// When
	findings := metadata.NewScorer().Score(meta)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingSuspiciousDimensions, findings[0].Kind)
}

func TestScore_TimestampAnomaly(t *testing.T) {
	// Given: modified before captured
	captured := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	modified := captured.Add(-time.Hour)
	meta := domain.FileMetadata{
		Width:       4032,
		Height:      3024,
		HasExif:     true,
		CaptureTime: &captured,
		ModifyTime:  &modified,
	}

	// When
	findings := metadata.NewScorer().Score(meta)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingTimestampAnomaly, findings[0].Kind)
}

func TestScore_RulesAreAdditiveAndOrdered(t *testing.T) {
	// Given: a file tripping every rule
	captured := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	modified := captured.Add(-time.Minute)
	meta := domain.FileMetadata{
		Width:       512,
		Height:      512,
		HasExif:     false,
		Software:    "ComfyUI",
		CaptureTime: &captured,
		ModifyTime:  &modified,
	}
	scorer := metadata.NewScorer()

	// When
	findings := scorer.Score(meta)

	// Then
	require.Len(t, findings, 4)
	assert.Equal(t, domain.FindingMissingExif, findings[0].Kind)
	assert.Equal(t, domain.FindingAISoftwareSignature, findings[1].Kind)
	assert.Equal(t, domain.FindingSuspiciousDimensions, findings[2].Kind)
	assert.Equal(t, domain.FindingTimestampAnomaly, findings[3].Kind)

	// Deterministic: same input, identical output
	assert.Equal(t, findings, scorer.Score(meta))
}

package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/consensus"
	"deepcheck/internal/usecase/frames"
	"deepcheck/internal/usecase/metadata"
)

// maxClaimLength bounds claim text in runes. Longer submissions are almost
// always pasted articles, which belong in extraction, not verification.
const maxClaimLength = 5000

// Deps contains the orchestrator's collaborators.
type Deps struct {
	Primary   Provider
	Secondary Provider
	Resolver  *consensus.Resolver
	Scorer    *metadata.Scorer

	FrameSource  FrameSource
	Prober       MetadataProber
	FramesConfig frames.Config

	MediaStore MediaStore
	ClaimStore ClaimStore

	// CallTimeout bounds each classifier invocation.
	CallTimeout time.Duration

	// Clock and NewID are injectable for deterministic tests.
	Clock func() time.Time
	NewID func() string

	// ReadFile loads artifact bytes from the upload directory.
	ReadFile func(string) ([]byte, error)
}

// Orchestrator drives an artifact through the verification state machine:
// pending on submission, analyzing once started, then completed or failed.
// It is the single writer of persisted records; terminal records are never
// mutated again.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates an orchestrator with the given dependencies.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	if deps.Primary == nil || deps.Secondary == nil {
		return nil, fmt.Errorf("orchestrator requires two classifier providers")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("orchestrator requires a consensus resolver")
	}
	if deps.CallTimeout <= 0 {
		deps.CallTimeout = 45 * time.Second
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.ReadFile == nil {
		deps.ReadFile = os.ReadFile
	}
	return &Orchestrator{deps: deps}, nil
}

// SubmitClaim validates and registers a claim for later verification. The
// record stays pending until StartClaimAnalysis; submission never spends
// classifier quota.
func (o *Orchestrator) SubmitClaim(ctx context.Context, text, sourceURL, sourceTitle string) (domain.ClaimAnalysis, error) {
	normalized := norm.NFC.String(strings.TrimSpace(text))
	if normalized == "" {
		return domain.ClaimAnalysis{}, &domain.ValidationError{Field: "text", Reason: "claim text is empty"}
	}
	if utf8.RuneCountInString(normalized) > maxClaimLength {
		return domain.ClaimAnalysis{}, &domain.ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("claim text exceeds %d characters", maxClaimLength),
		}
	}

	analysis := domain.ClaimAnalysis{
		ID:          o.deps.NewID(),
		Text:        normalized,
		SourceURL:   sourceURL,
		SourceTitle: sourceTitle,
		Status:      domain.StatusPending,
		SubmittedAt: o.deps.Clock(),
	}

	if err := o.deps.ClaimStore.SaveClaimAnalysis(ctx, analysis); err != nil {
		return domain.ClaimAnalysis{}, fmt.Errorf("save claim: %w", err)
	}
	return analysis, nil
}

// SubmitMedia validates and registers an uploaded media artifact.
func (o *Orchestrator) SubmitMedia(ctx context.Context, fileName, filePath string, kind domain.MediaKind, sizeBytes int64) (domain.MediaAnalysis, error) {
	if strings.TrimSpace(fileName) == "" {
		return domain.MediaAnalysis{}, &domain.ValidationError{Field: "fileName", Reason: "file name is empty"}
	}
	if strings.TrimSpace(filePath) == "" {
		return domain.MediaAnalysis{}, &domain.ValidationError{Field: "filePath", Reason: "file path is empty"}
	}
	if kind != domain.MediaImage && kind != domain.MediaVideo {
		return domain.MediaAnalysis{}, &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unsupported media kind %q", kind)}
	}

	analysis := domain.MediaAnalysis{
		ID:          o.deps.NewID(),
		FileName:    fileName,
		FilePath:    filePath,
		Kind:        kind,
		SizeBytes:   sizeBytes,
		Status:      domain.StatusPending,
		SubmittedAt: o.deps.Clock(),
	}

	if err := o.deps.MediaStore.SaveMediaAnalysis(ctx, analysis); err != nil {
		return domain.MediaAnalysis{}, fmt.Errorf("save media: %w", err)
	}
	return analysis, nil
}

// StartClaimAnalysis moves a pending claim through analysis. Classifier
// failures are captured on the record; only persistence failures surface as
// errors.
func (o *Orchestrator) StartClaimAnalysis(ctx context.Context, id string) (domain.ClaimAnalysis, error) {
	analysis, err := o.deps.ClaimStore.GetClaimAnalysis(ctx, id)
	if err != nil {
		return domain.ClaimAnalysis{}, fmt.Errorf("load claim %s: %w", id, err)
	}
	if !analysis.Status.CanTransitionTo(domain.StatusAnalyzing) {
		return domain.ClaimAnalysis{}, fmt.Errorf("claim %s is %s, analysis cannot start", id, analysis.Status)
	}

	analysis.Status = domain.StatusAnalyzing
	if err := o.deps.ClaimStore.SaveClaimAnalysis(ctx, analysis); err != nil {
		return domain.ClaimAnalysis{}, fmt.Errorf("save claim: %w", err)
	}

	judgments, evalErr := o.evaluate(ctx, ProviderRequest{Domain: domain.DomainClaim, Text: analysis.Text})
	if evalErr != nil {
		analysis = o.failClaim(analysis, evalErr)
	} else {
		result, resolveErr := o.deps.Resolver.Resolve(judgments)
		if resolveErr != nil {
			analysis = o.failClaim(analysis, resolveErr)
		} else {
			completed := o.deps.Clock()
			analysis.Status = domain.StatusCompleted
			analysis.Result = &result
			analysis.CredibilityScore = credibilityScore(result)
			analysis.CompletedAt = &completed
		}
	}

	if err := o.deps.ClaimStore.SaveClaimAnalysis(ctx, analysis); err != nil {
		return domain.ClaimAnalysis{}, fmt.Errorf("save claim: %w", err)
	}
	return analysis, nil
}

// StartMediaAnalysis moves a pending media artifact through analysis. Images
// take the direct dual-adapter path; videos are reduced frame-by-frame first.
func (o *Orchestrator) StartMediaAnalysis(ctx context.Context, id string) (domain.MediaAnalysis, error) {
	analysis, err := o.deps.MediaStore.GetMediaAnalysis(ctx, id)
	if err != nil {
		return domain.MediaAnalysis{}, fmt.Errorf("load media %s: %w", id, err)
	}
	if !analysis.Status.CanTransitionTo(domain.StatusAnalyzing) {
		return domain.MediaAnalysis{}, fmt.Errorf("media %s is %s, analysis cannot start", id, analysis.Status)
	}

	analysis.Status = domain.StatusAnalyzing
	if err := o.deps.MediaStore.SaveMediaAnalysis(ctx, analysis); err != nil {
		return domain.MediaAnalysis{}, fmt.Errorf("save media: %w", err)
	}

	var judgments []domain.Judgment
	var metaFindings []domain.Finding
	var evalErr error

	switch analysis.Kind {
	case domain.MediaVideo:
		judgments, evalErr = o.evaluateVideo(ctx, analysis.FilePath)
	default:
		judgments, metaFindings, evalErr = o.evaluateImage(ctx, analysis.FilePath)
	}

	if evalErr != nil {
		analysis = o.failMedia(analysis, evalErr)
	} else {
		result, resolveErr := o.deps.Resolver.Resolve(judgments)
		if resolveErr != nil {
			analysis = o.failMedia(analysis, resolveErr)
		} else {
			// Metadata findings are evidence only: appended after the
			// classifier findings, never part of the confidence arithmetic.
			result.MergedFindings = append(result.MergedFindings, metaFindings...)
			completed := o.deps.Clock()
			analysis.Status = domain.StatusCompleted
			analysis.Result = &result
			analysis.CompletedAt = &completed
		}
	}

	if err := o.deps.MediaStore.SaveMediaAnalysis(ctx, analysis); err != nil {
		return domain.MediaAnalysis{}, fmt.Errorf("save media: %w", err)
	}
	return analysis, nil
}

// evaluateImage loads the artifact, scores its metadata, and runs the dual
// classifier pass over the raw bytes.
func (o *Orchestrator) evaluateImage(ctx context.Context, path string) ([]domain.Judgment, []domain.Finding, error) {
	image, err := o.deps.ReadFile(path)
	if err != nil {
		return nil, nil, &domain.DecodeError{Path: path, Cause: err}
	}
	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil, &domain.DecodeError{Path: path, Cause: fmt.Errorf("unexpected content type %s", mimeType)}
	}

	var metaFindings []domain.Finding
	if o.deps.Prober != nil && o.deps.Scorer != nil {
		meta, probeErr := o.deps.Prober.Probe(ctx, path)
		if probeErr != nil {
			// Unreadable metadata is itself a signal the scorer handles; it
			// never blocks classification.
			log.Printf("warning: metadata probe failed for %s: %v", path, probeErr)
		} else {
			metaFindings = o.deps.Scorer.Score(meta)
		}
	}

	judgments, err := o.evaluate(ctx, ProviderRequest{Domain: domain.DomainMedia, Image: image, MIMEType: mimeType})
	if err != nil {
		return nil, nil, err
	}
	return judgments, metaFindings, nil
}

// evaluateVideo runs two independent frame-aggregation passes, one per
// provider, and treats each synthesized judgment as one consensus input.
func (o *Orchestrator) evaluateVideo(ctx context.Context, path string) ([]domain.Judgment, error) {
	if o.deps.FrameSource == nil {
		return nil, &domain.DecodeError{Path: path, Cause: fmt.Errorf("no frame source configured")}
	}

	return o.collect(ctx, func(ctx context.Context, p Provider) (domain.Judgment, error) {
		aggregator := frames.NewAggregator(o.deps.FramesConfig, o.deps.FrameSource, frameEvaluator{
			provider: p,
			timeout:  o.deps.CallTimeout,
		})
		return aggregator.Aggregate(ctx, path)
	})
}

// evaluate runs both providers concurrently over the same request, each
// bounded by the per-call timeout.
func (o *Orchestrator) evaluate(ctx context.Context, req ProviderRequest) ([]domain.Judgment, error) {
	return o.collect(ctx, func(ctx context.Context, p Provider) (domain.Judgment, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.deps.CallTimeout)
		defer cancel()
		return p.Evaluate(callCtx, req)
	})
}

// collect fans a call out to both providers and reassembles the judgments in
// fixed provider order: primary first, secondary second, regardless of which
// call finishes first. One failure degrades to the surviving judgment; two
// failures (or any decode failure) abort the evaluation.
func (o *Orchestrator) collect(ctx context.Context, call func(context.Context, Provider) (domain.Judgment, error)) ([]domain.Judgment, error) {
	providers := []Provider{o.deps.Primary, o.deps.Secondary}
	type slot struct {
		judgment domain.Judgment
		err      error
	}
	slots := make([]slot, len(providers))

	var wg sync.WaitGroup
	for i, provider := range providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer func() {
				if r := recover(); r != nil {
					slots[i] = slot{err: &domain.ServiceError{
						Provider: provider.Name(),
						Cause:    fmt.Errorf("provider panicked: %v", r),
					}}
				}
				wg.Done()
			}()

			judgment, err := call(ctx, provider)
			if err != nil {
				slots[i] = slot{err: wrapProviderError(provider.Name(), err)}
				return
			}
			slots[i] = slot{judgment: judgment}
		}(i, provider)
	}
	wg.Wait()

	var judgments []domain.Judgment
	var errs []error
	for i, s := range slots {
		if s.err != nil {
			log.Printf("[%s] classifier call failed: %v", providers[i].Name(), s.err)
			errs = append(errs, s.err)
			continue
		}
		judgments = append(judgments, s.judgment)
	}

	// A decode failure means the artifact itself is broken. No judgment from
	// the other provider can salvage that.
	for _, err := range errs {
		if domain.IsDecodeError(err) {
			return nil, err
		}
	}

	if len(judgments) == 0 {
		return nil, errors.Join(errs...)
	}
	if len(errs) > 0 {
		log.Printf("degraded evaluation: proceeding with %d of %d judgments", len(judgments), len(providers))
	}
	return judgments, nil
}

func wrapProviderError(provider string, err error) error {
	if domain.IsDecodeError(err) || domain.IsServiceError(err) {
		return err
	}
	return &domain.ServiceError{Provider: provider, Cause: err}
}

func (o *Orchestrator) failClaim(analysis domain.ClaimAnalysis, err error) domain.ClaimAnalysis {
	completed := o.deps.Clock()
	analysis.Status = domain.StatusFailed
	analysis.FailureReason = failureReason(err)
	analysis.CompletedAt = &completed
	return analysis
}

func (o *Orchestrator) failMedia(analysis domain.MediaAnalysis, err error) domain.MediaAnalysis {
	completed := o.deps.Clock()
	analysis.Status = domain.StatusFailed
	analysis.FailureReason = failureReason(err)
	analysis.CompletedAt = &completed
	return analysis
}

// failureReason renders a stable, prefixed reason string. The prefix tells
// the caller whether resubmission can help: service failures are transient,
// decode failures mean the artifact itself is the problem.
func failureReason(err error) string {
	if domain.IsDecodeError(err) {
		return fmt.Sprintf("decode: %v", err)
	}
	return fmt.Sprintf("service: %v", err)
}

// credibilityScore maps a claim's consensus onto a 0-1 credibility scale:
// a confident true approaches 1, a confident false approaches 0, and
// anything uncertain hovers at the 0.5 midpoint.
func credibilityScore(result domain.ConsensusResult) float64 {
	var base float64
	switch result.FinalVerdict {
	case domain.VerdictTrue:
		base = 1.0
	case domain.VerdictFalse:
		base = 0.0
	default:
		base = 0.5
	}
	return 0.5 + (base-0.5)*result.FinalConfidence
}

// frameEvaluator adapts a Provider to the frame aggregator's Evaluator port,
// applying the per-call timeout to each frame.
type frameEvaluator struct {
	provider Provider
	timeout  time.Duration
}

func (e frameEvaluator) EvaluateFrame(ctx context.Context, image []byte, mimeType string) (domain.Judgment, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.provider.Evaluate(callCtx, ProviderRequest{
		Domain:   domain.DomainMedia,
		Image:    image,
		MIMEType: mimeType,
	})
}

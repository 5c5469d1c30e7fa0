package frames

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"deepcheck/internal/domain"
)

// Source extracts still frames from a video artifact. Declared here rather
// than shared with the orchestrator so this package stays importable on its
// own.
type Source interface {
	Duration(ctx context.Context, path string) (float64, error)
	FrameAt(ctx context.Context, path string, offsetSeconds float64) ([]byte, string, error)
}

// Evaluator classifies a single extracted frame.
type Evaluator interface {
	EvaluateFrame(ctx context.Context, image []byte, mimeType string) (domain.Judgment, error)
}

// Config controls frame sampling and fan-out.
type Config struct {
	Count  int // frames sampled per video
	FanOut int // max concurrent frame evaluations
}

// DefaultConfig returns the standard sampling parameters.
func DefaultConfig() Config {
	return Config{Count: 5, FanOut: 5}
}

// Aggregator reduces a video to a single media-level judgment: it samples
// evenly spaced frames, classifies each independently, then majority-votes
// the per-frame verdicts.
type Aggregator struct {
	cfg       Config
	source    Source
	evaluator Evaluator
}

// NewAggregator creates an aggregator over the given frame source and
// evaluator.
func NewAggregator(cfg Config, source Source, evaluator Evaluator) *Aggregator {
	if cfg.Count < 1 {
		cfg.Count = 1
	}
	if cfg.FanOut < 1 {
		cfg.FanOut = cfg.Count
	}
	return &Aggregator{cfg: cfg, source: source, evaluator: evaluator}
}

// Aggregate evaluates the video at path and returns one synthesized judgment.
//
// Frame extraction failures surface as DecodeError (the artifact itself is
// the problem); evaluation failures propagate unchanged so the caller can
// treat them like any other classifier failure.
func (a *Aggregator) Aggregate(ctx context.Context, path string) (domain.Judgment, error) {
	duration, err := a.source.Duration(ctx, path)
	if err != nil {
		return domain.Judgment{}, &domain.DecodeError{Path: path, Cause: err}
	}

	offsets := sampleOffsets(duration, a.cfg.Count)
	judgments := make([]domain.Judgment, len(offsets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.FanOut)

	for i, offset := range offsets {
		i, offset := i, offset
		g.Go(func() error {
			image, mimeType, extractErr := a.source.FrameAt(gctx, path, offset)
			if extractErr != nil {
				return &domain.DecodeError{Path: path, Cause: extractErr}
			}

			judgment, evalErr := a.evaluator.EvaluateFrame(gctx, image, mimeType)
			if evalErr != nil {
				return evalErr
			}

			judgments[i] = judgment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Judgment{}, err
	}

	return synthesize(judgments), nil
}

// sampleOffsets returns count evenly spaced timestamps across the duration,
// starting at zero. The final sample sits half a step short of the end:
// seeking at the exact container duration decodes no frame on most encoders,
// which would turn every valid video into a decode failure.
func sampleOffsets(duration float64, count int) []float64 {
	if count == 1 {
		return []float64{0}
	}
	spacing := duration / float64(count-1)
	offsets := make([]float64, count)
	for i := range offsets {
		offsets[i] = spacing * float64(i)
	}
	offsets[count-1] = duration - spacing/2
	return offsets
}

// synthesize majority-votes the per-frame judgments, in timestamp order,
// into one media-level judgment.
func synthesize(judgments []domain.Judgment) domain.Judgment {
	winner := majorityVerdict(judgments)

	var confidenceSum float64
	var winnerCount int
	findings := []domain.Finding{}
	for _, j := range judgments {
		if j.Verdict == winner {
			confidenceSum += j.Confidence
			winnerCount++
			findings = append(findings, j.Findings...)
		}
	}

	confidence := 0.0
	if winnerCount > 0 {
		confidence = confidenceSum / float64(winnerCount)
	}

	if finding, flagged := temporalFinding(judgments); flagged {
		findings = append(findings, finding)
	}

	return domain.Judgment{
		Provider:   judgments[0].Provider,
		Model:      judgments[0].Model,
		Verdict:    winner,
		Confidence: confidence,
		Rationale: fmt.Sprintf("Majority verdict %s across %d of %d sampled frames.",
			winner, winnerCount, len(judgments)),
		Findings: findings,
	}
}

// majorityVerdict returns the most frequent verdict; ties resolve toward the
// higher-priority (alarm-raising) verdict.
func majorityVerdict(judgments []domain.Judgment) domain.Verdict {
	counts := make(map[domain.Verdict]int)
	for _, j := range judgments {
		counts[j.Verdict]++
	}

	verdicts := make([]domain.Verdict, 0, len(counts))
	for v := range counts {
		verdicts = append(verdicts, v)
	}
	sort.Slice(verdicts, func(i, k int) bool {
		if counts[verdicts[i]] != counts[verdicts[k]] {
			return counts[verdicts[i]] > counts[verdicts[k]]
		}
		return verdicts[i].Priority() > verdicts[k].Priority()
	})

	return verdicts[0]
}

// temporalFinding flags an abrupt verdict flip pattern between consecutive
// frames. A sequence that keeps flipping is itself evidence of splicing,
// independent of any single frame's verdict.
func temporalFinding(judgments []domain.Judgment) (domain.Finding, bool) {
	flips := 0
	for i := 1; i < len(judgments); i++ {
		if judgments[i].Verdict != judgments[i-1].Verdict {
			flips++
		}
	}

	threshold := (len(judgments) - 1) / 2
	if flips <= threshold {
		return domain.Finding{}, false
	}

	severity := domain.SeverityMedium
	if flips >= len(judgments)-1 {
		severity = domain.SeverityHigh
	}

	return domain.Finding{
		Kind: domain.FindingTemporalInconsistency,
		Description: fmt.Sprintf("Verdict changed %d times across %d consecutive frames.",
			flips, len(judgments)),
		Severity: severity,
	}, true
}

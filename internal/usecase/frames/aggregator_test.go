package frames_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/frames"
)

// fakeSource hands out one-byte frames whose payload encodes the frame index.
type fakeSource struct {
	duration    float64
	mu          sync.Mutex
	offsets     []float64
	durationErr error
	frameErr    error
}

func (s *fakeSource) Duration(ctx context.Context, path string) (float64, error) {
	if s.durationErr != nil {
		return 0, s.durationErr
	}
	return s.duration, nil
}

func (s *fakeSource) FrameAt(ctx context.Context, path string, offset float64) ([]byte, string, error) {
	if s.frameErr != nil {
		return nil, "", s.frameErr
	}
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	s.mu.Unlock()
	return []byte{byte(int(offset))}, "image/jpeg", nil
}

// scriptedEvaluator returns a fixed judgment per frame, keyed by the
// extraction offset embedded in the frame payload.
type scriptedEvaluator struct {
	byOffset map[int]domain.Judgment
	err      error
}

func (e *scriptedEvaluator) EvaluateFrame(ctx context.Context, image []byte, mimeType string) (domain.Judgment, error) {
	if e.err != nil {
		return domain.Judgment{}, e.err
	}
	return e.byOffset[int(image[0])], nil
}

func frameJudgment(verdict domain.Verdict, confidence float64) domain.Judgment {
	return domain.Judgment{
		Provider:   "gemini",
		Model:      "gemini-2.0-flash",
		Verdict:    verdict,
		Confidence: confidence,
	}
}

// script maps the five sampled offsets of a 40s video (0,10,20,30,35) to the
// supplied judgments in timestamp order.
func script(judgments ...domain.Judgment) *scriptedEvaluator {
	offsets := []int{0, 10, 20, 30, 35}
	byOffset := make(map[int]domain.Judgment, len(judgments))
	for i, j := range judgments {
		byOffset[offsets[i]] = j
	}
	return &scriptedEvaluator{byOffset: byOffset}
}

func TestAggregate_MajorityVoteWinsWithMeanConfidence(t *testing.T) {
	// Given: [fake, fake, fake, real, real]
	source := &fakeSource{duration: 40}
	evaluator := script(
		frameJudgment(domain.VerdictManipulated, 0.9),
		frameJudgment(domain.VerdictManipulated, 0.8),
		frameJudgment(domain.VerdictManipulated, 0.7),
		frameJudgment(domain.VerdictAuthentic, 0.95),
		frameJudgment(domain.VerdictAuthentic, 0.95),
	)
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, evaluator)

	// When
	judgment, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictManipulated, judgment.Verdict)
	assert.InDelta(t, 0.8, judgment.Confidence, 1e-9, "mean of the winning group only")
}

func TestAggregate_SamplesEvenlySpacedOffsets(t *testing.T) {
	// Given
	source := &fakeSource{duration: 40}
	evaluator := script(
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
	)
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, evaluator)

	// When
	_, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{0, 10, 20, 30, 35}, source.offsets)
}

func TestAggregate_FinalSampleStaysInsideStream(t *testing.T) {
	// Given: a duration the sample count does not divide evenly
	source := &fakeSource{duration: 37}
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, script())

	// When
	_, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then: seeking at the exact container duration decodes no frame, so
	// every sample must land strictly before it
	require.NoError(t, err)
	require.Len(t, source.offsets, 5)
	for _, offset := range source.offsets {
		assert.Less(t, offset, source.duration)
	}
}

func TestAggregate_AlternatingVerdictsEmitTemporalInconsistency(t *testing.T) {
	// Given: [real, fake, real, fake, real] has 4 flips across 5 frames
	source := &fakeSource{duration: 40}
	evaluator := script(
		frameJudgment(domain.VerdictAuthentic, 0.6),
		frameJudgment(domain.VerdictManipulated, 0.6),
		frameJudgment(domain.VerdictAuthentic, 0.6),
		frameJudgment(domain.VerdictManipulated, 0.6),
		frameJudgment(domain.VerdictAuthentic, 0.6),
	)
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, evaluator)

	// When
	judgment, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then
	require.NoError(t, err)
	require.Len(t, judgment.Findings, 1)
	assert.Equal(t, domain.FindingTemporalInconsistency, judgment.Findings[0].Kind)
	assert.Equal(t, domain.SeverityHigh, judgment.Findings[0].Severity)
}

func TestAggregate_StableVerdictsEmitNoTemporalFinding(t *testing.T) {
	// Given: [real, real, real, real, real]
	source := &fakeSource{duration: 40}
	evaluator := script(
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
	)
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, evaluator)

	// When
	judgment, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then
	require.NoError(t, err)
	assert.Empty(t, judgment.Findings)
}

func TestAggregate_TieResolvesTowardAlarmRaisingVerdict(t *testing.T) {
	// Given: 2 fake, 2 real, 1 uncertain
	source := &fakeSource{duration: 40}
	evaluator := script(
		frameJudgment(domain.VerdictManipulated, 0.7),
		frameJudgment(domain.VerdictManipulated, 0.7),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictAuthentic, 0.9),
		frameJudgment(domain.VerdictUncertain, 0.3),
	)
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, evaluator)

	// When
	judgment, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictManipulated, judgment.Verdict)
}

func TestAggregate_DurationFailureIsDecodeError(t *testing.T) {
	// Given
	source := &fakeSource{durationErr: errors.New("moov atom not found")}
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, script())

	// When
	_, err := aggregator.Aggregate(context.Background(), "broken.mp4")

	// Then
	require.Error(t, err)
	assert.True(t, domain.IsDecodeError(err))
}

func TestAggregate_FrameExtractionFailureIsDecodeError(t *testing.T) {
	// Given
	source := &fakeSource{duration: 40, frameErr: errors.New("invalid frame data")}
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, script())

	// When
	_, err := aggregator.Aggregate(context.Background(), "broken.mp4")

	// Then
	require.Error(t, err)
	assert.True(t, domain.IsDecodeError(err))
}

func TestAggregate_EvaluatorErrorPropagates(t *testing.T) {
	// Given
	source := &fakeSource{duration: 40}
	serviceErr := &domain.ServiceError{Provider: "gemini", Cause: errors.New("quota exceeded")}
	aggregator := frames.NewAggregator(frames.DefaultConfig(), source, &scriptedEvaluator{err: serviceErr})

	// When
	_, err := aggregator.Aggregate(context.Background(), "clip.mp4")

	// Then
	require.Error(t, err)
	assert.True(t, domain.IsServiceError(err))
}

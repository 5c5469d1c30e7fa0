package consensus

import (
	"fmt"

	"deepcheck/internal/domain"
)

// Config holds the tunable constants of the consensus arithmetic.
type Config struct {
	// AgreementBonus is added to the averaged confidence when both judgments
	// agree on a decisive verdict. Independent corroboration earns more
	// trust than either source alone.
	AgreementBonus float64

	// DisagreementPenalty is subtracted from the winning confidence when the
	// two judgments contradict each other outright.
	DisagreementPenalty float64

	// PartialPenalty is subtracted when one judgment abstains (uncertain)
	// while the other is decisive. Less severe than a contradiction.
	PartialPenalty float64

	// DegradedFactor scales the sole confidence on the single-judgment path.
	DegradedFactor float64
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		AgreementBonus:      0.05,
		DisagreementPenalty: 0.15,
		PartialPenalty:      0.10,
		DegradedFactor:      0.75,
	}
}

// Resolver fuses the judgments of two independent classifiers into a single
// calibrated result. Resolve is pure: identical inputs always produce
// identical output, with no clock, randomness, or I/O involved.
type Resolver struct {
	cfg Config
}

// NewResolver creates a resolver with the supplied constants.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve fuses one or two judgments into a ConsensusResult.
//
// With two judgments the rules are, in order: matching decisive verdicts earn
// an averaged confidence plus AgreementBonus; contradicting decisive verdicts
// resolve to the higher-confidence judgment minus DisagreementPenalty, ties
// broken by verdict priority; one abstention resolves to the decisive
// judgment minus PartialPenalty; two abstentions average. With a single
// judgment (degraded path) the verdict stands but confidence is scaled by
// DegradedFactor, and agreement is false since nothing corroborated it.
func (r *Resolver) Resolve(judgments []domain.Judgment) (domain.ConsensusResult, error) {
	switch len(judgments) {
	case 1:
		return r.resolveSingle(judgments[0]), nil
	case 2:
		return r.resolvePair(judgments[0], judgments[1]), nil
	default:
		return domain.ConsensusResult{}, fmt.Errorf("consensus requires one or two judgments, got %d", len(judgments))
	}
}

func (r *Resolver) resolveSingle(j domain.Judgment) domain.ConsensusResult {
	return domain.ConsensusResult{
		FinalVerdict:    j.Verdict,
		FinalConfidence: clamp(j.Confidence * r.cfg.DegradedFactor),
		Agreement:       false,
		Explanation:     j.Rationale,
		Judgments:       []domain.Judgment{j},
		MergedFindings:  mergeFindings(j),
	}
}

func (r *Resolver) resolvePair(j1, j2 domain.Judgment) domain.ConsensusResult {
	result := domain.ConsensusResult{
		Agreement:      j1.Verdict == j2.Verdict,
		Judgments:      []domain.Judgment{j1, j2},
		MergedFindings: mergeFindings(j1, j2),
	}

	switch {
	case j1.Verdict == j2.Verdict && j1.Verdict.Decisive():
		result.FinalVerdict = j1.Verdict
		result.FinalConfidence = clamp(average(j1.Confidence, j2.Confidence) + r.cfg.AgreementBonus)

	case j1.Verdict.Decisive() && j2.Verdict.Decisive():
		winner := pickWinner(j1, j2)
		result.FinalVerdict = winner.Verdict
		result.FinalConfidence = clamp(winner.Confidence - r.cfg.DisagreementPenalty)

	case j1.Verdict.Decisive() || j2.Verdict.Decisive():
		decisive := j1
		if j2.Verdict.Decisive() {
			decisive = j2
		}
		result.FinalVerdict = decisive.Verdict
		result.FinalConfidence = clamp(decisive.Confidence - r.cfg.PartialPenalty)

	default:
		result.FinalVerdict = domain.VerdictUncertain
		result.FinalConfidence = clamp(average(j1.Confidence, j2.Confidence))
	}

	result.Explanation = explain(j1, j2)
	return result
}

// pickWinner resolves a contradiction between two decisive judgments.
// Strictly higher confidence wins; on an exact tie the alarm-raising verdict
// prevails, so a disagreement defaults toward caution.
func pickWinner(j1, j2 domain.Judgment) domain.Judgment {
	if j1.Confidence > j2.Confidence {
		return j1
	}
	if j2.Confidence > j1.Confidence {
		return j2
	}
	if j2.Verdict.Priority() > j1.Verdict.Priority() {
		return j2
	}
	return j1
}

// explain derives the human-readable summary from the higher-confidence
// contributing judgment's rationale.
func explain(j1, j2 domain.Judgment) string {
	if j2.Confidence > j1.Confidence {
		return j2.Rationale
	}
	return j1.Rationale
}

// mergeFindings concatenates findings in judgment order. Ordering is by
// source identity, never by completion time.
func mergeFindings(judgments ...domain.Judgment) []domain.Finding {
	merged := []domain.Finding{}
	for _, j := range judgments {
		merged = append(merged, j.Findings...)
	}
	return merged
}

func average(a, b float64) float64 {
	return (a + b) / 2
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

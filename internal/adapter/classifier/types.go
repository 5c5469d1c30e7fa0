package classifier

import "deepcheck/internal/domain"

// Response is the normalized payload each HTTP client returns after parsing
// the underlying service's answer.
type Response struct {
	Model      string
	Verdict    domain.Verdict
	Confidence float64
	Rationale  string
	Findings   []domain.Finding
}

// Judgment converts the response into a domain judgment attributed to the
// named provider.
func (r Response) Judgment(provider string) domain.Judgment {
	return domain.Judgment{
		Provider:   provider,
		Model:      r.Model,
		Verdict:    r.Verdict,
		Confidence: r.Confidence,
		Rationale:  r.Rationale,
		Findings:   r.Findings,
	}
}

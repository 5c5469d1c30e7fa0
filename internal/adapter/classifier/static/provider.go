package static

import (
	"context"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/verify"
)

const providerName = "static"

// Provider implements the usecase Provider port.
type Provider struct {
	model string
}

// NewProvider constructs a static Provider.
func NewProvider(model string) *Provider {
	return &Provider{
		model: model,
	}
}

// Name returns the provider identifier used in judgments and findings.
func (p *Provider) Name() string {
	return providerName
}

// Evaluate returns a static, pre-determined judgment. Media artifacts are
// always called authentic and claims true, each with moderate confidence, so
// wiring can be exercised without credentials.
func (p *Provider) Evaluate(ctx context.Context, req verify.ProviderRequest) (domain.Judgment, error) {
	verdict := domain.VerdictAuthentic
	rationale := "Static analysis found no manipulation artifacts."
	if req.Domain == domain.DomainClaim {
		verdict = domain.VerdictTrue
		rationale = "Static assessment accepted the claim."
	}

	return domain.Judgment{
		Provider:   providerName,
		Model:      p.model,
		Verdict:    verdict,
		Confidence: 0.6,
		Rationale:  rationale,
		Findings:   []domain.Finding{},
	}, nil
}

package gemini

import (
	"context"
	"fmt"

	"deepcheck/internal/adapter/classifier"
	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/verify"
)

const providerName = "gemini"

// Client abstracts the Google Gemini HTTP client behaviour we need.
type Client interface {
	Classify(ctx context.Context, req Request) (classifier.Response, error)
}

// Request represents the outbound payload for the Gemini provider.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// Provider implements the usecase Provider port.
type Provider struct {
	client Client
}

// NewProvider constructs a Provider backed by the supplied client.
func NewProvider(client Client) *Provider {
	return &Provider{client: client}
}

// Name returns the provider identifier used in judgments and findings.
func (p *Provider) Name() string {
	return providerName
}

// Evaluate sends the artifact to Gemini and translates the response.
func (p *Provider) Evaluate(ctx context.Context, req verify.ProviderRequest) (domain.Judgment, error) {
	if p.client == nil {
		return domain.Judgment{}, fmt.Errorf("gemini client missing")
	}

	response, err := p.client.Classify(ctx, Request{
		Prompt:   classifier.BuildPrompt(req),
		Image:    req.Image,
		MIMEType: req.MIMEType,
	})
	if err != nil {
		return domain.Judgment{}, err
	}

	return response.Judgment(providerName), nil
}

package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"deepcheck/internal/adapter/classifier"
	"deepcheck/internal/adapter/classifier/httpx"
	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/verify"
)

const providerName = "anthropic"

// Provider implements the usecase Provider port using the official SDK. The
// SDK carries its own retry and backoff handling, so unlike the raw HTTP
// adapters this one does not wrap calls in RetryWithBackoff.
type Provider struct {
	client anthropic.Client
	model  string
	logger httpx.Logger
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// SetLogger sets the logger for this provider.
func (p *Provider) SetLogger(logger httpx.Logger) {
	p.logger = logger
}

// Name returns the provider identifier used in judgments and findings.
func (p *Provider) Name() string {
	return providerName
}

// Evaluate sends the artifact to the Anthropic API and translates the response.
func (p *Provider) Evaluate(ctx context.Context, req verify.ProviderRequest) (domain.Judgment, error) {
	startTime := time.Now()
	prompt := classifier.BuildPrompt(req)

	if p.logger != nil {
		p.logger.LogRequest(ctx, httpx.RequestLog{
			Provider:     providerName,
			Model:        p.model,
			Timestamp:    startTime,
			PromptChars:  len(prompt),
			PayloadBytes: len(req.Image),
		})
	}

	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)}
	if len(req.Image) > 0 {
		encoded := base64.StdEncoding.EncodeToString(req.Image)
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.MIMEType, encoded))
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		if p.logger != nil {
			p.logger.LogError(ctx, httpx.ErrorLog{
				Provider:  providerName,
				Model:     p.model,
				Timestamp: time.Now(),
				Duration:  time.Since(startTime),
				Error:     err,
				ErrorType: httpx.ErrTypeUnknown,
			})
		}
		return domain.Judgment{}, fmt.Errorf("anthropic API error: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return domain.Judgment{}, fmt.Errorf("no text content in anthropic response")
	}

	parsed, err := httpx.ParseJudgmentResponse(text)
	if err != nil {
		return domain.Judgment{}, fmt.Errorf("anthropic: %w", err)
	}

	if p.logger != nil {
		p.logger.LogResponse(ctx, httpx.ResponseLog{
			Provider:   providerName,
			Model:      p.model,
			Timestamp:  time.Now(),
			Duration:   time.Since(startTime),
			Verdict:    string(parsed.Verdict),
			StatusCode: 200,
		})
	}

	return domain.Judgment{
		Provider:   providerName,
		Model:      p.model,
		Verdict:    parsed.Verdict,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
		Findings:   parsed.Findings,
	}, nil
}

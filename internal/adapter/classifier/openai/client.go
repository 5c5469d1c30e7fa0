package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"deepcheck/internal/adapter/classifier"
	"deepcheck/internal/adapter/classifier/httpx"
	"deepcheck/internal/config"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

// HTTPClient is an HTTP client for the OpenAI chat completions API.
type HTTPClient struct {
	apiKey    string
	model     string
	baseURL   string
	timeout   time.Duration
	retryConf httpx.RetryConfig
	client    *http.Client

	logger httpx.Logger
}

// NewHTTPClient creates a new OpenAI HTTP client.
func NewHTTPClient(apiKey, model string, providerCfg config.ProviderConfig, httpCfg config.HTTPConfig) *HTTPClient {
	timeout := httpx.ParseTimeout(providerCfg.Timeout, httpCfg.Timeout, defaultTimeout)
	retryConf := httpx.BuildRetryConfig(providerCfg, httpCfg)

	return &HTTPClient{
		apiKey:    apiKey,
		model:     model,
		baseURL:   defaultBaseURL,
		timeout:   timeout,
		retryConf: retryConf,
		client:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetLogger sets the logger for this client.
func (c *HTTPClient) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// Classify sends a classification request and parses the JSON answer.
func (c *HTTPClient) Classify(ctx context.Context, req Request) (classifier.Response, error) {
	startTime := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, httpx.RequestLog{
			Provider:     "openai",
			Model:        c.model,
			Timestamp:    startTime,
			PromptChars:  len(req.Prompt),
			PayloadBytes: len(req.Image),
			APIKey:       c.apiKey,
		})
	}

	parts := []ContentPart{{Type: "text", Text: req.Prompt}}
	if len(req.Image) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.Image))
		parts = append(parts, ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}})
	}

	reqBody := ChatCompletionRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: "user", Content: parts}},
		Temperature: 0.2,
	}
	// Structured output mode only works for text-only requests; vision calls
	// rely on the prompt's JSON instruction instead.
	if len(req.Image) == 0 {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return classifier.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"

	var resp *http.Response
	err = httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		retryReq, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if reqErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  "openai",
			}
		}

		retryReq.Header.Set("Content-Type", "application/json")
		retryReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		var callErr error
		resp, callErr = c.client.Do(retryReq)
		if callErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: false,
				Provider:  "openai",
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return c.handleErrorResponse(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	duration := time.Since(startTime)

	if err != nil {
		if c.logger != nil {
			var httpErr *httpx.Error
			if errors.As(err, &httpErr) {
				c.logger.LogError(ctx, httpx.ErrorLog{
					Provider:   "openai",
					Model:      c.model,
					Timestamp:  time.Now(),
					Duration:   duration,
					Error:      err,
					ErrorType:  httpErr.Type,
					StatusCode: httpErr.StatusCode,
					Retryable:  httpErr.Retryable,
				})
			}
		}
		return classifier.Response{}, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifier.Response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return classifier.Response{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return classifier.Response{}, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]

	if choice.FinishReason == "content_filter" {
		return classifier.Response{}, &httpx.Error{
			Type:      httpx.ErrTypeContentFiltered,
			Message:   "Content blocked by content filter",
			Retryable: false,
			Provider:  "openai",
		}
	}

	parsed, err := httpx.ParseJudgmentResponse(choice.Message.Content)
	if err != nil {
		return classifier.Response{}, fmt.Errorf("openai: %w", err)
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, httpx.ResponseLog{
			Provider:   "openai",
			Model:      c.model,
			Timestamp:  time.Now(),
			Duration:   duration,
			Verdict:    string(parsed.Verdict),
			StatusCode: 200,
		})
	}

	return classifier.Response{
		Model:      c.model,
		Verdict:    parsed.Verdict,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
		Findings:   parsed.Findings,
	}, nil
}

// handleErrorResponse maps HTTP status codes to typed errors.
func (c *HTTPClient) handleErrorResponse(statusCode int, body []byte) error {
	var errResp ErrorResponse
	message := fmt.Sprintf("HTTP %d", statusCode)

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &httpx.Error{
			Type:       httpx.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "openai",
		}
	case http.StatusTooManyRequests:
		return &httpx.Error{
			Type:       httpx.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "openai",
		}
	case http.StatusBadRequest:
		return &httpx.Error{
			Type:       httpx.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "openai",
		}
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return &httpx.Error{
			Type:       httpx.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "openai",
		}
	default:
		return &httpx.Error{
			Type:       httpx.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "openai",
		}
	}
}

package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deepcheck/internal/adapter/classifier"
	"deepcheck/internal/adapter/classifier/httpx"
	"deepcheck/internal/config"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second
)

// HTTPClient is an HTTP client for the Google Gemini API.
type HTTPClient struct {
	apiKey    string
	model     string
	baseURL   string
	timeout   time.Duration
	retryConf httpx.RetryConfig
	client    *http.Client

	logger httpx.Logger
}

// NewHTTPClient creates a new Gemini HTTP client.
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
			Provider:     "gemini",
			Model:        c.model,
			Timestamp:    startTime,
			PromptChars:  len(req.Prompt),
			PayloadBytes: len(req.Image),
			APIKey:       c.apiKey,
		})
	}

	parts := []Part{{Text: req.Prompt}}
	if len(req.Image) > 0 {
		parts = append(parts, Part{InlineData: &InlineData{
			MIMEType: req.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(req.Image),
		}})
	}

	reqBody := GenerateContentRequest{
		Contents: []Content{{Parts: parts}},
		GenerationConfig: &GenerationConfig{
			Temperature:    0.2,
			CandidateCount: 1,
		},
		SafetySettings: []SafetySetting{
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return classifier.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var resp *http.Response
	err = httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		retryReq, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if reqErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   httpx.RedactURLSecrets(reqErr.Error()),
				Retryable: false,
				Provider:  "gemini",
			}
		}

		retryReq.Header.Set("Content-Type", "application/json")

		var callErr error
		resp, callErr = c.client.Do(retryReq)
		if callErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeTimeout,
				Message:   httpx.RedactURLSecrets(callErr.Error()),
				Retryable: false,
				Provider:  "gemini",
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
					Provider:   "gemini",
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

	var genResp GenerateContentResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return classifier.Response{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(genResp.Candidates) == 0 {
		return classifier.Response{}, fmt.Errorf("no candidates in response")
	}

	candidate := genResp.Candidates[0]

	if candidate.FinishReason == "SAFETY" {
		return classifier.Response{}, &httpx.Error{
			Type:      httpx.ErrTypeContentFiltered,
			Message:   "Content blocked by safety filters",
			Retryable: false,
			Provider:  "gemini",
		}
	}

	var textParts []string
	for _, part := range candidate.Content.Parts {
		textParts = append(textParts, part.Text)
	}

	parsed, err := httpx.ParseJudgmentResponse(strings.Join(textParts, ""))
	if err != nil {
		return classifier.Response{}, fmt.Errorf("gemini: %w", err)
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, httpx.ResponseLog{
			Provider:   "gemini",
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
		message = httpx.RedactURLSecrets(errResp.Error.Message)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &httpx.Error{
			Type:       httpx.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "gemini",
		}
	case http.StatusTooManyRequests:
		return &httpx.Error{
			Type:       httpx.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "gemini",
		}
	case http.StatusBadRequest:
		return &httpx.Error{
			Type:       httpx.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "gemini",
		}
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return &httpx.Error{
			Type:       httpx.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "gemini",
		}
	default:
		return &httpx.Error{
			Type:       httpx.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "gemini",
		}
	}
}

package httpx

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Logger receives structured events for every classifier API call.
type Logger interface {
	LogRequest(ctx context.Context, req RequestLog)
	LogResponse(ctx context.Context, resp ResponseLog)
	LogError(ctx context.Context, err ErrorLog)
}

// RequestLog describes an outgoing classifier call.
type RequestLog struct {
	Provider     string
	Model        string
	Timestamp    time.Time
	PromptChars  int
	PayloadBytes int    // size of the attached media payload, zero for text
	APIKey       string // redacted before it reaches any sink
}

// ResponseLog describes a successful classifier answer.
type ResponseLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Verdict    string
	StatusCode int
}

// ErrorLog describes a failed classifier call.
type ErrorLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel sets the minimum event severity a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat selects between machine and human readable output.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes classifier call events through the standard logger.
// Requests log at debug, responses at info, failures at error.
type DefaultLogger struct {
	level      LogLevel
	redactKeys bool
	format     LogFormat
}

// NewDefaultLogger creates a logger with the given level, format, and key
// redaction policy.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{
		level:      level,
		redactKeys: redactKeys,
		format:     format,
	}
}

// LogRequest emits a debug event for an outgoing call.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	key := l.RedactAPIKey(req.APIKey)
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","provider":"%s","model":"%s","timestamp":"%s","prompt_chars":%d,"payload_bytes":%d,"api_key":"%s"}`,
			req.Provider, req.Model, req.Timestamp.Format(time.RFC3339),
			req.PromptChars, req.PayloadBytes, key)
		return
	}
	log.Printf("[DEBUG] %s/%s: request (prompt=%d chars, payload=%d bytes, key=%s)",
		req.Provider, req.Model, req.PromptChars, req.PayloadBytes, key)
}

// LogResponse emits an info event for a completed call.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","provider":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"verdict":"%s","status_code":%d}`,
			resp.Provider, resp.Model, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.Verdict, resp.StatusCode)
		return
	}
	log.Printf("[INFO] %s/%s: verdict %s in %.1fs",
		resp.Provider, resp.Model, resp.Verdict, resp.Duration.Seconds())
}

// LogError emits an error event for a failed call.
func (l *DefaultLogger) LogError(ctx context.Context, err ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","provider":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"error":"%s","error_type":"%s","status_code":%d,"retryable":%t}`,
			err.Provider, err.Model, err.Timestamp.Format(time.RFC3339),
			err.Duration.Milliseconds(), err.Error.Error(), err.ErrorType,
			err.StatusCode, err.Retryable)
		return
	}
	retryable := "non-retryable"
	if err.Retryable {
		retryable = "retryable"
	}
	log.Printf("[ERROR] %s/%s: call failed (status=%d, %s): %v",
		err.Provider, err.Model, err.StatusCode, retryable, err.Error)
}

// RedactAPIKey collapses a key to its last 4 characters when redaction is on.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}

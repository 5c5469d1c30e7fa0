package httpx

import "fmt"

// ErrorType categorizes a classifier API failure. The type decides retry
// behavior and how the orchestrator reports the failure.
type ErrorType string

const (
	ErrTypeAuthentication     ErrorType = "authentication"
	ErrTypeRateLimit          ErrorType = "rate_limit"
	ErrTypeServiceUnavailable ErrorType = "service_unavailable"
	ErrTypeInvalidRequest     ErrorType = "invalid_request"
	ErrTypeTimeout            ErrorType = "timeout"
	ErrTypeContentFiltered    ErrorType = "content_filtered"
	ErrTypeUnknown            ErrorType = "unknown"
)

// Error is a typed failure from a classifier HTTP call. Adapters construct
// these directly when mapping status codes; everything upstream matches on
// Type rather than parsing message text.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Provider   string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s (status %d)", e.Provider, e.Type, e.Message, e.StatusCode)
}

// Is matches two classifier errors by type, so errors.Is can test for a
// category without caring which provider raised it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable reports whether retrying the same call could succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

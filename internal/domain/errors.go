package domain

import (
	"errors"
	"fmt"
)

// ServiceError indicates a classifier service could not produce a judgment
// (unreachable, quota exceeded, malformed response). A single ServiceError is
// recoverable via the degraded single-judgment path; two are fatal for the
// evaluation.
type ServiceError struct {
	Provider string
	Cause    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("classifier service %s: %v", e.Provider, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// DecodeError indicates the artifact itself could not be parsed or sliced.
// Always fatal; resubmission requires a fixed artifact.
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ValidationError indicates malformed input rejected before any record is
// created or network call issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsServiceError reports whether err wraps a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// IsDecodeError reports whether err wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

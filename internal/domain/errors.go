package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches DomainErrors by code, so errors.Is works against the
// predeclared sentinels even when a cause has been attached.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInputTooShort        = "INPUT_TOO_SHORT"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodeMalformedRequest     = "MALFORMED_REQUEST"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeCompletionFailed     = "COMPLETION_FAILED"
	ErrCodeIndexInconsistent    = "INDEX_INCONSISTENT"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Pipeline errors
var (
	// ErrInputTooShort rejects embedding inputs below the minimal length
	// before any remote call is made.
	ErrInputTooShort = NewDomainError(ErrCodeInputTooShort, "input text too short to embed")

	// ErrEmbeddingUnavailable is surfaced after the retry budget for a
	// single embedding call is exhausted.
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding service unavailable")

	// ErrMalformedRequest marks non-retryable request errors (bad model,
	// bad parameters); retrying these can never succeed.
	ErrMalformedRequest = NewDomainError(ErrCodeMalformedRequest, "malformed request to model service")

	// ErrRateLimited marks 429-class responses, surfaced distinctly so a
	// caller can back off a whole batch.
	ErrRateLimited = NewDomainError(ErrCodeRateLimited, "model service rate limited")

	// ErrCompletionFailed marks a failed completion call. The composer
	// never retries these.
	ErrCompletionFailed = NewDomainError(ErrCodeCompletionFailed, "completion request failed")

	// ErrIndexInconsistent marks a dimensionality mismatch on upsert. The
	// offending record is rejected; the index is never corrupted.
	ErrIndexInconsistent = NewDomainError(ErrCodeIndexInconsistent, "embedding dimensionality mismatch")
)

// Validation errors
var (
	ErrEmptyText       = NewDomainError(ErrCodeValidation, "text cannot be empty")
	ErrMissingFilename = NewDomainError(ErrCodeValidation, "filename is required")
	ErrChunkNotFound   = NewDomainError(ErrCodeNotFound, "chunk not found")
)

// EmbeddingUnavailable wraps the last underlying failure once retries are
// exhausted.
func EmbeddingUnavailable(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbeddingUnavailable, "embedding service unavailable", err)
}

// MalformedRequest wraps a non-retryable request error.
func MalformedRequest(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeMalformedRequest, "malformed request to model service", err)
}

// RateLimited wraps a rate-limit response.
func RateLimited(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeRateLimited, "model service rate limited", err)
}

// CompletionFailed wraps a failed completion call.
func CompletionFailed(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeCompletionFailed, "completion request failed", err)
}

// IndexInconsistent wraps a dimensionality mismatch with the expected and
// actual sizes.
func IndexInconsistent(want, got int) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIndexInconsistent, "embedding dimensionality mismatch",
		fmt.Errorf("index holds %d-dimensional vectors, got %d", want, got))
}

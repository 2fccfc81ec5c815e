package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrCodeValidation, "bad input")
	assert.Equal(t, "[VALIDATION_ERROR] bad input", err.Error())

	wrapped := NewDomainErrorWithCause(ErrCodeInternalError, "boom", errors.New("root cause"))
	assert.Equal(t, "[INTERNAL_ERROR] boom: root cause", wrapped.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewDomainErrorWithCause(ErrCodeInternalError, "boom", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	withCause := EmbeddingUnavailable(errors.New("503 from upstream"))

	assert.True(t, errors.Is(withCause, ErrEmbeddingUnavailable))
	assert.False(t, errors.Is(withCause, ErrRateLimited))
}

func TestDomainError_IsThroughWrapping(t *testing.T) {
	inner := RateLimited(errors.New("429"))
	outer := fmt.Errorf("chunk report_part_2: %w", inner)

	assert.True(t, errors.Is(outer, ErrRateLimited))

	var domainErr *DomainError
	require.True(t, errors.As(outer, &domainErr))
	assert.Equal(t, ErrCodeRateLimited, domainErr.Code)
}

func TestIndexInconsistent_CarriesDimensions(t *testing.T) {
	err := IndexInconsistent(1536, 768)

	assert.True(t, errors.Is(err, ErrIndexInconsistent))
	assert.Contains(t, err.Error(), "1536")
	assert.Contains(t, err.Error(), "768")
}

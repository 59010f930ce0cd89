package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenErrorsAreUnauthorized(t *testing.T) {
	assert.ErrorIs(t, ErrTokenInvalid, ErrUnauthorized)
	assert.ErrorIs(t, ErrTokenExpired, ErrUnauthorized)
	assert.NotErrorIs(t, ErrTokenExpired, ErrTokenInvalid)
}

func TestValidationError(t *testing.T) {
	err := Validation("title", "is required").Add("dueDate", "cannot be in the past")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: title: is required; dueDate: cannot be in the past", err.Error())

	wrapped := fmt.Errorf("create task: %w", err)
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Len(t, ve.Fields, 2)
}

func TestValidationError_Empty(t *testing.T) {
	err := &ValidationError{}
	assert.Equal(t, "validation failed", err.Error())
}

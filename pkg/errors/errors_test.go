package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, ErrCodeNetwork, "Network error. Please check your connection.")

	assert.True(t, IsCode(err, ErrCodeNetwork))
	assert.False(t, IsCode(err, ErrCodeInvalidCredentials))
	assert.Equal(t, ErrCodeNetwork, GetCode(err))
	assert.Equal(t, "Network error. Please check your connection.", GetMessage(err))
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeNetwork, "ignored"))
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetCode(fmt.Errorf("plain")))
}

func TestFieldErrors(t *testing.T) {
	err := New(ErrCodeValidationFailed, "Validation failed").
		WithFieldErrors(map[string]string{"email": "Email is required"})

	require.NotNil(t, err.Details)
	assert.Equal(t, "Email is required", GetFieldErrors(err)["email"])

	t.Run("empty map attaches nothing", func(t *testing.T) {
		err := New(ErrCodeValidationFailed, "Validation failed").WithFieldErrors(nil)
		assert.Nil(t, GetFieldErrors(err))
	})

	t.Run("plain error carries none", func(t *testing.T) {
		assert.Nil(t, GetFieldErrors(fmt.Errorf("plain")))
	})
}

func TestMapHTTPStatusToCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidCredentials, MapHTTPStatusToCode(http.StatusUnauthorized))
	assert.Equal(t, ErrCodeInvalidCredentials, MapHTTPStatusToCode(http.StatusForbidden))
	assert.Equal(t, ErrCodeRateLimitExceeded, MapHTTPStatusToCode(http.StatusTooManyRequests))
	assert.Equal(t, ErrCodeValidationFailed, MapHTTPStatusToCode(http.StatusBadRequest))
	assert.Equal(t, ErrCodeAuthFailed, MapHTTPStatusToCode(http.StatusInternalServerError))
}

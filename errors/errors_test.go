package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad", http.StatusBadRequest)
	assert.Equal(t, ErrCodeInvalidInput, err.Code)
	assert.Equal(t, "bad", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.False(t, err.Retryable)
	assert.Equal(t, "INVALID_INPUT: bad", err.Error())
}

func TestInvalidConfiguration_KeepsCause(t *testing.T) {
	cause := Validation("jwt.publicKey: is required")
	err := InvalidConfiguration("commonauth", cause)

	assert.Equal(t, ErrCodeInvalidConfiguration, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "commonauth", err.Details["plugin"])
	assert.Same(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "jwt.publicKey")

	var inner *AppError
	require.True(t, stderrors.As(err.Cause, &inner))
	assert.Equal(t, ErrCodeInvalidInput, inner.Code)
}

func TestRegistrationFailed(t *testing.T) {
	cause := fmt.Errorf("scheme exists")
	err := RegistrationFailed("bearer", cause)

	assert.Equal(t, ErrCodeRegistrationFailed, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, "bearer", err.Details["strategy"])
	assert.True(t, stderrors.Is(err, cause))
}

func TestUnauthorized_DefaultMessage(t *testing.T) {
	assert.Equal(t, "Authentication required.", Unauthorized("").Message)
	assert.Equal(t, "Missing token", Unauthorized("Missing token").Message)
	assert.Equal(t, http.StatusUnauthorized, InvalidToken().HTTPStatus)
}

func TestRateLimited(t *testing.T) {
	err := RateLimited()
	assert.Equal(t, ErrCodeRateLimited, err.Code)
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
	assert.True(t, err.ToResponse().Error.Retryable)
}

func TestWithDetails(t *testing.T) {
	err := Validation("x").WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, err.Details)
}

func TestToResponse(t *testing.T) {
	resp := MissingField("tokens").ToResponse()
	assert.Equal(t, ErrCodeMissingField, resp.Error.Code)
	assert.Equal(t, "tokens", resp.Error.Details["field"])
}

func TestHasCode_WalksCauseChain(t *testing.T) {
	err := fmt.Errorf("register: %w", InvalidConfiguration("commonauth", Validation("bad")))

	assert.True(t, HasCode(err, ErrCodeInvalidConfiguration))
	assert.True(t, HasCode(err, ErrCodeInvalidInput))
	assert.False(t, HasCode(err, ErrCodeRegistrationFailed))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeInvalidInput))
	assert.False(t, HasCode(nil, ErrCodeInvalidInput))
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", TokenExpired()))
	require.True(t, ok)
	assert.Equal(t, ErrCodeTokenExpired, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
	assert.True(t, IsAppError(appErr))

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
}

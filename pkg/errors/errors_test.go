package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("redis connection lost")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: redis connection lost", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "product not found"}
	assert.Equal(t, "NOT_FOUND: product not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestAppError_WithKey(t *testing.T) {
	err := InvalidInput("quantity must be greater than 0").WithKey("error.invalid_quantity")
	assert.Equal(t, "error.invalid_quantity", err.MessageKey)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "abc-123"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid", InvalidInput("bad"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("no"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("no"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("retry"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"rate limited", RateLimited("slow down"), "RATE_LIMITED", http.StatusTooManyRequests, ErrRateLimited},
		{"unavailable", Unavailable("catalog down", nil), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}

	assert.Equal(t, "product with id abc-123 not found", NotFound("product", "abc-123").Message)
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Unavailable("product api unavailable", cause)

	assert.ErrorIs(t, err, ErrServiceUnavail)
	assert.ErrorIs(t, err, cause)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"app error", NotFound("cart item", "x"), "NOT_FOUND", http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("handler: %w", Conflict("stale")), "CONFLICT", http.StatusConflict},
		{"wrapped sentinel", fmt.Errorf("load session: %w", ErrNotFound), "NOT_FOUND", http.StatusNotFound},
		{"bare sentinel", ErrRateLimited, "RATE_LIMITED", http.StatusTooManyRequests},
		{"unavailable sentinel", ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status := Classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

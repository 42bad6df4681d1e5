package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels every AppError wraps, so callers can test with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate limited")
	ErrServiceUnavail = errors.New("service unavailable")
)

type kind struct {
	sentinel error
	code     string
	status   int
}

// Checked in order by Classify.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrConflict, "CONFLICT", http.StatusConflict},
	{ErrRateLimited, "RATE_LIMITED", http.StatusTooManyRequests},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
}

const (
	internalCode   = "INTERNAL_ERROR"
	internalStatus = http.StatusInternalServerError
)

// AppError is an error with a stable code and HTTP status. MessageKey, when
// set, names the i18n key that handlers translate Message with.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	MessageKey string `json:"-"`
	Status     int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithKey attaches an i18n message key and returns the same error.
func (e *AppError) WithKey(key string) *AppError {
	e.MessageKey = key
	return e
}

func newError(sentinel error, message string, cause error) *AppError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	code, status := Classify(sentinel)
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// NotFound reports a missing resource by kind and id.
func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id), nil)
}

// InvalidInput reports a request the caller must fix.
func InvalidInput(message string) *AppError {
	return newError(ErrInvalidInput, message, nil)
}

// Unauthorized is mapped from upstream 401 answers.
func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, message, nil)
}

// Forbidden refuses a caller regardless of input.
func Forbidden(message string) *AppError {
	return newError(ErrForbidden, message, nil)
}

// Conflict reports a session snapshot that changed underneath a write.
func Conflict(message string) *AppError {
	return newError(ErrConflict, message, nil)
}

// RateLimited tells a client to back off.
func RateLimited(message string) *AppError {
	return newError(ErrRateLimited, message, nil)
}

// Unavailable reports a downstream dependency that cannot be reached. The
// cause stays reachable through errors.Is.
func Unavailable(message string, cause error) *AppError {
	return newError(ErrServiceUnavail, message, cause)
}

// Classify maps err to its wire code and HTTP status. Unknown errors are
// internal.
func Classify(err error) (code string, status int) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code, appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.code, k.status
		}
	}
	return internalCode, internalStatus
}

// HTTPStatus returns the HTTP status for err.
func HTTPStatus(err error) int {
	_, status := Classify(err)
	return status
}

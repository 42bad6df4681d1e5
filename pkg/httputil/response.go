package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// Response is the standard JSON response envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Translator localizes an error message key. When the key is unknown the
// fallback is returned.
type Translator func(key, fallback string) string

type translatorKey struct{}

// WithTranslator stores a request-scoped translator in the context.
func WithTranslator(ctx context.Context, t Translator) context.Context {
	return context.WithValue(ctx, translatorKey{}, t)
}

func translate(ctx context.Context, key, fallback string) string {
	if key == "" {
		return fallback
	}
	if t, ok := ctx.Value(translatorKey{}).(Translator); ok && t != nil {
		return t(key, fallback)
	}
	return fallback
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes data wrapped in the response envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// WriteError writes a standardized error response based on the error type.
// AppErrors carrying a MessageKey are localized through the request's
// translator. Internal errors are logged with the request-scoped logger when
// the RequestLogger middleware is mounted, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	ctx := r.Context()
	l := logger.FromContext(ctx)
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	requestID := logger.CorrelationIDFromContext(ctx)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			l.ErrorContext(ctx, "request failed",
				slog.String("code", appErr.Code),
				slog.String("error", err.Error()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
		}
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{
				Code:      appErr.Code,
				Message:   translate(ctx, appErr.MessageKey, appErr.Message),
				RequestID: requestID,
			},
		})
		return
	}

	code, status := apperrors.Classify(err)
	message, ok := genericMessages[code]
	if !ok {
		message = genericMessages["INTERNAL_ERROR"]
	}
	if code == "INVALID_INPUT" {
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(ctx, "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{
		Error: &ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

// Client-facing text for bare sentinel errors, which carry no message of
// their own.
var genericMessages = map[string]string{
	"NOT_FOUND":           "resource not found",
	"CONFLICT":            "resource was modified concurrently",
	"RATE_LIMITED":        "too many requests",
	"FORBIDDEN":           "access denied",
	"UNAUTHORIZED":        "authentication required",
	"SERVICE_UNAVAILABLE": "a downstream service is unavailable",
	"INTERNAL_ERROR":      "an internal error occurred",
}

// WriteValidationError writes a standardized validation error response.
// It handles ValidationError from the validator package and returns field-level errors.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:      "VALIDATION_ERROR",
				Message:   translate(r.Context(), "error.validation", "request validation failed"),
				Fields:    valErr.Fields(),
				RequestID: logger.CorrelationIDFromContext(r.Context()),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{
			Code:      "INVALID_INPUT",
			Message:   err.Error(),
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_Structured(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		code       string
		wantStatus int
		wantCode   string
		sentinel   error
	}{
		{"not found", http.StatusNotFound, "NOT_FOUND", http.StatusNotFound, "NOT_FOUND", apperrors.ErrNotFound},
		{"gone is not found", http.StatusGone, "GONE", http.StatusNotFound, "NOT_FOUND", apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, "INVALID_INPUT", http.StatusBadRequest, "INVALID_INPUT", apperrors.ErrInvalidInput},
		{"unprocessable is invalid", http.StatusUnprocessableEntity, "UNPROCESSABLE", http.StatusBadRequest, "INVALID_INPUT", apperrors.ErrInvalidInput},
		{"conflict", http.StatusConflict, "CONFLICT", http.StatusConflict, "CONFLICT", apperrors.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "UNAUTHORIZED", apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, "FORBIDDEN", http.StatusForbidden, "FORBIDDEN", apperrors.ErrForbidden},
		{"unavailable keeps code", http.StatusServiceUnavailable, "MAINTENANCE", http.StatusServiceUnavailable, "MAINTENANCE", apperrors.ErrServiceUnavail},
		{"other 4xx keeps status", http.StatusTooManyRequests, "RATE_LIMITED", http.StatusTooManyRequests, "RATE_LIMITED", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, structuredError(tt.code, "catalog says no")), "product-api")

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, appErr.Status)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Contains(t, appErr.Message, "product-api")
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestParseResponseError_PlainErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   []string
	}{
		{"structured 500", http.StatusInternalServerError, structuredError("INTERNAL_ERROR", "db down"), []string{"500", "db down"}},
		{"structured 502", http.StatusBadGateway, structuredError("BAD_GATEWAY", "upstream"), []string{"502"}},
		{"text body", http.StatusBadGateway, "connection refused", []string{"502", "connection refused"}},
		{"empty body", http.StatusInternalServerError, "", []string{"500"}},
		{"html body", http.StatusBadGateway, "<h1>502 Bad Gateway</h1>", []string{"502"}},
		{"null error field", http.StatusBadRequest, `{"error":null}`, []string{"400"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, tt.body), "product-api")

			require.Error(t, err)
			var appErr *apperrors.AppError
			assert.False(t, errors.As(err, &appErr))
			assert.Contains(t, err.Error(), "product-api")
			for _, s := range tt.want {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestIsClientError(t *testing.T) {
	for status, want := range map[int]bool{
		200: false, 302: false, 399: false,
		400: true, 404: true, 429: true, 499: true,
		500: false, 503: false,
	} {
		assert.Equal(t, want, IsClientError(status), "status %d", status)
	}
}

func TestGetJSON(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "decodes", status: http.StatusOK, body: `{"data":[{"id":"p-1"}]}`},
		{name: "translates status", status: http.StatusNotFound, body: structuredError("NOT_FOUND", "no such category"), wantErr: apperrors.ErrNotFound},
		{name: "malformed body", status: http.StatusOK, body: `{not json`, wantMsg: "decode product-api response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var dst struct {
				Data []struct {
					ID string `json:"id"`
				} `json:"data"`
			}
			err := GetJSON(context.Background(), New(DefaultConfig()), srv.URL, "product-api", &dst)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				assert.ErrorContains(t, err, tt.wantMsg)
			default:
				require.NoError(t, err)
				require.Len(t, dst.Data, 1)
				assert.Equal(t, "p-1", dst.Data[0].ID)
			}
		})
	}
}

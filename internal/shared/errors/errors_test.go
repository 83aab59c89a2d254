package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("error message includes wrapped error", func(t *testing.T) {
		inner := errors.New("boom")
		err := Internal("something failed", inner)
		assert.Contains(t, err.Error(), "something failed")
		assert.Contains(t, err.Error(), "boom")
		assert.ErrorIs(t, err, inner)
	})

	t.Run("quota exceeded maps to 403", func(t *testing.T) {
		err := QuotaExceeded("edit quota exceeded")
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("unauthenticated maps to 401", func(t *testing.T) {
		err := Unauthenticated("")
		assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
		assert.Equal(t, "authentication required", err.Message)
	})

	t.Run("gateway failure wraps sentinel and cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := UpstreamGateway("", cause)
		assert.ErrorIs(t, err, ErrUpstreamGateway)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
		// Sanitized message, not the raw cause.
		assert.NotContains(t, err.Message, "connection refused")
	})
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", QuotaExceeded("over"), http.StatusForbidden},
		{"wrapped quota sentinel", fmt.Errorf("ledger: %w", ErrQuotaExceeded), http.StatusForbidden},
		{"unauthenticated sentinel", ErrUnauthenticated, http.StatusUnauthorized},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"conflict", ErrConflict, http.StatusConflict},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"unknown", errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}

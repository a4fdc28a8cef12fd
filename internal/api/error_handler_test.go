package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	return rec.Code, resp
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing token", domain.ErrTokenMissing, http.StatusUnauthorized, "AUTH_NO_TOKEN"},
		{"expired token", domain.ErrTokenExpired, http.StatusUnauthorized, "AUTH_TOKEN_EXPIRED"},
		{"invalid token", domain.ErrTokenInvalid, http.StatusUnauthorized, "AUTH_INVALID_TOKEN"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
		{"forbidden", domain.Forbidden(domain.CapUsersDelete), http.StatusForbidden, "FORBIDDEN"},
		{"closed incident", domain.ErrIncidentClosed, http.StatusBadRequest, "INVALID_STATE_TRANSITION"},
		{"bad transition", domain.ErrInvalidTransition, http.StatusBadRequest, "INVALID_STATE_TRANSITION"},
		{"validation", domain.Invalid("subject", "is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"area in use", domain.ErrAreaInUse, http.StatusConflict, "AREA_IN_USE"},
		{"duplicate user", domain.ErrUserExists, http.StatusConflict, "CONFLICT"},
		{"duplicate area", domain.ErrAreaExists, http.StatusConflict, "CONFLICT"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"incident not found", domain.ErrIncidentNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"area not found", domain.ErrAreaNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"notification not found", domain.ErrNotificationNotFound, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := renderError(t, tc.err)
			if status != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, status)
			}
			if resp.Error != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, resp.Error)
			}
			if resp.Message == "" {
				t.Fatalf("message must not be empty")
			}
		})
	}
}

func TestErrorHandler_ForbiddenNamesCapability(t *testing.T) {
	_, resp := renderError(t, domain.Forbidden(domain.CapAreasManage))
	if want := "areas:manage"; !strings.Contains(resp.Message, want) {
		t.Fatalf("expected message to name %s, got %q", want, resp.Message)
	}
}

func TestErrorHandler_UnexpectedErrorIsOpaque(t *testing.T) {
	status, resp := renderError(t, errors.New("pq: connection refused to 10.0.0.3"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if resp.Error != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %s", resp.Error)
	}
	if strings.Contains(resp.Message, "10.0.0.3") {
		t.Fatalf("internal details leaked: %q", resp.Message)
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	status, resp := renderError(t, echo.NewHTTPError(http.StatusNotFound, "Not Found"))
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if resp.Error != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", resp.Error)
	}
}

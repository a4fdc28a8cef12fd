package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Error is a
// stable machine-readable code; Message is for humans.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Stable error codes. Clients branch on these, not on the message text.
const (
	codeNoToken       = "AUTH_NO_TOKEN"
	codeInvalidToken  = "AUTH_INVALID_TOKEN"
	codeTokenExpired  = "AUTH_TOKEN_EXPIRED"
	codeBadCreds      = "INVALID_CREDENTIALS"
	codeForbidden     = "FORBIDDEN"
	codeValidation    = "VALIDATION_ERROR"
	codeNotFound      = "NOT_FOUND"
	codeConflict      = "CONFLICT"
	codeAreaInUse     = "AREA_IN_USE"
	codeBadTransition = "INVALID_STATE_TRANSITION"
	codeThrottled     = "TOO_MANY_ATTEMPTS"
	codeInternal      = "INTERNAL_ERROR"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps known domain
// errors to deterministic HTTP codes, logs unexpected errors without leaking
// their details, and always renders the {"error", "message"} envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := resolveError(err, log, c)
		_ = c.JSON(status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := codeInternal
		switch he.Code {
		case http.StatusNotFound:
			code = codeNotFound
		case http.StatusBadRequest:
			code = codeValidation
		case http.StatusUnauthorized:
			code = codeInvalidToken
		case http.StatusForbidden:
			code = codeForbidden
		case http.StatusTooManyRequests:
			code = codeThrottled
		}
		return he.Code, errorResponse{Error: code, Message: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrTokenMissing):
		return http.StatusUnauthorized, errorResponse{Error: codeNoToken, Message: "authentication token required"}
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: codeTokenExpired, Message: "authentication token expired"}
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, errorResponse{Error: codeInvalidToken, Message: "invalid authentication token"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: codeBadCreds, Message: "invalid email or password"}
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, errorResponse{Error: codeThrottled, Message: "too many failed login attempts, try again later"}
	case errors.Is(err, domain.ErrForbidden):
		// The ForbiddenError variant names the missing capability.
		return http.StatusForbidden, errorResponse{Error: codeForbidden, Message: err.Error()}
	case errors.Is(err, domain.ErrIncidentClosed):
		return http.StatusBadRequest, errorResponse{Error: codeBadTransition, Message: "incident is closed and accepts no further changes"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, errorResponse{Error: codeBadTransition, Message: err.Error()}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: codeValidation, Message: err.Error()}
	case errors.Is(err, domain.ErrAreaInUse):
		return http.StatusConflict, errorResponse{Error: codeAreaInUse, Message: "area is referenced by existing incidents"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: codeConflict, Message: "a user with that email already exists"}
	case errors.Is(err, domain.ErrAreaExists):
		return http.StatusConflict, errorResponse{Error: codeConflict, Message: "an area with that name already exists"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: codeNotFound, Message: "user not found"}
	case errors.Is(err, domain.ErrIncidentNotFound):
		return http.StatusNotFound, errorResponse{Error: codeNotFound, Message: "incident not found"}
	case errors.Is(err, domain.ErrAreaNotFound):
		return http.StatusNotFound, errorResponse{Error: codeNotFound, Message: "area not found"}
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, errorResponse{Error: codeNotFound, Message: "notification not found"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: codeInternal, Message: "internal server error"}
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

// RequireCapability rejects the request unless the actor's role holds every
// listed capability. Scope checks (assigned-to-me) stay in the service layer;
// this gate only covers what the static role table can answer.
func RequireCapability(caps ...domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			for _, capability := range caps {
				if !domain.HasPermission(actor.Role, capability) {
					return domain.Forbidden(capability)
				}
			}
			return next(c)
		}
	}
}

// RequireAny rejects the request unless the actor's role holds at least one of
// the listed capabilities. The first capability names the failure.
func RequireAny(caps ...domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			if !domain.HasAny(actor.Role, caps...) {
				return domain.Forbidden(caps[0])
			}
			return next(c)
		}
	}
}

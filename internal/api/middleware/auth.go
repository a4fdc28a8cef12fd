// Package middleware holds the authentication and capability gates.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

const actorContextKey = "actor"

// Auth validates the bearer token and injects the resolved actor into the
// request context. The user is re-read from the store on every request so a
// role change or deletion takes effect immediately, not at token expiry.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := auth.ParseToken(token)
			if err != nil {
				return err
			}

			user, err := auth.ResolveUser(c.Request().Context(), claims.UserID)
			if err != nil {
				// A deleted user's still-valid token must not authenticate.
				return domain.ErrTokenInvalid
			}

			c.Set(actorContextKey, domain.Actor{UserID: user.ID, Role: user.Role})
			c.Set("user", user)

			return next(c)
		}
	}
}

// OptionalAuth resolves the actor when a bearer token is present but lets the
// request through anonymously when it is not. Registration uses this: the very
// first account is created without credentials, every later one by an admin.
// A token that is present but invalid is still rejected.
func OptionalAuth(auth ports.AuthService) echo.MiddlewareFunc {
	authn := Auth(auth)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return authn(next)(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		// Browser websocket clients cannot set request headers, so the
		// handshake may carry the token as a query parameter instead.
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", domain.ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", domain.ErrTokenInvalid
	}
	return parts[1], nil
}

// Actor extracts the actor injected by Auth. The zero Actor is returned when
// the middleware did not run.
func Actor(c echo.Context) domain.Actor {
	actor, _ := c.Get(actorContextKey).(domain.Actor)
	return actor
}

// CurrentUser extracts the full user record injected by Auth.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get("user").(*domain.User)
	return user
}

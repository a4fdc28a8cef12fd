package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/api/middleware"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// LoginThrottle limits failed login attempts per client IP.
type LoginThrottle interface {
	Blocked(ctx context.Context, ip string) bool
	RecordFailure(ctx context.Context, ip string)
	Reset(ctx context.Context, ip string)
}

type AuthHandler struct {
	auth     ports.AuthService
	throttle LoginThrottle
}

func NewAuthHandler(auth ports.AuthService, throttle LoginThrottle) *AuthHandler {
	return &AuthHandler{auth: auth, throttle: throttle}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin support end_user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), middleware.Actor(c), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ip := c.RealIP()
	if h.throttle != nil && h.throttle.Blocked(c.Request().Context(), ip) {
		return domain.ErrTooManyAttempts
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if h.throttle != nil {
			h.throttle.RecordFailure(c.Request().Context(), ip)
		}
		return err
	}
	if h.throttle != nil {
		h.throttle.Reset(c.Request().Context(), ip)
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Verify returns the authenticated user for the presented token.
//
// @Summary      Verify the current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	return c.JSON(http.StatusOK, authResponse{User: middleware.CurrentUser(c)})
}

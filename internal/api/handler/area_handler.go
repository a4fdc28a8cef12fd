package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/api/middleware"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

type AreaHandler struct {
	areas ports.AreaService
}

func NewAreaHandler(areas ports.AreaService) *AreaHandler {
	return &AreaHandler{areas: areas}
}

type areaRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Color       string `json:"color,omitempty" validate:"omitempty,max=20"`
}

// updateAreaRequest distinguishes omitted fields from fields set to the empty
// string, so a description or color can be cleared.
type updateAreaRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=20"`
}

// List returns all areas. Readable by any authenticated user, so the incident
// form can offer them.
//
// @Summary      List areas
// @Tags         areas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Area
// @Router       /areas [get]
func (h *AreaHandler) List(c echo.Context) error {
	areas, err := h.areas.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, areas)
}

// Create adds a new area.
//
// @Summary      Create an area
// @Tags         areas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      areaRequest  true  "Area details"
// @Success      201   {object}  domain.Area
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /areas [post]
func (h *AreaHandler) Create(c echo.Context) error {
	var req areaRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	area, err := h.areas.Create(c.Request().Context(), middleware.Actor(c), ports.AreaInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, area)
}

// Update edits an area.
//
// @Summary      Update an area
// @Tags         areas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Area id"
// @Param        body  body      updateAreaRequest  true  "Fields to update"
// @Success      200   {object}  domain.Area
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /areas/{id} [put]
func (h *AreaHandler) Update(c echo.Context) error {
	var req updateAreaRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	area, err := h.areas.Update(c.Request().Context(), middleware.Actor(c), c.Param("id"), ports.UpdateAreaInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, area)
}

// Delete removes an area that no incident references.
//
// @Summary      Delete an area
// @Tags         areas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Area id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /areas/{id} [delete]
func (h *AreaHandler) Delete(c echo.Context) error {
	if err := h.areas.Delete(c.Request().Context(), middleware.Actor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

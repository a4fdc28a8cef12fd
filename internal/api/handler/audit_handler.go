package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

type AuditHandler struct {
	audit ports.AuditService
}

func NewAuditHandler(audit ports.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditListResponse struct {
	Items []*domain.AuditRecord `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// List returns a filtered page of audit records. The route carries the
// audit:read capability gate.
//
// @Summary      List audit records
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        user_id    query  string  false  "Filter by acting user"
// @Param        action     query  string  false  "Filter by action tag"
// @Param        entity     query  string  false  "Filter by entity collection"
// @Param        date_from  query  string  false  "At or after (RFC 3339 or YYYY-MM-DD)"
// @Param        date_to    query  string  false  "At or before"
// @Param        page       query  int     false  "Page (1-based)"
// @Param        limit      query  int     false  "Page size (max 100)"
// @Success      200  {object}  auditListResponse
// @Failure      403  {object}  map[string]string
// @Router       /audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := ports.AuditFilter{
		UserID:   c.QueryParam("user_id"),
		Action:   c.QueryParam("action"),
		Entity:   c.QueryParam("entity"),
		DateFrom: parseDate(c.QueryParam("date_from")),
		DateTo:   parseDate(c.QueryParam("date_to")),
		Page:     page,
		Limit:    limit,
	}

	records, total, err := h.audit.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*domain.AuditRecord{}
	}
	return c.JSON(http.StatusOK, auditListResponse{Items: records, Total: total, Page: filter.Page, Limit: filter.Limit})
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/api/middleware"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
	"github.com/mesadeayuda/incident-system/internal/storage"
)

type IncidentHandler struct {
	incidents   ports.IncidentService
	attachments *storage.AttachmentStore
}

func NewIncidentHandler(incidents ports.IncidentService, attachments *storage.AttachmentStore) *IncidentHandler {
	return &IncidentHandler{incidents: incidents, attachments: attachments}
}

// Create files a new incident. The request is multipart so an attachment can
// ride along; the file is written before the insert and removed again if the
// insert fails.
//
// @Summary      Create an incident
// @Tags         incidents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        subject      formData  string  true   "Short summary"
// @Param        description  formData  string  true   "Full description"
// @Param        area         formData  string  true   "Area name or id"
// @Param        priority     formData  string  true   "Low, Medium, High or Critical"
// @Param        tags         formData  string  false  "Comma-separated tags"
// @Param        assigned_to  formData  string  false  "Comma-separated support user ids"
// @Param        attachment   formData  file    false  "Optional attachment"
// @Success      201  {object}  domain.Incident
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /incidents [post]
func (h *IncidentHandler) Create(c echo.Context) error {
	var form createIncidentForm
	if err := c.Bind(&form); err != nil {
		return domain.Invalid("body", "is not a valid form")
	}
	if err := c.Validate(&form); err != nil {
		return err
	}

	var attachmentPath string
	if fh, err := c.FormFile("attachment"); err == nil && fh != nil {
		attachmentPath, err = h.attachments.Save(fh)
		if err != nil {
			return err
		}
	}

	inc, err := h.incidents.Create(c.Request().Context(), middleware.Actor(c), form.toInput(attachmentPath))
	if err != nil {
		// The stored file must not outlive the failed insert.
		_ = h.attachments.Remove(attachmentPath)
		return err
	}

	return c.JSON(http.StatusCreated, inc)
}

// List returns a visibility-filtered page of incidents.
//
// @Summary      List incidents
// @Tags         incidents
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "Filter by lifecycle status"
// @Param        priority   query  string  false  "Filter by priority"
// @Param        area       query  string  false  "Filter by area"
// @Param        tag        query  string  false  "Filter by tag"
// @Param        search     query  string  false  "Partial subject match"
// @Param        date_from  query  string  false  "Created at or after (RFC 3339 or YYYY-MM-DD)"
// @Param        date_to    query  string  false  "Created at or before"
// @Param        page       query  int     false  "Page (1-based)"
// @Param        limit      query  int     false  "Page size (max 100)"
// @Success      200  {object}  listIncidentsResponse
// @Router       /incidents [get]
func (h *IncidentHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.incidents.List(c.Request().Context(), middleware.Actor(c), ports.ListIncidentsFilter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		Area:     c.QueryParam("area"),
		Tag:      c.QueryParam("tag"),
		Search:   c.QueryParam("search"),
		DateFrom: parseDate(c.QueryParam("date_from")),
		DateTo:   parseDate(c.QueryParam("date_to")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listIncidentsResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Get returns a single incident, subject to the viewer's visibility.
//
// @Summary      Get an incident
// @Tags         incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Incident id"
// @Success      200  {object}  domain.Incident
// @Failure      404  {object}  map[string]string
// @Router       /incidents/{id} [get]
func (h *IncidentHandler) Get(c echo.Context) error {
	inc, err := h.incidents.Get(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inc)
}

// Update edits the incident's descriptive fields.
//
// @Summary      Update an incident
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "Incident id"
// @Param        body  body  updateIncidentRequest  true  "Fields to update"
// @Success      200  {object}  domain.Incident
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /incidents/{id} [patch]
func (h *IncidentHandler) Update(c echo.Context) error {
	var req updateIncidentRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	inc, err := h.incidents.Update(c.Request().Context(), middleware.Actor(c), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inc)
}

// ChangeStatus drives the lifecycle state machine.
//
// @Summary      Change incident status
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string               true  "Incident id"
// @Param        body  body  changeStatusRequest  true  "Target status, with solution when resolving"
// @Success      200  {object}  domain.Incident
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /incidents/{id}/estado [patch]
func (h *IncidentHandler) ChangeStatus(c echo.Context) error {
	var req changeStatusRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	inc, err := h.incidents.ChangeStatus(c.Request().Context(), middleware.Actor(c), c.Param("id"), ports.ChangeStatusInput{
		Status:   domain.IncidentStatus(req.Status),
		Solution: req.Solution,
		Comment:  req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inc)
}

// Assign replaces the incident's assignee set.
//
// @Summary      Assign an incident
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string         true  "Incident id"
// @Param        body  body  assignRequest  true  "Replacement assignee set"
// @Success      200  {object}  domain.Incident
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /incidents/{id}/asignar [patch]
func (h *IncidentHandler) Assign(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}

	inc, err := h.incidents.Assign(c.Request().Context(), middleware.Actor(c), c.Param("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inc)
}

// ListComments returns the incident's discussion thread.
//
// @Summary      List incident comments
// @Tags         incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Incident id"
// @Success      200  {array}   domain.Comment
// @Failure      404  {object}  map[string]string
// @Router       /incidents/{id}/comentarios [get]
func (h *IncidentHandler) ListComments(c echo.Context) error {
	comments, err := h.incidents.ListComments(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return c.JSON(http.StatusOK, comments)
}

// AddComment appends to the incident's discussion thread.
//
// @Summary      Comment on an incident
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "Incident id"
// @Param        body  body  addCommentRequest  true  "Comment text"
// @Success      201  {object}  domain.Incident
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /incidents/{id}/comentarios [post]
func (h *IncidentHandler) AddComment(c echo.Context) error {
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	inc, err := h.incidents.AddComment(c.Request().Context(), middleware.Actor(c), c.Param("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inc)
}

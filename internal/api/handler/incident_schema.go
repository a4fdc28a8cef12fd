package handler

import (
	"strings"
	"time"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// createIncidentForm is bound from the multipart form; the attachment part is
// read separately from the request.
type createIncidentForm struct {
	Subject     string `form:"subject" validate:"required,max=200"`
	Description string `form:"description" validate:"required,max=5000"`
	Area        string `form:"area" validate:"required"`
	Priority    string `form:"priority" validate:"required,oneof=Low Medium High Critical"`
	Tags        string `form:"tags"`        // comma-separated
	AssignedTo  string `form:"assigned_to"` // comma-separated user ids
}

func (f createIncidentForm) toInput(attachmentPath string) ports.CreateIncidentInput {
	return ports.CreateIncidentInput{
		Subject:        f.Subject,
		Description:    f.Description,
		Area:           f.Area,
		Priority:       domain.IncidentPriority(f.Priority),
		Tags:           splitCSV(f.Tags),
		AssignedTo:     splitCSV(f.AssignedTo),
		AttachmentPath: attachmentPath,
	}
}

type updateIncidentRequest struct {
	Subject     *string   `json:"subject,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority    *string   `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High Critical"`
	Area        *string   `json:"area,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (r updateIncidentRequest) toInput() ports.UpdateIncidentInput {
	input := ports.UpdateIncidentInput{
		Subject:     r.Subject,
		Description: r.Description,
		Area:        r.Area,
		Tags:        r.Tags,
	}
	if r.Priority != nil {
		p := domain.IncidentPriority(*r.Priority)
		input.Priority = &p
	}
	return input
}

type changeStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Solution string `json:"solution,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

type assignRequest struct {
	AssignedTo []string `json:"assigned_to"`
}

type addCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type listIncidentsResponse struct {
	Items      []*domain.Incident `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

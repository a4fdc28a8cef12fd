package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
	"github.com/mesadeayuda/incident-system/internal/storage"
)

type stubIncidentService struct {
	createFn       func(ctx context.Context, actor domain.Actor, input ports.CreateIncidentInput) (*domain.Incident, error)
	listFn         func(ctx context.Context, viewer domain.Actor, filter ports.ListIncidentsFilter) (*ports.ListIncidentsResult, error)
	changeStatusFn func(ctx context.Context, actor domain.Actor, id string, input ports.ChangeStatusInput) (*domain.Incident, error)
	assignFn       func(ctx context.Context, actor domain.Actor, id string, assignees []string) (*domain.Incident, error)
	addCommentFn   func(ctx context.Context, actor domain.Actor, id, text string) (*domain.Incident, error)
}

func (s *stubIncidentService) Create(ctx context.Context, actor domain.Actor, input ports.CreateIncidentInput) (*domain.Incident, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubIncidentService) Get(ctx context.Context, viewer domain.Actor, id string) (*domain.Incident, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIncidentService) List(ctx context.Context, viewer domain.Actor, filter ports.ListIncidentsFilter) (*ports.ListIncidentsResult, error) {
	return s.listFn(ctx, viewer, filter)
}

func (s *stubIncidentService) Update(ctx context.Context, actor domain.Actor, id string, input ports.UpdateIncidentInput) (*domain.Incident, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIncidentService) ChangeStatus(ctx context.Context, actor domain.Actor, id string, input ports.ChangeStatusInput) (*domain.Incident, error) {
	return s.changeStatusFn(ctx, actor, id, input)
}

func (s *stubIncidentService) Assign(ctx context.Context, actor domain.Actor, id string, assignees []string) (*domain.Incident, error) {
	return s.assignFn(ctx, actor, id, assignees)
}

func (s *stubIncidentService) AddComment(ctx context.Context, actor domain.Actor, id, text string) (*domain.Incident, error) {
	return s.addCommentFn(ctx, actor, id, text)
}

func (s *stubIncidentService) ListComments(ctx context.Context, viewer domain.Actor, id string) ([]domain.Comment, error) {
	return nil, nil
}

func (s *stubIncidentService) AutoClose(ctx context.Context, id string) error { return nil }

func (s *stubIncidentService) CloseOverdue(ctx context.Context) (int, error) { return 0, nil }

func testStore(t *testing.T) *storage.AttachmentStore {
	t.Helper()
	store, err := storage.NewAttachmentStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("attachment store: %v", err)
	}
	return store
}

func multipartContext(t *testing.T, fields map[string]string, fileField, fileName, fileContent string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(fileContent)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/incidents", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("actor", domain.Actor{UserID: "u1", Role: domain.RoleEndUser})
	return c, rec
}

func validIncidentFields() map[string]string {
	return map[string]string{
		"subject":     "Printer on fire",
		"description": "The office printer is actually on fire.",
		"area":        "Facilities",
		"priority":    "High",
		"tags":        "hardware, urgent",
	}
}

func TestIncidentHandler_Create_WithAttachment(t *testing.T) {
	store := testStore(t)
	var got ports.CreateIncidentInput
	stub := &stubIncidentService{
		createFn: func(ctx context.Context, actor domain.Actor, input ports.CreateIncidentInput) (*domain.Incident, error) {
			got = input
			return &domain.Incident{ID: "i1", Subject: input.Subject}, nil
		},
	}
	h := NewIncidentHandler(stub, store)

	c, rec := multipartContext(t, validIncidentFields(), "attachment", "report.pdf", "pdf-bytes")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.Subject != "Printer on fire" || got.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected input: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "hardware" || got.Tags[1] != "urgent" {
		t.Fatalf("tags not split: %+v", got.Tags)
	}
	if got.AttachmentPath == "" {
		t.Fatalf("attachment path not forwarded")
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), got.AttachmentPath)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}

func TestIncidentHandler_Create_CleansUpOnFailure(t *testing.T) {
	store := testStore(t)
	stub := &stubIncidentService{
		createFn: func(ctx context.Context, actor domain.Actor, input ports.CreateIncidentInput) (*domain.Incident, error) {
			return nil, domain.ErrAreaNotFound
		},
	}
	h := NewIncidentHandler(stub, store)

	c, _ := multipartContext(t, validIncidentFields(), "attachment", "report.pdf", "pdf-bytes")

	if err := h.Create(c); !errors.Is(err, domain.ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("orphaned attachment left behind: %v", entries)
	}
}

func TestIncidentHandler_Create_InvalidPriority(t *testing.T) {
	stub := &stubIncidentService{
		createFn: func(ctx context.Context, actor domain.Actor, input ports.CreateIncidentInput) (*domain.Incident, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewIncidentHandler(stub, testStore(t))

	fields := validIncidentFields()
	fields["priority"] = "Urgent"
	c, _ := multipartContext(t, fields, "", "", "")

	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIncidentHandler_List_MapsQuery(t *testing.T) {
	var got ports.ListIncidentsFilter
	stub := &stubIncidentService{
		listFn: func(ctx context.Context, viewer domain.Actor, filter ports.ListIncidentsFilter) (*ports.ListIncidentsResult, error) {
			got = filter
			return &ports.ListIncidentsResult{Items: []*domain.Incident{}, Page: filter.Page, Limit: filter.Limit}, nil
		},
	}
	h := NewIncidentHandler(stub, testStore(t))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/incidents?status=pending&priority=High&tag=network&search=vpn&page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("actor", domain.Actor{UserID: "s1", Role: domain.RoleSupport})

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Status != "pending" || got.Priority != "High" || got.Tag != "network" || got.Search != "vpn" {
		t.Fatalf("filter not mapped: %+v", got)
	}
	if got.Page != 2 || got.Limit != 5 {
		t.Fatalf("pagination not mapped: %+v", got)
	}
}

func TestIncidentHandler_ChangeStatus(t *testing.T) {
	var got ports.ChangeStatusInput
	stub := &stubIncidentService{
		changeStatusFn: func(ctx context.Context, actor domain.Actor, id string, input ports.ChangeStatusInput) (*domain.Incident, error) {
			if id != "i1" {
				t.Fatalf("unexpected id %s", id)
			}
			got = input
			return &domain.Incident{ID: id, Status: input.Status}, nil
		},
	}
	h := NewIncidentHandler(stub, testStore(t))

	c, rec := jsonContext(t, http.MethodPatch, "/incidents/i1/estado",
		`{"status":"resolved","solution":"Replaced the toner","comment":"done"}`)
	c.SetParamNames("id")
	c.SetParamValues("i1")
	c.Set("actor", domain.Actor{UserID: "s1", Role: domain.RoleSupport})

	if err := h.ChangeStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Status != domain.StatusResolved || got.Solution != "Replaced the toner" || got.Comment != "done" {
		t.Fatalf("input not mapped: %+v", got)
	}
}

func TestIncidentHandler_Assign(t *testing.T) {
	stub := &stubIncidentService{
		assignFn: func(ctx context.Context, actor domain.Actor, id string, assignees []string) (*domain.Incident, error) {
			if len(assignees) != 2 || assignees[0] != "s1" || assignees[1] != "s2" {
				t.Fatalf("unexpected assignees: %+v", assignees)
			}
			return &domain.Incident{ID: id, AssignedTo: assignees}, nil
		},
	}
	h := NewIncidentHandler(stub, testStore(t))

	c, rec := jsonContext(t, http.MethodPatch, "/incidents/i1/asignar",
		`{"assigned_to":["s1","s2"]}`)
	c.SetParamNames("id")
	c.SetParamValues("i1")
	c.Set("actor", domain.Actor{UserID: "a1", Role: domain.RoleAdmin})

	if err := h.Assign(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIncidentHandler_AddComment(t *testing.T) {
	stub := &stubIncidentService{
		addCommentFn: func(ctx context.Context, actor domain.Actor, id, text string) (*domain.Incident, error) {
			if text != "Any update on this?" {
				t.Fatalf("unexpected text %q", text)
			}
			return &domain.Incident{ID: id}, nil
		},
	}
	h := NewIncidentHandler(stub, testStore(t))

	c, rec := jsonContext(t, http.MethodPost, "/incidents/i1/comentarios",
		`{"text":"Any update on this?"}`)
	c.SetParamNames("id")
	c.SetParamValues("i1")
	c.Set("actor", domain.Actor{UserID: "u1", Role: domain.RoleEndUser})

	if err := h.AddComment(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

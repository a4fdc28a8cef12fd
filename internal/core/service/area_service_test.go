package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

type areaFixture struct {
	svc       *AreaService
	areas     *stubAreaRepo
	incidents *stubIncidentRepo
	audit     *stubAuditRepo
	notifier  *recordingDispatcher

	admin domain.Actor
	user  domain.Actor
}

func newAreaFixture() *areaFixture {
	f := &areaFixture{
		areas:     newStubAreaRepo(),
		incidents: newStubIncidentRepo(),
		audit:     &stubAuditRepo{},
		notifier:  &recordingDispatcher{},
	}
	f.admin = domain.Actor{UserID: "u1", Role: domain.RoleAdmin}
	f.user = domain.Actor{UserID: "u2", Role: domain.RoleEndUser}
	f.svc = NewAreaService(f.areas, f.incidents, NewAuditService(f.audit, zerolog.Nop()), f.notifier, zerolog.Nop())
	return f
}

func TestAreaCreate_AdminOnly(t *testing.T) {
	f := newAreaFixture()

	created, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: " Networking ", Color: "#ff8800"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Networking" || created.Color != "#ff8800" {
		t.Fatalf("created = %+v", created)
	}
	if !f.notifier.has(string(domain.NotifAreaCreated) + ":Networking") {
		t.Fatalf("area creation must notify admins")
	}

	_, err = f.svc.Create(context.Background(), f.user, ports.AreaInput{Name: "Facilities"})
	var fe *domain.ForbiddenError
	if !errors.As(err, &fe) || fe.Capability != domain.CapAreasManage {
		t.Fatalf("expected forbidden naming %s, got %v", domain.CapAreasManage, err)
	}
}

func TestAreaCreate_DuplicateName(t *testing.T) {
	f := newAreaFixture()
	if _, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: "Networking"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: "Networking"}); !errors.Is(err, domain.ErrAreaExists) {
		t.Fatalf("expected ErrAreaExists, got %v", err)
	}
}

func TestAreaDelete_BlockedWhileReferenced(t *testing.T) {
	f := newAreaFixture()
	area, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: "Networking"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.incidents.Create(context.Background(), &domain.Incident{
		Subject: "VPN down", Area: "Networking", Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed incident: %v", err)
	}

	if err := f.svc.Delete(context.Background(), f.admin, area.ID); !errors.Is(err, domain.ErrAreaInUse) {
		t.Fatalf("expected ErrAreaInUse, got %v", err)
	}
	if _, err := f.areas.FindByID(context.Background(), area.ID); err != nil {
		t.Fatalf("blocked delete must leave the area intact: %v", err)
	}
}

func TestAreaDelete_AuditedCritical(t *testing.T) {
	f := newAreaFixture()
	area, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: "Networking"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Delete(context.Background(), f.admin, area.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.areas.FindByID(context.Background(), area.ID); !errors.Is(err, domain.ErrAreaNotFound) {
		t.Fatalf("area still present after delete")
	}

	var deleted *domain.AuditRecord
	for _, rec := range f.audit.records {
		if rec.Action == domain.AuditAreaDeleted {
			deleted = rec
		}
	}
	if deleted == nil || deleted.Priority != domain.AuditCritical {
		t.Fatalf("area deletion must be audited as critical, got %+v", deleted)
	}
	if !f.notifier.has(string(domain.NotifAreaDeleted) + ":Networking") {
		t.Fatalf("area deletion must notify admins")
	}
}

func TestAreaUpdate(t *testing.T) {
	f := newAreaFixture()
	area, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: "Networking"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.Update(context.Background(), f.admin, area.ID, ports.UpdateAreaInput{Description: strPtr("switches and links"), Color: strPtr("#00aaff")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Networking" || updated.Description != "switches and links" || updated.Color != "#00aaff" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := f.svc.Update(context.Background(), f.admin, area.ID, ports.UpdateAreaInput{Name: strPtr("  ")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank name must be rejected, got %v", err)
	}

	if _, err := f.svc.Update(context.Background(), f.admin, "missing", ports.UpdateAreaInput{Name: strPtr("X")}); !errors.Is(err, domain.ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestAreaUpdate_ClearsOptionalFields(t *testing.T) {
	f := newAreaFixture()
	area, err := f.svc.Create(context.Background(), f.admin, ports.AreaInput{Name: "Networking", Description: "switches and links", Color: "#00aaff"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Omitted fields stay put.
	kept, err := f.svc.Update(context.Background(), f.admin, area.ID, ports.UpdateAreaInput{Name: strPtr("Network")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if kept.Description != "switches and links" || kept.Color != "#00aaff" {
		t.Fatalf("omitted fields changed: %+v", kept)
	}

	// Fields sent as the empty string are cleared.
	cleared, err := f.svc.Update(context.Background(), f.admin, area.ID, ports.UpdateAreaInput{Description: strPtr(""), Color: strPtr("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cleared.Description != "" || cleared.Color != "" {
		t.Fatalf("empty values must clear the fields: %+v", cleared)
	}
	if cleared.Name != "Network" {
		t.Fatalf("name changed unexpectedly: %+v", cleared)
	}
}

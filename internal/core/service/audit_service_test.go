package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

func TestRecord_Defaults(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	svc.Record(context.Background(), ports.AuditEntry{
		Action: domain.AuditIncidentAutoClosed,
		Entity: "incidents",
	})

	if len(repo.records) != 1 {
		t.Fatalf("records = %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.UserID != domain.SystemActorID {
		t.Errorf("empty actor must normalize to %q, got %q", domain.SystemActorID, rec.UserID)
	}
	if rec.EntityID != unknownEntityID {
		t.Errorf("empty entity id must normalize to %q, got %q", unknownEntityID, rec.EntityID)
	}
	if rec.Priority != domain.AuditNormal {
		t.Errorf("priority defaulted to %q", rec.Priority)
	}
	if rec.At.IsZero() {
		t.Errorf("timestamp not set")
	}
}

func TestRecord_SwallowsStorageFailure(t *testing.T) {
	repo := &stubAuditRepo{fail: errStoreDown}
	svc := NewAuditService(repo, zerolog.Nop())

	// Must return normally; the caller's operation already committed.
	svc.Record(context.Background(), ports.AuditEntry{
		Actor:  domain.Actor{UserID: "u1", Role: domain.RoleAdmin},
		Action: domain.AuditUserDeleted,
		Entity: "users",
	})

	if len(repo.records) != 0 {
		t.Fatalf("nothing should have been stored")
	}
}

func TestList_FiltersAndClamps(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	svc.Record(context.Background(), ports.AuditEntry{Actor: domain.Actor{UserID: "u1"}, Action: domain.AuditLogin, Entity: "users", EntityID: "u1"})
	svc.Record(context.Background(), ports.AuditEntry{Actor: domain.Actor{UserID: "u2"}, Action: domain.AuditLogin, Entity: "users", EntityID: "u2"})
	svc.Record(context.Background(), ports.AuditEntry{Actor: domain.Actor{UserID: "u1"}, Action: domain.AuditIncidentCreated, Entity: "incidents", EntityID: "i1"})

	records, total, err := svc.List(context.Background(), ports.AuditFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Fatalf("filtered total = %d (%d records), want 2", total, len(records))
	}

	records, _, err = svc.List(context.Background(), ports.AuditFilter{Action: domain.AuditIncidentCreated})
	if err != nil || len(records) != 1 || records[0].EntityID != "i1" {
		t.Fatalf("action filter: %+v %v", records, err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// In-memory stand-ins for the Mongo repositories, mirroring their contracts
// closely enough that the services under test cannot tell the difference.

type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) addUser(name, email, role string) *domain.User {
	u, _ := r.Create(context.Background(), &domain.User{Name: name, Email: email, Role: role, PasswordHash: "x"})
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := *user
	clone.ID = fmt.Sprintf("u%d", r.seq)
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) ListByRoles(_ context.Context, roles ...string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				clone := *u
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type stubIncidentRepo struct {
	mu        sync.Mutex
	seq       int
	incidents map[string]*domain.Incident
}

func newStubIncidentRepo() *stubIncidentRepo {
	return &stubIncidentRepo{incidents: make(map[string]*domain.Incident)}
}

func cloneIncident(i *domain.Incident) *domain.Incident {
	clone := *i
	clone.AssignedTo = append([]string(nil), i.AssignedTo...)
	clone.History = append([]domain.HistoryEntry(nil), i.History...)
	clone.Comments = append([]domain.Comment(nil), i.Comments...)
	clone.Tags = append([]string(nil), i.Tags...)
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		clone.ResolvedAt = &t
	}
	return &clone
}

func (r *stubIncidentRepo) Create(_ context.Context, inc *domain.Incident) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := cloneIncident(inc)
	clone.ID = fmt.Sprintf("i%d", r.seq)
	r.incidents[clone.ID] = clone
	return cloneIncident(clone), nil
}

func (r *stubIncidentRepo) FindByID(_ context.Context, id string) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return nil, domain.ErrIncidentNotFound
	}
	return cloneIncident(inc), nil
}

func visibleTo(inc *domain.Incident, viewer domain.Actor) bool {
	if viewer.Role != domain.RoleSupport {
		return true
	}
	return inc.Unassigned() || inc.AssignedToUser(viewer.UserID)
}

func (r *stubIncidentRepo) FindVisible(_ context.Context, id string, viewer domain.Actor) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok || !visibleTo(inc, viewer) {
		return nil, domain.ErrIncidentNotFound
	}
	return cloneIncident(inc), nil
}

func (r *stubIncidentRepo) List(_ context.Context, filter ports.ListIncidentsFilter) ([]*domain.Incident, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Incident
	for _, inc := range r.incidents {
		if !visibleTo(inc, filter.Viewer) {
			continue
		}
		if filter.Status != "" && string(inc.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(inc.Priority) != filter.Priority {
			continue
		}
		if filter.Area != "" && inc.Area != filter.Area {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(inc.Subject), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, cloneIncident(inc))
	}
	return out, int64(len(out)), nil
}

func (r *stubIncidentRepo) Update(_ context.Context, id string, fields ports.UpdateIncidentFields, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return domain.ErrIncidentNotFound
	}
	if fields.Subject != nil {
		inc.Subject = *fields.Subject
	}
	if fields.Description != nil {
		inc.Description = *fields.Description
	}
	if fields.Priority != nil {
		inc.Priority = *fields.Priority
	}
	if fields.Area != nil {
		inc.Area = *fields.Area
	}
	if fields.Tags != nil {
		inc.Tags = append([]string(nil), *fields.Tags...)
	}
	inc.History = append(inc.History, entry)
	inc.UpdatedAt = entry.Timestamp
	return nil
}

func (r *stubIncidentRepo) SetStatus(_ context.Context, id string, from, to domain.IncidentStatus, entry domain.HistoryEntry, solution string, resolvedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return false, domain.ErrIncidentNotFound
	}
	if inc.Status != from {
		return false, nil
	}
	inc.Status = to
	if solution != "" {
		inc.Solution = solution
	}
	if resolvedAt != nil {
		t := *resolvedAt
		inc.ResolvedAt = &t
	}
	inc.History = append(inc.History, entry)
	inc.UpdatedAt = entry.Timestamp
	return true, nil
}

func (r *stubIncidentRepo) SetAssignees(_ context.Context, id string, assignees []string, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return domain.ErrIncidentNotFound
	}
	inc.AssignedTo = append([]string(nil), assignees...)
	inc.History = append(inc.History, entry)
	inc.UpdatedAt = entry.Timestamp
	return nil
}

func (r *stubIncidentRepo) AddComment(_ context.Context, id string, comment domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return domain.ErrIncidentNotFound
	}
	inc.Comments = append(inc.Comments, comment)
	return nil
}

func (r *stubIncidentRepo) CountByArea(_ context.Context, area string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inc := range r.incidents {
		if inc.Area == area {
			n++
		}
	}
	return n, nil
}

func (r *stubIncidentRepo) FindOverdueResolved(_ context.Context, cutoff time.Time) ([]*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Incident
	for _, inc := range r.incidents {
		if inc.Status == domain.StatusResolved && inc.ResolvedAt != nil && !inc.ResolvedAt.After(cutoff) {
			out = append(out, cloneIncident(inc))
		}
	}
	return out, nil
}

type stubAreaRepo struct {
	mu    sync.Mutex
	seq   int
	areas map[string]*domain.Area
}

func newStubAreaRepo() *stubAreaRepo {
	return &stubAreaRepo{areas: make(map[string]*domain.Area)}
}

func (r *stubAreaRepo) addArea(name string) *domain.Area {
	a, _ := r.Create(context.Background(), &domain.Area{Name: name})
	return a
}

func (r *stubAreaRepo) Create(_ context.Context, area *domain.Area) (*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.areas {
		if a.Name == area.Name {
			return nil, domain.ErrAreaExists
		}
	}
	r.seq++
	clone := *area
	clone.ID = fmt.Sprintf("a%d", r.seq)
	r.areas[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubAreaRepo) FindByID(_ context.Context, id string) (*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.areas[id]
	if !ok {
		return nil, domain.ErrAreaNotFound
	}
	out := *a
	return &out, nil
}

func (r *stubAreaRepo) FindByName(_ context.Context, name string) (*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.areas {
		if a.Name == name {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrAreaNotFound
}

func (r *stubAreaRepo) List(_ context.Context) ([]*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Area, 0, len(r.areas))
	for _, a := range r.areas {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubAreaRepo) Update(_ context.Context, area *domain.Area) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.areas[area.ID]; !ok {
		return domain.ErrAreaNotFound
	}
	clone := *area
	r.areas[area.ID] = &clone
	return nil
}

func (r *stubAreaRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.areas[id]; !ok {
		return domain.ErrAreaNotFound
	}
	delete(r.areas, id)
	return nil
}

type stubNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications map[string]*domain.Notification
	failInsert    error
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{notifications: make(map[string]*domain.Notification)}
}

func (r *stubNotificationRepo) byRecipient(recipientID string) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out
}

func (r *stubNotificationRepo) Insert(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert != nil {
		return nil, r.failInsert
	}
	r.seq++
	clone := *n
	clone.ID = fmt.Sprintf("n%d", r.seq)
	r.notifications[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubNotificationRepo) ListByRecipient(_ context.Context, recipientID string, _ int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byRecipient(recipientID), nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id, recipientID string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, domain.ErrNotificationNotFound
	}
	n.Read = true
	out := *n
	return &out, nil
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notif := range r.notifications {
		if notif.RecipientID == recipientID && !notif.Read {
			notif.Read = true
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) UnreadCount(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notif := range r.notifications {
		if notif.RecipientID == recipientID && !notif.Read {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) Delete(_ context.Context, id, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return domain.ErrNotificationNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *stubNotificationRepo) DeleteByRecipient(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, notif := range r.notifications {
		if notif.RecipientID == recipientID {
			delete(r.notifications, id)
			n++
		}
	}
	return n, nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	records []*domain.AuditRecord
	fail    error
}

func (r *stubAuditRepo) Insert(_ context.Context, rec *domain.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	clone := *rec
	r.records = append(r.records, &clone)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, filter ports.AuditFilter) ([]*domain.AuditRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditRecord
	for _, rec := range r.records {
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}
		if filter.Entity != "" && rec.Entity != filter.Entity {
			continue
		}
		clone := *rec
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Action)
	}
	return out
}

// recordingDispatcher captures dispatcher invocations for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []string
}

func (d *recordingDispatcher) add(e string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) IncidentCreated(_ context.Context, inc *domain.Incident, _ domain.Actor) {
	d.add("created:" + inc.ID)
}

func (d *recordingDispatcher) IncidentStatusChanged(_ context.Context, inc *domain.Incident, _ domain.Actor, from, to domain.IncidentStatus) {
	d.add(fmt.Sprintf("status:%s:%s->%s", inc.ID, from, to))
}

func (d *recordingDispatcher) IncidentResolved(_ context.Context, inc *domain.Incident, _ domain.Actor) {
	d.add("resolved:" + inc.ID)
}

func (d *recordingDispatcher) IncidentAssigned(_ context.Context, inc *domain.Incident, _ domain.Actor, newAssignees []string) {
	d.add("assigned:" + inc.ID + ":" + strings.Join(newAssignees, ","))
}

func (d *recordingDispatcher) UserEvent(_ context.Context, typ domain.NotificationType, user *domain.User, _ domain.Actor) {
	d.add(string(typ) + ":" + user.ID)
}

func (d *recordingDispatcher) AreaEvent(_ context.Context, typ domain.NotificationType, area *domain.Area, _ domain.Actor) {
	d.add(string(typ) + ":" + area.Name)
}

func (d *recordingDispatcher) has(event string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.events {
		if e == event {
			return true
		}
	}
	return false
}

// stubScheduler records armed timers without running them.
type stubScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Duration
	cancelled []string
}

func newStubScheduler() *stubScheduler {
	return &stubScheduler{scheduled: make(map[string]time.Duration)}
}

func (s *stubScheduler) Schedule(key string, delay time.Duration, _ func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[key] = delay
}

func (s *stubScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, key)
	delete(s.scheduled, key)
}

// stubPresence records pushes and reports configurable connectivity.
type stubPresence struct {
	mu       sync.Mutex
	online   map[string]bool
	payloads map[string][]any
}

func newStubPresence(online ...string) *stubPresence {
	p := &stubPresence{online: make(map[string]bool), payloads: make(map[string][]any)}
	for _, id := range online {
		p.online[id] = true
	}
	return p
}

func (p *stubPresence) Send(userID string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[userID] = append(p.payloads[userID], payload)
}

func (p *stubPresence) Connected(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

var errStoreDown = errors.New("store down")

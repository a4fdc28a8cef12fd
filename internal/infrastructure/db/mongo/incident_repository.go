package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

const collectionIncidents = "incidents"

type IncidentRepository struct {
	col *mongo.Collection
}

func NewIncidentRepository(db *mongo.Database) *IncidentRepository {
	return &IncidentRepository{col: db.Collection(collectionIncidents)}
}

func (r *IncidentRepository) Create(ctx context.Context, inc *domain.Incident) (*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	inc.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, inc); err != nil {
		return nil, fmt.Errorf("insert incident: %w", err)
	}
	return inc, nil
}

func (r *IncidentRepository) FindByID(ctx context.Context, id string) (*domain.Incident, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IncidentRepository) FindVisible(ctx context.Context, id string, viewer domain.Actor) (*domain.Incident, error) {
	filter := bson.M{"_id": id}
	applyVisibility(filter, viewer)
	return r.findOne(ctx, filter)
}

func (r *IncidentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var inc domain.Incident
	if err := r.col.FindOne(ctx, filter).Decode(&inc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("find incident: %w", err)
	}
	return &inc, nil
}

// applyVisibility narrows the filter for support users, who see only incidents
// assigned to them or not assigned at all. Admins and end users see everything.
func applyVisibility(filter bson.M, viewer domain.Actor) {
	if viewer.Role != domain.RoleSupport {
		return
	}
	filter["$or"] = bson.A{
		bson.M{"assigned_to": viewer.UserID},
		bson.M{"assigned_to": bson.M{"$size": 0}},
		bson.M{"assigned_to": nil},
	}
}

func (r *IncidentRepository) List(ctx context.Context, filter ports.ListIncidentsFilter) ([]*domain.Incident, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	applyVisibility(query, filter.Viewer)
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Area != "" {
		query["area"] = filter.Area
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	if filter.Search != "" {
		query["subject"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}}
	}
	if !filter.DateFrom.IsZero() || !filter.DateTo.IsZero() {
		created := bson.M{}
		if !filter.DateFrom.IsZero() {
			created["$gte"] = filter.DateFrom
		}
		if !filter.DateTo.IsZero() {
			created["$lte"] = filter.DateTo
		}
		query["created_at"] = created
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Incident
	for cursor.Next(ctx) {
		var inc domain.Incident
		if err := cursor.Decode(&inc); err != nil {
			return nil, 0, fmt.Errorf("decode incident: %w", err)
		}
		out = append(out, &inc)
	}
	return out, total, cursor.Err()
}

func (r *IncidentRepository) Update(ctx context.Context, id string, fields ports.UpdateIncidentFields, entry domain.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": entry.Timestamp}
	if fields.Subject != nil {
		set["subject"] = *fields.Subject
	}
	if fields.Description != nil {
		set["description"] = *fields.Description
	}
	if fields.Priority != nil {
		set["priority"] = *fields.Priority
	}
	if fields.Area != nil {
		set["area"] = *fields.Area
	}
	if fields.Tags != nil {
		set["tags"] = *fields.Tags
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  set,
		"$push": bson.M{"history": entry},
	})
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIncidentNotFound
	}
	return nil
}

// SetStatus performs the transition as a compare-and-set on the current
// status. An unmatched filter means the document moved on concurrently; the
// caller decides whether that is an error or an idempotent no-op.
func (r *IncidentRepository) SetStatus(ctx context.Context, id string, from, to domain.IncidentStatus, entry domain.HistoryEntry, solution string, resolvedAt *time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": to, "updated_at": entry.Timestamp}
	if solution != "" {
		set["solution"] = solution
	}
	if resolvedAt != nil {
		set["resolved_at"] = *resolvedAt
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set, "$push": bson.M{"history": entry}},
	)
	if err != nil {
		return false, fmt.Errorf("set incident status: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *IncidentRepository) SetAssignees(ctx context.Context, id string, assignees []string, entry domain.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if assignees == nil {
		assignees = []string{}
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"assigned_to": assignees, "updated_at": entry.Timestamp},
		"$push": bson.M{"history": entry},
	})
	if err != nil {
		return fmt.Errorf("set incident assignees: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIncidentNotFound
	}
	return nil
}

func (r *IncidentRepository) AddComment(ctx context.Context, id string, comment domain.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": comment},
	})
	if err != nil {
		return fmt.Errorf("add incident comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIncidentNotFound
	}
	return nil
}

func (r *IncidentRepository) CountByArea(ctx context.Context, area string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"area": area})
}

func (r *IncidentRepository) FindOverdueResolved(ctx context.Context, cutoff time.Time) ([]*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{
		"status":      domain.StatusResolved,
		"resolved_at": bson.M{"$lte": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("find overdue incidents: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Incident
	for cursor.Next(ctx) {
		var inc domain.Incident
		if err := cursor.Decode(&inc); err != nil {
			return nil, fmt.Errorf("decode incident: %w", err)
		}
		out = append(out, &inc)
	}
	return out, cursor.Err()
}

// EnsureIndexes creates the query indexes for listing and the sweep.
func (r *IncidentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "resolved_at", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "area", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

const collectionAudit = "audit_log"

// AuditRepository is insert-only from the application's perspective. Nothing
// here updates or deletes documents.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

func (r *AuditRepository) Insert(ctx context.Context, rec *domain.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditRecord, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.Entity != "" {
		query["entity"] = filter.Entity
	}
	if !filter.DateFrom.IsZero() || !filter.DateTo.IsZero() {
		at := bson.M{}
		if !filter.DateFrom.IsZero() {
			at["$gte"] = filter.DateFrom
		}
		if !filter.DateTo.IsZero() {
			at["$lte"] = filter.DateTo
		}
		query["at"] = at
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.AuditRecord
	for cursor.Next(ctx) {
		var rec domain.AuditRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, 0, fmt.Errorf("decode audit record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, total, cursor.Err()
}

// EnsureIndexes creates the audit viewer's query indexes.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
		{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "entity_id", Value: 1}}},
		{Keys: bson.D{{Key: "at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

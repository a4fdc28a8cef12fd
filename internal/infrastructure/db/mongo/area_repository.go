package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
)

const collectionAreas = "areas"

type AreaRepository struct {
	col *mongo.Collection
}

func NewAreaRepository(db *mongo.Database) *AreaRepository {
	return &AreaRepository{col: db.Collection(collectionAreas)}
}

func (r *AreaRepository) Create(ctx context.Context, area *domain.Area) (*domain.Area, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	area.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, area); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAreaExists
		}
		return nil, fmt.Errorf("insert area: %w", err)
	}
	return area, nil
}

func (r *AreaRepository) FindByID(ctx context.Context, id string) (*domain.Area, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AreaRepository) FindByName(ctx context.Context, name string) (*domain.Area, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *AreaRepository) findOne(ctx context.Context, filter bson.M) (*domain.Area, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var area domain.Area
	if err := r.col.FindOne(ctx, filter).Decode(&area); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAreaNotFound
		}
		return nil, fmt.Errorf("find area: %w", err)
	}
	return &area, nil
}

func (r *AreaRepository) List(ctx context.Context) ([]*domain.Area, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Area
	for cursor.Next(ctx) {
		var area domain.Area
		if err := cursor.Decode(&area); err != nil {
			return nil, fmt.Errorf("decode area: %w", err)
		}
		out = append(out, &area)
	}
	return out, cursor.Err()
}

func (r *AreaRepository) Update(ctx context.Context, area *domain.Area) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": area.ID}, bson.M{"$set": bson.M{
		"name":        area.Name,
		"description": area.Description,
		"color":       area.Color,
		"updated_at":  area.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAreaExists
		}
		return fmt.Errorf("update area: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAreaNotFound
	}
	return nil
}

func (r *AreaRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAreaNotFound
	}
	return nil
}

// EnsureIndexes creates the unique name index.
func (r *AreaRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

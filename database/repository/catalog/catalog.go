package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"servana/database"
	"servana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository resolves selected service types to their records,
// including the owning base service used for line-item deduplication.
type CatalogRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.ServiceType, error)
	ListByCategory(ctx context.Context, category models.BookingType) ([]models.ServiceType, error)
}

// MongoCatalogRepo implements CatalogRepository on MongoDB.
type MongoCatalogRepo struct {
	coll *mongo.Collection
}

func NewMongoCatalogRepo() *MongoCatalogRepo {
	repo := &MongoCatalogRepo{coll: database.Collection("service_types")}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}

func (r *MongoCatalogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "base_service_id", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create service type indexes: %w", err)
	}
	return nil
}

// GetByIDs returns the active service types matching the given ids. Ids that
// resolve to nothing are simply absent from the result.
func (r *MongoCatalogRepo) GetByIDs(ctx context.Context, ids []string) ([]models.ServiceType, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"id": bson.M{"$in": ids}, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service types: %w", err)
	}
	defer cursor.Close(ctx)

	var types []models.ServiceType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode service types: %w", err)
	}
	return types, nil
}

func (r *MongoCatalogRepo) ListByCategory(ctx context.Context, category models.BookingType) ([]models.ServiceType, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"category": category, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list service types for %s: %w", category, err)
	}
	defer cursor.Close(ctx)

	var types []models.ServiceType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode service types: %w", err)
	}
	return types, nil
}

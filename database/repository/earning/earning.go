package earningRepo

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

// EarningRepository defines data access for specialist earnings.
type EarningRepository interface {
	Create(ctx context.Context, e *models.Earning) error
	ListBySpecialist(ctx context.Context, specialistID string) ([]models.Earning, error)
}

// MongoEarningRepo implements EarningRepository on MongoDB.
type MongoEarningRepo struct {
	coll *mongo.Collection
}

func NewMongoEarningRepo() *MongoEarningRepo {
	repo := &MongoEarningRepo{coll: database.Collection("earnings")}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}

func (r *MongoEarningRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// One earning per completed resource.
		{Keys: bson.D{{Key: "resource_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "specialist_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create earning indexes: %w", err)
	}
	return nil
}

func (r *MongoEarningRepo) Create(ctx context.Context, e *models.Earning) error {
	e.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Earnings already processed for this resource; not an error.
			return nil
		}
		return fmt.Errorf("failed to create earning: %w", err)
	}
	return nil
}

func (r *MongoEarningRepo) ListBySpecialist(ctx context.Context, specialistID string) ([]models.Earning, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"specialist_id": specialistID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings for %s: %w", specialistID, err)
	}
	defer cursor.Close(ctx)

	var earnings []models.Earning
	if err := cursor.All(ctx, &earnings); err != nil {
		return nil, fmt.Errorf("failed to decode earnings: %w", err)
	}
	return earnings, nil
}

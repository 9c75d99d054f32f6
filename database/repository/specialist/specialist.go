package specialistRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servana/database"
	"servana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SpecialistRepository defines data access for specialists.
type SpecialistRepository interface {
	Create(ctx context.Context, sp *models.Specialist) error
	GetByID(ctx context.Context, id string) (*models.Specialist, error)
	GetByEmail(ctx context.Context, email string) (*models.Specialist, error)
	// FindFirstAvailable returns the first available specialist with the
	// given specialization, or nil when nobody is available. No fairness or
	// load-balancing policy beyond "first match returned by the query".
	FindFirstAvailable(ctx context.Context, specialization models.BookingType) (*models.Specialist, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	UpdateSetDocument(ctx context.Context, id string, updateDoc bson.M) error
}

// MongoSpecialistRepo implements SpecialistRepository on MongoDB.
type MongoSpecialistRepo struct {
	coll *mongo.Collection
}

func NewMongoSpecialistRepo() *MongoSpecialistRepo {
	repo := &MongoSpecialistRepo{coll: database.Collection("specialists")}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}

func (r *MongoSpecialistRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "specialization", Value: 1}, {Key: "available", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create specialist indexes: %w", err)
	}
	return nil
}

func (r *MongoSpecialistRepo) Create(ctx context.Context, sp *models.Specialist) error {
	now := time.Now()
	sp.CreatedAt = now
	sp.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, sp); err != nil {
		return fmt.Errorf("failed to create specialist: %w", err)
	}
	return nil
}

func (r *MongoSpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	var sp models.Specialist
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch specialist %s: %w", id, err)
	}
	return &sp, nil
}

func (r *MongoSpecialistRepo) GetByEmail(ctx context.Context, email string) (*models.Specialist, error) {
	var sp models.Specialist
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch specialist by email: %w", err)
	}
	return &sp, nil
}

func (r *MongoSpecialistRepo) FindFirstAvailable(ctx context.Context, specialization models.BookingType) (*models.Specialist, error) {
	var sp models.Specialist
	err := r.coll.FindOne(ctx, bson.M{"specialization": specialization, "available": true}).Decode(&sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find available %s specialist: %w", specialization, err)
	}
	return &sp, nil
}

func (r *MongoSpecialistRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	return r.UpdateSetDocument(ctx, id, bson.M{"available": available})
}

func (r *MongoSpecialistRepo) UpdateSetDocument(ctx context.Context, id string, updateDoc bson.M) error {
	updateDoc["updated_at"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": updateDoc})
	if err != nil {
		return fmt.Errorf("failed to update specialist %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("specialist with id %s not found", id)
	}
	return nil
}

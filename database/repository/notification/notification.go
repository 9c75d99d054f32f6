package notificationRepo

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

// NotificationRepository defines data access for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// MongoNotificationRepo implements NotificationRepository on MongoDB.
type MongoNotificationRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepo() *MongoNotificationRepo {
	repo := &MongoNotificationRepo{coll: database.Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}

func (r *MongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(100)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var notifs []models.Notification
	if err := cursor.All(ctx, &notifs); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifs, nil
}

func (r *MongoNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

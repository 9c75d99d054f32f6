// File: database/repository/payment/paymentMongoCrud.go
package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}

// Create inserts a new pending payment row.
func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment %s: %w", payment.Reference, err)
	}
	return nil
}

// GetByReference fetches a payment by its gateway reference. Returns
// (nil, nil) when no row exists.
func (r *MongoPaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.coll.FindOne(ctx, bson.M{"reference": reference}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", reference, err)
	}
	return &payment, nil
}

// ClaimPending is the finalizer's arbitration point: a conditional update
// that only matches a pending row, so concurrent finalize calls cannot both
// win. The losing caller gets false and must re-read.
func (r *MongoPaymentRepo) ClaimPending(ctx context.Context, reference string) (bool, error) {
	now := time.Now()
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"reference": reference, "status": models.PaymentStatusPending},
		bson.M{"$set": bson.M{"status": models.PaymentStatusCompleted, "completed_at": now}},
	)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim payment %s: %w", reference, err)
	}
	return true, nil
}

// LinkResource records the domain resource on the payment row.
func (r *MongoPaymentRepo) LinkResource(ctx context.Context, reference, resourceID, resourceType string) error {
	update := bson.M{"$set": bson.M{"resource_id": resourceID, "resource_type": resourceType}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"reference": reference}, update)
	if err != nil {
		return fmt.Errorf("failed to link resource to payment %s: %w", reference, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payment %s not found", reference)
	}
	return nil
}

// MarkFailed records a gateway-declined payment.
func (r *MongoPaymentRepo) MarkFailed(ctx context.Context, reference string) error {
	update := bson.M{"$set": bson.M{"status": models.PaymentStatusFailed}}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"reference": reference, "status": models.PaymentStatusPending}, update)
	if err != nil {
		return fmt.Errorf("failed to mark payment %s failed: %w", reference, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("no pending payment %s", reference)
	}
	return nil
}

// SetUserID backfills the owning user when it was unknown at initiation.
func (r *MongoPaymentRepo) SetUserID(ctx context.Context, reference, userID string) error {
	update := bson.M{"$set": bson.M{"user_id": userID}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"reference": reference, "user_id": bson.M{"$in": bson.A{"", nil}}}, update)
	if err != nil {
		return fmt.Errorf("failed to set user on payment %s: %w", reference, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payment %s not found or already owned", reference)
	}
	return nil
}

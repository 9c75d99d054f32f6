package paymentRepo

import (
	"context"

	"servana/database"
	"servana/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentRepository defines data access for payment rows. Payments are never
// deleted; they are the audit trail of every booking attempt.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	// ClaimPending atomically moves a payment from pending to completed.
	// It returns false when no pending payment matched the reference, which
	// means a concurrent finalizer won the claim or the payment is absent.
	ClaimPending(ctx context.Context, reference string) (bool, error)
	// LinkResource records the created domain resource on the payment.
	LinkResource(ctx context.Context, reference, resourceID, resourceType string) error
	MarkFailed(ctx context.Context, reference string) error
	SetUserID(ctx context.Context, reference, userID string) error
}

// MongoPaymentRepo implements PaymentRepository on MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentRepo() *MongoPaymentRepo {
	repo := &MongoPaymentRepo{coll: database.Collection("payments")}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}

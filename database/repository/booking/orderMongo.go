// File: database/repository/booking/orderMongo.go
package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateOrder inserts the order with its embedded line items. A payment_ref
// collision maps to ErrDuplicatePaymentRef.
func (r *MongoBookingRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	order.CreatedAt = time.Now()
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicatePaymentRef
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}
	return &order, nil
}

func (r *MongoBookingRepo) GetOrderByPaymentRef(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"payment_ref": reference}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order for payment %s: %w", reference, err)
	}
	return &order, nil
}

// UpdateOrderStatus performs a compare-and-set on the status field.
func (r *MongoBookingRepo) UpdateOrderStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error) {
	set := bson.M{"status": to}
	if cancelledAt != nil {
		set["cancelled_at"] = *cancelledAt
	}
	result, err := r.orders.UpdateOne(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order %s status: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) ListOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	cursor, err := r.orders.Find(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

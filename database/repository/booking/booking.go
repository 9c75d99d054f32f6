package bookingRepo

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

// ErrDuplicatePaymentRef is returned when a resource already exists for the
// payment reference. The unique index on payment_ref is what guarantees
// at-most-once resource creation under concurrent finalization.
var ErrDuplicatePaymentRef = errors.New("a booking already exists for this payment reference")

// BookingRepository defines data access for appointments and orders.
type BookingRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error)
	GetAppointmentByPaymentRef(ctx context.Context, reference string) (*models.Appointment, error)
	// UpdateAppointmentStatus conditionally moves an appointment from one
	// status to another; false means the current status no longer matched.
	UpdateAppointmentStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error)
	ListAppointmentsByClient(ctx context.Context, clientID string) ([]models.Appointment, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByPaymentRef(ctx context.Context, reference string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error)
	ListOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error)
}

// MongoBookingRepo implements BookingRepository on MongoDB.
type MongoBookingRepo struct {
	appointments *mongo.Collection
	orders       *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	repo := &MongoBookingRepo{
		appointments: database.Collection("appointments"),
		orders:       database.Collection("orders"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, coll := range []*mongo.Collection{r.appointments, r.orders} {
		indexModels := []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "order_reference", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "payment_ref", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "specialist_id", Value: 1}}},
		}
		if _, err := coll.Indexes().CreateMany(ctx, indexModels); err != nil {
			return fmt.Errorf("failed to create booking indexes: %w", err)
		}
	}
	return nil
}

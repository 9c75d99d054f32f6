// File: database/repository/booking/appointmentMongo.go
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

// CreateAppointment inserts the appointment with its embedded line items.
// A payment_ref collision maps to ErrDuplicatePaymentRef so the caller can
// resolve the race idempotently.
func (r *MongoBookingRepo) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	appt.CreatedAt = time.Now()
	if _, err := r.appointments.InsertOne(ctx, appt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicatePaymentRef
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.appointments.FindOne(ctx, bson.M{"id": id}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *MongoBookingRepo) GetAppointmentByPaymentRef(ctx context.Context, reference string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.appointments.FindOne(ctx, bson.M{"payment_ref": reference}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment for payment %s: %w", reference, err)
	}
	return &appt, nil
}

// UpdateAppointmentStatus performs a compare-and-set on the status field so
// two racing transitions cannot both apply.
func (r *MongoBookingRepo) UpdateAppointmentStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error) {
	set := bson.M{"status": to}
	if cancelledAt != nil {
		set["cancelled_at"] = *cancelledAt
	}
	result, err := r.appointments.UpdateOne(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update appointment %s status: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) ListAppointmentsByClient(ctx context.Context, clientID string) ([]models.Appointment, error) {
	cursor, err := r.appointments.Find(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

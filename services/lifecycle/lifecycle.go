package lifecycle

import (
	"context"
	"fmt"
	"time"

	bookingRepo "servana/database/repository/booking"
	"servana/models"
	"servana/services/notification"

	"go.uber.org/zap"
)

// Transition failure codes.
const (
	CodeNotFound          = "resourceNotFound"
	CodeForbidden         = "forbidden"
	CodeInvalidTransition = "invalidTransition"
	CodeConflict          = "conflict"
	CodeInternal          = "internal"
)

// TransitionError is a typed status-transition failure.
type TransitionError struct {
	Code    string
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// EarningsProcessor receives the payout side effect of a completed booking.
// It is an external collaborator from the lifecycle's perspective.
type EarningsProcessor interface {
	ProcessCompletion(ctx context.Context, specialistID, resourceID, resourceType string, serviceTotal float64) error
}

// LifecycleService governs post-booking status transitions.
type LifecycleService interface {
	TransitionStatus(ctx context.Context, resourceID, newStatus, actorID string) error
}

// DefaultLifecycleService is the production implementation. Transitions are
// caller-invoked (specialist or client action), never time-driven.
type DefaultLifecycleService struct {
	Bookings bookingRepo.BookingRepository
	Earnings EarningsProcessor
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// TransitionStatus validates the requested transition against the resource
// type's table and applies it with a compare-and-set, so a racing
// transition surfaces as a conflict instead of silently overwriting.
func (s *DefaultLifecycleService) TransitionStatus(ctx context.Context, resourceID, newStatus, actorID string) error {
	appt, err := s.Bookings.GetAppointmentByID(ctx, resourceID)
	if err != nil {
		return &TransitionError{Code: CodeInternal, Message: err.Error()}
	}
	if appt != nil {
		return s.transitionAppointment(ctx, appt, newStatus, actorID)
	}

	order, err := s.Bookings.GetOrderByID(ctx, resourceID)
	if err != nil {
		return &TransitionError{Code: CodeInternal, Message: err.Error()}
	}
	if order != nil {
		return s.transitionOrder(ctx, order, newStatus, actorID)
	}

	return &TransitionError{Code: CodeNotFound, Message: "no appointment or order with id " + resourceID}
}

func (s *DefaultLifecycleService) transitionAppointment(ctx context.Context, appt *models.Appointment, newStatus, actorID string) error {
	if actorID != appt.ClientID && actorID != appt.SpecialistID {
		return &TransitionError{Code: CodeForbidden, Message: "actor is not a participant of this appointment"}
	}
	if !allowed(appointmentTransitions, appt.Status, newStatus) {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("appointment cannot move from %s to %s", appt.Status, newStatus),
		}
	}

	var cancelledAt *time.Time
	if isCancellation(newStatus) {
		now := time.Now()
		cancelledAt = &now
	}
	applied, err := s.Bookings.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, newStatus, cancelledAt)
	if err != nil {
		return &TransitionError{Code: CodeInternal, Message: err.Error()}
	}
	if !applied {
		return &TransitionError{Code: CodeConflict, Message: "appointment status changed concurrently"}
	}

	s.afterTransition(ctx, notification.StatusChange{
		ResourceID:     appt.ID,
		ResourceType:   models.ResourceTypeAppointment,
		ClientID:       appt.ClientID,
		SpecialistID:   appt.SpecialistID,
		OrderReference: appt.OrderReference,
		From:           appt.Status,
		To:             newStatus,
	})

	// Earnings and the rating prompt hang off this one specific transition,
	// not off transitions in general.
	if appt.Status == models.AppointmentStatusConfirmed && newStatus == models.AppointmentStatusCompleted {
		if err := s.Earnings.ProcessCompletion(ctx, appt.SpecialistID, appt.ID, models.ResourceTypeAppointment, appt.ServiceTotal()); err != nil {
			s.Logger.Error("earnings processing failed",
				zap.String("appointmentId", appt.ID), zap.Error(err))
		}
		if err := s.Notifier.RatingPrompt(ctx, appt.ClientID, appt.ID); err != nil {
			s.Logger.Warn("rating prompt failed", zap.String("appointmentId", appt.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *DefaultLifecycleService) transitionOrder(ctx context.Context, order *models.Order, newStatus, actorID string) error {
	if actorID != order.ClientID && actorID != order.SpecialistID {
		return &TransitionError{Code: CodeForbidden, Message: "actor is not a participant of this order"}
	}

	table := laundryTransitions
	if order.Kind == models.BookingTypeCleaning {
		table = cleaningTransitions
	}
	if !allowed(table, order.Status, newStatus) {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("%s order cannot move from %s to %s", order.Kind, order.Status, newStatus),
		}
	}

	var cancelledAt *time.Time
	if isCancellation(newStatus) {
		now := time.Now()
		cancelledAt = &now
	}
	applied, err := s.Bookings.UpdateOrderStatus(ctx, order.ID, order.Status, newStatus, cancelledAt)
	if err != nil {
		return &TransitionError{Code: CodeInternal, Message: err.Error()}
	}
	if !applied {
		return &TransitionError{Code: CodeConflict, Message: "order status changed concurrently"}
	}

	s.afterTransition(ctx, notification.StatusChange{
		ResourceID:     order.ID,
		ResourceType:   models.ResourceTypeOrder,
		ClientID:       order.ClientID,
		SpecialistID:   order.SpecialistID,
		OrderReference: order.OrderReference,
		From:           order.Status,
		To:             newStatus,
	})

	// Terminal delivery/completion pays the assigned specialist.
	terminal := newStatus == models.OrderStatusDelivered || newStatus == models.CleaningStatusCompleted
	if terminal && order.SpecialistID != "" {
		if err := s.Earnings.ProcessCompletion(ctx, order.SpecialistID, order.ID, models.ResourceTypeOrder, order.ServiceTotal()); err != nil {
			s.Logger.Error("earnings processing failed",
				zap.String("orderId", order.ID), zap.Error(err))
		}
	}
	return nil
}

// afterTransition emits the status-changed notification. Best-effort.
func (s *DefaultLifecycleService) afterTransition(ctx context.Context, change notification.StatusChange) {
	if err := s.Notifier.StatusChanged(ctx, change); err != nil {
		s.Logger.Warn("status change notification failed",
			zap.String("resourceId", change.ResourceID), zap.Error(err))
	}
}

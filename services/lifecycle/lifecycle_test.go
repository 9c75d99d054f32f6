package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"servana/models"
	"servana/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes ----

type fakeBookingRepo struct {
	mu          sync.Mutex
	appointment *models.Appointment
	order       *models.Order
	casFails    bool
	readErr     error
}

func (r *fakeBookingRepo) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return errors.New("not used")
}

func (r *fakeBookingRepo) GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	if r.appointment != nil && r.appointment.ID == id {
		cp := *r.appointment
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) GetAppointmentByPaymentRef(ctx context.Context, reference string) (*models.Appointment, error) {
	return nil, nil
}

func (r *fakeBookingRepo) UpdateAppointmentStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.casFails {
		return false, nil
	}
	if r.appointment == nil || r.appointment.ID != id || r.appointment.Status != from {
		return false, nil
	}
	r.appointment.Status = to
	r.appointment.CancelledAt = cancelledAt
	return true, nil
}

func (r *fakeBookingRepo) ListAppointmentsByClient(ctx context.Context, clientID string) ([]models.Appointment, error) {
	return nil, nil
}

func (r *fakeBookingRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return errors.New("not used")
}

func (r *fakeBookingRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.order != nil && r.order.ID == id {
		cp := *r.order
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) GetOrderByPaymentRef(ctx context.Context, reference string) (*models.Order, error) {
	return nil, nil
}

func (r *fakeBookingRepo) UpdateOrderStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.casFails {
		return false, nil
	}
	if r.order == nil || r.order.ID != id || r.order.Status != from {
		return false, nil
	}
	r.order.Status = to
	r.order.CancelledAt = cancelledAt
	return true, nil
}

func (r *fakeBookingRepo) ListOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	return nil, nil
}

type fakeEarnings struct {
	mu    sync.Mutex
	calls []struct {
		SpecialistID string
		ResourceID   string
		Total        float64
	}
}

func (e *fakeEarnings) ProcessCompletion(ctx context.Context, specialistID, resourceID, resourceType string, serviceTotal float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, struct {
		SpecialistID string
		ResourceID   string
		Total        float64
	}{specialistID, resourceID, serviceTotal})
	return nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	statusChanges []notification.StatusChange
	ratingPrompts []string
}

func (n *fakeNotifier) BookingFinalized(ctx context.Context, b notification.FinalizedBooking) error {
	return nil
}

func (n *fakeNotifier) StatusChanged(ctx context.Context, c notification.StatusChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanges = append(n.statusChanges, c)
	return nil
}

func (n *fakeNotifier) RatingPrompt(ctx context.Context, clientID, resourceID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ratingPrompts = append(n.ratingPrompts, resourceID)
	return nil
}

// ---- fixtures ----

func confirmedAppointment() *models.Appointment {
	return &models.Appointment{
		ID:           "appt-1",
		ClientID:     "u1",
		SpecialistID: "sp-1",
		Status:       models.AppointmentStatusConfirmed,
		Items: []models.BookingItem{
			{ServiceTypeID: "st-braids", BaseServiceID: "base-braiding", Price: 80},
			{ServiceTypeID: "st-nails", BaseServiceID: "base-nails", Price: 30},
		},
	}
}

func laundryOrder(status string) *models.Order {
	return &models.Order{
		ID:           "ord-1",
		Kind:         models.BookingTypeLaundry,
		ClientID:     "u1",
		SpecialistID: "sp-2",
		Status:       status,
		Items:        []models.BookingItem{{ServiceTypeID: "st-wash", BaseServiceID: "base-wash", Price: 25}},
	}
}

func newService(repo *fakeBookingRepo) (*DefaultLifecycleService, *fakeEarnings, *fakeNotifier) {
	earnings := &fakeEarnings{}
	notifier := &fakeNotifier{}
	svc := &DefaultLifecycleService{
		Bookings: repo,
		Earnings: earnings,
		Notifier: notifier,
		Logger:   zap.NewNop(),
	}
	return svc, earnings, notifier
}

// ---- tests ----

func TestTransitionUnknownResource(t *testing.T) {
	svc, _, _ := newService(&fakeBookingRepo{})
	err := svc.TransitionStatus(context.Background(), "nope", models.AppointmentStatusCompleted, "u1")
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeNotFound, te.Code)
}

func TestTransitionNonParticipantForbidden(t *testing.T) {
	repo := &fakeBookingRepo{appointment: confirmedAppointment()}
	svc, _, _ := newService(repo)

	err := svc.TransitionStatus(context.Background(), "appt-1", models.AppointmentStatusCompleted, "someone-else")
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeForbidden, te.Code)
	assert.Equal(t, models.AppointmentStatusConfirmed, repo.appointment.Status)
}

func TestAppointmentCompletionSideEffects(t *testing.T) {
	repo := &fakeBookingRepo{appointment: confirmedAppointment()}
	svc, earnings, notifier := newService(repo)

	err := svc.TransitionStatus(context.Background(), "appt-1", models.AppointmentStatusCompleted, "sp-1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusCompleted, repo.appointment.Status)

	require.Len(t, earnings.calls, 1)
	assert.Equal(t, "sp-1", earnings.calls[0].SpecialistID)
	assert.Equal(t, 110.0, earnings.calls[0].Total)

	require.Len(t, notifier.ratingPrompts, 1)
	assert.Equal(t, "appt-1", notifier.ratingPrompts[0])

	require.Len(t, notifier.statusChanges, 1)
	assert.Equal(t, models.AppointmentStatusConfirmed, notifier.statusChanges[0].From)
	assert.Equal(t, models.AppointmentStatusCompleted, notifier.statusChanges[0].To)
}

func TestAppointmentCancellationSetsTimestamp(t *testing.T) {
	repo := &fakeBookingRepo{appointment: confirmedAppointment()}
	svc, earnings, _ := newService(repo)

	err := svc.TransitionStatus(context.Background(), "appt-1", models.AppointmentStatusCanceled, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusCanceled, repo.appointment.Status)
	require.NotNil(t, repo.appointment.CancelledAt)
	// Cancellation pays nobody.
	assert.Empty(t, earnings.calls)
}

func TestAppointmentTerminalStateIsFinal(t *testing.T) {
	appt := confirmedAppointment()
	appt.Status = models.AppointmentStatusCompleted
	repo := &fakeBookingRepo{appointment: appt}
	svc, _, _ := newService(repo)

	err := svc.TransitionStatus(context.Background(), "appt-1", models.AppointmentStatusCanceled, "u1")
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeInvalidTransition, te.Code)
}

func TestLaundryCannotSkipStages(t *testing.T) {
	repo := &fakeBookingRepo{order: laundryOrder(models.OrderStatusPendingPickup)}
	svc, _, _ := newService(repo)

	err := svc.TransitionStatus(context.Background(), "ord-1", models.OrderStatusDelivered, "sp-2")
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeInvalidTransition, te.Code)
	assert.Equal(t, models.OrderStatusPendingPickup, repo.order.Status)
}

func TestLaundryFullChain(t *testing.T) {
	repo := &fakeBookingRepo{order: laundryOrder(models.OrderStatusPendingPickup)}
	svc, earnings, _ := newService(repo)

	chain := []string{
		models.OrderStatusPickedUp,
		models.OrderStatusWashing,
		models.OrderStatusReady,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	}
	for _, next := range chain {
		require.NoError(t, svc.TransitionStatus(context.Background(), "ord-1", next, "sp-2"), "transition to %s", next)
	}
	assert.Equal(t, models.OrderStatusDelivered, repo.order.Status)

	// Delivery pays the assigned specialist once.
	require.Len(t, earnings.calls, 1)
	assert.Equal(t, "sp-2", earnings.calls[0].SpecialistID)
	assert.Equal(t, 25.0, earnings.calls[0].Total)
}

func TestCleaningChainAndCompletion(t *testing.T) {
	order := laundryOrder(models.CleaningStatusPending)
	order.Kind = models.BookingTypeCleaning
	repo := &fakeBookingRepo{order: order}
	svc, earnings, _ := newService(repo)

	chain := []string{
		models.CleaningStatusConfirmed,
		models.CleaningStatusInProgress,
		models.CleaningStatusCompleted,
	}
	for _, next := range chain {
		require.NoError(t, svc.TransitionStatus(context.Background(), "ord-1", next, "u1"))
	}
	require.Len(t, earnings.calls, 1)
}

func TestConcurrentTransitionConflict(t *testing.T) {
	repo := &fakeBookingRepo{appointment: confirmedAppointment(), casFails: true}
	svc, _, _ := newService(repo)

	err := svc.TransitionStatus(context.Background(), "appt-1", models.AppointmentStatusCompleted, "u1")
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeConflict, te.Code)
}

func TestRepositoryFailureIsNotAConflict(t *testing.T) {
	repo := &fakeBookingRepo{readErr: errors.New("mongo down")}
	svc, _, _ := newService(repo)

	err := svc.TransitionStatus(context.Background(), "appt-1", models.AppointmentStatusCompleted, "u1")
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	// A lost compare-and-set is a conflict; a failing database is not.
	assert.Equal(t, CodeInternal, te.Code)
}

func TestTransitionTables(t *testing.T) {
	tests := []struct {
		name  string
		table map[string][]string
		from  string
		to    string
		want  bool
	}{
		{"pending appointment can confirm", appointmentTransitions, models.AppointmentStatusPending, models.AppointmentStatusConfirmed, true},
		{"pending appointment cannot complete", appointmentTransitions, models.AppointmentStatusPending, models.AppointmentStatusCompleted, false},
		{"canceled appointment is terminal", appointmentTransitions, models.AppointmentStatusCanceled, models.AppointmentStatusConfirmed, false},
		{"washing moves to ready", laundryTransitions, models.OrderStatusWashing, models.OrderStatusReady, true},
		{"washing cannot revert", laundryTransitions, models.OrderStatusWashing, models.OrderStatusPickedUp, false},
		{"delivered is terminal", laundryTransitions, models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{"cleaning in progress can cancel", cleaningTransitions, models.CleaningStatusInProgress, models.CleaningStatusCanceled, true},
		{"unknown status has no successors", cleaningTransitions, "bogus", models.CleaningStatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allowed(tt.table, tt.from, tt.to))
		})
	}
}

package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingRepo "servana/database/repository/booking"
	"servana/models"
	"servana/services/notification"
	"servana/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ---- fakes ----

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePaymentRepo(pmts ...*models.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{payments: make(map[string]*models.Payment)}
	for _, p := range pmts {
		cp := *p
		r.payments[p.Reference] = &cp
	}
	return r
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.Reference] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[reference]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) ClaimPending(ctx context.Context, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[reference]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusCompleted
	now := time.Now()
	p.CompletedAt = &now
	return true, nil
}

func (r *fakePaymentRepo) LinkResource(ctx context.Context, reference, resourceID, resourceType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[reference]
	if !ok {
		return errors.New("payment not found")
	}
	p.ResourceID = resourceID
	p.ResourceType = resourceType
	return nil
}

func (r *fakePaymentRepo) MarkFailed(ctx context.Context, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[reference]; ok {
		p.Status = models.PaymentStatusFailed
	}
	return nil
}

func (r *fakePaymentRepo) SetUserID(ctx context.Context, reference, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[reference]; ok {
		p.UserID = userID
	}
	return nil
}

type fakeBookingRepo struct {
	mu           sync.Mutex
	appointments map[string]*models.Appointment // by payment ref
	orders       map[string]*models.Order       // by payment ref
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		appointments: make(map[string]*models.Appointment),
		orders:       make(map[string]*models.Order),
	}
}

func (r *fakeBookingRepo) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.appointments[appt.PaymentRef]; exists {
		return bookingRepo.ErrDuplicatePaymentRef
	}
	cp := *appt
	r.appointments[appt.PaymentRef] = &cp
	return nil
}

func (r *fakeBookingRepo) GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) GetAppointmentByPaymentRef(ctx context.Context, reference string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[reference]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) UpdateAppointmentStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == id && a.Status == from {
			a.Status = to
			a.CancelledAt = cancelledAt
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) ListAppointmentsByClient(ctx context.Context, clientID string) ([]models.Appointment, error) {
	return nil, nil
}

func (r *fakeBookingRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.PaymentRef]; exists {
		return bookingRepo.ErrDuplicatePaymentRef
	}
	cp := *order
	r.orders[order.PaymentRef] = &cp
	return nil
}

func (r *fakeBookingRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) GetOrderByPaymentRef(ctx context.Context, reference string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[reference]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) UpdateOrderStatus(ctx context.Context, id, from, to string, cancelledAt *time.Time) (bool, error) {
	return false, nil
}

func (r *fakeBookingRepo) ListOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	return nil, nil
}

type fakeCatalogRepo struct {
	types []models.ServiceType
}

func (r *fakeCatalogRepo) GetByIDs(ctx context.Context, ids []string) ([]models.ServiceType, error) {
	var out []models.ServiceType
	for _, id := range ids {
		for _, t := range r.types {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListByCategory(ctx context.Context, category models.BookingType) ([]models.ServiceType, error) {
	return r.types, nil
}

type fakeSpecialistRepo struct {
	available *models.Specialist
}

func (r *fakeSpecialistRepo) Create(ctx context.Context, sp *models.Specialist) error { return nil }
func (r *fakeSpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	return r.available, nil
}
func (r *fakeSpecialistRepo) GetByEmail(ctx context.Context, email string) (*models.Specialist, error) {
	return nil, nil
}
func (r *fakeSpecialistRepo) FindFirstAvailable(ctx context.Context, specialization models.BookingType) (*models.Specialist, error) {
	return r.available, nil
}
func (r *fakeSpecialistRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	return nil
}
func (r *fakeSpecialistRepo) UpdateSetDocument(ctx context.Context, id string, doc bson.M) error {
	return nil
}

type fakeVerifier struct {
	mu     sync.Mutex
	status string
	calls  int
	err    error
}

func (v *fakeVerifier) Verify(ctx context.Context, reference string) (*payment.VerificationResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return &payment.VerificationResult{Status: v.status}, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	finalized []notification.FinalizedBooking
}

func (n *fakeNotifier) BookingFinalized(ctx context.Context, b notification.FinalizedBooking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finalized = append(n.finalized, b)
	return nil
}
func (n *fakeNotifier) StatusChanged(ctx context.Context, c notification.StatusChange) error {
	return nil
}
func (n *fakeNotifier) RatingPrompt(ctx context.Context, clientID, resourceID string) error {
	return nil
}

// ---- fixtures ----

var testTypes = []models.ServiceType{
	{ID: "st-braids", BaseServiceID: "base-braiding", Name: "Box Braids", Category: models.BookingTypeBeauty, Price: 80, Active: true},
	{ID: "st-cornrows", BaseServiceID: "base-braiding", Name: "Cornrows", Category: models.BookingTypeBeauty, Price: 60, Active: true},
	{ID: "st-nails", BaseServiceID: "base-nails", Name: "Gel Nails", Category: models.BookingTypeBeauty, Price: 30, Active: true},
	{ID: "st-wash", BaseServiceID: "base-wash", Name: "Wash & Fold", Category: models.BookingTypeLaundry, Price: 25, Active: true},
}

func beautyPayment(reference, userID string) *models.Payment {
	return &models.Payment{
		ID:        "pmt-" + reference,
		Reference: reference,
		Amount:    12000,
		Currency:  "usd",
		Status:    models.PaymentStatusPending,
		UserID:    userID,
		Metadata: models.PaymentMetadata{
			BookingType: models.BookingTypeBeauty,
			Beauty: &models.BeautyBookingMetadata{
				ServiceTypeIDs: []string{"st-braids", "st-nails"},
				SpecialistID:   "sp-1",
				Date:           "2026-09-10",
				Time:           "14:00",
			},
		},
	}
}

func laundryPayment(reference, userID string) *models.Payment {
	return &models.Payment{
		ID:        "pmt-" + reference,
		Reference: reference,
		Amount:    2800,
		Currency:  "usd",
		Status:    models.PaymentStatusPending,
		UserID:    userID,
		Metadata: models.PaymentMetadata{
			BookingType: models.BookingTypeLaundry,
			Laundry: &models.LaundryBookingMetadata{
				ServiceTypeIDs:  []string{"st-wash"},
				Date:            "2026-09-11",
				Time:            "09:00",
				PickupAddress:   "12 North St",
				DeliveryAddress: "12 North St",
			},
		},
	}
}

type finalizerFixture struct {
	payments *fakePaymentRepo
	bookings *fakeBookingRepo
	verifier *fakeVerifier
	notifier *fakeNotifier
	sut      *DefaultBookingFinalizer
}

func newFixture(available *models.Specialist, pmts ...*models.Payment) *finalizerFixture {
	f := &finalizerFixture{
		payments: newFakePaymentRepo(pmts...),
		bookings: newFakeBookingRepo(),
		verifier: &fakeVerifier{status: payment.VerifyStatusComplete},
		notifier: &fakeNotifier{},
	}
	f.sut = &DefaultBookingFinalizer{
		Payments:    f.payments,
		Bookings:    f.bookings,
		Catalog:     &fakeCatalogRepo{types: testTypes},
		Specialists: &fakeSpecialistRepo{available: available},
		Verifier:    f.verifier,
		Notifier:    f.notifier,
		Refs:        DefaultReferenceGenerator{},
		Logger:      zap.NewNop(),
	}
	return f
}

// ---- tests ----

func TestFinalizeBookingMissingReference(t *testing.T) {
	f := newFixture(nil)
	_, err := f.sut.FinalizeBooking(context.Background(), "", "u1")
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestFinalizeBookingUnknownReference(t *testing.T) {
	f := newFixture(nil)
	_, err := f.sut.FinalizeBooking(context.Background(), "cs_missing", "u1")
	require.Error(t, err)
	assert.Equal(t, CodePaymentNotFound, CodeOf(err))
	// One forced gateway refresh before giving up.
	assert.Equal(t, 1, f.verifier.calls)
}

func TestFinalizeBookingCreatesConfirmedAppointment(t *testing.T) {
	f := newFixture(nil, beautyPayment("cs_1", "u1"))

	result, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.NoError(t, err)
	assert.False(t, result.AlreadyFinalized)
	assert.Equal(t, models.ResourceTypeAppointment, result.ResourceType)
	assert.NotEmpty(t, result.OrderReference)

	appt, err := f.bookings.GetAppointmentByPaymentRef(context.Background(), "cs_1")
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, models.AppointmentStatusConfirmed, appt.Status)
	assert.Equal(t, "u1", appt.ClientID)
	assert.Equal(t, "sp-1", appt.SpecialistID)
	assert.Len(t, appt.Items, 2)

	pmt, _ := f.payments.GetByReference(context.Background(), "cs_1")
	assert.Equal(t, models.PaymentStatusCompleted, pmt.Status)
	assert.Equal(t, appt.ID, pmt.ResourceID)

	require.Len(t, f.notifier.finalized, 1)
	assert.Equal(t, "u1", f.notifier.finalized[0].ClientID)
}

func TestFinalizeBookingRejectsIncompletePayment(t *testing.T) {
	f := newFixture(nil, beautyPayment("cs_1", "u1"))
	f.verifier.status = payment.VerifyStatusPending

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.Error(t, err)
	assert.Equal(t, CodePaymentNotCompleted, CodeOf(err))

	appt, _ := f.bookings.GetAppointmentByPaymentRef(context.Background(), "cs_1")
	assert.Nil(t, appt)
	pmt, _ := f.payments.GetByReference(context.Background(), "cs_1")
	assert.Equal(t, models.PaymentStatusPending, pmt.Status)
}

func TestFinalizeBookingIdempotentReplay(t *testing.T) {
	f := newFixture(nil, beautyPayment("cs_1", "u1"))

	first, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.NoError(t, err)

	second, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.NoError(t, err)
	assert.True(t, second.AlreadyFinalized)
	assert.Equal(t, first.ResourceID, second.ResourceID)

	// Replay must not notify again.
	assert.Len(t, f.notifier.finalized, 1)
}

func TestFinalizeBookingOwnershipMismatch(t *testing.T) {
	f := newFixture(nil, beautyPayment("cs_1", "u1"))

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u2")
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	// Mismatch is detected before any write.
	appt, _ := f.bookings.GetAppointmentByPaymentRef(context.Background(), "cs_1")
	assert.Nil(t, appt)
	pmt, _ := f.payments.GetByReference(context.Background(), "cs_1")
	assert.Equal(t, models.PaymentStatusPending, pmt.Status)
}

func TestFinalizeBookingBackfillsAnonymousOwner(t *testing.T) {
	f := newFixture(nil, beautyPayment("cs_1", ""))

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u9")
	require.NoError(t, err)

	pmt, _ := f.payments.GetByReference(context.Background(), "cs_1")
	assert.Equal(t, "u9", pmt.UserID)
}

func TestFinalizeBookingDeduplicatesByBaseService(t *testing.T) {
	pmt := beautyPayment("cs_1", "u1")
	pmt.Metadata.Beauty.ServiceTypeIDs = []string{"st-braids", "st-cornrows", "st-nails"}
	f := newFixture(nil, pmt)

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.NoError(t, err)

	appt, _ := f.bookings.GetAppointmentByPaymentRef(context.Background(), "cs_1")
	require.NotNil(t, appt)
	// Box Braids and Cornrows share the braiding base service; only the
	// first survives.
	require.Len(t, appt.Items, 2)
	assert.Equal(t, "st-braids", appt.Items[0].ServiceTypeID)
	assert.Equal(t, "st-nails", appt.Items[1].ServiceTypeID)
}

func TestFinalizeBookingInvalidMetadata(t *testing.T) {
	pmt := beautyPayment("cs_1", "u1")
	pmt.Metadata.Beauty = nil
	f := newFixture(nil, pmt)

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidPaymentType, CodeOf(err))
}

func TestFinalizeBookingUnknownServices(t *testing.T) {
	pmt := beautyPayment("cs_1", "u1")
	pmt.Metadata.Beauty.ServiceTypeIDs = []string{"st-nonexistent"}
	f := newFixture(nil, pmt)

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.Error(t, err)
	assert.Equal(t, CodeServicesNotFound, CodeOf(err))
}

func TestFinalizeBookingLaundryWithoutSpecialist(t *testing.T) {
	f := newFixture(nil, laundryPayment("cs_2", "u1"))

	result, err := f.sut.FinalizeBooking(context.Background(), "cs_2", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ResourceTypeOrder, result.ResourceType)

	order, _ := f.bookings.GetOrderByPaymentRef(context.Background(), "cs_2")
	require.NotNil(t, order)
	assert.Equal(t, models.OrderStatusPendingPickup, order.Status)
	assert.Empty(t, order.SpecialistID)

	// Client is still notified; there is just no specialist to tell.
	require.Len(t, f.notifier.finalized, 1)
	assert.Empty(t, f.notifier.finalized[0].SpecialistID)
}

func TestFinalizeBookingLaundryAutoAssignment(t *testing.T) {
	sp := &models.Specialist{ID: "sp-laundry", Specialization: models.BookingTypeLaundry, Available: true}
	f := newFixture(sp, laundryPayment("cs_2", "u1"))

	_, err := f.sut.FinalizeBooking(context.Background(), "cs_2", "u1")
	require.NoError(t, err)

	order, _ := f.bookings.GetOrderByPaymentRef(context.Background(), "cs_2")
	require.NotNil(t, order)
	assert.Equal(t, "sp-laundry", order.SpecialistID)
	require.Len(t, f.notifier.finalized, 1)
	assert.Equal(t, "sp-laundry", f.notifier.finalized[0].SpecialistID)
}

func TestFinalizeBookingRepairsCompletedUnlinkedPayment(t *testing.T) {
	pmt := beautyPayment("cs_1", "u1")
	pmt.Status = models.PaymentStatusCompleted // claimed but the resource never landed
	f := newFixture(nil, pmt)

	result, err := f.sut.FinalizeBooking(context.Background(), "cs_1", "u1")
	require.NoError(t, err)
	assert.False(t, result.AlreadyFinalized)

	appt, _ := f.bookings.GetAppointmentByPaymentRef(context.Background(), "cs_1")
	require.NotNil(t, appt)
	row, _ := f.payments.GetByReference(context.Background(), "cs_1")
	assert.Equal(t, appt.ID, row.ResourceID)
}

func TestFinalizeBookingConcurrentCallsCreateOneResource(t *testing.T) {
	f := newFixture(nil, beautyPayment("cs_race", "u1"))

	const callers = 8
	results := make([]*FinalizeResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.sut.FinalizeBooking(context.Background(), "cs_race", "u1")
		}(i)
	}
	wg.Wait()

	var resourceID string
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		if resourceID == "" {
			resourceID = results[i].ResourceID
		}
		assert.Equal(t, resourceID, results[i].ResourceID)
	}

	f.bookings.mu.Lock()
	assert.Len(t, f.bookings.appointments, 1)
	f.bookings.mu.Unlock()
}

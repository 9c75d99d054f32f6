package payment

import (
	"context"
	"errors"
	"testing"

	"servana/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes ----

type fakeGateway struct {
	createErr error
	verify    *VerificationResult
	verifyErr error
	sessions  int
}

func (g *fakeGateway) CreateSession(ctx context.Context, amountMinor int64, currency, description string) (*CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.sessions++
	return &CheckoutSession{
		URL:       "https://checkout.example/cs_test",
		SessionID: "cs_test",
		Reference: "cs_test",
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*VerificationResult, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verify, nil
}

type fakePaymentStore struct {
	created    []*models.Payment
	markFailed []string
}

func (s *fakePaymentStore) Create(ctx context.Context, p *models.Payment) error {
	s.created = append(s.created, p)
	return nil
}

func (s *fakePaymentStore) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return nil, nil
}

func (s *fakePaymentStore) ClaimPending(ctx context.Context, reference string) (bool, error) {
	return false, nil
}

func (s *fakePaymentStore) LinkResource(ctx context.Context, reference, resourceID, resourceType string) error {
	return nil
}

func (s *fakePaymentStore) MarkFailed(ctx context.Context, reference string) error {
	s.markFailed = append(s.markFailed, reference)
	return nil
}

func (s *fakePaymentStore) SetUserID(ctx context.Context, reference, userID string) error {
	return nil
}

type fakeCatalog struct {
	types []models.ServiceType
}

func (c *fakeCatalog) GetByIDs(ctx context.Context, ids []string) ([]models.ServiceType, error) {
	var out []models.ServiceType
	for _, id := range ids {
		for _, t := range c.types {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (c *fakeCatalog) ListByCategory(ctx context.Context, category models.BookingType) ([]models.ServiceType, error) {
	return c.types, nil
}

// ---- fixtures ----

var checkoutTypes = []models.ServiceType{
	{ID: "st-braids", BaseServiceID: "base-braiding", Name: "Box Braids", Price: 80, Active: true},
	{ID: "st-nails", BaseServiceID: "base-nails", Name: "Gel Nails", Price: 30, Active: true},
}

func checkoutRequest(amount float64) InitiatePaymentRequest {
	return InitiatePaymentRequest{
		Amount:      amount,
		Description: "Beauty booking",
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

func newService(gateway *fakeGateway, store *fakePaymentStore) *DefaultPaymentService {
	return &DefaultPaymentService{
		Gateway:  gateway,
		Payments: store,
		Catalog:  &fakeCatalog{types: checkoutTypes},
		Currency: "usd",
		Logger:   zap.NewNop(),
	}
}

// ---- tests ----

func TestInitiatePaymentRejectsZeroAmount(t *testing.T) {
	svc := newService(&fakeGateway{}, &fakePaymentStore{})
	_, err := svc.InitiatePayment(context.Background(), "u1", checkoutRequest(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestInitiatePaymentRejectsAmountMismatch(t *testing.T) {
	store := &fakePaymentStore{}
	svc := newService(&fakeGateway{}, store)

	// 80 + 30 = 110 service total, flat 10 fee, 120 payable.
	_, err := svc.InitiatePayment(context.Background(), "u1", checkoutRequest(110))
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, store.created)
}

func TestInitiatePaymentRejectsUnknownServices(t *testing.T) {
	svc := newService(&fakeGateway{}, &fakePaymentStore{})
	req := checkoutRequest(120)
	req.Metadata.Beauty.ServiceTypeIDs = []string{"st-unknown"}

	_, err := svc.InitiatePayment(context.Background(), "u1", req)
	assert.ErrorIs(t, err, ErrNoServices)
}

func TestInitiatePaymentGatewayFailureIsFatal(t *testing.T) {
	store := &fakePaymentStore{}
	svc := newService(&fakeGateway{createErr: errors.New("gateway down")}, store)

	_, err := svc.InitiatePayment(context.Background(), "u1", checkoutRequest(120))
	require.Error(t, err)
	// No pending payment may exist without a gateway session.
	assert.Empty(t, store.created)
}

func TestInitiatePaymentPersistsPendingRow(t *testing.T) {
	store := &fakePaymentStore{}
	gw := &fakeGateway{}
	svc := newService(gw, store)

	sess, err := svc.InitiatePayment(context.Background(), "u1", checkoutRequest(120))
	require.NoError(t, err)
	assert.Equal(t, "cs_test", sess.Reference)
	assert.Equal(t, 1, gw.sessions)

	require.Len(t, store.created, 1)
	pmt := store.created[0]
	assert.Equal(t, models.PaymentStatusPending, pmt.Status)
	assert.Equal(t, "cs_test", pmt.Reference)
	assert.Equal(t, "u1", pmt.UserID)
	// Minor units, fee included: 120.00 -> 12000.
	assert.Equal(t, int64(12000), pmt.Amount)
	assert.Empty(t, pmt.ResourceID)
}

func TestVerifyReturnRequiresReference(t *testing.T) {
	svc := newService(&fakeGateway{}, &fakePaymentStore{})
	_, err := svc.VerifyReturn(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestVerifyReturnMarksFailedPayments(t *testing.T) {
	store := &fakePaymentStore{}
	gw := &fakeGateway{verify: &VerificationResult{Status: VerifyStatusFailed}}
	svc := newService(gw, store)

	result, err := svc.VerifyReturn(context.Background(), "cs_test")
	require.NoError(t, err)
	assert.Equal(t, VerifyStatusFailed, result.Status)
	assert.Equal(t, []string{"cs_test"}, store.markFailed)
}

func TestVerifyReturnPassesThroughCompletion(t *testing.T) {
	store := &fakePaymentStore{}
	gw := &fakeGateway{verify: &VerificationResult{Status: VerifyStatusComplete, PayerEmail: "a@b.c"}}
	svc := newService(gw, store)

	result, err := svc.VerifyReturn(context.Background(), "cs_test")
	require.NoError(t, err)
	assert.Equal(t, VerifyStatusComplete, result.Status)
	assert.Empty(t, store.markFailed)
}

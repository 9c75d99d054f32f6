package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	catalogRepo "servana/database/repository/catalog"
	paymentRepo "servana/database/repository/payment"
	"servana/models"
	"servana/services/pricing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount    = errors.New("payment amount must be greater than zero")
	ErrAmountMismatch   = errors.New("payment amount does not match the priced cart")
	ErrMissingReference = errors.New("payment reference is required")
	ErrNoServices       = errors.New("no valid service types selected")
)

// InitiatePaymentRequest carries everything the finalizer will need later.
// Amount is the fee-inclusive total payable in major units; the service
// recomputes it from the cart and rejects mismatches.
type InitiatePaymentRequest struct {
	Amount      float64                `json:"amount"`
	Description string                 `json:"description"`
	Metadata    models.PaymentMetadata `json:"metadata"`
}

// PaymentService initiates gateway sessions and verifies returns.
type PaymentService interface {
	InitiatePayment(ctx context.Context, actorID string, req InitiatePaymentRequest) (*CheckoutSession, error)
	VerifyReturn(ctx context.Context, reference string) (*VerificationResult, error)
	GetPendingHint(ctx context.Context, reference string) (*models.PaymentMetadata, error)
	ClearPendingHint(ctx context.Context, reference string)
}

// DefaultPaymentService is the production implementation.
type DefaultPaymentService struct {
	Gateway  Gateway
	Payments paymentRepo.PaymentRepository
	Catalog  catalogRepo.CatalogRepository
	Cache    *redis.Client // pending-checkout hints; optional
	HintTTL  time.Duration
	Currency string
	Logger   *zap.Logger
}

// InitiatePayment prices the cart, creates a gateway session and persists a
// pending payment row keyed by the gateway reference. Any gateway or
// persistence error fails the whole attempt; a retry starts from scratch
// with a fresh session, never reusing a failed one.
func (s *DefaultPaymentService) InitiatePayment(ctx context.Context, actorID string, req InitiatePaymentRequest) (*CheckoutSession, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("invalid booking metadata: %w", err)
	}

	types, err := s.Catalog.GetByIDs(ctx, req.Metadata.ServiceTypeIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service types: %w", err)
	}
	if len(types) == 0 {
		return nil, ErrNoServices
	}
	quote := pricing.ComputeBookingTotal(types)
	if quote.TotalPayable <= 0 {
		return nil, ErrInvalidAmount
	}
	if math.Abs(quote.TotalPayable-req.Amount) >= 0.01 {
		s.Logger.Warn("payment amount mismatch",
			zap.Float64("requested", req.Amount),
			zap.Float64("expected", quote.TotalPayable))
		return nil, ErrAmountMismatch
	}

	sess, err := s.Gateway.CreateSession(ctx, pricing.ToMinorUnits(quote.TotalPayable), s.Currency, req.Description)
	if err != nil {
		return nil, fmt.Errorf("payment gateway rejected session creation: %w", err)
	}

	pmt := &models.Payment{
		ID:        uuid.New().String(),
		Reference: sess.Reference,
		SessionID: sess.SessionID,
		Amount:    pricing.ToMinorUnits(quote.TotalPayable),
		Currency:  s.Currency,
		Status:    models.PaymentStatusPending,
		UserID:    actorID,
		Metadata:  req.Metadata,
	}
	if err := s.Payments.Create(ctx, pmt); err != nil {
		// The gateway session exists but was never persisted; it simply
		// expires unused. The booking attempt does not proceed.
		return nil, fmt.Errorf("failed to persist pending payment: %w", err)
	}

	s.cachePendingHint(ctx, sess.Reference, req.Metadata)

	s.Logger.Info("payment session initiated",
		zap.String("reference", sess.Reference),
		zap.Int64("amountMinor", pmt.Amount))
	return sess, nil
}

// VerifyReturn asks the gateway for the outcome of a reference. A failed
// outcome marks the local payment row failed so later finalize attempts
// see a consistent state.
func (s *DefaultPaymentService) VerifyReturn(ctx context.Context, reference string) (*VerificationResult, error) {
	if reference == "" {
		return nil, ErrMissingReference
	}
	result, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}
	if result.Status == VerifyStatusFailed {
		if err := s.Payments.MarkFailed(ctx, reference); err != nil {
			s.Logger.Warn("could not mark payment failed", zap.String("reference", reference), zap.Error(err))
		}
	}
	return result, nil
}

func hintKey(reference string) string {
	return "checkout:hint:" + reference
}

func (s *DefaultPaymentService) cachePendingHint(ctx context.Context, reference string, meta models.PaymentMetadata) {
	if s.Cache == nil {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	ttl := s.HintTTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	if err := s.Cache.Set(ctx, hintKey(reference), data, ttl).Err(); err != nil {
		s.Logger.Warn("failed to cache pending booking hint", zap.String("reference", reference), zap.Error(err))
	}
}

// GetPendingHint returns the locally cached booking hint for a reference,
// or nil when none is cached.
func (s *DefaultPaymentService) GetPendingHint(ctx context.Context, reference string) (*models.PaymentMetadata, error) {
	if s.Cache == nil {
		return nil, nil
	}
	data, err := s.Cache.Get(ctx, hintKey(reference)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending booking hint: %w", err)
	}
	var meta models.PaymentMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse pending booking hint: %w", err)
	}
	return &meta, nil
}

// ClearPendingHint removes the cached hint. Called once finalization has
// been attempted, regardless of outcome, so a stale hint can never replay
// on a future unrelated payment return.
func (s *DefaultPaymentService) ClearPendingHint(ctx context.Context, reference string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, hintKey(reference)).Err(); err != nil {
		s.Logger.Warn("failed to clear pending booking hint", zap.String("reference", reference), zap.Error(err))
	}
}

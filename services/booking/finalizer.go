package booking

import (
	"context"
	"errors"

	bookingRepo "servana/database/repository/booking"
	catalogRepo "servana/database/repository/catalog"
	paymentRepo "servana/database/repository/payment"
	specialistRepo "servana/database/repository/specialist"
	"servana/models"
	"servana/services/notification"
	"servana/services/payment"
	"servana/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FinalizeResult is the converged outcome of finalization. Re-entry for an
// already-finalized reference returns the same resource id.
type FinalizeResult struct {
	ResourceID       string `json:"resourceId"`
	ResourceType     string `json:"resourceType"`
	OrderReference   string `json:"orderReference,omitempty"`
	AlreadyFinalized bool   `json:"alreadyFinalized"`
}

// ReferenceGenerator owns the order-reference format and its collision
// avoidance.
type ReferenceGenerator interface {
	Generate() string
}

// DefaultReferenceGenerator delegates to the shared generator.
type DefaultReferenceGenerator struct{}

func (DefaultReferenceGenerator) Generate() string { return utils.GenerateOrderReference() }

// PaymentVerifier is the slice of the gateway the finalizer needs to force
// a status refresh.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*payment.VerificationResult, error)
}

// Finalizer turns a paid gateway reference into exactly one domain resource.
type Finalizer interface {
	FinalizeBooking(ctx context.Context, reference, actorID string) (*FinalizeResult, error)
}

// DefaultBookingFinalizer is the production implementation. Invocations are
// stateless; the payment row is the single arbitration point, so two
// concurrent calls for the same reference converge through the atomic
// pending->completed claim plus the unique payment_ref index on resources.
type DefaultBookingFinalizer struct {
	Payments    paymentRepo.PaymentRepository
	Bookings    bookingRepo.BookingRepository
	Catalog     catalogRepo.CatalogRepository
	Specialists specialistRepo.SpecialistRepository
	Verifier    PaymentVerifier
	Notifier    notification.NotificationService
	Refs        ReferenceGenerator
	Logger      *zap.Logger
}

// FinalizeBooking implements the finalization state machine:
// look up -> (re-verify once) -> idempotent short-circuit -> ownership ->
// metadata validation -> service resolution + dedup -> claim -> create ->
// link -> notify.
func (s *DefaultBookingFinalizer) FinalizeBooking(ctx context.Context, reference, actorID string) (*FinalizeResult, error) {
	if reference == "" {
		return nil, newError(CodeValidation, "payment reference is required")
	}

	pmt, err := s.Payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, wrapError(CodeExternalService, "failed to look up payment", err)
	}
	if pmt == nil {
		// Force one gateway refresh, then re-query. The verifier may have
		// landed the row through another path in the meantime.
		if _, verr := s.Verifier.Verify(ctx, reference); verr != nil {
			s.Logger.Warn("forced re-verify failed", zap.String("reference", reference), zap.Error(verr))
		}
		pmt, err = s.Payments.GetByReference(ctx, reference)
		if err != nil {
			return nil, wrapError(CodeExternalService, "failed to look up payment", err)
		}
		if pmt == nil {
			return nil, newError(CodePaymentNotFound, "no payment found for reference "+reference)
		}
	}

	// Idempotent short-circuit. Checked before any write so retries and
	// duplicate webhook deliveries can never create a second resource.
	if pmt.Status == models.PaymentStatusCompleted && pmt.Linked() {
		return &FinalizeResult{
			ResourceID:       pmt.ResourceID,
			ResourceType:     pmt.ResourceType,
			AlreadyFinalized: true,
		}, nil
	}

	if pmt.UserID != "" && actorID != "" && pmt.UserID != actorID {
		s.Logger.Warn("finalize ownership mismatch",
			zap.String("reference", reference),
			zap.String("paymentUser", pmt.UserID),
			zap.String("actor", actorID))
		return nil, newError(CodeForbidden, "payment belongs to a different user")
	}

	if err := pmt.Metadata.Validate(); err != nil {
		if errors.Is(err, models.ErrInvalidBookingType) || errors.Is(err, models.ErrMetadataMismatch) {
			return nil, wrapError(CodeInvalidPaymentType, "payment metadata has no valid booking type", err)
		}
		return nil, wrapError(CodeValidation, "payment metadata is invalid", err)
	}

	types, err := s.Catalog.GetByIDs(ctx, pmt.Metadata.ServiceTypeIDs())
	if err != nil {
		return nil, wrapError(CodeExternalService, "failed to resolve service types", err)
	}
	if len(types) == 0 {
		return nil, newError(CodeServicesNotFound, "none of the selected service types exist")
	}
	items := dedupeByBaseService(types)

	if pmt.Status == models.PaymentStatusPending {
		// The row is local and pending; make sure the gateway actually
		// settled before claiming.
		vr, verr := s.Verifier.Verify(ctx, reference)
		if verr != nil {
			return nil, wrapError(CodeExternalService, "payment verification failed", verr)
		}
		if vr.Status != payment.VerifyStatusComplete {
			return nil, newError(CodePaymentNotCompleted, "payment is not complete: "+vr.Status)
		}

		claimed, cerr := s.Payments.ClaimPending(ctx, reference)
		if cerr != nil {
			return nil, wrapError(CodeExternalService, "failed to claim payment", cerr)
		}
		if !claimed {
			// A concurrent finalizer won the claim. Converge on its outcome.
			pmt, err = s.Payments.GetByReference(ctx, reference)
			if err != nil || pmt == nil {
				return nil, wrapError(CodeExternalService, "failed to re-read payment after lost claim", err)
			}
			if pmt.Linked() {
				return &FinalizeResult{
					ResourceID:       pmt.ResourceID,
					ResourceType:     pmt.ResourceType,
					AlreadyFinalized: true,
				}, nil
			}
			// Winner claimed but has not linked yet (or crashed). Fall
			// through: resource creation below converges on the unique
			// payment_ref index.
		}
	}

	// Backfill ownership recorded post-hoc when initiation was anonymous.
	if pmt.UserID == "" && actorID != "" {
		if err := s.Payments.SetUserID(ctx, reference, actorID); err != nil {
			s.Logger.Warn("could not backfill payment owner", zap.String("reference", reference), zap.Error(err))
		} else {
			pmt.UserID = actorID
		}
	}

	result, err := s.createResource(ctx, pmt, items)
	if err != nil {
		return nil, err
	}

	if err := s.Payments.LinkResource(ctx, reference, result.ResourceID, result.ResourceType); err != nil {
		// The resource exists but the payment row does not point at it.
		// Operator-visible inconsistency; the idempotent create path above
		// repairs it on the next finalize attempt.
		s.Logger.Error("partial failure: resource created but payment not linked",
			zap.String("reference", reference),
			zap.String("resourceId", result.ResourceID),
			zap.Error(err))
	}

	if !result.AlreadyFinalized {
		s.notify(ctx, pmt, result, items)
	}
	return result, nil
}

// createResource inserts the domain resource for the payment's booking type.
// The unique index on payment_ref makes this safe to reach from concurrent
// or repair invocations: the loser fetches the winner's row.
func (s *DefaultBookingFinalizer) createResource(ctx context.Context, pmt *models.Payment, items []models.BookingItem) (*FinalizeResult, error) {
	orderRef := s.Refs.Generate()

	switch pmt.Metadata.BookingType {
	case models.BookingTypeBeauty:
		meta := pmt.Metadata.Beauty
		appt := &models.Appointment{
			ID:             uuid.New().String(),
			ClientID:       pmt.UserID,
			SpecialistID:   meta.SpecialistID,
			Date:           meta.Date,
			Time:           meta.Time,
			OrderReference: orderRef,
			PaymentRef:     pmt.Reference,
			Status:         models.AppointmentStatusConfirmed,
			Notes:          meta.Notes,
			Items:          items,
		}
		if err := s.Bookings.CreateAppointment(ctx, appt); err != nil {
			if errors.Is(err, bookingRepo.ErrDuplicatePaymentRef) {
				existing, gerr := s.Bookings.GetAppointmentByPaymentRef(ctx, pmt.Reference)
				if gerr != nil || existing == nil {
					return nil, wrapError(CodeBookingIncomplete, "duplicate appointment detected but not readable", gerr)
				}
				return &FinalizeResult{
					ResourceID:       existing.ID,
					ResourceType:     models.ResourceTypeAppointment,
					OrderReference:   existing.OrderReference,
					AlreadyFinalized: true,
				}, nil
			}
			s.Logger.Error("completed payment left without resource",
				zap.String("reference", pmt.Reference), zap.Error(err))
			return nil, wrapError(CodeBookingIncomplete, "payment succeeded but the appointment could not be created", err)
		}
		return &FinalizeResult{
			ResourceID:     appt.ID,
			ResourceType:   models.ResourceTypeAppointment,
			OrderReference: orderRef,
		}, nil

	case models.BookingTypeLaundry, models.BookingTypeCleaning:
		order := s.buildOrder(ctx, pmt, items, orderRef)
		if err := s.Bookings.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, bookingRepo.ErrDuplicatePaymentRef) {
				existing, gerr := s.Bookings.GetOrderByPaymentRef(ctx, pmt.Reference)
				if gerr != nil || existing == nil {
					return nil, wrapError(CodeBookingIncomplete, "duplicate order detected but not readable", gerr)
				}
				return &FinalizeResult{
					ResourceID:       existing.ID,
					ResourceType:     models.ResourceTypeOrder,
					OrderReference:   existing.OrderReference,
					AlreadyFinalized: true,
				}, nil
			}
			s.Logger.Error("completed payment left without resource",
				zap.String("reference", pmt.Reference), zap.Error(err))
			return nil, wrapError(CodeBookingIncomplete, "payment succeeded but the order could not be created", err)
		}
		return &FinalizeResult{
			ResourceID:     order.ID,
			ResourceType:   models.ResourceTypeOrder,
			OrderReference: orderRef,
		}, nil

	default:
		return nil, newError(CodeInvalidPaymentType, "unknown booking type")
	}
}

// buildOrder assembles the laundry/cleaning order, auto-assigning the first
// available specialist. No availability means an unassigned order, not a
// failed booking.
func (s *DefaultBookingFinalizer) buildOrder(ctx context.Context, pmt *models.Payment, items []models.BookingItem, orderRef string) *models.Order {
	order := &models.Order{
		ID:             uuid.New().String(),
		Kind:           pmt.Metadata.BookingType,
		ClientID:       pmt.UserID,
		OrderReference: orderRef,
		PaymentRef:     pmt.Reference,
		Items:          items,
	}
	switch pmt.Metadata.BookingType {
	case models.BookingTypeLaundry:
		meta := pmt.Metadata.Laundry
		order.Date = meta.Date
		order.Time = meta.Time
		order.Notes = meta.Notes
		order.PickupAddress = meta.PickupAddress
		order.DeliveryAddress = meta.DeliveryAddress
		order.Status = models.OrderStatusPendingPickup
	case models.BookingTypeCleaning:
		meta := pmt.Metadata.Cleaning
		order.Date = meta.Date
		order.Time = meta.Time
		order.Notes = meta.Notes
		order.Address = meta.Address
		order.Status = models.CleaningStatusPending
	}

	sp, err := s.Specialists.FindFirstAvailable(ctx, pmt.Metadata.BookingType)
	if err != nil {
		s.Logger.Warn("specialist assignment query failed", zap.String("reference", pmt.Reference), zap.Error(err))
	} else if sp != nil {
		order.SpecialistID = sp.ID
	}
	return order
}

// notify fans out the booking-finalized notifications. Best-effort only.
func (s *DefaultBookingFinalizer) notify(ctx context.Context, pmt *models.Payment, result *FinalizeResult, items []models.BookingItem) {
	var total float64
	for _, it := range items {
		total += it.Price
	}

	fb := notification.FinalizedBooking{
		ResourceID:     result.ResourceID,
		ResourceType:   result.ResourceType,
		BookingType:    pmt.Metadata.BookingType,
		ClientID:       pmt.UserID,
		OrderReference: result.OrderReference,
		Total:          total,
	}
	switch pmt.Metadata.BookingType {
	case models.BookingTypeBeauty:
		fb.SpecialistID = pmt.Metadata.Beauty.SpecialistID
		fb.Date = pmt.Metadata.Beauty.Date
		fb.Time = pmt.Metadata.Beauty.Time
	case models.BookingTypeLaundry:
		fb.Date = pmt.Metadata.Laundry.Date
		fb.Time = pmt.Metadata.Laundry.Time
		fb.PickupAddress = pmt.Metadata.Laundry.PickupAddress
		fb.DeliveryAddress = pmt.Metadata.Laundry.DeliveryAddress
	case models.BookingTypeCleaning:
		fb.Date = pmt.Metadata.Cleaning.Date
		fb.Time = pmt.Metadata.Cleaning.Time
		fb.Address = pmt.Metadata.Cleaning.Address
	}
	if fb.SpecialistID == "" && result.ResourceType == models.ResourceTypeOrder {
		if order, err := s.Bookings.GetOrderByID(ctx, result.ResourceID); err == nil && order != nil {
			fb.SpecialistID = order.SpecialistID
		}
	}

	if err := s.Notifier.BookingFinalized(ctx, fb); err != nil {
		s.Logger.Warn("booking notifications failed",
			zap.String("resourceId", result.ResourceID), zap.Error(err))
	}
}

// dedupeByBaseService collapses selected service types that share a base
// service, keeping the first occurrence. Satisfies the uniqueness of
// (resource, base service) line items.
func dedupeByBaseService(types []models.ServiceType) []models.BookingItem {
	seen := make(map[string]bool, len(types))
	items := make([]models.BookingItem, 0, len(types))
	for _, t := range types {
		key := t.BaseServiceID
		if key == "" {
			key = t.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, models.BookingItem{
			ServiceTypeID: t.ID,
			BaseServiceID: key,
			Name:          t.Name,
			Price:         t.Price,
		})
	}
	return items
}

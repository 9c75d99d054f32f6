package notification

import (
	"context"

	"servana/models"
)

// FinalizedBooking is the summary the finalizer hands to the notifier once
// a booking exists. Everything needed to compose messages is carried here
// so the notifier never re-reads the resource.
type FinalizedBooking struct {
	ResourceID      string
	ResourceType    string
	BookingType     models.BookingType
	ClientID        string
	SpecialistID    string // empty when auto-assignment found nobody
	OrderReference  string
	Date            string
	Time            string
	PickupAddress   string
	DeliveryAddress string
	Address         string
	Total           float64 // major units
}

// StatusChange describes one applied lifecycle transition.
type StatusChange struct {
	ResourceID     string
	ResourceType   string
	ClientID       string
	SpecialistID   string
	OrderReference string
	From           string
	To             string
}

// NotificationService fans out in-app notifications, push and email. Every
// method is best-effort: callers log and swallow errors, booking
// correctness never depends on delivery.
type NotificationService interface {
	BookingFinalized(ctx context.Context, b FinalizedBooking) error
	StatusChanged(ctx context.Context, c StatusChange) error
	RatingPrompt(ctx context.Context, clientID, resourceID string) error
}

package models

import "time"

// Laundry order statuses.
const (
	OrderStatusPendingPickup  = "pending_pickup"
	OrderStatusPickedUp       = "picked_up"
	OrderStatusWashing        = "washing"
	OrderStatusReady          = "ready"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Cleaning order statuses.
const (
	CleaningStatusPending    = "pending"
	CleaningStatusConfirmed  = "confirmed"
	CleaningStatusInProgress = "in_progress"
	CleaningStatusCompleted  = "completed"
	CleaningStatusCanceled   = "canceled"
)

// Order is the domain resource for laundry and cleaning bookings. The
// specialist id stays empty until auto-assignment resolves (and may remain
// empty when nobody is available).
type Order struct {
	ID              string        `bson:"id" json:"id"`
	Kind            BookingType   `bson:"kind" json:"kind"` // laundry or cleaning
	ClientID        string        `bson:"client_id" json:"clientId"`
	SpecialistID    string        `bson:"specialist_id,omitempty" json:"specialistId,omitempty"`
	Date            string        `bson:"date" json:"date"`
	Time            string        `bson:"time" json:"time"`
	OrderReference  string        `bson:"order_reference" json:"orderReference"` // unique
	PaymentRef      string        `bson:"payment_ref" json:"paymentRef"`         // unique, one resource per payment
	Status          string        `bson:"status" json:"status"`
	Notes           string        `bson:"notes,omitempty" json:"notes,omitempty"`
	PickupAddress   string        `bson:"pickup_address,omitempty" json:"pickupAddress,omitempty"`
	DeliveryAddress string        `bson:"delivery_address,omitempty" json:"deliveryAddress,omitempty"`
	Address         string        `bson:"address,omitempty" json:"address,omitempty"`
	Items           []BookingItem `bson:"items" json:"items"`
	CreatedAt       time.Time     `bson:"created_at" json:"createdAt"`
	CancelledAt     *time.Time    `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
}

// ServiceTotal sums the snapshotted line-item prices.
func (o *Order) ServiceTotal() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Price
	}
	return total
}

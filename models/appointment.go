package models

import "time"

// Beauty appointment statuses.
const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCanceled  = "canceled"
)

// BookingItem is a service-type line item with its price snapshotted at
// booking time. (BaseServiceID, resource) pairs are unique per resource.
type BookingItem struct {
	ServiceTypeID string  `bson:"service_type_id" json:"serviceTypeId"`
	BaseServiceID string  `bson:"base_service_id" json:"baseServiceId"`
	Name          string  `bson:"name" json:"name"`
	Price         float64 `bson:"price" json:"price"` // major units, snapshot
}

// Appointment is the domain resource for a confirmed beauty booking.
// Created exactly once per completed payment; canceled is a soft state.
type Appointment struct {
	ID             string        `bson:"id" json:"id"`
	ClientID       string        `bson:"client_id" json:"clientId"`
	SpecialistID   string        `bson:"specialist_id,omitempty" json:"specialistId,omitempty"`
	Date           string        `bson:"date" json:"date"`
	Time           string        `bson:"time" json:"time"`
	OrderReference string        `bson:"order_reference" json:"orderReference"` // unique
	PaymentRef     string        `bson:"payment_ref" json:"paymentRef"`         // unique, one resource per payment
	Status         string        `bson:"status" json:"status"`
	Notes          string        `bson:"notes,omitempty" json:"notes,omitempty"`
	Items          []BookingItem `bson:"items" json:"items"`
	CreatedAt      time.Time     `bson:"created_at" json:"createdAt"`
	CancelledAt    *time.Time    `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
}

// ServiceTotal sums the snapshotted line-item prices.
func (a *Appointment) ServiceTotal() float64 {
	var total float64
	for _, it := range a.Items {
		total += it.Price
	}
	return total
}

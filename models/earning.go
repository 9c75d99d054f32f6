package models

import "time"

// Earning records a specialist's payout share for one completed booking.
type Earning struct {
	ID           string    `bson:"id" json:"id"`
	SpecialistID string    `bson:"specialist_id" json:"specialistId"`
	ResourceID   string    `bson:"resource_id" json:"resourceId"`
	ResourceType string    `bson:"resource_type" json:"resourceType"`
	Amount       float64   `bson:"amount" json:"amount"` // major units
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}

package models

import "time"

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Resource types a payment can be linked to.
const (
	ResourceTypeAppointment = "appointment"
	ResourceTypeOrder       = "order"
)

// Payment represents one attempt to pay for a booking. It is created before
// the client is redirected to the gateway and is the single arbitration
// point for finalization: pending -> completed happens at most once, and a
// completed payment is paired with exactly one domain resource.
type Payment struct {
	ID           string          `bson:"id" json:"id"`
	Reference    string          `bson:"reference" json:"reference"` // gateway reference, unique
	SessionID    string          `bson:"session_id" json:"sessionId"`
	Amount       int64           `bson:"amount" json:"amount"` // minor currency units
	Currency     string          `bson:"currency" json:"currency"`
	Status       string          `bson:"status" json:"status"`
	UserID       string          `bson:"user_id,omitempty" json:"userId,omitempty"`
	ResourceID   string          `bson:"resource_id,omitempty" json:"resourceId,omitempty"`
	ResourceType string          `bson:"resource_type,omitempty" json:"resourceType,omitempty"`
	Metadata     PaymentMetadata `bson:"metadata" json:"metadata"`
	CreatedAt    time.Time       `bson:"created_at" json:"createdAt"`
	CompletedAt  *time.Time      `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// Linked reports whether the payment already has its domain resource.
func (p *Payment) Linked() bool {
	return p.ResourceID != ""
}

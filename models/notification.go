package models

import "time"

// Notification priorities.
const (
	NotificationPriorityNormal = "normal"
	NotificationPriorityHigh   = "high"
)

// Notification types.
const (
	NotificationTypeBookingConfirmed = "booking_confirmed"
	NotificationTypeNewJob           = "new_job"
	NotificationTypeStatusChanged    = "status_changed"
	NotificationTypeRatingPrompt     = "rating_prompt"
	NotificationTypeReminder         = "reminder"
)

// Notification is an in-app message row. Best-effort side channel: booking
// correctness never depends on it.
type Notification struct {
	ID         string     `bson:"id" json:"id"`
	UserID     string     `bson:"user_id" json:"userId"`
	Title      string     `bson:"title" json:"title"`
	Message    string     `bson:"message" json:"message"`
	Type       string     `bson:"type" json:"type"`
	RelatedID  string     `bson:"related_id,omitempty" json:"relatedId,omitempty"`
	Priority   string     `bson:"priority" json:"priority"`
	Read       bool       `bson:"read" json:"read"`
	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
}

package models

// EmailPayload is the asynq task body for transactional email delivery.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// PushPayload is the asynq task body for an FCM push.
type PushPayload struct {
	Target string            `json:"target"` // "user" or "specialist"
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// ReminderPayload is the asynq task body for a scheduled booking reminder.
type ReminderPayload struct {
	Target     string `json:"target"`
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	FireDate   string `json:"fireDate"`
}

package tasks

import (
	"encoding/json"
	"fmt"

	"servana/models"

	"github.com/hibiken/asynq"
)

// Task type names registered with the asynq mux.
const (
	TypeEmailDelivery = "notify:email"
	TypePushDelivery  = "notify:push"
	TypeReminder      = "notify:reminder"
)

func NewEmailDeliveryTask(p models.EmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, payload, asynq.MaxRetry(3)), nil
}

func NewPushDeliveryTask(p models.PushPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push payload: %w", err)
	}
	return asynq.NewTask(TypePushDelivery, payload, asynq.MaxRetry(3)), nil
}

func NewReminderTask(p models.ReminderPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminder payload: %w", err)
	}
	return asynq.NewTask(TypeReminder, payload, asynq.MaxRetry(5)), nil
}

package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"servana/config"
	specialistRepo "servana/database/repository/specialist"
	userRepo "servana/database/repository/user"
	"servana/models"
	"servana/services/tasks"
	"servana/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes the notification task queue: email delivery, FCM pushes
// and scheduled reminders. It runs inside the API process.
type Worker struct {
	Users       userRepo.UserRepository
	Specialists specialistRepo.SpecialistRepository
	Email       utils.EmailSender
	FCM         *messaging.Client // nil disables push delivery
	Logger      *zap.Logger

	srv *asynq.Server
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	}
}

// NewTaskClient returns the enqueue side of the queue.
func NewTaskClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// Start runs the worker in the background. Delivery failures are retried by
// asynq up to the per-task retry limit.
func (w *Worker) Start() {
	w.srv = asynq.NewServer(redisOpts(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeEmailDelivery, w.handleEmail)
	mux.HandleFunc(tasks.TypePushDelivery, w.handlePush)
	mux.HandleFunc(tasks.TypeReminder, w.handleReminder)

	go func() {
		w.Logger.Info("notification worker starting")
		if err := w.srv.Run(mux); err != nil {
			w.Logger.Error("notification worker stopped", zap.Error(err))
		}
	}()
}

// Shutdown drains in-flight tasks.
func (w *Worker) Shutdown() {
	if w.srv != nil {
		w.srv.Shutdown()
	}
}

func (w *Worker) handleEmail(ctx context.Context, task *asynq.Task) error {
	var p models.EmailPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.Logger.Error("invalid email payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if err := w.Email.Send(p.To, p.Subject, p.HTML); err != nil {
		w.Logger.Warn("email delivery failed", zap.String("to", p.To), zap.Error(err))
		return err
	}
	return nil
}

func (w *Worker) handlePush(ctx context.Context, task *asynq.Task) error {
	var p models.PushPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.Logger.Error("invalid push payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.sendPush(ctx, p.Target, p.ID, p.Title, p.Body, p.Data)
}

func (w *Worker) handleReminder(ctx context.Context, task *asynq.Task) error {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.Logger.Error("invalid reminder payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	data := map[string]string{
		"resourceId": p.ResourceID,
		"fireDate":   p.FireDate,
	}
	return w.sendPush(ctx, p.Target, p.ID, p.Title, p.Body, data)
}

func (w *Worker) sendPush(ctx context.Context, target, id, title, body string, data map[string]string) error {
	if w.FCM == nil {
		w.Logger.Debug("push delivery disabled, dropping task", zap.String("target", id))
		return nil
	}

	var token string
	switch target {
	case "user":
		user, err := w.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user != nil {
			token = user.FCMToken
		}
	case "specialist":
		sp, err := w.Specialists.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sp != nil {
			token = sp.FCMToken
		}
	default:
		w.Logger.Warn("unknown push target", zap.String("target", target))
		return nil
	}
	if token == "" {
		// No registered device; nothing to retry.
		return nil
	}

	_, err := w.FCM.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		w.Logger.Warn("push delivery failed", zap.String("target", id), zap.Error(err))
		return err
	}
	return nil
}

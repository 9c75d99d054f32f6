package notification

import (
	"context"
	"fmt"
	"time"

	notificationRepo "servana/database/repository/notification"
	specialistRepo "servana/database/repository/specialist"
	userRepo "servana/database/repository/user"
	"servana/models"
	"servana/services/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskEnqueuer is the slice of *asynq.Client the notifier needs.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const notificationTTL = 30 * 24 * time.Hour

// reminderLead is how long before the appointment slot the reminder fires.
const reminderLead = time.Hour

// DefaultNotificationService writes the in-app notification row synchronously
// and hands email and push off to the asynq queue. A nil Enqueuer disables
// the queue-backed channels, which keeps tests and local runs simple.
type DefaultNotificationService struct {
	Users       userRepo.UserRepository
	Specialists specialistRepo.SpecialistRepository
	Store       notificationRepo.NotificationRepository
	Enqueuer    TaskEnqueuer
	Logger      *zap.Logger
}

func (s *DefaultNotificationService) BookingFinalized(ctx context.Context, b FinalizedBooking) error {
	title := fmt.Sprintf("%s confirmed", bookingLabel(b.BookingType))
	msg := fmt.Sprintf("Your booking %s is confirmed. Total paid: %.2f.", b.OrderReference, b.Total)

	err := s.inApp(ctx, b.ClientID, models.NotificationTypeBookingConfirmed, title, msg, b.ResourceID, models.NotificationPriorityHigh)

	s.emailUser(ctx, b.ClientID, title, confirmationEmailHTML(b))
	s.push("user", b.ClientID, title, msg, map[string]string{
		"resourceId":   b.ResourceID,
		"resourceType": b.ResourceType,
	})

	if b.SpecialistID != "" {
		jobTitle := fmt.Sprintf("New %s job", bookingLabel(b.BookingType))
		jobMsg := fmt.Sprintf("You have been assigned booking %s.", b.OrderReference)
		if nErr := s.inApp(ctx, b.SpecialistID, models.NotificationTypeNewJob, jobTitle, jobMsg, b.ResourceID, models.NotificationPriorityHigh); nErr != nil && err == nil {
			err = nErr
		}
		s.emailSpecialist(ctx, b, jobTitle)
		s.push("specialist", b.SpecialistID, jobTitle, jobMsg, map[string]string{"resourceId": b.ResourceID})
	}

	s.scheduleReminder(b)
	return err
}

func (s *DefaultNotificationService) StatusChanged(ctx context.Context, c StatusChange) error {
	title := "Booking update"
	msg := fmt.Sprintf("Booking %s is now %s.", c.OrderReference, c.To)

	err := s.inApp(ctx, c.ClientID, models.NotificationTypeStatusChanged, title, msg, c.ResourceID, models.NotificationPriorityNormal)
	s.push("user", c.ClientID, title, msg, map[string]string{"resourceId": c.ResourceID, "status": c.To})

	if c.SpecialistID != "" {
		if nErr := s.inApp(ctx, c.SpecialistID, models.NotificationTypeStatusChanged, title, msg, c.ResourceID, models.NotificationPriorityNormal); nErr != nil && err == nil {
			err = nErr
		}
	}
	return err
}

func (s *DefaultNotificationService) RatingPrompt(ctx context.Context, clientID, resourceID string) error {
	title := "How was your appointment?"
	msg := "Your appointment is complete. Take a moment to rate your specialist."
	err := s.inApp(ctx, clientID, models.NotificationTypeRatingPrompt, title, msg, resourceID, models.NotificationPriorityNormal)
	s.push("user", clientID, title, msg, map[string]string{"resourceId": resourceID})
	return err
}

func (s *DefaultNotificationService) inApp(ctx context.Context, userID, typ, title, msg, relatedID, priority string) error {
	expires := time.Now().Add(notificationTTL)
	return s.Store.Create(ctx, &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   msg,
		Type:      typ,
		RelatedID: relatedID,
		Priority:  priority,
		ExpiresAt: &expires,
	})
}

func (s *DefaultNotificationService) push(target, id, title, body string, data map[string]string) {
	if s.Enqueuer == nil {
		return
	}
	task, err := tasks.NewPushDeliveryTask(models.PushPayload{Target: target, ID: id, Title: title, Body: body, Data: data})
	if err != nil {
		s.Logger.Warn("failed to build push task", zap.Error(err))
		return
	}
	if _, err := s.Enqueuer.Enqueue(task); err != nil {
		s.Logger.Warn("failed to enqueue push task", zap.String("target", id), zap.Error(err))
	}
}

func (s *DefaultNotificationService) emailUser(ctx context.Context, userID, subject, html string) {
	if s.Enqueuer == nil {
		return
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil || user == nil || user.Email == "" {
		s.Logger.Warn("skipping confirmation email, user not resolvable", zap.String("userId", userID), zap.Error(err))
		return
	}
	task, err := tasks.NewEmailDeliveryTask(models.EmailPayload{To: user.Email, Subject: subject, HTML: html})
	if err != nil {
		s.Logger.Warn("failed to build email task", zap.Error(err))
		return
	}
	if _, err := s.Enqueuer.Enqueue(task); err != nil {
		s.Logger.Warn("failed to enqueue email task", zap.String("to", user.Email), zap.Error(err))
	}
}

// emailSpecialist sends the assigned specialist the job sheet: who the
// client is, where and when, the reference and the service total.
func (s *DefaultNotificationService) emailSpecialist(ctx context.Context, b FinalizedBooking, subject string) {
	if s.Enqueuer == nil {
		return
	}
	sp, err := s.Specialists.GetByID(ctx, b.SpecialistID)
	if err != nil || sp == nil || sp.Email == "" {
		s.Logger.Warn("skipping job email, specialist not resolvable",
			zap.String("specialistId", b.SpecialistID), zap.Error(err))
		return
	}
	clientName := b.ClientID
	if client, cErr := s.Users.GetByID(ctx, b.ClientID); cErr == nil && client != nil && client.Name != "" {
		clientName = client.Name
	}
	task, err := tasks.NewEmailDeliveryTask(models.EmailPayload{To: sp.Email, Subject: subject, HTML: jobEmailHTML(b, clientName)})
	if err != nil {
		s.Logger.Warn("failed to build email task", zap.Error(err))
		return
	}
	if _, err := s.Enqueuer.Enqueue(task); err != nil {
		s.Logger.Warn("failed to enqueue email task", zap.String("to", sp.Email), zap.Error(err))
	}
}

// scheduleReminder queues a pre-appointment reminder an hour before the
// slot. Orders carry no slot, so only beauty bookings get one.
func (s *DefaultNotificationService) scheduleReminder(b FinalizedBooking) {
	if s.Enqueuer == nil || b.BookingType != models.BookingTypeBeauty || b.Date == "" || b.Time == "" {
		return
	}
	slot, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, time.Local)
	if err != nil {
		s.Logger.Warn("unparseable appointment slot, skipping reminder",
			zap.String("date", b.Date), zap.String("time", b.Time))
		return
	}
	fireAt := slot.Add(-reminderLead)
	if !fireAt.After(time.Now()) {
		return
	}

	targets := []struct{ target, id string }{{"user", b.ClientID}}
	if b.SpecialistID != "" {
		targets = append(targets, struct{ target, id string }{"specialist", b.SpecialistID})
	}
	for _, t := range targets {
		task, err := tasks.NewReminderTask(models.ReminderPayload{
			Target:     t.target,
			ID:         t.id,
			ResourceID: b.ResourceID,
			Title:      "Upcoming appointment",
			Body:       fmt.Sprintf("Reminder: appointment %s at %s.", b.OrderReference, b.Time),
			FireDate:   fireAt.Format(time.RFC3339),
		})
		if err != nil {
			s.Logger.Warn("failed to build reminder task", zap.Error(err))
			continue
		}
		if _, err := s.Enqueuer.Enqueue(task, asynq.ProcessAt(fireAt)); err != nil {
			s.Logger.Warn("failed to schedule reminder", zap.String("target", t.id), zap.Error(err))
		}
	}
}

func bookingLabel(t models.BookingType) string {
	switch t {
	case models.BookingTypeBeauty:
		return "Beauty appointment"
	case models.BookingTypeLaundry:
		return "Laundry order"
	case models.BookingTypeCleaning:
		return "Cleaning order"
	default:
		return "Booking"
	}
}

func bookingWhereHTML(b FinalizedBooking) string {
	switch b.BookingType {
	case models.BookingTypeLaundry:
		return fmt.Sprintf("<p>Pickup: %s<br>Delivery: %s</p>", b.PickupAddress, b.DeliveryAddress)
	case models.BookingTypeCleaning:
		return fmt.Sprintf("<p>Address: %s</p>", b.Address)
	default:
		return fmt.Sprintf("<p>Date: %s at %s</p>", b.Date, b.Time)
	}
}

func confirmationEmailHTML(b FinalizedBooking) string {
	return fmt.Sprintf(
		"<h2>%s confirmed</h2><p>Reference: <strong>%s</strong></p>%s<p>Total paid: %.2f</p>",
		bookingLabel(b.BookingType), b.OrderReference, bookingWhereHTML(b), b.Total,
	)
}

func jobEmailHTML(b FinalizedBooking, clientName string) string {
	return fmt.Sprintf(
		"<h2>New %s job</h2><p>Client: %s</p><p>Reference: <strong>%s</strong></p>%s<p>Service total: %.2f</p>",
		bookingLabel(b.BookingType), clientName, b.OrderReference, bookingWhereHTML(b), b.Total,
	)
}

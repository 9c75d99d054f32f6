package handlers

import (
	bookingRepo "servana/database/repository/booking"
	notificationRepo "servana/database/repository/notification"
	"servana/services/booking"
	"servana/services/catalog"
	"servana/services/earnings"
	"servana/services/lifecycle"
	"servana/services/payment"
	"servana/services/specialist"
	"servana/services/storage"
	"servana/services/user"
)

// HandlerBundle groups the services the HTTP layer depends on. Handlers are
// methods on the bundle so route registration stays declarative.
type HandlerBundle struct {
	Payments      payment.PaymentService
	Finalizer     booking.Finalizer
	Lifecycle     lifecycle.LifecycleService
	Users         user.UserService
	Specialists   specialist.SpecialistService
	Earnings      earnings.EarningsService
	Catalog       catalog.CatalogService
	Storage       storage.StorageService
	Bookings      bookingRepo.BookingRepository
	Notifications notificationRepo.NotificationRepository
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servana/config"
	"servana/database"
	bookingRepoPkg "servana/database/repository/booking"
	catalogRepoPkg "servana/database/repository/catalog"
	earningRepoPkg "servana/database/repository/earning"
	notificationRepoPkg "servana/database/repository/notification"
	paymentRepoPkg "servana/database/repository/payment"
	specialistRepoPkg "servana/database/repository/specialist"
	userRepoPkg "servana/database/repository/user"
	"servana/handlers"
	"servana/routes"
	"servana/services/booking"
	"servana/services/catalog"
	"servana/services/earnings"
	"servana/services/lifecycle"
	"servana/services/notification"
	"servana/services/payment"
	"servana/services/specialist"
	"servana/services/user"
	"servana/utils"
	"servana/workers"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	storageService, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	payments := paymentRepoPkg.NewMongoPaymentRepo()
	bookings := bookingRepoPkg.NewMongoBookingRepo()
	catalogRepo := catalogRepoPkg.NewMongoCatalogRepo()
	specialists := specialistRepoPkg.NewMongoSpecialistRepo()
	users := userRepoPkg.NewMongoUserRepo()
	notifications := notificationRepoPkg.NewMongoNotificationRepo()
	earningsRepo := earningRepoPkg.NewMongoEarningRepo()

	// task queue (enqueue side + in-process worker).
	taskClient := workers.NewTaskClient()
	defer taskClient.Close()

	// services.
	notificationService := &notification.DefaultNotificationService{
		Users:       users,
		Specialists: specialists,
		Store:       notifications,
		Enqueuer:    taskClient,
		Logger:      logger,
	}

	gateway := payment.NewStripeGateway()
	paymentService := &payment.DefaultPaymentService{
		Gateway:  gateway,
		Payments: payments,
		Catalog:  catalogRepo,
		Cache:    utils.GetCheckoutCacheClient(),
		HintTTL:  time.Duration(config.AppConfig.CheckoutHintTTL) * time.Minute,
		Currency: config.AppConfig.PaymentCurrency,
		Logger:   logger,
	}

	finalizer := &booking.DefaultBookingFinalizer{
		Payments:    payments,
		Bookings:    bookings,
		Catalog:     catalogRepo,
		Specialists: specialists,
		Verifier:    gateway,
		Notifier:    notificationService,
		Refs:        booking.DefaultReferenceGenerator{},
		Logger:      logger,
	}

	earningsService := &earnings.DefaultEarningsService{
		Earnings: earningsRepo,
		Logger:   logger,
	}

	lifecycleService := &lifecycle.DefaultLifecycleService{
		Bookings: bookings,
		Earnings: earningsService,
		Notifier: notificationService,
		Logger:   logger,
	}

	userService := &user.DefaultUserService{Users: users, Logger: logger}
	specialistService := &specialist.DefaultSpecialistService{Specialists: specialists, Logger: logger}
	catalogService := &catalog.DefaultCatalogService{Catalog: catalogRepo}

	// background worker for email, push and reminders.
	worker := &workers.Worker{
		Users:       users,
		Specialists: specialists,
		Email:       utils.NewSMTPEmailSender(),
		FCM:         utils.FCMClient,
		Logger:      logger,
	}
	worker.Start()
	defer worker.Shutdown()

	handlerBundle := &handlers.HandlerBundle{
		Payments:      paymentService,
		Finalizer:     finalizer,
		Lifecycle:     lifecycleService,
		Users:         userService,
		Specialists:   specialistService,
		Earnings:      earningsService,
		Catalog:       catalogService,
		Storage:       storageService,
		Bookings:      bookings,
		Notifications: notifications,
	}

	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

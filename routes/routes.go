package routes

import (
	"net/http"
	"time"

	"servana/handlers"
	"servana/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes registers client account endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	{
		api.POST("/register", hb.RegisterUserHandler)
		api.POST("/login", hb.AuthenticateUserHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth("user"))
		protected.GET("/me", hb.GetUserProfileHandler)
		protected.PUT("/me/fcm-token", hb.UpdateUserFCMTokenHandler)
	}
}

// RegisterSpecialistRoutes registers provider account endpoints.
func RegisterSpecialistRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/specialists")
	{
		api.POST("/register", hb.RegisterSpecialistHandler)
		api.POST("/login", hb.AuthenticateSpecialistHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth("specialist"))
		protected.GET("/me", hb.GetSpecialistProfileHandler)
		protected.PUT("/me/availability", hb.SetAvailabilityHandler)
		protected.PUT("/me/fcm-token", hb.UpdateSpecialistFCMTokenHandler)
		protected.POST("/me/photo", hb.UploadSpecialistPhotoHandler)
		protected.GET("/me/earnings", hb.ListEarningsHandler)
	}
}

// RegisterPaymentRoutes registers checkout, return and webhook endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		// The gateway redirect and webhook arrive without user credentials.
		api.GET("/return", middleware.OptionalJWTAuth(), hb.PaymentReturnHandler)
		api.POST("/webhook", hb.StripeWebhookHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth("user"))
		protected.POST("/initiate", hb.InitiatePaymentHandler)
		protected.POST("/finalize", hb.FinalizeBookingHandler)
		protected.GET("/hint/:reference", hb.PendingHintHandler)
	}
}

// RegisterBookingRoutes registers booking read and lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		// Both clients and specialists operate on bookings; the services
		// enforce participant checks per resource.
		api.Use(middleware.JWTAuth(""))
		api.GET("/mine", hb.ListMyBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.PUT("/:id/status", hb.TransitionStatusHandler)
	}
}

// RegisterNotificationRoutes registers the in-app notification read model.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuth(""))
		api.GET("", hb.ListNotificationsHandler)
		api.PUT("/:id/read", hb.MarkNotificationReadHandler)
	}
}

// RegisterCatalogRoutes registers the public service-type catalog.
func RegisterCatalogRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/catalog/:category", hb.ListServiceTypesHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterCatalogRoutes(r, hb)
	RegisterUserRoutes(r, hb)
	RegisterSpecialistRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
}

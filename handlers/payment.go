package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"servana/config"
	"servana/middleware"
	"servana/services/booking"
	"servana/services/payment"
	"servana/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// webhookBodyLimit caps gateway webhook bodies well above anything Stripe
// actually sends.
const webhookBodyLimit = 1 << 20

// InitiatePaymentHandler prices the cart and opens a gateway checkout
// session. The response carries the redirect URL and the reference the
// client will come back with.
func (hb *HandlerBundle) InitiatePaymentHandler(c *gin.Context) {
	var req payment.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payment request", err.Error())
		return
	}

	sess, err := hb.Payments.InitiatePayment(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidAmount),
			errors.Is(err, payment.ErrAmountMismatch),
			errors.Is(err, payment.ErrNoServices):
			utils.JSONError(c, http.StatusBadRequest, "payment rejected", err.Error())
		default:
			utils.JSONError(c, http.StatusBadGateway, "failed to initiate payment", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, sess)
}

// PaymentReturnHandler is where the gateway redirect lands. It verifies the
// outcome and, on success, runs finalization. Safe to hit repeatedly.
func (hb *HandlerBundle) PaymentReturnHandler(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing payment reference", "")
		return
	}

	result, err := hb.Payments.VerifyReturn(c.Request.Context(), reference)
	if err != nil {
		utils.JSONError(c, http.StatusBadGateway, "payment verification failed", err.Error())
		return
	}

	switch result.Status {
	case payment.VerifyStatusComplete:
		hb.finalize(c, reference)
	case payment.VerifyStatusFailed:
		hb.Payments.ClearPendingHint(c.Request.Context(), reference)
		c.JSON(http.StatusOK, gin.H{"status": "failed", "reference": reference})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "pending", "reference": reference})
	}
}

// FinalizeBookingHandler lets a client retry finalization explicitly, for
// example after a bookingIncomplete response.
func (hb *HandlerBundle) FinalizeBookingHandler(c *gin.Context) {
	var req struct {
		Reference string `json:"reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid finalize request", err.Error())
		return
	}
	hb.finalize(c, req.Reference)
}

func (hb *HandlerBundle) finalize(c *gin.Context, reference string) {
	result, err := hb.Finalizer.FinalizeBooking(c.Request.Context(), reference, middleware.ActorID(c))
	hb.Payments.ClearPendingHint(c.Request.Context(), reference)
	if err != nil {
		status, message := finalizeErrorStatus(err)
		utils.JSONError(c, status, message, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "finalized", "booking": result})
}

func finalizeErrorStatus(err error) (int, string) {
	switch booking.CodeOf(err) {
	case booking.CodeValidation, booking.CodeInvalidPaymentType:
		return http.StatusBadRequest, "booking could not be finalized"
	case booking.CodePaymentNotFound, booking.CodeServicesNotFound:
		return http.StatusNotFound, "booking could not be finalized"
	case booking.CodePaymentNotCompleted:
		return http.StatusPaymentRequired, "payment is not complete"
	case booking.CodeForbidden:
		return http.StatusForbidden, "payment belongs to a different user"
	case booking.CodeBookingIncomplete:
		return http.StatusInternalServerError, "payment succeeded but the booking is incomplete; retry finalization"
	default:
		return http.StatusBadGateway, "booking could not be finalized"
	}
}

// PendingHintHandler returns the cached booking metadata for a reference so
// a reconnecting client can restore its checkout screen.
func (hb *HandlerBundle) PendingHintHandler(c *gin.Context) {
	reference := c.Param("reference")
	hint, err := hb.Payments.GetPendingHint(c.Request.Context(), reference)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read pending hint", err.Error())
		return
	}
	if hint == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending checkout for reference"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": reference, "metadata": hint})
}

// StripeWebhookHandler finalizes bookings from asynchronous gateway events,
// covering clients that never come back from the redirect.
func (hb *HandlerBundle) StripeWebhookHandler(c *gin.Context) {
	// Oversized bodies must fail loudly, not get truncated into a
	// signature mismatch that Stripe would redeliver forever.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, "webhook payload too large", err.Error())
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "unreadable webhook payload", err.Error())
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), config.AppConfig.StripeWebhookSecret)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "webhook signature verification failed", err.Error())
		return
	}

	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "unparseable checkout session event", err.Error())
		return
	}

	// Webhooks carry no end-user identity; finalization runs unowned and the
	// client's own return call backfills ownership.
	if _, err := hb.Finalizer.FinalizeBooking(c.Request.Context(), sess.ID, ""); err != nil {
		zap.L().Error("webhook finalization failed", zap.String("reference", sess.ID), zap.Error(err))
		// Non-2xx makes Stripe redeliver; finalization is idempotent.
		status, _ := finalizeErrorStatus(err)
		if status >= http.StatusInternalServerError {
			c.JSON(status, gin.H{"received": false})
			return
		}
	}
	hb.Payments.ClearPendingHint(c.Request.Context(), sess.ID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

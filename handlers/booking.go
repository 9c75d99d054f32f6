package handlers

import (
	"errors"
	"net/http"

	"servana/middleware"
	"servana/services/lifecycle"
	"servana/utils"

	"github.com/gin-gonic/gin"
)

// GetBookingHandler returns one appointment or order by ID. Participants only.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	id := c.Param("id")
	actorID := middleware.ActorID(c)

	appt, err := hb.Bookings.GetAppointmentByID(c.Request.Context(), id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load booking", err.Error())
		return
	}
	if appt != nil {
		if actorID != appt.ClientID && actorID != appt.SpecialistID {
			utils.JSONError(c, http.StatusForbidden, "not a participant of this booking", "")
			return
		}
		c.JSON(http.StatusOK, gin.H{"type": "appointment", "booking": appt})
		return
	}

	order, err := hb.Bookings.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load booking", err.Error())
		return
	}
	if order == nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", "")
		return
	}
	if actorID != order.ClientID && actorID != order.SpecialistID {
		utils.JSONError(c, http.StatusForbidden, "not a participant of this booking", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "order", "booking": order})
}

// ListMyBookingsHandler returns the caller's appointments and orders.
func (hb *HandlerBundle) ListMyBookingsHandler(c *gin.Context) {
	actorID := middleware.ActorID(c)

	appts, err := hb.Bookings.ListAppointmentsByClient(c.Request.Context(), actorID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list bookings", err.Error())
		return
	}
	orders, err := hb.Bookings.ListOrdersByClient(c.Request.Context(), actorID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list bookings", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts, "orders": orders})
}

// TransitionStatusHandler applies one lifecycle transition to a booking.
func (hb *HandlerBundle) TransitionStatusHandler(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid transition request", err.Error())
		return
	}

	err := hb.Lifecycle.TransitionStatus(c.Request.Context(), c.Param("id"), req.Status, middleware.ActorID(c))
	if err != nil {
		var te *lifecycle.TransitionError
		if errors.As(err, &te) {
			switch te.Code {
			case lifecycle.CodeNotFound:
				utils.JSONError(c, http.StatusNotFound, "booking not found", te.Message)
			case lifecycle.CodeForbidden:
				utils.JSONError(c, http.StatusForbidden, "transition not permitted", te.Message)
			case lifecycle.CodeInvalidTransition:
				utils.JSONError(c, http.StatusUnprocessableEntity, "invalid status transition", te.Message)
			case lifecycle.CodeInternal:
				utils.JSONError(c, http.StatusInternalServerError, "transition failed", te.Message)
			default:
				utils.JSONError(c, http.StatusConflict, "transition conflict", te.Message)
			}
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "transition failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

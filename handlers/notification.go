package handlers

import (
	"net/http"

	"servana/middleware"
	"servana/utils"

	"github.com/gin-gonic/gin"
)

// ListNotificationsHandler returns the caller's in-app notifications,
// newest first. ?unread=true narrows to unread ones.
func (hb *HandlerBundle) ListNotificationsHandler(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifs, err := hb.Notifications.ListByUser(c.Request.Context(), middleware.ActorID(c), unreadOnly)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list notifications", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}

// MarkNotificationReadHandler marks one of the caller's notifications read.
func (hb *HandlerBundle) MarkNotificationReadHandler(c *gin.Context) {
	if err := hb.Notifications.MarkRead(c.Request.Context(), c.Param("id"), middleware.ActorID(c)); err != nil {
		utils.JSONError(c, http.StatusNotFound, "notification not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

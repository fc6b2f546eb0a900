package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/middleware"
	"github.com/noah-isme/campus-timetable/pkg/response"
)

type notificationInbox interface {
	Inbox(ctx context.Context, userID string) (*dto.NotificationInbox, error)
}

// NotificationHandler serves the caller's in-app notifications.
type NotificationHandler struct {
	inbox notificationInbox
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(inbox notificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// List godoc
// @Summary List my notifications
// @Description Newest first. Listing marks every notification read.
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var userID string
	if claims := middleware.CurrentClaims(c); claims != nil {
		userID = claims.UserID
	}
	inbox, err := h.inbox.Inbox(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inbox.Notifications, map[string]interface{}{"unread": inbox.Unread})
}

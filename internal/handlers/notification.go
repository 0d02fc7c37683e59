// internal/handlers/notification.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/utils"
)

type NotificationInbox interface {
	ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type NotificationHandler struct {
	notifications NotificationInbox
}

func NewNotificationHandler(notifications NotificationInbox) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GET /notifications
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListUnread(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, notifications)
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), actor.UserID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"id": id})
}

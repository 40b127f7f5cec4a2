package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/server/http/dto"
)

// NotificationHandler manages notification endpoints.
type NotificationHandler struct {
	facade NotificationFacade
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(facade NotificationFacade) *NotificationHandler {
	return &NotificationHandler{facade: facade}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := CurrentUserID(c)
	notifications, err := h.facade.Notifications(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(notifications) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, toNotificationResponse(n))
	}

	c.JSON(http.StatusOK, response)
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := CurrentUserID(c)
	notificationID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.facade.MarkNotificationRead(c.Request.Context(), notificationID, userID); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func toNotificationResponse(n model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Icon:      n.Icon,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

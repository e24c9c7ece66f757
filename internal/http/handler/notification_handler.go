package handler

import (
	"net/http"

	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/repository"
)

type NotificationHandler struct {
	notifications repository.NotificationRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	notifications, err := h.notifications.ListForUser(r.Context(), userID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "notification_id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), userID, id); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "read"})
}

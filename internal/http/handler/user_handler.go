package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/service"
)

type UserHandler struct {
	users    repository.UserRepository
	sessions *service.SessionService
}

func NewUserHandler(users repository.UserRepository, sessions *service.SessionService) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.users.FindByID(userID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	currentID, _ := h.sessions.ResolveCurrentSessionID(r, userID)
	views, err := h.sessions.ListActiveSessions(userID, currentID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, views)
}

func (h *UserHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	sessionID, err := strconv.ParseUint(chi.URLParam(r, "session_id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid session id", nil)
		return
	}
	outcome, err := h.sessions.RevokeSession(r.Context(), userID, uint(sessionID))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "session.revoke", userID, "session_id", sessionID, "outcome", outcome)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": outcome})
}

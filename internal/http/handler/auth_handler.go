package handler

import (
	"net/http"
	"time"

	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/security"
	"github.com/propfolio/propfolio/internal/service"
)

type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionService
}

func NewAuthHandler(auth *service.AuthService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=12,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password, r.UserAgent(), remoteIP(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.register", "user_id", result.User.ID)
	setAuthCookies(w, result)
	response.JSON(w, r, http.StatusCreated, authResponse{User: result.User, AccessToken: result.AccessToken})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password, r.UserAgent(), remoteIP(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login", "user_id", result.User.ID)
	setAuthCookies(w, result)
	response.JSON(w, r, http.StatusOK, authResponse{User: result.User, AccessToken: result.AccessToken})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := security.GetCookie(r, "session_token")
	if token == "" {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token", nil)
		return
	}
	result, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	setAuthCookies(w, result)
	response.JSON(w, r, http.StatusOK, authResponse{User: result.User, AccessToken: result.AccessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	sessionID, err := h.sessions.ResolveCurrentSessionID(r, userID)
	if err == nil {
		if err := h.auth.Logout(r.Context(), userID, sessionID); err != nil {
			response.ServiceError(w, r, err)
			return
		}
	}
	observability.AuditActor(r, "auth.logout", userID)
	clearAuthCookies(w)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func setAuthCookies(w http.ResponseWriter, result *service.LoginResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    result.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    result.SessionToken,
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"access_token", "session_token"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func remoteIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr when the usual proxy
	// headers are present.
	return r.RemoteAddr
}

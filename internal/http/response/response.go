package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/propfolio/propfolio/internal/service"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Meta: buildMeta(r)})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Code: code, Message: message, Details: details}, Meta: buildMeta(r)})
}

// ServiceError maps the service-layer failure taxonomy onto HTTP
// statuses and error codes. Anything unrecognized is an upstream
// failure reported generically; the underlying cause stays server-side.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, nil)
	case errors.Is(err, service.ErrNotFound):
		Error(w, r, http.StatusNotFound, "NOT_FOUND", "not found or unauthorized", nil)
	case errors.Is(err, service.ErrStateConflict):
		Error(w, r, http.StatusBadRequest, "STATE_CONFLICT", "operation not allowed in current payment state", nil)
	case errors.Is(err, service.ErrDuplicateAttempt):
		Error(w, r, http.StatusConflict, "DUPLICATE_ATTEMPT", "a creation attempt with this idempotency key is in progress", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
	case errors.Is(err, service.ErrEmailTaken):
		Error(w, r, http.StatusConflict, "EMAIL_TAKEN", "email already registered", nil)
	default:
		Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

func buildMeta(r *http.Request) meta {
	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}
	if id == "" {
		id = "req-unknown"
	}
	return meta{RequestID: id, Timestamp: time.Now().UTC()}
}

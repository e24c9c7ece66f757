package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit emits a structured audit record for a security-relevant request
// event (login, session revocation, payment mutation).
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}

// AuditActor is Audit with the acting principal attached.
func AuditActor(r *http.Request, event string, userID uint, attrs ...any) {
	Audit(r, event, append([]any{"user_id", userID}, attrs...)...)
}

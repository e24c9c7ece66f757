package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/propfolio/propfolio/internal/health"
	"github.com/propfolio/propfolio/internal/http/handler"
	"github.com/propfolio/propfolio/internal/http/middleware"
	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/security"
)

type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	PaymentHandler      *handler.PaymentHandler
	TenancyHandler      *handler.TenancyHandler
	NotificationHandler *handler.NotificationHandler
	JWTManager          *security.JWTManager
	CORSOrigins         []string
	BodyLimit           int64
	APIRateLimitRPM     int
	AuthRateLimitRPM    int
	GlobalRateLimiter   GlobalRateLimiterFunc
	AuthRateLimiter     AuthRateLimiterFunc
	Readiness           *health.ProbeRunner
	EnableOTelHTTP      bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	bodyLimit := dep.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}
	r.Use(middleware.BodyLimit(bodyLimit))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(middleware.AuthMiddleware(dep.JWTManager)).Post("/logout", dep.AuthHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.JWTManager))

			r.Get("/me", dep.UserHandler.Me)
			r.Get("/me/sessions", dep.UserHandler.Sessions)
			r.Delete("/me/sessions/{session_id}", dep.UserHandler.RevokeSession)

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", dep.TenancyHandler.ListProperties)
				r.Post("/", dep.TenancyHandler.CreateProperty)
				r.Get("/{property_id}", dep.TenancyHandler.GetProperty)
				r.Patch("/{property_id}", dep.TenancyHandler.UpdateProperty)
				r.Delete("/{property_id}", dep.TenancyHandler.DeleteProperty)
			})
			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", dep.TenancyHandler.ListTenants)
				r.Post("/", dep.TenancyHandler.CreateTenant)
				r.Get("/{tenant_id}", dep.TenancyHandler.GetTenant)
				r.Patch("/{tenant_id}", dep.TenancyHandler.UpdateTenant)
				r.Delete("/{tenant_id}", dep.TenancyHandler.DeleteTenant)
			})
			r.Route("/leases", func(r chi.Router) {
				r.Get("/", dep.TenancyHandler.ListLeases)
				r.Post("/", dep.TenancyHandler.CreateLease)
				r.Get("/{lease_id}", dep.TenancyHandler.GetLease)
				r.Patch("/{lease_id}", dep.TenancyHandler.UpdateLease)
				r.Delete("/{lease_id}", dep.TenancyHandler.DeleteLease)
			})
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", dep.PaymentHandler.List)
				r.Post("/", dep.PaymentHandler.Create)
				r.Get("/{payment_id}", dep.PaymentHandler.Get)
				r.Patch("/{payment_id}", dep.PaymentHandler.Update)
				r.Delete("/{payment_id}", dep.PaymentHandler.Delete)
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", dep.NotificationHandler.List)
				r.Post("/{notification_id}/read", dep.NotificationHandler.MarkRead)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"campusticketing/internal/delivery/http/controllers"
	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
)

// RouterDeps holds everything the router wires together.
type RouterDeps struct {
	Logger       *slog.Logger
	Verifier     domain.TokenVerifier
	Limiter      *middleware.RateLimiter
	Events       *controllers.EventController
	Registration *controllers.RegistrationController
	CheckIn      *controllers.CheckInController
	Metrics      http.Handler
	// Health reports storage readiness for GET /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.Verifier, d.Logger)
	protected := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(d.Limiter.Limit(next))
	}

	// Student
	mux.HandleFunc("POST /student/events/{eventID}/registrations", protected(d.Registration.Register))
	mux.HandleFunc("DELETE /student/events/{eventID}/registrations", protected(d.Registration.CancelForEvent))
	mux.HandleFunc("GET /student/registrations", protected(d.Registration.ListMine))
	mux.HandleFunc("DELETE /student/registrations/{token}", protected(d.Registration.Cancel))

	// Organizer
	mux.HandleFunc("POST /organizer/events", protected(d.Events.CreateEvent))
	mux.HandleFunc("POST /organizer/events/{eventID}/check-ins", protected(d.CheckIn.CheckIn))
	mux.HandleFunc("GET /organizer/events/{eventID}/participants", protected(d.CheckIn.Participants))

	// Any authenticated caller
	mux.HandleFunc("GET /events/{eventID}", protected(d.Events.GetEvent))

	// Ops
	mux.HandleFunc("GET /healthz", healthz(d.Health))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeRetryable, "storage unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

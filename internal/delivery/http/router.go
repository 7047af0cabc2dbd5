package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
	paymentController *controllers.PaymentController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier, logger)
	manager := middleware.RequireRole(domain.RoleOrganizer, domain.RoleAdmin)

	// Events
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/me", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("POST /events", auth(manager(eventController.CreateEvent)))
	mux.HandleFunc("PATCH /events/{eventID}", auth(manager(eventController.UpdateEvent)))
	mux.HandleFunc("DELETE /events/{eventID}", auth(manager(eventController.DeleteEvent)))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/registrations", auth(registrationController.Register))
	mux.HandleFunc("GET /events/{eventID}/registrations", auth(manager(registrationController.ListEventRegistrations)))
	mux.HandleFunc("GET /registrations", auth(registrationController.ListMyRegistrations))
	mux.HandleFunc("DELETE /registrations/{registrationID}", auth(registrationController.Cancel))
	mux.HandleFunc("POST /registrations/{registrationID}/attendance", auth(manager(registrationController.MarkAttended)))

	// Payments
	mux.HandleFunc("POST /registrations/{registrationID}/approve", auth(manager(paymentController.Approve)))
	mux.HandleFunc("POST /registrations/{registrationID}/reject", auth(manager(paymentController.Reject)))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

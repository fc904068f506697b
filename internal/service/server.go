package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rewear/internal/app"
	"rewear/internal/metrics"
	"rewear/internal/pkg/auth"
	"rewear/internal/pkg/logger"
)

// Service encapsulates the HTTP server configuration, including the
// application's business logic, HTTP handlers, the server's run address,
// and a logger for event and error logging.
type Service struct {
	handlers   *handlers
	app        *app.App
	runAddress string
	log        *logger.Logger
}

// NewService creates and initializes a new Service instance.
func NewService(app *app.App, runAddress string, l *logger.Logger) *Service {
	handlers := newHandlers(app, l)
	return &Service{handlers: handlers, app: app, runAddress: runAddress, log: l}
}

// NewRouter sets up and returns a new chi.Router instance with the
// necessary middleware and routes. Logging and metrics middleware apply
// globally; JWT authentication protects everything beyond registration,
// login, the leaderboard and the operational endpoints.
func (service *Service) NewRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(service.log.WithLogging())
	router.Use(metrics.Middleware())

	router.Handle("/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", service.handlers.registerHandler)
		r.Post("/auth/login", service.handlers.loginHandler)
		r.Get("/users/leaderboard", service.handlers.leaderboardHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.CheckJWTMiddleware())

			r.Get("/users/me", service.handlers.profileHandler)

			r.Route("/items", func(r chi.Router) {
				r.Get("/", service.handlers.listItemsHandler)
				r.Post("/", service.handlers.createItemHandler)
				r.Get("/{id}", service.handlers.getItemHandler)
				r.Put("/{id}", service.handlers.updateItemHandler)
				r.Delete("/{id}", service.handlers.deleteItemHandler)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireAdmin())
					r.Put("/{id}/approve", service.handlers.approveItemHandler)
					r.Put("/{id}/reject", service.handlers.rejectItemHandler)
				})
			})

			r.Route("/swaps", func(r chi.Router) {
				r.Post("/", service.handlers.createSwapHandler)
				r.Get("/my-swaps", service.handlers.mySwapsHandler)
				r.Get("/{id}", service.handlers.getSwapHandler)
				r.Put("/{id}/accept", service.handlers.acceptSwapHandler)
				r.Put("/{id}/reject", service.handlers.rejectSwapHandler)
				r.Put("/{id}/complete", service.handlers.completeSwapHandler)
				r.Delete("/{id}", service.handlers.cancelSwapHandler)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", service.handlers.listWishlistHandler)
				r.Post("/{itemID}", service.handlers.addWishlistHandler)
				r.Delete("/{itemID}", service.handlers.removeWishlistHandler)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", service.handlers.notificationsHandler)
				r.Put("/{id}/read", service.handlers.markNotificationReadHandler)
			})
		})
	})

	return router
}

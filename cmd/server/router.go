package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/cardsmith/internal/api"
	apiMiddleware "github.com/phrazzld/cardsmith/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling
	r.Use(middleware.Timeout(app.config.Server.RequestTimeout()))

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(app.identityProvider, app.jwtService, app.config.Auth, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.config.Auth.CookieName)
	flashcardHandler := api.NewFlashcardHandler(app.flashcardService, app.logger)
	paymentHandler := api.NewPaymentHandler(app.paymentService, app.logger)
	inferenceHandler := api.NewInferenceHandler(app.qa, app.config.Inference.Provider, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/payments/webhook", paymentHandler.Webhook)
		r.Get("/inference/check", inferenceHandler.Check)

		// Identity-aware routes; services reject anonymous callers
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Post("/flashcards", flashcardHandler.Generate)
			r.Get("/flashcards", flashcardHandler.List)

			r.Post("/payments/initialize", paymentHandler.Initialize)
			r.Get("/payments/confirm", paymentHandler.Confirm)
			r.Post("/payments/confirm", paymentHandler.Confirm)
			r.Get("/premium", paymentHandler.Premium)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

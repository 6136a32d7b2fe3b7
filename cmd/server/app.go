package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/generation"
	"github.com/phrazzld/cardsmith/internal/inference"
	"github.com/phrazzld/cardsmith/internal/platform/gemini"
	"github.com/phrazzld/cardsmith/internal/platform/huggingface"
	"github.com/phrazzld/cardsmith/internal/platform/identity"
	"github.com/phrazzld/cardsmith/internal/platform/paystack"
	"github.com/phrazzld/cardsmith/internal/platform/telemetry"
	"github.com/phrazzld/cardsmith/internal/service"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"go.opentelemetry.io/otel/trace"
)

// tracerName names the tracer the server hands to the pipeline and adapters.
const tracerName = "github.com/phrazzld/cardsmith"

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Tracing
	telemetry *telemetry.Providers

	// Stores (using interfaces for proper abstraction)
	stores stores

	// Service interfaces
	jwtService       auth.JWTService
	identityProvider auth.IdentityProvider
	qa               inference.QuestionAnswerer
	orchestrator     *generation.Orchestrator
	flashcardService *service.FlashcardService
	paymentService   *service.PaymentService
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization. qa may be nil, in which case
// the configured inference provider is used.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	qa inference.QuestionAnswerer,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		qa:     qa,
	}

	// Tracing comes first so every component gets the same provider.
	var err error
	app.telemetry, err = telemetry.NewProviders(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.telemetry.SetGlobal()
	tracer := app.telemetry.Tracer(tracerName)

	// Initialize JWT service
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Outbound calls to the identity provider and the payment gateway share
	// the inference timeout.
	upstreamTimeout := cfg.Inference.Timeout()

	// Login is optional; without an identity provider the login endpoint
	// reports that it is unavailable.
	if cfg.Auth.Identity.TokenURL != "" {
		app.identityProvider, err = identity.NewClient(cfg.Auth.Identity, upstreamTimeout, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
		}
		logger.Info("Identity provider configured")
	}

	// Initialize stores
	app.stores, err = newStores(cfg.Database.Driver, db, logger)
	if err != nil {
		return nil, err
	}

	// Create the question-answering provider
	if app.qa == nil {
		app.qa, err = newQuestionAnswerer(ctx, cfg.Inference, logger, tracer)
		if err != nil {
			return nil, err
		}
	}
	logger.Info("Inference provider initialized", "provider", cfg.Inference.Provider)

	app.orchestrator, err = generation.NewOrchestrator(app.qa, cfg.Generation, logger,
		generation.WithTracer(tracer))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation orchestrator: %w", err)
	}

	app.flashcardService, err = service.NewFlashcardService(
		app.orchestrator,
		app.stores.flashcards,
		app.stores.entitlements,
		cfg.Generation,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flashcard service: %w", err)
	}

	// Payments are optional; a nil gateway disables them.
	var gateway service.PaymentGateway
	if cfg.Payment.Enabled() {
		client, err := paystack.NewClient(cfg.Payment.Paystack, upstreamTimeout, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment gateway: %w", err)
		}
		gateway = client
		logger.Info("Payment gateway configured", "amount", cfg.Payment.Amount)
	}

	paymentCfg := cfg.Payment
	if paymentCfg.CallbackURL == "" {
		paymentCfg.CallbackURL = strings.TrimRight(cfg.Server.BaseURL, "/") + "/api/payments/confirm"
	}
	app.paymentService, err = service.NewPaymentService(
		db,
		gateway,
		app.stores.payments,
		app.stores.entitlements,
		paymentCfg,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// newQuestionAnswerer creates the adapter for the configured provider. A nil
// tracer leaves the adapter on the global provider.
func newQuestionAnswerer(
	ctx context.Context,
	cfg config.InferenceConfig,
	logger *slog.Logger,
	tracer trace.Tracer,
) (inference.QuestionAnswerer, error) {
	switch cfg.Provider {
	case "huggingface":
		var opts []huggingface.Option
		if tracer != nil {
			opts = append(opts, huggingface.WithTracer(tracer))
		}
		client, err := huggingface.NewClient(logger, cfg.HuggingFace, cfg.Timeout(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Hugging Face client: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, logger, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported inference provider %q", cfg.Provider)
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Flush buffered spans before the process exits
	if app.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Error("Error shutting down tracer provider", "error", err)
		}
		cancel()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

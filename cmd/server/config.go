package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
)

// loadAppConfig loads the application configuration and sets up the
// default logger from it.
func loadAppConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"inference_provider", cfg.Inference.Provider)
	l.Debug("Optional integrations",
		"login_enabled", cfg.Auth.Identity.TokenURL != "",
		"payments_enabled", cfg.Payment.Enabled())

	return cfg, l, nil
}

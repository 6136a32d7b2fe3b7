package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/cardsmith/internal/config"
)

// contextKey is unexported to avoid collisions with other packages.
type contextKey struct{}

// userKey marks the user the context logger is already tagged with.
type userKey struct{}

// ParseLevel converts a configured level name (case-insensitive) to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger writing to
// stdout and sets it as the default logger for the application.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	return SetupWithWriter(cfg, os.Stdout)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(cfg config.ServerConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		// Fall back to info so a bad value never silences logging
		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	// Allows package-level slog.Info etc. to share the configuration
	slog.SetDefault(logger)

	return logger, nil
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithUser returns a copy of ctx whose logger carries a user_id attribute.
// ForUser on the returned context does not repeat it.
func WithUser(ctx context.Context, userID string) context.Context {
	ctx = WithLogger(ctx, FromContext(ctx).With(slog.String("user_id", userID)))
	return context.WithValue(ctx, userKey{}, userID)
}

// ForUser returns the context logger (or fallback) tagged with userID. The
// attribute is skipped when the context logger already carries it; a
// different user than the context's is logged as owner_id.
func ForUser(ctx context.Context, fallback *slog.Logger, userID string) *slog.Logger {
	log := FromContextOrDefault(ctx, fallback)
	if ctx == nil {
		return log.With(slog.String("user_id", userID))
	}
	switch current, ok := ctx.Value(userKey{}).(string); {
	case !ok:
		return log.With(slog.String("user_id", userID))
	case current == userID:
		return log
	default:
		return log.With(slog.String("owner_id", userID))
	}
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the logger stored in ctx, or fallback when
// none is present. A nil fallback yields slog.Default().
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}

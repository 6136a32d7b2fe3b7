// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "Warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tc.in)
			assert.Equal(t, tc.want, got)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("filtered out")
	l.Warn("kept", "component", "test")

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "test", entries[0]["component"])
	assert.Same(t, l, slog.Default(), "Setup should install the logger as default")
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	l, _ := logger.NewTestLogger()
	fallback, _ := logger.NewTestLogger()

	ctx := logger.WithLogger(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, l, logger.FromContextOrDefault(ctx, fallback))

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.NotNil(t, logger.FromContext(context.Background()))
	assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))
}

func TestForUserTagsUserOnce(t *testing.T) {
	t.Parallel()

	l, buf := logger.NewTestLogger()
	ctx := logger.WithUser(logger.WithLogger(context.Background(), l), "user-1")

	logger.ForUser(ctx, nil, "user-1").Info("same user")
	logger.ForUser(ctx, nil, "user-2").Info("other user")
	logger.ForUser(context.Background(), l, "user-3").Info("no user in context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"user_id"`), line)
	}

	entries, err := buf.Entries()
	require.NoError(t, err)
	assert.Equal(t, "user-1", entries[0]["user_id"])
	assert.Equal(t, "user-1", entries[1]["user_id"])
	assert.Equal(t, "user-2", entries[1]["owner_id"])
	assert.Equal(t, "user-3", entries[2]["user_id"])
}

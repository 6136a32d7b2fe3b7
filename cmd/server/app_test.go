package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/inference"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/platform/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                  8080,
			LogLevel:              "debug",
			BaseURL:               "http://localhost:8080",
			RequestTimeoutSeconds: 30,
		},
		Database: config.DatabaseConfig{
			Driver:                 "sqlite",
			URL:                    ":memory:",
			MaxOpenConns:           1,
			MaxIdleConns:           1,
			ConnMaxLifetimeMinutes: 5,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-that-is-at-least-32-characters",
			TokenLifetimeMinutes: 60,
			CookieName:           "cardsmith_session",
		},
		Inference: config.InferenceConfig{
			Provider:       "huggingface",
			TimeoutSeconds: 5,
		},
		Generation: config.GenerationConfig{
			QuestionCount:       5,
			QuestionTemplate:    config.DefaultQuestionTemplate,
			MaxConcurrency:      1,
			PremiumMaxQuestions: 20,
		},
		Payment: config.PaymentConfig{Amount: 500},
	}
}

// testServer starts the full router over an in-memory database and a QA
// provider that answers every question with "Paris".
func testServer(t *testing.T) (*httptest.Server, *application, *atomic.Int32) {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	log, _ := logger.NewTestLogger()

	db, err := openDatabase(ctx, cfg.Database, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var calls atomic.Int32
	qa := inference.QuestionAnswererFunc(func(context.Context, string, string) (string, error) {
		calls.Add(1)
		return "Paris", nil
	})

	app, err := newApplication(ctx, cfg, log, db, qa)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.telemetry.Shutdown(context.Background()) })

	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)
	return server, app, &calls
}

func authedRequest(t *testing.T, app *application, method, url, body string) *http.Request {
	t.Helper()
	token, err := app.jwtService.GenerateToken(context.Background(),
		&domain.UserIdentity{ID: "user-1", Email: "user@example.com"})
	require.NoError(t, err)

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRouter_Health(t *testing.T) {
	server, _, _ := testServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_GenerateAndList(t *testing.T) {
	server, app, calls := testServer(t)

	resp, err := http.DefaultClient.Do(authedRequest(t, app, http.MethodPost,
		server.URL+"/api/flashcards", `{"notes":"Paris is the capital of France."}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch []domain.QuestionAnswerPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	require.Len(t, batch, 5)
	assert.Equal(t, "What is a key fact #1 from the notes?", batch[0].Question)
	assert.Equal(t, "Paris", batch[0].Answer)
	assert.Equal(t, int32(5), calls.Load())

	listResp, err := http.DefaultClient.Do(authedRequest(t, app, http.MethodGet,
		server.URL+"/api/flashcards?limit=3", ""))
	require.NoError(t, err)
	defer func() { _ = listResp.Body.Close() }()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var cards []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&cards))
	assert.Len(t, cards, 3)
}

func TestRouter_GenerateIsTraced(t *testing.T) {
	server, app, _ := testServer(t)
	sr := tracetest.NewSpanRecorder()
	app.telemetry.TracerProvider.RegisterSpanProcessor(sr)

	resp, err := http.DefaultClient.Do(authedRequest(t, app, http.MethodPost,
		server.URL+"/api/flashcards", `{"notes":"Paris is the capital of France.","count":2}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range sr.Ended() {
		byName[s.Name()] = append(byName[s.Name()], s)
	}
	require.Len(t, byName["generation.Run"], 1)
	assert.Len(t, byName["generation.ask"], 2)
	assert.Equal(t, byName["generation.Run"][0].SpanContext().TraceID(),
		byName["generation.ask"][0].SpanContext().TraceID())
}

func TestRouter_AnonymousGenerateIsRejected(t *testing.T) {
	server, _, calls := testServer(t)

	resp, err := http.Post(server.URL+"/api/flashcards", "application/json",
		bytes.NewBufferString(`{"notes":"Paris is the capital of France."}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, calls.Load())
}

func TestRouter_PremiumGate(t *testing.T) {
	server, app, calls := testServer(t)

	resp, err := http.DefaultClient.Do(authedRequest(t, app, http.MethodPost,
		server.URL+"/api/flashcards", `{"notes":"notes","count":10}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, calls.Load())

	premium, err := http.DefaultClient.Do(authedRequest(t, app, http.MethodGet, server.URL+"/api/premium", ""))
	require.NoError(t, err)
	defer func() { _ = premium.Body.Close() }()
	require.Equal(t, http.StatusOK, premium.StatusCode)
	var body struct {
		Premium bool `json:"premium"`
	}
	require.NoError(t, json.NewDecoder(premium.Body).Decode(&body))
	assert.False(t, body.Premium)
}

func TestRouter_OptionalIntegrationsDisabled(t *testing.T) {
	server, app, _ := testServer(t)

	login, err := http.Post(server.URL+"/api/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"user@example.com","password":"secret"}`))
	require.NoError(t, err)
	defer func() { _ = login.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, login.StatusCode)

	register, err := http.Post(server.URL+"/api/auth/register", "application/json",
		bytes.NewBufferString(`{"email":"user@example.com","password":"long enough"}`))
	require.NoError(t, err)
	defer func() { _ = register.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, register.StatusCode)

	payment, err := http.DefaultClient.Do(authedRequest(t, app, http.MethodPost,
		server.URL+"/api/payments/initialize", ""))
	require.NoError(t, err)
	defer func() { _ = payment.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, payment.StatusCode)
}

func TestRouter_InferenceCheck(t *testing.T) {
	server, _, calls := testServer(t)

	resp, err := http.Get(server.URL + "/api/inference/check")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewApplication_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Inference.Provider = "unknown"
	log, _ := logger.NewTestLogger()

	db, err := openDatabase(context.Background(), cfg.Database, log)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = newApplication(context.Background(), cfg, log, db, nil)
	assert.ErrorContains(t, err, "unsupported inference provider")
}

func TestRunMigrations(t *testing.T) {
	cfg := testConfig().Database
	cfg.URL = filepath.Join(t.TempDir(), "cardsmith.db")
	log, _ := logger.NewTestLogger()
	ctx := context.Background()

	require.NoError(t, runMigrations(ctx, cfg, migrations.CommandUp, log))
	require.NoError(t, runMigrations(ctx, cfg, migrations.CommandVersion, log))
	require.NoError(t, runMigrations(ctx, cfg, migrations.CommandDown, log))
	assert.ErrorIs(t, runMigrations(ctx, cfg, "sideways", log), migrations.ErrUnknownCommand)
}

func TestOpenDatabase_UnsupportedDriver(t *testing.T) {
	log, _ := logger.NewTestLogger()
	_, err := openDatabase(context.Background(), config.DatabaseConfig{Driver: "mysql"}, log)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestReadNotes(t *testing.T) {
	notes, err := readNotes("-", strings.NewReader("stdin notes"))
	require.NoError(t, err)
	assert.Equal(t, "stdin notes", notes)

	_, err = readNotes(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "generate"}, names)

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}

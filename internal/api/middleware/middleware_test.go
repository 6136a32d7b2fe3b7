package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJWT accepts "good" and reports "expired" as expired.
type fakeJWT struct{}

func (fakeJWT) GenerateToken(context.Context, *domain.UserIdentity) (string, error) {
	return "good", nil
}

func (fakeJWT) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	switch token {
	case "good":
		return &auth.Claims{UserID: "user-1", Email: "user@example.com"}, nil
	case "expired":
		return nil, auth.ErrExpiredToken
	default:
		return nil, auth.ErrInvalidToken
	}
}

func (fakeJWT) TokenLifetime() time.Duration { return time.Hour }

func TestAuthenticate(t *testing.T) {
	var seen *domain.UserIdentity
	handler := NewAuthMiddleware(fakeJWT{}, "session").Authenticate(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = shared.IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantUser   string
	}{
		{name: "anonymous", wantStatus: http.StatusNoContent},
		{name: "bearer token", header: "Bearer good", wantStatus: http.StatusNoContent, wantUser: "user-1"},
		{name: "cookie token", cookie: "good", wantStatus: http.StatusNoContent, wantUser: "user-1"},
		{name: "header wins over cookie", header: "Bearer expired", cookie: "good", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", cookie: "forged", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Token good", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/api/flashcards", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantUser == "" {
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.wantUser, seen.ID)
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	var traceID string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, traceID)
}

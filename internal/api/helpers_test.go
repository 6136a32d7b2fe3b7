package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/generation"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"github.com/stretchr/testify/require"
)

var testUser = &domain.UserIdentity{ID: "user-1", Email: "user@example.com"}

// fakeFlashcards is a function-field FlashcardGenerator.
type fakeFlashcards struct {
	GenerateFn func(ctx context.Context, identity *domain.UserIdentity, notes string, count int) (generation.Result, error)
	ListFn     func(ctx context.Context, identity *domain.UserIdentity, limit int) ([]*domain.Flashcard, error)
}

func (f *fakeFlashcards) GenerateAndPersist(
	ctx context.Context,
	identity *domain.UserIdentity,
	notes string,
	count int,
) (generation.Result, error) {
	return f.GenerateFn(ctx, identity, notes, count)
}

func (f *fakeFlashcards) ListFlashcards(
	ctx context.Context,
	identity *domain.UserIdentity,
	limit int,
) ([]*domain.Flashcard, error) {
	return f.ListFn(ctx, identity, limit)
}

// fakePayments is a function-field PaymentProcessor.
type fakePayments struct {
	InitializeFn func(ctx context.Context, identity *domain.UserIdentity) (*domain.Payment, error)
	ConfirmFn    func(ctx context.Context, identity *domain.UserIdentity, reference string) (*domain.Payment, error)
	WebhookFn    func(ctx context.Context, body []byte, signature string) error
	HasPremiumFn func(ctx context.Context, identity *domain.UserIdentity) (bool, error)
}

func (f *fakePayments) Initialize(ctx context.Context, identity *domain.UserIdentity) (*domain.Payment, error) {
	return f.InitializeFn(ctx, identity)
}

func (f *fakePayments) Confirm(
	ctx context.Context,
	identity *domain.UserIdentity,
	reference string,
) (*domain.Payment, error) {
	return f.ConfirmFn(ctx, identity, reference)
}

func (f *fakePayments) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	return f.WebhookFn(ctx, body, signature)
}

func (f *fakePayments) HasPremium(ctx context.Context, identity *domain.UserIdentity) (bool, error) {
	return f.HasPremiumFn(ctx, identity)
}

// fakeIdentityProvider is a function-field auth.IdentityProvider.
type fakeIdentityProvider struct {
	AuthenticateFn func(ctx context.Context, email, password string) (*domain.UserIdentity, error)
	RegisterFn     func(ctx context.Context, email, password string) (*domain.UserIdentity, error)
}

func (f *fakeIdentityProvider) Authenticate(ctx context.Context, email, password string) (*domain.UserIdentity, error) {
	return f.AuthenticateFn(ctx, email, password)
}

func (f *fakeIdentityProvider) Register(ctx context.Context, email, password string) (*domain.UserIdentity, error) {
	return f.RegisterFn(ctx, email, password)
}

// fakeJWT issues "token-<user id>" for every identity.
type fakeJWT struct {
	err error
}

func (f fakeJWT) GenerateToken(_ context.Context, identity *domain.UserIdentity) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + identity.ID, nil
}

func (fakeJWT) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func (fakeJWT) TokenLifetime() time.Duration { return time.Hour }

// newRequest builds a request with an optional JSON body and caller identity.
func newRequest(method, target, body string, identity *domain.UserIdentity) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		r = r.WithContext(shared.WithIdentity(r.Context(), identity))
	}
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

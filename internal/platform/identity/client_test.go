package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/identity"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProvider starts a fake identity provider that accepts one password.
func newProvider(t *testing.T, subject string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		if r.PostForm.Get("username") != "user@example.com" || r.PostForm.Get("password") != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"sub": subject})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *identity.Client {
	t.Helper()
	c, err := identity.NewClient(config.IdentityConfig{
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
		ClientID:    "cardsmith",
	}, 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestAuthenticate(t *testing.T) {
	srv := newProvider(t, "user-42")
	c := newClient(t, srv)

	id, err := c.Authenticate(context.Background(), "user@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.ID)
	assert.Equal(t, "user@example.com", id.Email, "email falls back to the login name")
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	srv := newProvider(t, "user-42")
	c := newClient(t, srv)

	_, err := c.Authenticate(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = c.Authenticate(context.Background(), "", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateProviderErrors(t *testing.T) {
	srv := newProvider(t, "")
	c := newClient(t, srv)

	_, err := c.Authenticate(context.Background(), "user@example.com", "s3cret")
	assert.ErrorIs(t, err, identity.ErrProvider, "a userinfo response without subject is unusable")

	srv.Close()
	_, err = c.Authenticate(context.Background(), "user@example.com", "s3cret")
	assert.ErrorIs(t, err, identity.ErrProvider)
}

// newRegisteringProvider extends the fake provider with a registration
// endpoint. Registered accounts can log in with their password.
func newRegisteringProvider(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	accounts := map[string]string{"taken@example.com": "whatever1"}
	var registered []string

	mux := http.NewServeMux()
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cardsmith" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch {
		case body.Email == "boom@example.com":
			w.WriteHeader(http.StatusBadGateway)
		case accounts[body.Email] != "":
			w.WriteHeader(http.StatusConflict)
		case len(body.Password) < 10:
			w.WriteHeader(http.StatusUnprocessableEntity)
		default:
			accounts[body.Email] = body.Password
			registered = append(registered, body.Email)
			w.WriteHeader(http.StatusCreated)
		}
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		email := r.PostForm.Get("username")
		if accounts[email] == "" || accounts[email] != r.PostForm.Get("password") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-` + email + `","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer at-")
		_ = json.NewEncoder(w).Encode(map[string]string{"sub": "sub-" + email, "email": email})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &registered
}

func TestRegister(t *testing.T) {
	srv, registered := newRegisteringProvider(t)
	c, err := identity.NewClient(config.IdentityConfig{
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		RegisterURL:  srv.URL + "/register",
		ClientID:     "cardsmith",
		ClientSecret: "client-secret",
	}, 5*time.Second, nil)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := c.Register(ctx, "new@example.com", "long password")
	require.NoError(t, err)
	assert.Equal(t, "sub-new@example.com", id.ID)
	assert.Equal(t, "new@example.com", id.Email)
	assert.Equal(t, []string{"new@example.com"}, *registered)

	_, err = c.Register(ctx, "taken@example.com", "long password")
	assert.ErrorIs(t, err, auth.ErrAccountExists)

	_, err = c.Register(ctx, "weak@example.com", "short")
	assert.ErrorIs(t, err, auth.ErrRegistrationRejected)

	_, err = c.Register(ctx, "", "long password")
	assert.ErrorIs(t, err, auth.ErrRegistrationRejected)

	_, err = c.Register(ctx, "boom@example.com", "long password")
	assert.ErrorIs(t, err, identity.ErrProvider)

	assert.Len(t, *registered, 1)
}

func TestRegisterWithoutEndpoint(t *testing.T) {
	srv := newProvider(t, "user-42")
	c := newClient(t, srv)

	_, err := c.Register(context.Background(), "new@example.com", "long password")
	assert.ErrorIs(t, err, auth.ErrRegistrationUnavailable)
}

func TestNewClient(t *testing.T) {
	_, err := identity.NewClient(config.IdentityConfig{}, time.Second, nil)
	assert.ErrorIs(t, err, auth.ErrLoginUnavailable)

	_, err = identity.NewClient(config.IdentityConfig{TokenURL: "http://idp/token"}, time.Second, nil)
	assert.Error(t, err)
}

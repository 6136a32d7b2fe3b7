// Package identity delegates credential checks to an external OAuth2
// identity provider. Logins use the resource owner password grant and the
// resulting token is exchanged for the user's profile at the userinfo
// endpoint. Registration posts the new credentials to the provider's
// registration endpoint and then logs the user in.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"golang.org/x/oauth2"
)

// ErrProvider reports that the identity provider could not be reached or
// answered unexpectedly.
var ErrProvider = errors.New("identity provider error")

// Client implements auth.IdentityProvider.
type Client struct {
	oauth       oauth2.Config
	userInfoURL string
	registerURL string
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ auth.IdentityProvider = (*Client)(nil)

// userInfo is the subset of the OpenID Connect userinfo response we use.
type userInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
}

// NewClient creates a Client. It returns auth.ErrLoginUnavailable when no
// token endpoint is configured.
func NewClient(cfg config.IdentityConfig, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if cfg.TokenURL == "" {
		return nil, auth.ErrLoginUnavailable
	}
	if cfg.UserInfoURL == "" {
		return nil, fmt.Errorf("identity: userinfo URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		registerURL: cfg.RegisterURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With(slog.String("component", "identity_client")),
	}, nil
}

// Authenticate exchanges the credentials for a token and resolves the
// user's identity with it.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*domain.UserIdentity, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			c.logger.InfoContext(ctx, "identity provider rejected credentials",
				slog.Int("status", retrieveErr.Response.StatusCode))
			return nil, auth.ErrInvalidCredentials
		}
		c.logger.ErrorContext(ctx, "token request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: token request: %v", ErrProvider, err)
	}

	info, err := c.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	if info.Email == "" {
		info.Email = email
	}
	return &domain.UserIdentity{ID: info.Subject, Email: info.Email}, nil
}

// registration is the body posted to the registration endpoint.
type registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the account at the identity provider and logs in with
// the new credentials. The request carries the client credentials as basic
// auth.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.UserIdentity, error) {
	if c.registerURL == "" {
		return nil, auth.ErrRegistrationUnavailable
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, auth.ErrRegistrationRejected
	}

	body, err := json.Marshal(registration{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding registration: %v", ErrProvider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.registerURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building registration request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.oauth.ClientID != "" {
		req.SetBasicAuth(c.oauth.ClientID, c.oauth.ClientSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "registration request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: registration request: %v", ErrProvider, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusConflict:
		return nil, auth.ErrAccountExists
	case resp.StatusCode < http.StatusInternalServerError:
		c.logger.InfoContext(ctx, "identity provider rejected registration",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", auth.ErrRegistrationRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: registration returned status %d", ErrProvider, resp.StatusCode)
	}

	c.logger.InfoContext(ctx, "account registered")
	id, err := c.Authenticate(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		// The account exists but the new credentials do not work yet.
		return nil, fmt.Errorf("%w: login after registration was refused", ErrProvider)
	}
	return id, err
}

func (c *Client) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building userinfo request: %v", ErrProvider, err)
	}

	resp, err := c.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", ErrProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: userinfo returned status %d", ErrProvider, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decoding userinfo: %v", ErrProvider, err)
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("%w: userinfo has no subject", ErrProvider)
	}
	return &info, nil
}

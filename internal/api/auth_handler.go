package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/service/auth"
)

// AuthHandler handles registration, login, logout and current-user
// requests. Accounts live at the identity provider; this service only issues
// the session token.
type AuthHandler struct {
	identity     auth.IdentityProvider
	jwtService   auth.JWTService
	cookieName   string
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. identity may be nil, in which
// case registration and login respond with 503.
func NewAuthHandler(
	identity auth.IdentityProvider,
	jwtService auth.JWTService,
	cfg config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		identity:     identity,
		jwtService:   jwtService,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		logger:       logger.With(slog.String("component", "auth_handler")),
	}
}

// Login handles the /auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if h.identity == nil {
		HandleError(w, r, domain.AuthError("login is not available", auth.ErrLoginUnavailable))
		return
	}

	identity, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			err = domain.AuthError("invalid credentials", err)
		}
		HandleError(w, r, err)
		return
	}

	if h.startSession(w, r, identity, http.StatusOK) {
		log.Info("user logged in", "user_id", identity.ID)
	}
}

// Register handles the /auth/register endpoint. The account is created at
// the identity provider and the new user is logged in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if h.identity == nil {
		HandleError(w, r, domain.AuthError("registration is not available", auth.ErrRegistrationUnavailable))
		return
	}

	identity, err := h.identity.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountExists):
			err = domain.ValidationError("an account with this email already exists", err)
		case errors.Is(err, auth.ErrRegistrationRejected):
			err = domain.ValidationError("registration was rejected", err)
		case errors.Is(err, auth.ErrRegistrationUnavailable):
			err = domain.AuthError("registration is not available", err)
		}
		HandleError(w, r, err)
		return
	}

	if h.startSession(w, r, identity, http.StatusCreated) {
		log.Info("user registered", "user_id", identity.ID)
	}
}

// startSession issues a token for identity, sets the session cookie and
// writes the AuthResponse with status. It reports whether it succeeded.
func (h *AuthHandler) startSession(
	w http.ResponseWriter,
	r *http.Request,
	identity *domain.UserIdentity,
	status int,
) bool {
	token, err := h.jwtService.GenerateToken(r.Context(), identity)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).
			Error("failed to generate token", "error", err, "user_id", identity.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return false
	}

	expiresAt := time.Now().Add(h.jwtService.TokenLifetime())
	http.SetCookie(w, h.sessionCookie(token, expiresAt))

	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:      identity.ID,
		Email:       identity.Email,
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
	return true
}

// Logout handles the /auth/logout endpoint by expiring the session cookie.
// Tokens are stateless, so a bearer token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles the /auth/me endpoint.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity.IsAnonymous() {
		HandleError(w, r, domain.AuthError("please log in", domain.ErrUnauthenticated))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, IdentityResponse{
		UserID: identity.ID,
		Email:  identity.Email,
	})
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

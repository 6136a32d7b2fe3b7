package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/redact"
	"github.com/phrazzld/cardsmith/internal/service/auth"
)

// AuthMiddleware resolves session tokens to caller identities.
type AuthMiddleware struct {
	jwtService auth.JWTService
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware. Tokens are read from the
// Authorization header first and then from the named cookie.
func NewAuthMiddleware(jwtService auth.JWTService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		cookieName: cookieName,
	}
}

// Authenticate adds the caller identity to the request context when the
// request carries a valid session token. Requests without a token continue
// anonymously; services decide whether they need an identity. A token that
// is present but invalid is rejected.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := m.token(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(
					w,
					r,
					http.StatusInternalServerError,
					"Authentication error",
				)
			}
			return
		}

		identity := claims.Identity()
		ctx := shared.WithIdentity(r.Context(), identity)
		ctx = logger.WithUser(ctx, identity.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// token extracts the session token. It reports false for a malformed
// Authorization header and an empty token when none is present.
func (m *AuthMiddleware) token(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if m.cookieName != "" {
		if c, err := r.Cookie(m.cookieName); err == nil {
			return c.Value, true
		}
	}
	return "", true
}

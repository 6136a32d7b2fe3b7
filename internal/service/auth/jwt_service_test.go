package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestJWTService(secret string, lifetime time.Duration, now func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      now,
		clockSkew:     2 * time.Minute,
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	identity := &domain.UserIdentity{ID: "user-42", Email: "user@example.com"}
	svc := newTestJWTService(testSecret, lifetime, func() time.Time { return fixedTime })

	token, err := svc.GenerateToken(context.Background(), identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, identity, claims.Identity())
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, lifetime, svc.TokenLifetime())
}

func TestGenerateTokenRejectsAnonymous(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService(testSecret, time.Hour, time.Now)

	_, err := svc.GenerateToken(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.GenerateToken(context.Background(), &domain.UserIdentity{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	wrongSecret := "wrong-secret-that-is-long-enough-for-testing"
	identity := &domain.UserIdentity{ID: "user-42"}

	issue := func(secret string, now time.Time) string {
		svc := newTestJWTService(secret, lifetime, func() time.Time { return now })
		token, err := svc.GenerateToken(context.Background(), identity)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{name: "valid token", token: issue(testSecret, fixedTime), at: fixedTime},
		{name: "within clock skew", token: issue(testSecret, fixedTime), at: fixedTime.Add(lifetime + time.Minute)},
		{name: "expired token", token: issue(testSecret, fixedTime), at: fixedTime.Add(lifetime + time.Hour), wantErr: ErrExpiredToken},
		{name: "not yet valid", token: issue(testSecret, fixedTime.Add(time.Hour)), at: fixedTime, wantErr: ErrTokenNotYetValid},
		{name: "invalid signature", token: issue(wrongSecret, fixedTime), at: fixedTime, wantErr: ErrInvalidToken},
		{name: "malformed token", token: "this.is.not.a.valid.jwt.token", at: fixedTime, wantErr: ErrInvalidToken},
		{name: "missing token", token: "", at: fixedTime, wantErr: ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestJWTService(testSecret, lifetime, func() time.Time { return tt.at })

			claims, err := svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-42", claims.UserID)
		})
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := jwtCustomClaims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc := newTestJWTService(testSecret, time.Hour, time.Now)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "too-short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, svc.TokenLifetime())
}

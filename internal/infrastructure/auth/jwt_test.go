package auth

import (
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "catalogsync-test",
	})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.IssueToken("ops@example.com", []string{ScopeSync}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "catalogsync-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasScope(ScopeSync))
	assert.False(t, claims.HasScope(ScopeOrders))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.IssueToken("ops", nil, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_NotYetValid(t *testing.T) {
	issuer := newTestJWTService()
	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	token, err := issuer.IssueToken("ops", nil, 2*time.Hour)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestJWTService()

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "catalogsync-test"})
	wrongSecret, err := other.IssueToken("ops", nil, time.Hour)
	require.NoError(t, err)

	foreign := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	wrongIssuer, err := foreign.IssueToken("ops", nil, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", Issuer: "catalogsync-test"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"alg none":     none,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMissingSecretOrSubject(t *testing.T) {
	empty := NewJWTService(config.JWTConfig{Issuer: "x"})
	_, err := empty.IssueToken("ops", nil, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = empty.ValidateToken("a.b.c")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = newTestJWTService().IssueToken("", nil, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

// ABOUTME: Tests for JWT expiry inspection
// ABOUTME: Covers opaque tokens, tokens without exp, and exp capping the TTL

package credentials

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestEffectiveTTL_OpaqueToken(t *testing.T) {
	assert.Equal(t, DefaultTTL, EffectiveTTL("T1", DefaultTTL, time.Now()))
}

func TestEffectiveTTL_NoExpClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "1"})
	assert.Equal(t, DefaultTTL, EffectiveTTL(token, DefaultTTL, time.Now()))
}

func TestEffectiveTTL_ExpBeyondTTL(t *testing.T) {
	now := time.Now()
	token := signedToken(t, jwt.MapClaims{"sub": "1", "exp": now.Add(2 * time.Hour).Unix()})
	assert.Equal(t, DefaultTTL, EffectiveTTL(token, DefaultTTL, now))
}

func TestEffectiveTTL_ExpShortensTTL(t *testing.T) {
	now := time.Unix(1754481600, 0)
	token := signedToken(t, jwt.MapClaims{"sub": "1", "exp": now.Add(10 * time.Minute).Unix()})
	assert.Equal(t, 10*time.Minute, EffectiveTTL(token, DefaultTTL, now))
}

func TestEffectiveTTL_AlreadyExpired(t *testing.T) {
	now := time.Now()
	token := signedToken(t, jwt.MapClaims{"sub": "1", "exp": now.Add(-time.Minute).Unix()})
	assert.Equal(t, time.Duration(0), EffectiveTTL(token, DefaultTTL, now))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Unix(1754481600, 0)
	token := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})

	got, ok := TokenExpiry(token)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("not.a.jwt")
	assert.False(t, ok)
}

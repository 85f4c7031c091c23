// ABOUTME: JWT expiry inspection for cached tokens
// ABOUTME: Caps a cache TTL at the token's exp claim without verifying the signature

package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the exp claim of a JWT. ok is false for tokens that are
// not JWTs or carry no exp. The signature is not checked: the backend is the
// only verifier, the bot just avoids holding a token past its lifetime.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// EffectiveTTL returns ttl, shortened so the entry expires no later than the
// token's own exp claim.
func EffectiveTTL(token string, ttl time.Duration, now time.Time) time.Duration {
	exp, ok := TokenExpiry(token)
	if !ok {
		return ttl
	}
	if remaining := exp.Sub(now); remaining < ttl {
		if remaining < 0 {
			return 0
		}
		return remaining
	}
	return ttl
}

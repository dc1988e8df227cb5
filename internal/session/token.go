package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/paykeeper/internal/common"
)

// expiryBuffer is subtracted from the token's exp claim so a session is
// renewed before the remote side actually rejects it.
const expiryBuffer = 60 * time.Second

// ParseToken decodes the token's claims without verifying the signature.
// The signing key belongs to the remote service; locally we only need the
// registered claims for lifetime decisions. Returns nil when the value is
// not a structurally valid JWT.
func ParseToken(token string) *jwt.RegisteredClaims {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithPaddingAllowed())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// ValidateToken classifies a token's usability at the given moment:
// common.ErrInvalidToken when it cannot be parsed or lacks an exp claim,
// common.ErrTokenExpired when it expires within expiryBuffer, nil otherwise.
func ValidateToken(token string, now time.Time) error {
	claims := ParseToken(token)
	if claims == nil || claims.ExpiresAt == nil {
		return common.ErrInvalidToken
	}
	if !now.Before(claims.ExpiresAt.Time.Add(-expiryBuffer)) {
		return common.ErrTokenExpired
	}
	return nil
}

// IsExpired reports whether the token should be treated as no longer usable.
// A token that cannot be confirmed valid counts as expired.
func IsExpired(token string, now time.Time) bool {
	return ValidateToken(token, now) != nil
}

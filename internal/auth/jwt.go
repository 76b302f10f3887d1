package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope limits what a token may do.
type Scope string

const (
	ScopeRead  Scope = "read"
	ScopeWrite Scope = "write"
)

// JWTClaims represents the claims stored in a JWT token
type JWTClaims struct {
	jwt.RegisteredClaims
	Scope Scope `json:"scope"`
}

// NewJWTClaims creates a new JWTClaims instance
func NewJWTClaims(subject, issuer string, scope Scope, expiresAt time.Time) *JWTClaims {
	now := time.Now()

	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Scope: scope,
	}
}

// Allows reports whether the token grants scope. Write implies read.
func (c *JWTClaims) Allows(scope Scope) bool {
	return c.Scope == scope || c.Scope == ScopeWrite
}

package session

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

// Aliasing it so we can use it in the struct literal for composition
type jwtRegisteredClaims = jwt.RegisteredClaims

// TokenClaims is what the portal can read out of a backend bearer token.
// Purely informational: the signature is not checked and expiry is never
// enforced here, the backend decides validity by answering 401.
type TokenClaims struct {
	Role string `json:"role,omitempty"`
	jwtRegisteredClaims
}

// Expiry returns the exp claim, zero if the token has none
func (c *TokenClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Claims decodes a bearer token without verifying it. Opaque (non-JWT)
// tokens return an error, which callers should treat as "nothing to show".
func Claims(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := new(TokenClaims)
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("token is not a readable JWT: %v", err)
	}

	return claims, nil
}

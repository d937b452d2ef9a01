package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token does not have three dot-separated
// segments or its payload cannot be decoded.
var ErrMalformed = errors.New("malformed token")

// Claims is the decoded, unverified payload of a session token.
//
// Claims instances are advisory. They reflect what the backend put into the
// token at issue time and carry no proof of integrity on the client.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

// Expired reports whether the claims' expiry is at or before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Remaining returns the time until expiry, negative when already expired.
func (c Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

type payload struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses the payload of raw without verifying its signature.
//
// A token that is not three dot-separated segments, or whose payload segment
// is not valid base64url JSON, yields [ErrMalformed]. A structurally valid
// token with a missing expiry also yields ErrMalformed: the store cannot
// track lifetime for a token that declares none.
func Decode(raw string) (Claims, error) {
	if strings.Count(raw, ".") != 2 {
		return Claims{}, fmt.Errorf("%w: expected three segments", ErrMalformed)
	}

	var p payload
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &p); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if p.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}

	claims := Claims{
		Subject:   p.Subject,
		Email:     p.Email,
		Role:      p.Role,
		ExpiresAt: p.ExpiresAt.Time,
		TokenID:   p.ID,
	}
	if p.IssuedAt != nil {
		claims.IssuedAt = p.IssuedAt.Time
	}

	return claims, nil
}

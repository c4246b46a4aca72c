package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates the two token kinds the platform issues. The type
// is embedded as a claim and bound to distinct secret material, so a token
// can never validate against the other kind's verification path.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Claims is the signed payload carried by both access and refresh tokens.
// Permissions are derived from the role at issuance time and are stale until
// the token is re-issued; verification never re-derives them.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user, case-normalized.
	Email string `json:"email,omitempty"`

	// Role is the platform role the user held at issuance.
	Role string `json:"role,omitempty"`

	// SID binds the token to a server-tracked session. An access and refresh
	// token issued together share the same SID.
	SID string `json:"sid,omitempty"`

	// TokenType discriminates access from refresh tokens.
	TokenType TokenType `json:"token_type"`

	// Permissions are capability strings snapshot from the role.
	Permissions []string `json:"permissions,omitempty"`
}

// NewClaims builds the identity portion of a claim set. The codec stamps the
// registered claims (iss/aud/iat/nbf/exp/jti) and the token type at Issue
// time, so callers only provide who the token is for.
func NewClaims(userID, email, role, sessionID string, permissions []string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
		Email:       email,
		Role:        role,
		SID:         sessionID,
		Permissions: permissions,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// validateIssuer checks the issuer claim against the expected value.
func (c *Claims) validateIssuer(expected string) error {
	if c.Issuer != expected {
		return ErrIssuerMismatch
	}
	return nil
}

// validateAudience checks that the expected audience is present.
func (c *Claims) validateAudience(expected string) error {
	if !slices.Contains(c.Audience, expected) {
		return ErrAudienceMismatch
	}
	return nil
}

// RemainingLifetime returns how long the token stays cryptographically valid
// from now. Zero or negative means already expired.
func (c *Claims) RemainingLifetime(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

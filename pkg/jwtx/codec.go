package jwtx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure reasons. These never escape wrapped in panics; every
// failure mode of Verify maps onto exactly one of them.
var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrBadSignature     = errors.New("jwtx: invalid signature")
	ErrExpired          = errors.New("jwtx: token expired")
	ErrNotYetValid      = errors.New("jwtx: token not yet valid")
	ErrTypeMismatch     = errors.New("jwtx: token type mismatch")
	ErrIssuerMismatch   = errors.New("jwtx: issuer mismatch")
	ErrAudienceMismatch = errors.New("jwtx: audience mismatch")
	ErrVerifyTimeout    = errors.New("jwtx: verification timed out")
)

// ErrTokenTooLarge is an issuance failure: the encoded token would exceed
// MaxTokenLen, so Verify could never accept it. Issue rejects such claim
// sets up front rather than minting unusable tokens.
var ErrTokenTooLarge = errors.New("jwtx: token exceeds maximum length")

const (
	// MinSecretLen is the minimum length for signing secrets. Shorter secrets
	// fail configuration validation at startup.
	MinSecretLen = 64

	// MaxTokenLen bounds inbound token size before any parsing happens.
	MaxTokenLen = 2048

	// DefaultLeeway tolerates small clock skew between the issuing and
	// verifying hosts when checking exp/nbf/iat.
	DefaultLeeway = 60 * time.Second

	// DefaultVerifyTimeout bounds a single verification, guarding against
	// pathological input making cryptographic evaluation crawl.
	DefaultVerifyTimeout = 5 * time.Second
)

// weakSecretFragments are placeholder values that must never appear in
// production secret material.
var weakSecretFragments = []string{"secret", "password", "test", "default", "changeme"}

// Config carries the codec's secret material and claim expectations.
// Access and refresh secrets must differ; NewCodec rejects anything else.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string

	// Leeway and VerifyTimeout fall back to package defaults when zero.
	Leeway        time.Duration
	VerifyTimeout time.Duration
}

// Codec signs and verifies HMAC-SHA256 token claim sets. One codec instance
// serves both token kinds, selecting secret material by token type, so the
// access- and refresh-token configuration can never drift apart.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	leeway        time.Duration
	verifyTimeout time.Duration

	// Now is the clock used when stamping claims. Tests may override it.
	Now func() time.Time
}

// NewCodec validates cfg and returns a ready codec. Validation failures are
// configuration errors and should abort process startup.
func NewCodec(cfg Config) (*Codec, error) {
	if err := validateSecret("access token secret", cfg.AccessSecret); err != nil {
		return nil, err
	}
	if err := validateSecret("refresh token secret", cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("jwtx: access and refresh token secrets must differ")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("jwtx: issuer must be configured")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("jwtx: audience must be configured")
	}

	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = DefaultLeeway
	}
	timeout := cfg.VerifyTimeout
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}

	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		leeway:        leeway,
		verifyTimeout: timeout,
		Now:           time.Now,
	}, nil
}

func validateSecret(name, secret string) error {
	if len(secret) < MinSecretLen {
		return fmt.Errorf("jwtx: %s must be at least %d characters, got %d", name, MinSecretLen, len(secret))
	}
	lowered := strings.ToLower(secret)
	for _, fragment := range weakSecretFragments {
		if strings.Contains(lowered, fragment) {
			return fmt.Errorf("jwtx: %s contains known-weak value %q", name, fragment)
		}
	}
	return nil
}

func (c *Codec) secretFor(kind TokenType) []byte {
	if kind == TokenTypeRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Issue stamps the registered claims onto the provided identity claims and
// signs them with the secret selected by kind. A negative ttl produces an
// already-expired token, which tests rely on. Claim sets whose encoded token
// would exceed MaxTokenLen fail with ErrTokenTooLarge, keeping Issue and
// Verify in agreement on the size bound.
func (c *Codec) Issue(claims Claims, kind TokenType, ttl time.Duration) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("jwtx: unknown token type %q", kind)
	}

	now := c.Now().UTC()
	claims.TokenType = kind
	claims.Issuer = c.issuer
	claims.Audience = jwt.ClaimStrings{c.audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = NewJTI()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	if len(signed) > MaxTokenLen {
		return "", ErrTokenTooLarge
	}
	return signed, nil
}

// Verify decodes and validates a token against the expectations for the
// given kind. It checks, in order: structure, token-type claim, signature
// and temporal claims, issuer, audience. The whole check runs under the
// codec's verification timeout; a timeout is reported as ErrVerifyTimeout
// rather than being conflated with an invalid token.
func (c *Codec) Verify(ctx context.Context, token string, expected TokenType) (Claims, error) {
	if err := checkStructure(token); err != nil {
		return Claims{}, err
	}

	type result struct {
		claims Claims
		err    error
	}

	done := make(chan result, 1)
	go func() {
		claims, err := c.verify(token, expected)
		done <- result{claims: claims, err: err}
	}()

	timer := time.NewTimer(c.verifyTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.claims, res.err
	case <-ctx.Done():
		return Claims{}, fmt.Errorf("%w: %w", ErrVerifyTimeout, ctx.Err())
	case <-timer.C:
		return Claims{}, ErrVerifyTimeout
	}
}

func (c *Codec) verify(token string, expected TokenType) (Claims, error) {
	// The token-type claim is checked before the signature so that a token
	// of the wrong kind is always reported as a type mismatch, independent
	// of which secret it happens to validate against.
	unverified, err := DecodeUnverified(token)
	if err != nil {
		return Claims{}, err
	}
	if unverified.TokenType != expected {
		return Claims{}, ErrTypeMismatch
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(c.leeway),
		jwt.WithIssuedAt(),
	)

	var claims Claims
	_, err = parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secretFor(expected), nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := claims.validateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.validateAudience(c.audience); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// DecodeUnverified extracts claims without checking the signature. Use it
// only for bookkeeping on tokens that have already been verified, such as
// reading the expiry when blacklisting.
func DecodeUnverified(token string) (Claims, error) {
	if err := checkStructure(token); err != nil {
		return Claims{}, err
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}

func checkStructure(token string) error {
	if token == "" || len(token) > MaxTokenLen {
		return ErrMalformed
	}
	if strings.Count(token, ".") != 2 {
		return ErrMalformed
	}
	return nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformed
	}
}

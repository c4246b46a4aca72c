package jwtx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	// Secrets must clear the 64 char minimum and avoid the weak fragments.
	secretA = "kR7vLmP2xW9qZ4nF8sD1gH6jC3bV5yT0eU2iO4aXwQ9rEtYuKpLzMnBdViCgFhJm"
	secretB = "Zx3cVb9nMl2kJh8gFd4sAq7wEr1tYu6iOp0aSd5fGh2jKl9zXc4vBn7mQw3eRt8y"
	secretC = "Qw8eRt2yUi6oPa0sDf4gHj8kLz1xCv5bNm9qZw3xEc7rVt2bYn6uMi0kOl4pJh8g"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{
		AccessSecret:  secretA,
		RefreshSecret: secretB,
		Issuer:        "tuckshop-auth",
		Audience:      "tuckshop-platform",
	})
	require.NoError(t, err)
	return codec
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	claims := NewClaims("user-1", "a@b.com", "parent", "sess-1", []string{"orders:read", "orders:write"})
	token, err := codec.Issue(claims, TokenTypeAccess, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	got, err := codec.Verify(context.Background(), token, TokenTypeAccess)
	require.NoError(t, err)

	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "a@b.com", got.Email)
	require.Equal(t, "parent", got.Role)
	require.Equal(t, "sess-1", got.SID)
	require.Equal(t, TokenTypeAccess, got.TokenType)
	require.Equal(t, []string{"orders:read", "orders:write"}, got.Permissions)
	require.Equal(t, "tuckshop-auth", got.Issuer)
	require.Contains(t, got.Audience, "tuckshop-platform")
	require.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt.Time, 5*time.Second)
}

func TestIssueRejectsOversizedClaims(t *testing.T) {
	codec := newTestCodec(t)

	// A permission list this large encodes well past MaxTokenLen; issuing
	// it would mint a token Verify refuses, so Issue must refuse first.
	permissions := make([]string, 200)
	for i := range permissions {
		permissions[i] = strings.Repeat("p", 32)
	}
	claims := NewClaims("user-1", "a@b.com", "parent", "sess-1", permissions)

	_, err := codec.Issue(claims, TokenTypeAccess, time.Hour)
	require.ErrorIs(t, err, ErrTokenTooLarge)
}

func TestVerifyTypeMismatch(t *testing.T) {
	codec := newTestCodec(t)
	claims := NewClaims("user-1", "a@b.com", "parent", "sess-1", nil)

	access, err := codec.Issue(claims, TokenTypeAccess, time.Hour)
	require.NoError(t, err)
	refresh, err := codec.Issue(claims, TokenTypeRefresh, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(context.Background(), access, TokenTypeRefresh)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = codec.Verify(context.Background(), refresh, TokenTypeAccess)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestVerifySecretsAreNotInterchangeable(t *testing.T) {
	codec := newTestCodec(t)

	// A token claiming to be an access token but signed with the refresh
	// secret must fail on signature, not slip through the type check.
	claims := NewClaims("user-1", "a@b.com", "parent", "sess-1", nil)
	claims.TokenType = TokenTypeAccess
	claims.Issuer = "tuckshop-auth"
	claims.Audience = jwt.ClaimStrings{"tuckshop-platform"}
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretB))
	require.NoError(t, err)

	_, err = codec.Verify(context.Background(), forged, TokenTypeAccess)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsForeignSigner(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewCodec(Config{
		AccessSecret:  secretC,
		RefreshSecret: secretB,
		Issuer:        "tuckshop-auth",
		Audience:      "tuckshop-platform",
	})
	require.NoError(t, err)

	token, err := other.Issue(NewClaims("user-1", "a@b.com", "parent", "s", nil), TokenTypeAccess, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(context.Background(), token, TokenTypeAccess)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec(t)

	// Negative TTL beyond the clock-skew leeway.
	token, err := codec.Issue(NewClaims("user-1", "a@b.com", "parent", "s", nil), TokenTypeAccess, -5*time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(context.Background(), token, TokenTypeAccess)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyWithinLeeway(t *testing.T) {
	codec := newTestCodec(t)

	// Expired 10s ago is still inside the 60s leeway.
	token, err := codec.Issue(NewClaims("user-1", "a@b.com", "parent", "s", nil), TokenTypeAccess, -10*time.Second)
	require.NoError(t, err)

	_, err = codec.Verify(context.Background(), token, TokenTypeAccess)
	require.NoError(t, err)
}

func TestVerifyFutureIssuedAt(t *testing.T) {
	codec := newTestCodec(t)
	codec.Now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	token, err := codec.Issue(NewClaims("user-1", "a@b.com", "parent", "s", nil), TokenTypeAccess, time.Hour)
	require.NoError(t, err)
	codec.Now = time.Now

	_, err = codec.Verify(context.Background(), token, TokenTypeAccess)
	require.ErrorIs(t, err, ErrNotYetValid)
}

func TestVerifyMalformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, token := range []string{
		"",
		"only-one-segment",
		"two.segments",
		"a.b.c.d",
		strings.Repeat("x", MaxTokenLen+1) + "..",
	} {
		_, err := codec.Verify(context.Background(), token, TokenTypeAccess)
		require.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestVerifyIssuerAudienceMismatch(t *testing.T) {
	codec := newTestCodec(t)

	t.Run("issuer", func(t *testing.T) {
		other, err := NewCodec(Config{
			AccessSecret:  secretA,
			RefreshSecret: secretB,
			Issuer:        "someone-else",
			Audience:      "tuckshop-platform",
		})
		require.NoError(t, err)

		token, err := other.Issue(NewClaims("u", "a@b.com", "parent", "s", nil), TokenTypeAccess, time.Hour)
		require.NoError(t, err)

		_, err = codec.Verify(context.Background(), token, TokenTypeAccess)
		require.ErrorIs(t, err, ErrIssuerMismatch)
	})

	t.Run("audience", func(t *testing.T) {
		other, err := NewCodec(Config{
			AccessSecret:  secretA,
			RefreshSecret: secretB,
			Issuer:        "tuckshop-auth",
			Audience:      "another-platform",
		})
		require.NoError(t, err)

		token, err := other.Issue(NewClaims("u", "a@b.com", "parent", "s", nil), TokenTypeAccess, time.Hour)
		require.NoError(t, err)

		_, err = codec.Verify(context.Background(), token, TokenTypeAccess)
		require.ErrorIs(t, err, ErrAudienceMismatch)
	})
}

func TestDecodeUnverified(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue(NewClaims("user-1", "a@b.com", "parent", "sess-1", nil), TokenTypeRefresh, time.Hour)
	require.NoError(t, err)

	claims, err := DecodeUnverified(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, TokenTypeRefresh, claims.TokenType)
	require.Greater(t, claims.RemainingLifetime(time.Now()), 55*time.Minute)

	_, err = DecodeUnverified("bogus")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestNewCodecValidation(t *testing.T) {
	base := Config{
		AccessSecret:  secretA,
		RefreshSecret: secretB,
		Issuer:        "tuckshop-auth",
		Audience:      "tuckshop-platform",
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short access secret", func(c *Config) { c.AccessSecret = "short" }},
		{"short refresh secret", func(c *Config) { c.RefreshSecret = "short" }},
		{"equal secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }},
		{"weak fragment secret", func(c *Config) {
			c.AccessSecret = "secret" + strings.Repeat("A1b2C3d4", 8)
		}},
		{"weak fragment password", func(c *Config) {
			c.RefreshSecret = strings.Repeat("A1b2C3d4", 8) + "PASSWORD"
		}},
		{"weak fragment changeme", func(c *Config) {
			c.AccessSecret = strings.Repeat("A1b2C3d4", 8) + "changeme"
		}},
		{"missing issuer", func(c *Config) { c.Issuer = " " }},
		{"missing audience", func(c *Config) { c.Audience = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewCodec(cfg)
			require.Error(t, err)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		_, err := NewCodec(base)
		require.NoError(t, err)
	})
}

func TestIssueRejectsUnknownKind(t *testing.T) {
	codec := newTestCodec(t)
	_, err := codec.Issue(NewClaims("u", "a@b.com", "parent", "s", nil), TokenType("session"), time.Hour)
	require.Error(t, err)
}

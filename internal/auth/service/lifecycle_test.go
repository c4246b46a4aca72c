package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuckshop-au/tuckshop/internal/auth/domain"
	"github.com/tuckshop-au/tuckshop/pkg/jwtx"
)

func login(t *testing.T, d *testDeps, email, password string) (domain.User, domain.TokenPair) {
	t.Helper()

	res, err := d.Auth.Authenticate(context.Background(), email, password, false, domain.ClientContext{
		UserAgent: "tuckshop-test/1.0",
		IP:        "203.0.113.7",
	})
	require.NoError(t, err)

	u, err := d.Store.Users().GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return u, res.Tokens
}

func TestIssueTokenPair_SessionIDIsOpaqueRandom(t *testing.T) {
	d := newTestDeps(t)

	d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)
	_, first := login(t, d, "a@b.com", "Correct1!")
	_, second := login(t, d, "a@b.com", "Correct1!")

	// 128 bits of CSPRNG output, base64url encoded; no timestamp prefix to
	// leak issuance time or narrow a guessing attack.
	for _, tokens := range []domain.TokenPair{first, second} {
		raw, err := base64.RawURLEncoding.DecodeString(tokens.SessionID)
		require.NoError(t, err)
		require.Len(t, raw, 16)
	}
	require.NotEqual(t, first.SessionID, second.SessionID)
}

func TestVerifyAccessToken_WrongKind(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)
	_, tokens := login(t, d, "a@b.com", "Correct1!")

	_, err := d.Lifecycle.VerifyAccessToken(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, jwtx.ErrTypeMismatch)

	_, err = d.Lifecycle.VerifyRefreshToken(ctx, tokens.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrTypeMismatch)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	u := d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)

	claims := jwtx.NewClaims(u.ID, u.Email, string(u.Role), "01JEXPIREDSESSION", nil)
	token, err := d.Codec.Issue(claims, jwtx.TokenTypeAccess, -5*time.Minute)
	require.NoError(t, err)

	_, err = d.Lifecycle.VerifyAccessToken(ctx, token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestRefresh_RotatesAndBlocksReplay(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	u := d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)
	_, tokens := login(t, d, "a@b.com", "Correct1!")

	rotated, err := d.Lifecycle.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, tokens.SessionID, rotated.SessionID, "rotation keeps the session")
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	claims, err := d.Lifecycle.VerifyAccessToken(ctx, rotated.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)

	// Replaying the consumed token signals rotation abuse.
	_, err = d.Lifecycle.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotFound)

	// The rotated token still works.
	_, err = d.Lifecycle.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_GarbageToken(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	_, err := d.Lifecycle.Refresh(ctx, "not.a.token")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefresh_InactiveUser(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	u := d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)
	_, tokens := login(t, d, "a@b.com", "Correct1!")

	require.NoError(t, d.Store.Users().SetActive(ctx, u.ID, false))

	_, err := d.Lifecycle.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestBlacklistToken_RevocationIsEffective(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)
	_, tokens := login(t, d, "a@b.com", "Correct1!")

	// Still cryptographically valid and unexpired, but revoked.
	require.NoError(t, d.Lifecycle.BlacklistToken(ctx, tokens.AccessToken))

	_, err := d.Lifecycle.VerifyAccessToken(ctx, tokens.AccessToken)
	require.ErrorIs(t, err, ErrRevokedToken)

	// The refresh token is unaffected until blacklisted itself.
	_, err = d.Lifecycle.VerifyRefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, d.Lifecycle.BlacklistToken(ctx, tokens.RefreshToken))
	_, err = d.Lifecycle.VerifyRefreshToken(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRevokedToken)
}

func TestBlacklistToken_SkipsExpired(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	u := d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)

	claims := jwtx.NewClaims(u.ID, u.Email, string(u.Role), "01JEXPIREDSESSION", nil)
	token, err := d.Codec.Issue(claims, jwtx.TokenTypeAccess, -5*time.Minute)
	require.NoError(t, err)

	require.NoError(t, d.Lifecycle.BlacklistToken(ctx, token))

	n, err := d.KV.CountPrefix(ctx, blacklistKeyPrefix)
	require.NoError(t, err)
	require.Zero(t, n, "an expired token needs no blacklist entry")
}

func TestRevokeSession(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)
	_, tokens := login(t, d, "a@b.com", "Correct1!")

	require.NoError(t, d.Lifecycle.RevokeSession(ctx, tokens.SessionID))

	_, err := d.Lifecycle.VerifyAccessToken(ctx, tokens.AccessToken)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = d.Lifecycle.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotFound)

	// Revoking again reports the session gone.
	err = d.Lifecycle.RevokeSession(ctx, tokens.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevokeAllSessionsForUser(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	u := d.seedUser(t, "a@b.com", "Correct1!", domain.RoleParent, true)

	_, first := login(t, d, "a@b.com", "Correct1!")
	_, second := login(t, d, "a@b.com", "Correct1!")
	require.NotEqual(t, first.SessionID, second.SessionID)

	require.NoError(t, d.Lifecycle.RevokeAllSessionsForUser(ctx, u.ID))

	for _, tokens := range []domain.TokenPair{first, second} {
		_, err := d.Lifecycle.VerifyAccessToken(ctx, tokens.AccessToken)
		require.ErrorIs(t, err, ErrSessionNotFound)

		_, err = d.Lifecycle.Refresh(ctx, tokens.RefreshToken)
		require.ErrorIs(t, err, ErrRefreshNotFound)
	}
}

func TestCleanupExpired_BlacklistCap(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	d.Lifecycle.BlacklistCap = 3
	for i := 0; i < 5; i++ {
		key := blacklistKey(fmt.Sprintf("fp-%d", i))
		require.NoError(t, d.KV.SetWithTTL(ctx, key, "revoked", time.Hour))
	}

	require.NoError(t, d.Lifecycle.CleanupExpired(ctx))

	n, err := d.KV.CountPrefix(ctx, blacklistKeyPrefix)
	require.NoError(t, err)
	require.Zero(t, n, "cap breach resets the blacklist")
}

func TestCleanupExpired_SweepsLapsedEntries(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	now := time.Now()
	d.KV.Now = func() time.Time { return now }

	require.NoError(t, d.KV.SetWithTTL(ctx, refreshKey("stale"), "sid", time.Minute))
	require.NoError(t, d.KV.SetWithTTL(ctx, refreshKey("fresh"), "sid", time.Hour))

	now = now.Add(2 * time.Minute)
	require.NoError(t, d.Lifecycle.CleanupExpired(ctx))

	n, err := d.KV.CountPrefix(ctx, refreshKeyPrefix)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

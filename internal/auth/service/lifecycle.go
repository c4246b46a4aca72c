package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tuckshop-au/tuckshop/internal/auth/domain"
	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
	"github.com/tuckshop-au/tuckshop/internal/auth/store"
	"github.com/tuckshop-au/tuckshop/pkg/cryptox"
	"github.com/tuckshop-au/tuckshop/pkg/jwtx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// DefaultBlacklistCap is the safety-valve size bound on the blacklist.
// TTLs already bound growth; the cap only guards against pathological
// revocation storms.
const DefaultBlacklistCap = 10_000

// TokenTTLs is the single source of truth for token lifetimes. Both the
// Authenticator and the Lifecycle Manager read from here, so "remember me"
// semantics can never drift between login and refresh.
type TokenTTLs struct {
	Access          time.Duration // default 1h
	Refresh         time.Duration // default 7d
	AccessRemember  time.Duration // default 30d
	RefreshRemember time.Duration // default 90d
}

// Pick returns the access and refresh lifetimes for a session.
func (t TokenTTLs) Pick(remember bool) (access, refresh time.Duration) {
	if remember {
		return t.AccessRemember, t.RefreshRemember
	}
	return t.Access, t.Refresh
}

// LifecycleManager owns the session/token state machine: issuance,
// verification (signature, blacklist, and session existence), refresh
// rotation with replay protection, revocation, and bookkeeping cleanup.
// Session, blacklist, and pending-refresh records all live in the shared
// revocation/session store so revocation is visible platform-wide.
type LifecycleManager struct {
	Codec *jwtx.Codec
	KV    kv.Store
	Store store.Store
	TTLs  TokenTTLs

	// BlacklistCap overrides DefaultBlacklistCap when positive.
	BlacklistCap int64

	// Now is the clock used for expiry bookkeeping. Tests may override it.
	Now func() time.Time
}

func (m *LifecycleManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// IssueTokenPair mints an access/refresh pair bound to a fresh session and
// persists the session record, the pending-refresh fingerprint, and the
// user's session-set membership. The session record's TTL matches the
// refresh lifetime; once the refresh token can no longer be used, the
// session has nothing left to authorize.
func (m *LifecycleManager) IssueTokenPair(
	ctx context.Context,
	user domain.User,
	remember bool,
	client domain.ClientContext,
) (domain.TokenPair, error) {
	now := m.now()
	accessTTL, refreshTTL := m.TTLs.Pick(remember)

	// Session ids carry a full 128 bits of CSPRNG output; a sortable
	// timestamped id would leak issuance time and shrink the search space.
	sessionID, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("generate session id: %w", err)
	}
	claims := jwtx.NewClaims(user.ID, user.Email, string(user.Role), sessionID, user.Role.Permissions())

	accessToken, err := m.Codec.Issue(claims, jwtx.TokenTypeAccess, accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refreshToken, err := m.Codec.Issue(claims, jwtx.TokenTypeRefresh, refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	session := domain.Session{
		ID:             sessionID,
		UserID:         user.ID,
		CreatedAt:      now,
		LastActivity:   now,
		Client:         client,
		Remember:       remember,
		RefreshTokenFP: cryptox.FingerprintToken(refreshToken),
	}
	if err := m.writeSession(ctx, session, refreshTTL); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    accessTTL,
		SessionID:    sessionID,
	}, nil
}

// writeSession persists the session record, pending-refresh lookup, and the
// user's session-set membership, all under the session's remaining lifetime.
func (m *LifecycleManager) writeSession(ctx context.Context, s domain.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := m.KV.SetWithTTL(ctx, sessionKey(s.ID), string(raw), ttl); err != nil {
		return err
	}
	if err := m.KV.SetWithTTL(ctx, refreshKey(s.RefreshTokenFP), s.ID, ttl); err != nil {
		return err
	}
	return m.KV.AddToSet(ctx, userSessionsKey(s.UserID), s.ID, ttl)
}

// VerifyAccessToken validates an access token end to end: codec checks
// first, then the blacklist, then session existence. A revoked session
// therefore invalidates its outstanding access tokens even though they
// remain cryptographically valid.
func (m *LifecycleManager) VerifyAccessToken(ctx context.Context, token string) (jwtx.Claims, error) {
	claims, err := m.Codec.Verify(ctx, token, jwtx.TokenTypeAccess)
	if err != nil {
		return jwtx.Claims{}, err
	}

	if err := m.checkBlacklist(ctx, token); err != nil {
		return jwtx.Claims{}, err
	}

	if _, err := m.getSession(ctx, claims.SID); err != nil {
		return jwtx.Claims{}, err
	}

	return claims, nil
}

// VerifyRefreshToken validates a refresh token against the codec and the
// blacklist. It does not consume the pending-refresh entry; Refresh does.
func (m *LifecycleManager) VerifyRefreshToken(ctx context.Context, token string) (jwtx.Claims, error) {
	claims, err := m.Codec.Verify(ctx, token, jwtx.TokenTypeRefresh)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if err := m.checkBlacklist(ctx, token); err != nil {
		return jwtx.Claims{}, err
	}
	return claims, nil
}

func (m *LifecycleManager) checkBlacklist(ctx context.Context, token string) error {
	_, err := m.KV.Get(ctx, blacklistKey(cryptox.FingerprintToken(token)))
	if err == nil {
		return ErrRevokedToken
	}
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	return err
}

func (m *LifecycleManager) getSession(ctx context.Context, sessionID string) (domain.Session, error) {
	raw, err := m.KV.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, kv.ErrNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return s, nil
}

// Refresh rotates a refresh token: it atomically consumes the pending
// entry (so a replayed token fails with ErrRefreshNotFound and a concurrent
// revoke wins cleanly), re-checks the account is still active, re-derives
// permissions from the current role, and issues a new pair bound to the
// same session.
func (m *LifecycleManager) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := m.now()

	claims, err := m.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRevokedToken) {
			return domain.TokenPair{}, err
		}
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	// Take is the rotation point: exactly one caller may consume the
	// fingerprint; everyone else sees a replay.
	fp := cryptox.FingerprintToken(refreshToken)
	sessionID, err := m.KV.Take(ctx, refreshKey(fp))
	if errors.Is(err, kv.ErrNotFound) {
		l.Warn("refresh token replay detected", slog.String("session_id", claims.SID))
		return domain.TokenPair{}, ErrRefreshNotFound
	}
	if err != nil {
		return domain.TokenPair{}, err
	}
	if sessionID != claims.SID {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	session, err := m.getSession(ctx, sessionID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Activity can change between login and refresh; a deactivated account
	// must not keep minting tokens.
	user, err := m.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}
	if !user.Active {
		return domain.TokenPair{}, ErrAccountInactive
	}

	accessTTL, refreshTTL := m.TTLs.Pick(session.Remember)
	newClaims := jwtx.NewClaims(user.ID, user.Email, string(user.Role), sessionID, user.Role.Permissions())

	accessToken, err := m.Codec.Issue(newClaims, jwtx.TokenTypeAccess, accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	newRefreshToken, err := m.Codec.Issue(newClaims, jwtx.TokenTypeRefresh, refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	session.LastActivity = now
	session.RefreshTokenFP = cryptox.FingerprintToken(newRefreshToken)
	if err := m.writeSession(ctx, session, refreshTTL); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    accessTTL,
		SessionID:    sessionID,
	}, nil
}

// RevokeSession tears a session down: the session record goes away (killing
// its outstanding access tokens), and the pending refresh fingerprint is
// removed so it can never be rotated. Take keeps the teardown atomic
// against a concurrent refresh.
func (m *LifecycleManager) RevokeSession(ctx context.Context, sessionID string) error {
	raw, err := m.KV.Take(ctx, sessionKey(sessionID))
	if errors.Is(err, kv.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}

	if s.RefreshTokenFP != "" {
		if err := m.KV.Delete(ctx, refreshKey(s.RefreshTokenFP)); err != nil {
			return err
		}
	}
	return m.KV.RemoveFromSet(ctx, userSessionsKey(s.UserID), sessionID)
}

// RevokeAllSessionsForUser revokes every tracked session of a user. Used
// for "log out everywhere" and mandatory after a password change. Sessions
// that already lapsed are skipped, not errors.
func (m *LifecycleManager) RevokeAllSessionsForUser(ctx context.Context, userID string) error {
	sessionIDs, err := m.KV.SetMembers(ctx, userSessionsKey(userID))
	if err != nil {
		return err
	}

	for _, id := range sessionIDs {
		if err := m.RevokeSession(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	}
	return m.KV.Delete(ctx, userSessionsKey(userID))
}

// BlacklistToken marks a token revoked for exactly its remaining lifetime.
// An already-expired token is skipped; it can no longer validate anyway.
func (m *LifecycleManager) BlacklistToken(ctx context.Context, token string) error {
	claims, err := jwtx.DecodeUnverified(token)
	if err != nil {
		return err
	}

	remaining := claims.RemainingLifetime(m.now())
	if remaining <= 0 {
		return nil
	}
	return m.KV.SetWithTTL(ctx, blacklistKey(cryptox.FingerprintToken(token)), "revoked", remaining)
}

// expiredSweeper is implemented by stores that expire lazily (the memory
// driver); redis expires keys itself.
type expiredSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupExpired is the periodic bookkeeping pass: it sweeps lazily-expired
// entries where the store needs help, and resets the blacklist if it grew
// past the cap. Best effort; TTLs already bound store growth.
func (m *LifecycleManager) CleanupExpired(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	if sweeper, ok := m.KV.(expiredSweeper); ok {
		swept, err := sweeper.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		if swept > 0 {
			l.Debug("swept expired bookkeeping entries", slog.Int64("count", swept))
		}
	}

	limit := m.BlacklistCap
	if limit <= 0 {
		limit = DefaultBlacklistCap
	}
	count, err := m.KV.CountPrefix(ctx, blacklistKeyPrefix)
	if err != nil {
		return err
	}
	if count > limit {
		l.Warn("blacklist exceeded size cap, resetting",
			slog.Int64("count", count),
			slog.Int64("cap", limit),
		)
		return m.KV.DeletePrefix(ctx, blacklistKeyPrefix)
	}
	return nil
}

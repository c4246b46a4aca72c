package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tuckshop-au/tuckshop/internal/auth/domain"
	"github.com/tuckshop-au/tuckshop/internal/auth/store"
	"github.com/tuckshop-au/tuckshop/pkg/cryptox"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// MinPasswordLen is the floor for new passwords set through ChangePassword.
const MinPasswordLen = 8

// Authenticator is the single entry point for logging a user in. It owns
// the ordered sequence of lockout check, credential lookup, activity check,
// password verification, and token issuance.
type Authenticator struct {
	Store     store.Store
	Lockout   *LockoutPolicy
	Lifecycle *LifecycleManager
}

// Authenticate verifies credentials and issues a token pair.
//
// The sequence is fixed: a locked account fails before the credential store
// is touched; an unknown email counts as a failed attempt and reports the
// same generic failure as a wrong password; an inactive account does not
// count, since it is not a password guess.
func (a *Authenticator) Authenticate(
	ctx context.Context,
	email, password string,
	remember bool,
	client domain.ClientContext,
) (domain.AuthResult, error) {
	l := slogx.FromContext(ctx)
	email = normalizeEmail(email)

	locked, err := a.Lockout.IsLocked(ctx, email)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if locked {
		l.Info("login attempt on locked account", slog.String("email", email))
		return domain.AuthResult{}, ErrAccountLocked
	}

	user, err := a.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if err := a.Lockout.RecordFailure(ctx, email); err != nil {
				return domain.AuthResult{}, err
			}
			return domain.AuthResult{}, ErrInvalidCredentials
		}
		return domain.AuthResult{}, err
	}

	if !user.Active {
		return domain.AuthResult{}, ErrAccountInactive
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			if err := a.Lockout.RecordFailure(ctx, email); err != nil {
				return domain.AuthResult{}, err
			}
			l.Info("password verification failed", slog.String("email", email))
			return domain.AuthResult{}, ErrInvalidCredentials
		}
		return domain.AuthResult{}, err
	}

	if err := a.Lockout.Clear(ctx, email); err != nil {
		return domain.AuthResult{}, err
	}

	tokens, err := a.Lifecycle.IssueTokenPair(ctx, user, remember, client)
	if err != nil {
		return domain.AuthResult{}, err
	}

	l.Info("user authenticated",
		slog.String("user_id", user.ID),
		slog.String("session_id", tokens.SessionID),
		slog.Bool("remember", remember),
	)

	return domain.AuthResult{User: user.Summary(), Tokens: tokens}, nil
}

// ChangePassword verifies the current password, stores a new hash, and
// revokes every session of the user so stolen tokens die with the old
// password.
func (a *Authenticator) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return ErrWeakPassword
	}

	user, err := a.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := a.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed, revoking all sessions",
		slog.String("user_id", userID),
	)
	return a.Lifecycle.RevokeAllSessionsForUser(ctx, userID)
}

// normalizeEmail lowercases and trims; the same key feeds the credential
// lookup and the lockout counters.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

const (
	// DefaultLockoutThreshold is how many consecutive failures lock an account.
	DefaultLockoutThreshold = 5

	// DefaultLockoutWindow is both the counter TTL and the lockout duration.
	DefaultLockoutWindow = 30 * time.Minute
)

// LockoutPolicy tracks consecutive authentication failures per account and
// blocks attempts once the threshold is reached, for the configured window.
// State lives in the revocation/session store so it survives transient
// credential-store failures and expires without a background sweep.
type LockoutPolicy struct {
	KV        kv.Store
	Threshold int64
	Window    time.Duration
}

// RecordFailure atomically increments the failure counter, creating it with
// the window TTL when absent. Reaching the threshold sets the lockout flag
// for a full window from this failure.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, accountKey string) error {
	count, err := p.KV.Increment(ctx, attemptsKey(accountKey), p.Window)
	if err != nil {
		return err
	}

	if count >= p.Threshold {
		if err := p.KV.SetWithTTL(ctx, holdKey(accountKey), "locked", p.Window); err != nil {
			return err
		}
		slogx.FromContext(ctx).Warn("account locked after repeated failures",
			slog.String("account", accountKey),
			slog.Int64("failures", count),
		)
	}
	return nil
}

// IsLocked reports whether the account is currently held locked.
func (p *LockoutPolicy) IsLocked(ctx context.Context, accountKey string) (bool, error) {
	_, err := p.KV.Get(ctx, holdKey(accountKey))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes both the counter and the lockout flag. Called on successful
// authentication; nothing else ever decrements the counter.
func (p *LockoutPolicy) Clear(ctx context.Context, accountKey string) error {
	if err := p.KV.Delete(ctx, attemptsKey(accountKey)); err != nil {
		return err
	}
	return p.KV.Delete(ctx, holdKey(accountKey))
}

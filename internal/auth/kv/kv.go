// Package kv defines the revocation/session store: a fast TTL'd key-value
// store holding blacklisted token fingerprints, active session records,
// pending refresh tokens, and failed-login counters. It is the single shared
// mutable resource of the auth subsystem, so it must live in a store visible
// to every server instance (redis in deployment) so that revocation is
// platform-wide, not per-instance. The in-memory driver exists for
// single-instance deployments and tests.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports a missing or expired key.
var ErrNotFound = errors.New("kv: not found")

// Store is the revocation/session store interface. All keys are opaque
// identifiers (session id, token fingerprint, account key) so concurrent
// unrelated sessions never contend.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL writes key=value expiring after ttl. A non-positive ttl is
	// rejected; nothing in this subsystem stores immortal keys.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Take atomically reads and deletes a key, returning ErrNotFound when it
	// was absent. Refresh rotation and the refresh/revoke race both depend
	// on this being a single atomic step.
	Take(ctx context.Context, key string) (string, error)

	// Increment atomically increments the counter at key, creating it with
	// ttl when absent, and returns the post-increment value. The TTL is not
	// extended on subsequent increments.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// AddToSet adds member to the set at key and refreshes the set's ttl.
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error

	// RemoveFromSet removes member from the set at key, if present.
	RemoveFromSet(ctx context.Context, key, member string) error

	// SetMembers returns all members of the set at key; empty when absent.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// CountPrefix returns how many live keys start with prefix.
	CountPrefix(ctx context.Context, prefix string) (int64, error)

	// DeletePrefix removes every key starting with prefix. This backs the
	// blacklist-cap safety valve only; TTLs bound growth in normal operation.
	DeletePrefix(ctx context.Context, prefix string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Package memory provides an in-process kv.Store for single-instance
// deployments and tests. Expiry is checked lazily on read and swept by
// the housekeeping pass via DeleteExpired.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type setEntry struct {
	members   map[string]struct{}
	expiresAt time.Time
}

// Store is a mutex-guarded map implementation of kv.Store.
type Store struct {
	mu     sync.Mutex
	values map[string]entry
	sets   map[string]setEntry
	closed bool

	// Now is overridable for expiry tests.
	Now func() time.Time
}

var _ kv.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		values: make(map[string]entry),
		sets:   make(map[string]setEntry),
		Now:    time.Now,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[key]
	if !ok || s.expired(e.expiresAt) {
		delete(s.values, key)
		return "", kv.ErrNotFound
	}
	return e.value, nil
}

func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("memory: non-positive ttl %v for key %q", ttl, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = entry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) Take(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[key]
	if !ok || s.expired(e.expiresAt) {
		delete(s.values, key)
		return "", kv.ErrNotFound
	}
	delete(s.values, key)
	return e.value, nil
}

func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("memory: non-positive ttl %v for key %q", ttl, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[key]
	if !ok || s.expired(e.expiresAt) {
		s.values[key] = entry{value: "1", expiresAt: s.Now().Add(ttl)}
		return 1, nil
	}

	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("memory: key %q holds non-counter value", key)
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	s.values[key] = e
	return n, nil
}

func (s *Store) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("memory: non-positive ttl %v for key %q", ttl, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.sets[key]
	if !ok || s.expired(se.expiresAt) {
		se = setEntry{members: make(map[string]struct{})}
	}
	se.members[member] = struct{}{}
	se.expiresAt = s.Now().Add(ttl)
	s.sets[key] = se
	return nil
}

func (s *Store) RemoveFromSet(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.sets[key]
	if !ok || s.expired(se.expiresAt) {
		delete(s.sets, key)
		return nil
	}
	delete(se.members, member)
	if len(se.members) == 0 {
		delete(s.sets, key)
	}
	return nil
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.sets[key]
	if !ok || s.expired(se.expiresAt) {
		delete(s.sets, key)
		return nil, nil
	}
	members := make([]string, 0, len(se.members))
	for m := range se.members {
		members = append(members, m)
	}
	return members, nil
}

func (s *Store) CountPrefix(ctx context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, e := range s.values {
		if strings.HasPrefix(k, prefix) && !s.expired(e.expiresAt) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			delete(s.values, k)
		}
	}
	return nil
}

// DeleteExpired sweeps lazily-expired entries. The housekeeping service
// calls this; redis expires keys itself so this has no Store counterpart.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, e := range s.values {
		if s.expired(e.expiresAt) {
			delete(s.values, k)
			n++
		}
	}
	for k, se := range s.sets {
		if s.expired(se.expiresAt) {
			delete(s.sets, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("memory: store closed")
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.values = nil
	s.sets = nil
	return nil
}

func (s *Store) expired(at time.Time) bool {
	return !at.After(s.Now())
}

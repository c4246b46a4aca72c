package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuckshop-au/tuckshop/internal/auth/domain"
	"github.com/tuckshop-au/tuckshop/internal/auth/kv/drivers/memory"
	"github.com/tuckshop-au/tuckshop/internal/auth/store/drivers/sqlite"
	"github.com/tuckshop-au/tuckshop/pkg/cryptox"
	"github.com/tuckshop-au/tuckshop/pkg/idx"
	"github.com/tuckshop-au/tuckshop/pkg/jwtx"
)

const (
	codecSecretA = "0kTzW8mJq4vXbN2rLc7HdPfUyG5aZsQeRi9oYwEnKMx1fVgBhAlCuD3jSp6Fq2Yr"
	codecSecretB = "Zr4NqYx7LwKe2MfTvJ9cBhUaG0dXsPon5RiW8yEbVuQlC1mHkAgD6jSz3pFw9Mb0"
)

// testDeps bundles everything a service test needs, all backed by a real
// sqlite file and the in-memory kv driver.
type testDeps struct {
	Store     *sqlite.Store
	KV        *memory.Store
	Codec     *jwtx.Codec
	Lifecycle *LifecycleManager
	Lockout   *LockoutPolicy
	Auth      *Authenticator
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	kvStore := memory.New()

	codec, err := jwtx.NewCodec(jwtx.Config{
		AccessSecret:  codecSecretA,
		RefreshSecret: codecSecretB,
		Issuer:        "tuckshop-auth",
		Audience:      "tuckshop-api",
	})
	require.NoError(t, err)

	lifecycle := &LifecycleManager{
		Codec: codec,
		KV:    kvStore,
		Store: st,
		TTLs: TokenTTLs{
			Access:          time.Hour,
			Refresh:         7 * 24 * time.Hour,
			AccessRemember:  30 * 24 * time.Hour,
			RefreshRemember: 90 * 24 * time.Hour,
		},
	}

	lockout := &LockoutPolicy{
		KV:        kvStore,
		Threshold: DefaultLockoutThreshold,
		Window:    DefaultLockoutWindow,
	}

	return &testDeps{
		Store:     st,
		KV:        kvStore,
		Codec:     codec,
		Lifecycle: lifecycle,
		Lockout:   lockout,
		Auth: &Authenticator{
			Store:     st,
			Lockout:   lockout,
			Lifecycle: lifecycle,
		},
	}
}

// seedUser provisions an account. The hash uses a low bcrypt cost to keep
// test runs fast; production uses the package default.
func (d *testDeps) seedUser(t *testing.T, email, password string, role domain.Role, active bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPasswordCost(password, 4)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	}
	require.NoError(t, d.Store.Users().CreateUser(context.Background(), u))
	return u
}

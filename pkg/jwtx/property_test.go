package jwtx

import (
	"context"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// permissionsGen keeps generated permission lists small enough that the
// encoded token stays under MaxTokenLen; the oversize case is pinned
// separately in codec_test.go.
func permissionsGen() gopter.Gen {
	return gen.IntRange(0, 4).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), gen.Identifier())
	}, reflect.TypeOf([]string{}))
}

// Round-trip property: every identity field survives issue-then-verify for
// arbitrary inputs, for both token kinds.
func TestCodecRoundTripProperties(t *testing.T) {
	codec, err := NewCodec(Config{
		AccessSecret:  secretA,
		RefreshSecret: secretB,
		Issuer:        "tuckshop-auth",
		Audience:      "tuckshop-platform",
	})
	if err != nil {
		t.Fatal(err)
	}

	properties := gopter.NewProperties(nil)

	properties.Property("verify(issue(claims)) preserves identity claims", prop.ForAll(
		func(userID, email, role, sid string, permissions []string, refresh bool) bool {
			kind := TokenTypeAccess
			if refresh {
				kind = TokenTypeRefresh
			}

			token, err := codec.Issue(NewClaims(userID, email, role, sid, permissions), kind, time.Hour)
			if err != nil {
				return false
			}

			got, err := codec.Verify(context.Background(), token, kind)
			if err != nil {
				return false
			}

			return got.Subject == userID &&
				got.Email == email &&
				got.Role == role &&
				got.SID == sid &&
				got.TokenType == kind &&
				slices.Equal(got.Permissions, permissions)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Identifier(),
		permissionsGen(),
		gen.Bool(),
	))

	properties.Property("opposite expected type always fails with type mismatch", prop.ForAll(
		func(userID string, refresh bool) bool {
			issued, opposite := TokenTypeAccess, TokenTypeRefresh
			if refresh {
				issued, opposite = TokenTypeRefresh, TokenTypeAccess
			}

			token, err := codec.Issue(NewClaims(userID, "", "", "", nil), issued, time.Hour)
			if err != nil {
				return false
			}

			_, err = codec.Verify(context.Background(), token, opposite)
			return err == ErrTypeMismatch
		},
		gen.Identifier(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

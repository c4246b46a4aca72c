package httpx

import (
	"context"
	"net/http"

	"github.com/tuckshop-au/tuckshop/pkg/jwtx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// AccessVerifier validates a bearer access token and returns its claims.
// The session/token lifecycle manager satisfies this.
type AccessVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (jwtx.Claims, error)
}

// TokenErrorWriter renders a failed token verification. The middleware
// stays ignorant of the application's wire error taxonomy; the router
// injects a writer that maps verification failures onto it, so clients can
// tell an expired token (refresh may help) from a revoked or forged one.
type TokenErrorWriter func(w http.ResponseWriter, err error)

// AuthnMiddleware rejects requests without a valid access token and injects
// the verified identity into the request context. A nil onError falls back
// to a generic RFC 6750 bearer error.
func AuthnMiddleware(v AccessVerifier, onError TokenErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := ExtractBearerToken(r)
			if raw == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.VerifyAccessToken(ctx, raw)
			if err != nil {
				log.Warn("access token verification failed", "err", err)
				if onError != nil {
					onError(w, err)
				} else {
					writeBearerError(w, "token verification failed")
				}
				return
			}

			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyPermission lets a request through when the token carries at
// least one of the listed permissions.
func RequireAnyPermission(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, p := range required {
		want[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range permissionsFromCtx(r.Context()) {
				if _, ok := want[p]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("insufficient_permissions"))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeySessionID, c.SID)
	ctx = context.WithValue(ctx, CtxKeyPermissions, c.Permissions)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}

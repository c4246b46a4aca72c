package httpx

import (
	"net/http"
	"strings"

	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// SessionCookieName is the cookie used as a fallback token carrier for
// browser clients that cannot set an Authorization header.
const SessionCookieName = "tuckshop_session"

// ExtractBearerToken pulls the access token off an inbound request. Lookup
// order: Authorization header, session cookie, then the deprecated
// access_token query parameter. Query extraction is kept only for legacy
// device firmware and logs a security warning on every use.
func ExtractBearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if strings.HasPrefix(authz, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
		}
		return ""
	}

	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	if token := r.URL.Query().Get("access_token"); token != "" {
		slogx.FromContext(r.Context()).Warn("bearer token supplied via query parameter; this transport is deprecated",
			"path", r.URL.Path,
		)
		return token
	}

	return ""
}

// IsSecureTransport reports whether the request arrived over TLS, either
// directly or via a terminating proxy that set X-Forwarded-Proto.
func IsSecureTransport(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

package http

import (
	"errors"
	"net/http"

	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout and POST /v1/auth/logout-all.
// Both require a verified bearer token; the session and user come from the
// token's own claims, so a caller can only ever revoke themselves.
type LogoutHandler struct {
	Lifecycle *service.LifecycleManager
}

func (h *LogoutHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := httpx.SessionIDFromContext(ctx)
	if sessionID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Lifecycle.RevokeSession(ctx, sessionID); err != nil {
		// A session that already lapsed still counts as logged out.
		if !errors.Is(err, service.ErrSessionNotFound) {
			log.Error("logout failed", "error", err, "session_id", sessionID)
			authsdk.ErrServerError.WriteError(w)
			return
		}
	}

	// The access token stays cryptographically valid until it expires, so
	// it goes on the blacklist alongside the session teardown.
	if token := httpx.ExtractBearerToken(r); token != "" {
		if err := h.Lifecycle.BlacklistToken(ctx, token); err != nil {
			log.Error("blacklist on logout failed", "error", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LogoutHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Lifecycle.RevokeAllSessionsForUser(ctx, userID); err != nil {
		log.Error("logout-all failed", "error", err, "user_id", userID)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	if token := httpx.ExtractBearerToken(r); token != "" {
		if err := h.Lifecycle.BlacklistToken(ctx, token); err != nil {
			log.Error("blacklist on logout-all failed", "error", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// RefreshHandler serves POST /v1/auth/refresh. Each refresh token is single
// use; the response carries its replacement.
type RefreshHandler struct {
	Lifecycle *service.LifecycleManager
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	tokens, err := h.Lifecycle.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshNotFound),
			errors.Is(err, service.ErrSessionNotFound):
			authsdk.ErrRefreshNotFound.WriteError(w)
		case errors.Is(err, service.ErrRevokedToken):
			authsdk.ErrRevokedToken.WriteError(w)
		case errors.Is(err, service.ErrInvalidRefresh):
			authsdk.ErrInvalidToken.WriteError(w)
		case errors.Is(err, service.ErrAccountInactive):
			authsdk.ErrAccountInactive.WriteError(w)
		default:
			log.Error("refresh failed", "error", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(tokens, nil))
}

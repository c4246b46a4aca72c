package http

import (
	"encoding/json"
	"net/http"

	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// PasswordHandler serves POST /v1/auth/password. A successful change
// revokes every session of the user, this one included, so the caller must
// log in again with the new password.
type PasswordHandler struct {
	Authenticator *service.Authenticator
}

func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Authenticator.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
)

// UserInfoHandler serves GET /v1/auth/userinfo from the verified token's own
// claims; no store round trip is needed.
type UserInfoHandler struct{}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserInfoResponse{
		UserSummary: authsdk.UserSummary{
			ID:    claims.Subject,
			Email: claims.Email,
			Role:  claims.Role,
		},
		SessionID:   claims.SID,
		Permissions: claims.Permissions,
	})
}

package http

import (
	"errors"
	"net/http"

	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/jwtx"
)

// writeTokenError maps an access-token verification failure onto the wire
// taxonomy. Expiry is the only failure a client should answer with a
// refresh; revocation and everything else call for a fresh login.
func writeTokenError(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)

	switch {
	case errors.Is(err, jwtx.ErrExpired):
		authsdk.ErrExpiredToken.WriteError(w)
	case errors.Is(err, service.ErrRevokedToken), errors.Is(err, service.ErrSessionNotFound):
		authsdk.ErrRevokedToken.WriteError(w)
	default:
		authsdk.ErrInvalidToken.WriteError(w)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tuckshop-au/tuckshop/internal/auth/domain"
	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	Authenticator *service.Authenticator

	// AllowInsecure skips the transport check, for tests and local dev.
	AllowInsecure bool
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Credentials never travel over plaintext.
	if !h.AllowInsecure && !httpx.IsSecureTransport(r) {
		log.Warn("login attempt over insecure transport", "remote", r.RemoteAddr)
		authsdk.ErrInsecureTransport.WriteError(w)
		return
	}

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client := domain.ClientContext{
		UserAgent: r.UserAgent(),
		IP:        httpx.IPKeyExtractor(r),
	}

	res, err := h.Authenticator.Authenticate(ctx, req.Email, req.Password, req.Remember, client)
	if err != nil {
		writeAuthError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res.Tokens, &res.User))
}

// writeAuthError maps service failures onto wire errors: 401 for credential
// and token failures, 403 for inactive, 429 for lockout, 500 for everything
// internal (with detail logged, never surfaced).
func writeAuthError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAccountInactive):
		authsdk.ErrAccountInactive.WriteError(w)
	case errors.Is(err, service.ErrAccountLocked):
		authsdk.ErrAccountLocked.WriteError(w)
	case errors.Is(err, service.ErrWeakPassword):
		authsdk.ErrWeakPassword.WriteError(w)
	default:
		log.Error("auth request failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func tokenResponse(tokens domain.TokenPair, user *domain.Summary) authsdk.TokenResponse {
	resp := authsdk.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    int64(tokens.ExpiresIn.Seconds()),
		SessionID:    tokens.SessionID,
	}
	if user != nil {
		resp.User = &authsdk.UserSummary{
			ID:       user.ID,
			Email:    user.Email,
			Role:     string(user.Role),
			SchoolID: user.SchoolID,
		}
	}
	return resp
}

package service

import "errors"

// Service-level failure reasons. The HTTP layer maps these onto status
// codes; nothing store- or codec-specific crosses this boundary.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrAccountLocked      = errors.New("account_locked")
	ErrWeakPassword       = errors.New("weak_password")
	ErrRevokedToken       = errors.New("revoked_token")
	ErrSessionNotFound    = errors.New("session_not_found")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrRefreshNotFound    = errors.New("refresh_token_not_found")
)

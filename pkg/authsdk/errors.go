package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tuckshop-au/tuckshop/pkg/httpx"
)

// Error codes shared by the server and the SDK client. Credential failures
// are deliberately generic; token failures are differentiated only so a
// client knows whether a refresh is worth attempting.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountInactive    = "account_inactive"
	ErrorCodeAccountLocked      = "account_locked"
	ErrorCodeWeakPassword       = "weak_password"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeExpiredToken       = "expired_token"
	ErrorCodeRevokedToken       = "revoked_token"
	ErrorCodeRefreshNotFound    = "refresh_token_not_found"
	ErrorCodeInsecureTransport  = "insecure_transport"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error payload the auth service returns. It implements the
// error interface so the SDK client can surface it directly, and it knows
// how to write itself as an HTTP response on the server side.
type APIError struct {
	// StatusCode is the HTTP status code for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable description of the error.
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest covers malformed bodies and missing parameters.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidCredentials never reveals whether the email or the password
	// was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	// ErrAccountInactive is returned for deactivated accounts.
	ErrAccountInactive = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountInactive,
		Description: "account is deactivated",
	}

	// ErrAccountLocked is returned while the lockout window holds.
	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeAccountLocked,
		Description: "account temporarily locked after repeated failed attempts",
	}

	// ErrWeakPassword is returned when a new password fails the policy.
	ErrWeakPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWeakPassword,
		Description: "new password does not meet the minimum requirements",
	}

	// ErrInvalidToken covers malformed, expired-beyond-refresh, forged, and
	// wrong-kind tokens.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "token is invalid",
	}

	// ErrExpiredToken tells the client a refresh may still succeed.
	ErrExpiredToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeExpiredToken,
		Description: "token has expired",
	}

	// ErrRevokedToken means the token or its session was revoked; the client
	// must log in again.
	ErrRevokedToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeRevokedToken,
		Description: "token has been revoked",
	}

	// ErrRefreshNotFound signals a consumed or unknown refresh token,
	// including rotation replay.
	ErrRefreshNotFound = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeRefreshNotFound,
		Description: "refresh token is no longer valid",
	}

	// ErrInsecureTransport refuses credentials sent over plaintext.
	ErrInsecureTransport = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInsecureTransport,
		Description: "credentials must be sent over a secure connection",
	}

	// ErrServerError hides store and codec internals from the caller.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

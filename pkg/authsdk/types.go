package authsdk

// ErrorResponse is the wire shape of an APIError, used when parsing HTTP
// error responses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Remember extends both token lifetimes per the server's configuration.
	Remember bool `json:"remember,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the body of POST /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserSummary is the caller-facing account projection, never carrying a
// password hash.
type UserSummary struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	SchoolID *string `json:"schoolId,omitempty"`
}

// TokenResponse is the success payload of login and refresh.
type TokenResponse struct {
	// AccessToken is the signed JWT used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// RefreshToken is the signed JWT used solely to obtain new pairs. Each
	// one is single-use; refresh returns a replacement.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	// SessionID identifies the server-tracked session both tokens share.
	SessionID string `json:"session_id"`

	// User is present on login responses.
	User *UserSummary `json:"user,omitempty"`
}

// UserInfoResponse is the payload of GET /v1/auth/userinfo.
type UserInfoResponse struct {
	UserSummary

	SessionID   string   `json:"session_id"`
	Permissions []string `json:"permissions,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
	KV       string `json:"kv"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

package domain

import "time"

// ClientContext is the optional client metadata captured at login.
type ClientContext struct {
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// Session is the server-tracked record binding a user to the session id
// shared by a token pair. It lives in the revocation/session store under a
// fixed TTL that is refreshed on every write (login and refresh), and is
// deleted on logout or revocation.
type Session struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
	Client       ClientContext `json:"client,omitempty"`

	// Remember records whether the session was opened with "remember me",
	// so rotation keeps issuing tokens with the extended lifetimes.
	Remember bool `json:"remember,omitempty"`

	// RefreshTokenFP is the SHA-256 fingerprint of the refresh token
	// currently valid for this session. Rotation replaces it; revocation
	// uses it to kill the pending refresh token.
	RefreshTokenFP string `json:"refresh_token_fp"`
}

package domain

import "time"

// TokenPair is what successful authentication and refresh return: a
// short-lived signed access token and a longer-lived signed refresh token,
// both bound to the same session id.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
	SessionID    string        `json:"session_id"`
}

// AuthResult is the success outcome of authentication.
type AuthResult struct {
	User   Summary
	Tokens TokenPair
}

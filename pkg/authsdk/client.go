// Package authsdk is the Go client for the tuckshop auth service, plus the
// wire types and error values the server shares with it.
package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// refreshBuffer is how long before expiry a session refreshes proactively.
const refreshBuffer = 30 * time.Second

// SDKClient is a client for the tuckshop auth service. It provides the
// unauthenticated operations and creates authenticated Sessions via Login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with a sensible request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates and returns a Session holding the token pair. The
// session refreshes its access token automatically when it nears expiry.
func (c *SDKClient) Login(ctx context.Context, email, password string, remember bool) (*Session, error) {
	var resp TokenResponse
	err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{
		Email:    email,
		Password: password,
		Remember: remember,
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// Livez reports basic service health.
func (c *SDKClient) Livez(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/livez", "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Readyz reports dependency readiness.
func (c *SDKClient) Readyz(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/readyz", "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Session is an authenticated client bound to one server-side session.
type Session struct {
	client *SDKClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	sessionID    string
}

func newSession(c *SDKClient, resp TokenResponse) *Session {
	return &Session{
		client:       c,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		sessionID:    resp.SessionID,
	}
}

// SessionID returns the server-side session identifier.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// getValidToken returns a usable access token, rotating the pair first when
// the current one is about to expire.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Until(s.expiresAt) > refreshBuffer {
		return s.accessToken, nil
	}

	var resp TokenResponse
	err := s.client.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{
		RefreshToken: s.refreshToken,
	}, "", &resp)
	if err != nil {
		return "", err
	}

	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return s.accessToken, nil
}

// Refresh forces a rotation regardless of remaining lifetime.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	_, err := s.getValidToken(ctx)
	return err
}

// UserInfo returns the authenticated user's summary.
func (s *Session) UserInfo(ctx context.Context) (*UserInfoResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}
	var resp UserInfoResponse
	if err := s.client.getJSON(ctx, "/v1/auth/userinfo", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes this session on the server.
func (s *Session) Logout(ctx context.Context) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.postJSON(ctx, "/v1/auth/logout", nil, token, nil)
}

// LogoutAll revokes every session of the authenticated user.
func (s *Session) LogoutAll(ctx context.Context) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.postJSON(ctx, "/v1/auth/logout-all", nil, token, nil)
}

// ChangePassword rotates the account password. Every session dies with the
// old password, this one included.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.postJSON(ctx, "/v1/auth/password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}, token, nil)
}

func (c *SDKClient) postJSON(ctx context.Context, path string, body any, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.do(req, out)
}

func (c *SDKClient) getJSON(ctx context.Context, path string, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.do(req, out)
}

func (c *SDKClient) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var er ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: fmt.Sprintf("unexpected response status %d", resp.StatusCode),
		}
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        er.Error,
		Description: er.ErrorDescription,
	}
}

// Package account handles user login, registration, and the persisted
// auth credential. The bearer token and the cached user profile live
// in the client state store until logout; token refresh/revocation is
// the backend's concern.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rgamer-store/internal/model"
	"rgamer-store/internal/storage"
)

const (
	pathLogin    = "api/user/login/"
	pathRegister = "api/user/register/"
	pathMe       = "api/user/me/"
)

// State-store keys, shared with the original web client so a migrated
// profile keeps its identity.
const (
	tokenKey = "rgamer_token"
	userKey  = "auth_user"
)

// User is the authenticated user profile.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

// loginResponse is the backend's login payload: a JWT pair plus the
// user profile.
type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Client is the auth API client with credential persistence.
type Client struct {
	httpClient *http.Client
	baseURL    string
	store      *storage.Store
}

// NewClient creates an account client. store holds the credential and
// profile between runs; it may be nil for credential-less use.
func NewClient(baseURL string, rt http.RoundTripper, store *storage.Store) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: rt,
		},
		baseURL: baseURL,
		store:   store,
	}
}

// Login authenticates and persists the access credential and profile.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, model.NewValidationError("credentials", "username and password are required")
	}

	body := map[string]string{"username": username, "password": password}
	var resp loginResponse
	if err := c.post(ctx, pathLogin, body, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		return nil, model.NewMalformedError("login response missing access token")
	}

	if c.store != nil {
		if err := c.store.Set(tokenKey, resp.Access); err != nil {
			return nil, fmt.Errorf("persisting credential: %w", err)
		}
		profile, err := json.Marshal(resp.User)
		if err == nil {
			c.store.Set(userKey, string(profile))
		}
	}
	return &resp.User, nil
}

// Register creates a new user account. The backend enforces username/
// email uniqueness and password strength; its message is surfaced.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return model.NewValidationError("registration", "username, email and password are required")
	}

	body := map[string]string{"username": username, "email": email, "password": password}
	return c.post(ctx, pathRegister, body, nil)
}

// Me retrieves the authenticated profile from the backend.
func (c *Client) Me(ctx context.Context) (*User, error) {
	token, ok := c.Token()
	if !ok {
		return nil, model.NewUnauthorizedError("not logged in")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathMe, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var user User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Token returns the persisted access credential, if any.
func (c *Client) Token() (string, bool) {
	if c.store == nil {
		return "", false
	}
	token, ok, err := c.store.Get(tokenKey)
	if err != nil || token == "" {
		return "", false
	}
	return token, ok
}

// CurrentUser returns the cached user profile, if any.
func (c *Client) CurrentUser() (*User, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, ok, err := c.store.Get(userKey)
	if err != nil || !ok {
		return nil, false
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// IsAdmin reports whether the cached profile has staff rights.
func (c *Client) IsAdmin() bool {
	user, ok := c.CurrentUser()
	return ok && user.IsStaff
}

// Logout removes the credential and the cached profile.
func (c *Client) Logout() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(tokenKey); err != nil {
		return err
	}
	return c.store.Delete(userKey)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewConnectivityError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		json.Unmarshal(body, &eb) // Best effort parse

		msg := eb.Detail
		if msg == "" {
			msg = eb.Error
		}
		if resp.StatusCode == http.StatusUnauthorized {
			if msg == "" {
				msg = "invalid credentials"
			}
			return model.NewUnauthorizedError(msg)
		}
		return model.NewStatusError(resp.StatusCode, msg)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return model.NewMalformedError(fmt.Sprintf("parsing response: %v", err))
		}
	}
	return nil
}

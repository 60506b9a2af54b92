package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmarket-client/internal/session"
	"taskmarket-client/internal/tasks"
)

// TokenSource supplies the current bearer token, or "" when the session is
// unauthenticated. *session.Store satisfies it via a small adapter in the
// app wiring.
type TokenSource func() string

// Client talks to the marketplace REST API. It owns no session state; it
// reads the bearer token through the TokenSource on every request.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func New(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

// AuthResponse is the shape of every authentication endpoint's success
// payload. Both fields must be present; a partial pair is a contract
// violation.
type AuthResponse struct {
	User  session.Identity `json:"user"`
	Token string           `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Verified bool   `json:"verified,omitempty"`
	Provider string `json:"provider,omitempty"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	return c.authRequest(ctx, "/users/login", req)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	return c.authRequest(ctx, "/users/register", req)
}

// ExchangeGoogleCode submits an OAuth authorization code for a session. A
// 401 whose error message mentions "Unauthorized" means the code or the
// provider-side grant expired and maps to ErrUpstreamUnauthorized.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/users/google-oauth", map[string]string{"code": code}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized &&
			strings.Contains(apiErr.Message, "Unauthorized") {
			return AuthResponse{}, fmt.Errorf("%w: %s", ErrUpstreamUnauthorized, apiErr.Message)
		}
		return AuthResponse{}, err
	}
	if err := validateAuthResponse(out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

func (c *Client) Tasks(ctx context.Context) ([]tasks.Task, error) {
	var out []tasks.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UserTasks(ctx context.Context, userID session.EntityID) ([]tasks.Task, error) {
	var out []tasks.Task
	path := "/tasks/user/" + userID.Canonical()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) User(ctx context.Context, userID session.EntityID) (session.Identity, error) {
	var out session.Identity
	if err := c.do(ctx, http.MethodGet, "/users/"+userID.Canonical(), nil, &out); err != nil {
		return session.Identity{}, err
	}
	return out, nil
}

// UpdateProfile replaces the user's profile and returns the updated
// identity. No new credential is issued by this endpoint.
func (c *Client) UpdateProfile(ctx context.Context, userID session.EntityID, profile session.Identity) (session.Identity, error) {
	var out struct {
		User session.Identity `json:"user"`
	}
	path := "/users/" + userID.Canonical() + "/profile"
	if err := c.do(ctx, http.MethodPut, path, profile, &out); err != nil {
		return session.Identity{}, err
	}
	if out.User.ID.IsZero() {
		out.User = profile
	}
	return out.User, nil
}

func (c *Client) authRequest(ctx context.Context, path string, body any) (AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return AuthResponse{}, err
	}
	if err := validateAuthResponse(out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

func validateAuthResponse(r AuthResponse) error {
	if r.User.ID.IsZero() || r.Token == "" {
		return fmt.Errorf("%w: missing user or token", ErrServerContract)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error string `json:"error"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &failure); err != nil {
				return fmt.Errorf("%w: status %d with unparseable body", ErrServerContract, resp.StatusCode)
			}
		}
		return &APIError{Status: resp.StatusCode, Message: failure.Error}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrServerContract, err)
	}
	return nil
}

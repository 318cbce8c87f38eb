// Package rest implements the Transport collaborator against the Digistar
// Club platform API: credential exchange and server-side session
// invalidation. Every other platform endpoint is outside this client's
// scope.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	loginPath  = "/auth/administrator/login"
	logoutPath = "/auth/logout"

	defaultTimeout = 15 * time.Second
)

// APIError is a non-2xx platform response. Message is the server-provided
// human-readable explanation, when one was sent.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the server's message, safe to surface to the person
// signing in. Empty when the server sent none.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Client calls the platform authentication endpoints. The zero value is not
// usable; construct with [NewClient].
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a client for the API at baseURL. A zero timeout gets
// the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse tolerates both envelope shapes the platform has used:
// {"data":{"access_token":...}} and a top-level access_token.
type loginResponse struct {
	Message string `json:"message"`
	Data    struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var decoded loginResponse
	// A body that fails to decode on a 2xx still means "no token"; on an
	// error status it just loses the message.
	_ = json.Unmarshal(payload, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: decoded.Message}
	}

	if decoded.Data.AccessToken != "" {
		return decoded.Data.AccessToken, nil
	}
	return decoded.AccessToken, nil
}

// Logout invalidates the server-side session for the token.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+logoutPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Package api is the HTTP client for the Secret Safe backend auth contract.
//
// Methods take a context first and return typed responses; non-2xx replies
// surface as [*StatusError] so callers can separate authoritative rejection
// (401) from transient failure (timeouts, 5xx, network errors).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx backend reply.
type StatusError struct {
	StatusCode int
	Endpoint   string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s (%d): %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api %s returned status %d", e.Endpoint, e.StatusCode)
}

// IsUnauthorized reports whether err is an authoritative credential
// rejection (HTTP 401). Everything else, including network errors, counts
// as transient for token-clearing purposes.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// Client talks to the Secret Safe backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an API client for baseURL. If httpClient is nil, a
// client with [DefaultTimeout] is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type apiError struct {
	Detail string `json:"detail"`
}

// do sends the request and decodes a JSON response into result (when result
// is non-nil). Non-2xx statuses become *StatusError with the backend's
// detail message when one is present.
func (c *Client) do(req *http.Request, endpoint string, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		var ae apiError
		if json.Unmarshal(body, &ae) == nil {
			se.Detail = ae.Detail
		}
		return se
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decoding response from %s: %w", endpoint, err)
		}
	}
	return nil
}

// postJSON sends a JSON POST request.
func (c *Client) postJSON(ctx context.Context, endpoint, bearer string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.do(req, endpoint, result)
}

// postForm sends a form-encoded POST request. The login endpoint speaks
// OAuth2 password-form, not JSON.
func (c *Client) postForm(ctx context.Context, endpoint string, values url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, endpoint, result)
}

func (c *Client) getJSON(ctx context.Context, endpoint, bearer string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.do(req, endpoint, result)
}

// Login exchanges credentials for a token pair and the user profile.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	values := url.Values{
		"username": {username},
		"password": {password},
	}

	var resp LoginResponse
	if err := c.postForm(ctx, "/auth/login", values, &resp); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &resp, nil
}

// Register creates an account. No tokens are returned; the account must
// verify its email before logging in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	var profile UserProfile
	if err := c.postJSON(ctx, "/auth/register", "", req, &profile); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	return &profile, nil
}

// Logout notifies the backend. Best effort: callers clear local state
// regardless of the result.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.postJSON(ctx, "/auth/logout", accessToken, struct{}{}, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Me fetches the current user profile. A 401 reply signals an invalid or
// expired access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.getJSON(ctx, "/auth/me", accessToken, &profile); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &profile, nil
}

// Refresh exchanges a refresh token for a new access token. A 401 reply
// signals an invalid or expired refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	req := refreshRequest{RefreshToken: refreshToken}

	var resp RefreshResponse
	if err := c.postJSON(ctx, "/auth/refresh", "", req, &resp); err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return &resp, nil
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email"`
	}{Email: email}

	if err := c.postJSON(ctx, "/auth/forgot-password", "", req, nil); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}

// ResetPassword confirms a password reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	req := struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}{Token: resetToken, NewPassword: newPassword}

	if err := c.postJSON(ctx, "/auth/reset-password", "", req, nil); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	return nil
}

// VerifyEmail confirms an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, verificationToken string) error {
	req := struct {
		Token string `json:"token"`
	}{Token: verificationToken}

	if err := c.postJSON(ctx, "/verification/verify-email", "", req, nil); err != nil {
		return fmt.Errorf("verifying email: %w", err)
	}
	return nil
}

// ResendVerification requests a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email"`
	}{Email: email}

	if err := c.postJSON(ctx, "/verification/resend-verification", "", req, nil); err != nil {
		return fmt.Errorf("resending verification: %w", err)
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

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

	"golang.org/x/time/rate"
)

// Configuration constants for the login endpoint.
const (
	// DefaultBaseURL is the development backend.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultLoginPath is appended to the base URL.
	DefaultLoginPath = "/login"

	// DefaultTimeout bounds one login request.
	DefaultTimeout = 15 * time.Second

	// maxResponseSize caps the login response body.
	maxResponseSize = 1 << 20
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRateLimited        = errors.New("too many login attempts, wait a moment")
	ErrMissingToken       = errors.New("login response carried no token")
	ErrEmptyCredentials   = errors.New("username and password are required")
)

// HTTPError is returned for unexpected backend statuses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("login failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("login failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// Credentials are the login form values.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse accepts both the bare {token} reply and richer variants.
type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	Admin    *bool  `json:"admin,omitempty"`
	IsAdmin  *bool  `json:"isAdmin,omitempty"`
}

// ClientConfig holds login client settings.
type ClientConfig struct {
	BaseURL   string
	LoginPath string
	Timeout   time.Duration

	// Attempts per second and burst for the local login throttle.
	// Zero values select one attempt per second with a burst of 3.
	RateLimit rate.Limit
	Burst     int

	HTTPClient *http.Client
}

// Client calls the backend login endpoint.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a login client, filling unset config fields with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = rate.Every(time.Second)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		url:     strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.LoginPath, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.Burst),
	}
}

// URL returns the login endpoint.
func (c *Client) URL() string {
	return c.url
}

// Login authenticates and returns the session to store.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return Session{}, ErrEmptyCredentials
	}
	if !c.limiter.Allow() {
		return Session{}, ErrRateLimited
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return Session{}, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Session{}, fmt.Errorf("read login response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Session{}, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Session{}, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return Session{}, fmt.Errorf("decode login response: %w", err)
	}
	if lr.Token == "" {
		return Session{}, ErrMissingToken
	}

	return sessionFromResponse(lr, creds.Username), nil
}

// sessionFromResponse prefers explicit response fields, then token claims,
// then the username typed into the form.
func sessionFromResponse(lr loginResponse, typed string) Session {
	id := IdentityFromToken(lr.Token)

	sess := Session{Token: lr.Token, Username: lr.Username, IsAdmin: id.IsAdmin}
	if sess.Username == "" {
		sess.Username = id.Username
	}
	if sess.Username == "" {
		sess.Username = strings.TrimSpace(typed)
	}
	switch {
	case lr.IsAdmin != nil:
		sess.IsAdmin = *lr.IsAdmin
	case lr.Admin != nil:
		sess.IsAdmin = *lr.Admin
	}
	return sess
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gymgate "github.com/memberly/gymgate"
)

// Client calls the membership API. Construct it with New; the zero
// value is not usable.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option mutates a Client during construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client, typically to set a
// transport or timeout policy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a Client from the backend configuration.
func New(cfg gymgate.BackendConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("%w: backend base URL is empty", gymgate.ErrBackendUnavailable)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: backend base URL: %v", gymgate.ErrBackendUnavailable, err)
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"pwd"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: login response carried no token", gymgate.ErrBackendUnavailable)
	}
	return out.Token, nil
}

// UserByEmail fetches the identity registered under an email address.
func (c *Client) UserByEmail(ctx context.Context, email string) (*gymgate.Identity, error) {
	var id gymgate.Identity
	path := "/users/email/" + url.PathEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// UserByID fetches an identity by numeric id.
func (c *Client) UserByID(ctx context.Context, id int64) (*gymgate.Identity, error) {
	var out gymgate.Identity
	path := "/users/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup registers a new account. The backend assigns membership state.
func (c *Client) Signup(ctx context.Context, input gymgate.SignupInput) error {
	return c.do(ctx, http.MethodPost, "/signup", input, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", gymgate.ErrBackendUnavailable, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", gymgate.ErrBackendUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", gymgate.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return gymgate.ErrInvalidCredentials
	case resp.StatusCode == http.StatusNotFound:
		return gymgate.ErrUserNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s %s returned %d", gymgate.ErrBackendUnavailable, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", gymgate.ErrBackendUnavailable, err)
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goSession/transport"
)

const maxErrorBody = 4 << 10

// Paths are the endpoint paths relative to the base URL.
type Paths struct {
	Login  string
	User   string // must contain "{id}"
	Health string
}

// DefaultPaths returns the paths served by the TaskFlow API.
func DefaultPaths() Paths {
	return Paths{
		Login:  "/auth/login",
		User:   "/users/{id}",
		Health: "/health",
	}
}

// Client calls the TaskFlow API.
type Client struct {
	base  *url.URL
	http  *http.Client
	paths Paths
}

// NewClient returns a Client for baseURL. A nil httpClient selects
// http.DefaultClient. Empty paths fall back to [DefaultPaths].
func NewClient(baseURL string, httpClient *http.Client, paths Paths) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	def := DefaultPaths()
	if paths.Login == "" {
		paths.Login = def.Login
	}
	if paths.User == "" {
		paths.User = def.User
	}
	if paths.Health == "" {
		paths.Health = def.Health
	}
	if !strings.Contains(paths.User, "{id}") {
		return nil, fmt.Errorf("user path %q must contain {id}", paths.User)
	}

	return &Client{base: u, http: httpClient, paths: paths}, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// Login exchanges username and password for a token. It does not store the
// token. Any non-2xx answer returns an error matching ErrAuthenticationFailed.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	// Login needs no credential; an unreadable store must not block it.
	ctx = transport.CredentialOptional(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.paths.Login), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out TokenResponse
	if err := c.do(req, &out); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	}
	return &out, nil
}

// GetUser fetches the profile of id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	path := strings.ReplaceAll(c.paths.User, "{id}", url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var out User
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the service health. A 503 with a decodable body is returned
// as a Health value rather than an error.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx = transport.CredentialOptional(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.paths.Health), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var out Health
	err = c.do(req, &out)
	if err == nil {
		return &out, nil
	}
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusServiceUnavailable && out.Status != "" {
		return &out, nil
	}
	return nil, err
}

// do sends req and decodes a JSON body into out. Non-2xx answers return a
// *StatusError; out is still filled when the error body is JSON.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(body, out)
		return &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// errorDetail extracts the "detail" message used by the API for errors.
func errorDetail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if s, ok := e.Detail.(string); ok {
		return s
	}
	return ""
}

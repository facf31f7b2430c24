// Package client is a typed gateway to the InQuill HTTP API. It carries
// the session cookie and bearer token on every call, refreshes the token
// shortly before it expires and maps error responses onto Go errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultRefreshWindow = 5 * time.Minute
	defaultTimeout       = 30 * time.Second
	genericErrorMessage  = "Something went wrong. Please try again."

	DefaultBaseURL = "http://localhost:5000/api"
)

// BaseURLFromEnv returns the first non-empty of API_URL and VITE_API_URL,
// or DefaultBaseURL.
func BaseURLFromEnv() string {
	for _, key := range []string{"API_URL", "VITE_API_URL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return DefaultBaseURL
}

type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenStore
	logger        *slog.Logger
	now           func() time.Time
	refreshWindow time.Duration

	refreshGroup singleflight.Group

	mu             sync.RWMutex
	onUnauthorized []func()
}

type Option func(*Client)

// WithHTTPClient replaces the transport. A cookie jar is added when the
// given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithRefreshWindow(d time.Duration) Option {
	return func(c *Client) { c.refreshWindow = d }
}

// WithUnauthorizedListener registers fn to run whenever a request comes
// back 401.
func WithUnauthorizedListener(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = append(c.onUnauthorized, fn) }
}

// New returns a client for the API rooted at baseURL, e.g.
// "https://inquill.example/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		tokens:        NewMemoryTokenStore(),
		logger:        slog.Default(),
		now:           time.Now,
		refreshWindow: defaultRefreshWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// OnUnauthorized registers an additional 401 listener.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
	c.mu.Unlock()
}

func (c *Client) Tokens() TokenStore { return c.tokens }

func (c *Client) Auth() *AuthAPI               { return &AuthAPI{c: c} }
func (c *Client) Articles() *ArticlesAPI       { return &ArticlesAPI{c: c} }
func (c *Client) Comments() *CommentsAPI       { return &CommentsAPI{c: c} }
func (c *Client) Uploads() *UploadsAPI         { return &UploadsAPI{c: c} }
func (c *Client) Newsletters() *NewslettersAPI { return &NewslettersAPI{c: c} }
func (c *Client) Admin() *AdminAPI             { return &AdminAPI{c: c} }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(buf)
	}
	return c.do(ctx, method, path, query, "application/json", r, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	c.maybeRefresh()
	return c.send(ctx, method, path, query, contentType, body, out)
}

// send performs one request without the refresh check.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, _ := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.notifyUnauthorized()
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		if msg := errorBody(resp.Body).Message; msg != "" {
			return &forbiddenError{reason: msg}
		}
		return ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		e := errorBody(resp.Body)
		if e.Message == "" {
			e.Message = genericErrorMessage
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorBody(r io.Reader) wireError {
	var e wireError
	_ = json.NewDecoder(io.LimitReader(r, 1<<16)).Decode(&e)
	if e.Message == "" {
		e.Message = e.Error
	}
	return e
}

func (c *Client) notifyUnauthorized() {
	c.mu.RLock()
	listeners := append([]func(){}, c.onUnauthorized...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// maybeRefresh starts a background token refresh when the stored token
// expires within the refresh window. It never blocks the caller and at
// most one refresh runs at a time.
func (c *Client) maybeRefresh() {
	token, exp := c.tokens.Token()
	if token == "" || exp.IsZero() || exp.Sub(c.now()) >= c.refreshWindow {
		return
	}
	c.refreshGroup.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		var res struct {
			Token     string    `json:"token"`
			ExpiresAt time.Time `json:"expiresAt"`
		}
		if err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, "", nil, &res); err != nil {
			c.logger.Warn("token refresh failed", slog.String("error", err.Error()))
			return nil, err
		}
		if res.Token != "" {
			c.tokens.SetToken(res.Token, res.ExpiresAt)
		}
		return nil, nil
	})
}

// Package apiclient talks to the go-links REST API on behalf of the console.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
	"golang.org/x/oauth2"
)

const maxErrorBody = 64 << 10

// Client issues authenticated JSON requests against the API. It never
// retries; callers own retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     ports.TokenStore
	logger     *log.Logger
	debug      bool

	mu             sync.RWMutex
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the default client's timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger; debug enables per-request logging
func WithLogger(l *log.Logger, debug bool) Option {
	return func(c *Client) {
		c.logger = l
		c.debug = debug
	}
}

// WithUnauthorizedHandler registers the hook run after a 401 cleared the token
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a new API client
func New(baseURL string, tokens ports.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized sets the 401 hook after construction. The session service
// is built on top of the client, so it registers itself here.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Do sends a request and decodes a 2xx JSON body into out (when non-nil).
// A 401 clears the stored token and fires the unauthorized hook before the
// error is returned.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, query url.Values, out interface{}) error {
	op := method + " " + path

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	token, err := c.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("%s: read token: %w", op, err)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
	}

	if c.debug {
		c.logger.Printf("API Request: %s %s", method, endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.handleUnauthorized(ctx)
		return &domain.HTTPError{Status: resp.StatusCode, Body: bodyBytes, Message: errorMessage(bodyBytes)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.HTTPError{Status: resp.StatusCode, Body: bodyBytes, Message: errorMessage(bodyBytes)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	trimmed := bytes.TrimSpace(bodyBytes)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func (c *Client) handleUnauthorized(ctx context.Context) {
	// the token must go even if the caller's context is already done
	if err := c.tokens.Delete(context.WithoutCancel(ctx)); err != nil {
		c.logger.Printf("failed to clear token after 401: %v", err)
	}

	c.mu.RLock()
	hook := c.onUnauthorized
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

// errorMessage pulls a human readable message out of an error body. The API
// answers with {"error": "..."}, {"message": "..."} or plain text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// Ensure interface compliance
var (
	_ ports.AuthAPI  = (*Client)(nil)
	_ ports.LinkAPI  = (*Client)(nil)
	_ ports.UserAPI  = (*Client)(nil)
	_ ports.StatsAPI = (*Client)(nil)
)

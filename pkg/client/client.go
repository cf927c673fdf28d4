// Package client is a Go SDK for the CRM API. It keeps the session cookie in a
// jar and caches customer reads until a mutation makes them stale.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/schema"
)

const defaultCacheSize = 256

const (
	pathCustomers = "/api/customers"
	pathStats     = "/api/customers/stats"
)

type (
	Customer        = domain.Customer
	CustomerStats   = domain.CustomerStats
	CustomerPayload = schema.CustomerPayload
	UserPayload     = schema.UserPayload
)

// User is the public view of an account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// APIError is returned for every non-2xx response. Message is the server's
// message verbatim.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Client talks to one CRM server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.Cache[string, []byte]

	// gen counts invalidations. A read only populates the cache when no
	// mutation finished while it was in flight.
	mu  sync.Mutex
	gen uint64
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Jar is replaced when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	cache, err := lru.New[string, []byte](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

func (c *Client) Register(ctx context.Context, p UserPayload) (*User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", p, &resp); err != nil {
		return nil, err
	}
	c.purge()
	return &resp.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var resp authResponse
	body := schema.LoginPayload{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return nil, err
	}
	c.purge()
	return &resp.User, nil
}

// Logout ends the session and drops every cached response.
func (c *Client) Logout(ctx context.Context) error {
	defer c.purge()
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]*Customer, error) {
	var out []*Customer
	if err := c.cachedGet(ctx, pathCustomers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var out Customer
	if err := c.cachedGet(ctx, customerPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*CustomerStats, error) {
	var out CustomerStats
	if err := c.cachedGet(ctx, pathStats, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, p CustomerPayload) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPost, pathCustomers, p, &out); err != nil {
		return nil, err
	}
	c.invalidate(pathCustomers, pathStats)
	return &out, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, p CustomerPayload) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPut, customerPath(id), p, &out); err != nil {
		return nil, err
	}
	c.invalidate(pathCustomers, pathStats, customerPath(id))
	return &out, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, customerPath(id), nil, nil); err != nil {
		return err
	}
	c.invalidate(pathCustomers, pathStats, customerPath(id))
	return nil
}

func (c *Client) invalidate(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for _, p := range paths {
		c.cache.Remove(p)
	}
}

func (c *Client) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Purge()
}

// store caches raw for path unless the cache was invalidated after gen was read.
func (c *Client) store(gen uint64, path string, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.cache.Add(path, raw)
	}
}

func (c *Client) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Client) cachedGet(ctx context.Context, path string, out any) error {
	if raw, ok := c.cache.Get(path); ok {
		return json.Unmarshal(raw, out)
	}

	gen := c.generation()
	raw, err := c.roundTrip(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	c.store(gen, path, raw)
	return json.Unmarshal(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	raw, err := c.roundTrip(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// roundTrip sends one request and returns the body of a 2xx response.
// Failures are never retried.
func (c *Client) roundTrip(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
			apiErr.Fields = envelope.Errors
		}
		return nil, apiErr
	}
	return raw, nil
}

func customerPath(id int64) string {
	return pathCustomers + "/" + strconv.FormatInt(id, 10)
}

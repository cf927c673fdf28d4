package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crm-api/internal/api"
	"github.com/crmdesk/crm-api/internal/api/handler"
	"github.com/crmdesk/crm-api/internal/core/service"
	"github.com/crmdesk/crm-api/internal/infrastructure/db/memory"
)

// newServer runs the real router on memory stores and counts GET requests
// that reach it.
func newServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	return newServerWith(t, nil)
}

// newServerWith is newServer with wrap applied around the router.
func newServerWith(t *testing.T, wrap func(http.Handler) http.Handler) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()

	e := api.NewRouter(api.Deps{
		Auth:              service.NewAuthService(store.Users(), memory.NewSessionStore(), "client-test", time.Hour, log),
		Customers:         service.NewCustomerService(store.Customers(), log),
		Logger:            log,
		Cookie:            handler.CookieConfig{Name: "crm.sid", TTL: time.Hour},
		AuthRatePerSecond: 100,
		AuthRateBurst:     100,
	})

	var h http.Handler = e
	if wrap != nil {
		h = wrap(e)
	}
	var gets atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &gets
}

func signedIn(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(url)
	require.NoError(t, err)
	_, err = c.Register(context.Background(), UserPayload{Username: "alice", Password: "secret", Name: "Alice"})
	require.NoError(t, err)
	return c
}

func strptr(s string) *string { return &s }

func TestClient_SessionCookieIsReused(t *testing.T) {
	srv, _ := newServer(t)
	c := signedIn(t, srv.URL)

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice", u.Name)
}

func TestClient_ReadsAreCached(t *testing.T) {
	srv, gets := newServer(t)
	c := signedIn(t, srv.URL)
	ctx := context.Background()

	_, err := c.ListCustomers(ctx)
	require.NoError(t, err)
	_, err = c.ListCustomers(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), gets.Load())
}

func TestClient_MutationsInvalidate(t *testing.T) {
	srv, _ := newServer(t)
	c := signedIn(t, srv.URL)
	ctx := context.Background()

	list, err := c.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := c.CreateCustomer(ctx, CustomerPayload{Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)
	assert.EqualValues(t, "Active", created.Status)

	list, err = c.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := c.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, "Active", got.Status)

	_, err = c.UpdateCustomer(ctx, created.ID, CustomerPayload{Name: "Alice", Email: "a@x.com", Status: strptr("Inactive")})
	require.NoError(t, err)

	got, err = c.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, "Inactive", got.Status)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Inactive)

	require.NoError(t, c.DeleteCustomer(ctx, created.ID))

	_, err = c.GetCustomer(ctx, created.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Customer not found", apiErr.Message)

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestClient_MutationDuringReadIsNotCachedStale(t *testing.T) {
	var (
		c     *Client
		fired atomic.Bool
	)
	// The first list response is produced, then a create lands before it is
	// written back, leaving the in-flight body stale.
	srv, gets := newServerWith(t, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != pathCustomers || !fired.CompareAndSwap(false, true) {
				next.ServeHTTP(w, r)
				return
			}
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)
			_, err := c.CreateCustomer(context.Background(), CustomerPayload{Name: "Bob", Email: "b@x.com"})
			assert.NoError(t, err)
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	c = signedIn(t, srv.URL)
	ctx := context.Background()

	list, err := c.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = c.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(2), gets.Load())
}

func TestClient_ValidationErrorSurfacesFields(t *testing.T) {
	srv, _ := newServer(t)
	c := signedIn(t, srv.URL)

	_, err := c.CreateCustomer(context.Background(), CustomerPayload{Name: "Alice", Email: "nope"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Contains(t, apiErr.Fields, "email")
}

func TestClient_LogoutPurgesCache(t *testing.T) {
	srv, gets := newServer(t)
	c := signedIn(t, srv.URL)
	ctx := context.Background()

	_, err := c.ListCustomers(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx))

	_, err = c.ListCustomers(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
	assert.Equal(t, int64(2), gets.Load())
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.ListCustomers(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal server error", apiErr.Message)
	assert.Equal(t, int64(1), hits.Load())

	// Failures are not cached.
	_, _ = c.ListCustomers(context.Background())
	assert.Equal(t, int64(2), hits.Load())
}

// Package storetest is the behavioural contract every persistence provider
// must satisfy. Providers call the Run* functions from their own tests so the
// memory, relational and document stores stay interchangeable.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/ports"
)

func strptr(s string) *string { return &s }

// RunUserRepository exercises id assignment, lookup and username uniqueness.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) ports.UserRepository) {
	t.Run("create assigns unique ids", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h1", Name: "Alice"})
		require.NoError(t, err)
		b, err := repo.Create(ctx, &domain.User{Username: "bob", PasswordHash: "h2", Name: "Bob"})
		require.NoError(t, err)

		assert.NotZero(t, a.ID)
		assert.Greater(t, b.ID, a.ID)
		assert.Equal(t, "h1", a.PasswordHash)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, &domain.User{Username: "carol", PasswordHash: "h", Name: "Carol"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &domain.User{Username: "carol", PasswordHash: "h2", Name: "Other"})
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("lookups", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, &domain.User{Username: "dave", PasswordHash: "h", Name: "Dave"})
		require.NoError(t, err)

		byName, err := repo.FindByUsername(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, created, byName)

		byID, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, byID)

		_, err = repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = repo.FindByID(ctx, created.ID+1000)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

// RunCustomerRepository exercises the full customer CRUD contract.
func RunCustomerRepository(t *testing.T, newRepo func(t *testing.T) ports.CustomerRepository) {
	t.Run("create then get round-trips", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		before := time.Now().Add(-time.Second)

		fields := domain.CustomerFields{
			Name:    "Alice",
			Email:   "a@x.com",
			Phone:   strptr("555-0100"),
			Address: strptr("1 Main St"),
			Status:  domain.StatusActive,
			Notes:   strptr("vip"),
		}
		created, err := repo.Create(ctx, fields)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.True(t, created.CreatedAt.After(before), "createdAt %v not after %v", created.CreatedAt, before)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
		got.CreatedAt = created.CreatedAt
		assert.Equal(t, created, got)

		want := &domain.Customer{ID: created.ID, CreatedAt: created.CreatedAt}
		want.Apply(fields)
		assert.Equal(t, want, got)
	})

	t.Run("absent optional fields stay nil", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, domain.CustomerFields{Name: "Bob", Email: "b@x.com", Status: domain.StatusInactive})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Phone)
		assert.Nil(t, got.Address)
		assert.Nil(t, got.Notes)
		assert.Equal(t, domain.StatusInactive, got.Status)
	})

	t.Run("list returns every record ordered by id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []int64
		for _, name := range []string{"a", "b", "c"} {
			c, err := repo.Create(ctx, domain.CustomerFields{Name: name, Email: name + "@x.com", Status: domain.StatusActive})
			require.NoError(t, err)
			ids = append(ids, c.ID)
		}

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, c := range list {
			assert.Equal(t, ids[i], c.ID)
		}
	})

	t.Run("update replaces mutable fields only", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, domain.CustomerFields{Name: "Alice", Email: "a@x.com", Phone: strptr("1"), Status: domain.StatusActive})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, domain.CustomerFields{Name: "Alice B", Email: "ab@x.com", Status: domain.StatusInactive})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.Equal(t, "Alice B", updated.Name)
		assert.Equal(t, domain.StatusInactive, updated.Status)
		assert.Nil(t, updated.Phone, "full replace must clear omitted optional fields")

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInactive, got.Status)
	})

	t.Run("absent ids", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

		_, err = repo.Update(ctx, 9999, domain.CustomerFields{Name: "x", Email: "x@x.com", Status: domain.StatusActive})
		assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

		deleted, err := repo.Delete(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("delete is permanent and ids are not reused", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Create(ctx, domain.CustomerFields{Name: "a", Email: "a@x.com", Status: domain.StatusActive})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.Get(ctx, first.ID)
		assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

		second, err := repo.Create(ctx, domain.CustomerFields{Name: "b", Email: "b@x.com", Status: domain.StatusActive})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("concurrent creates get distinct ids", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const n = 20
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = make(map[int64]struct{}, n)
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := repo.Create(ctx, domain.CustomerFields{Name: "c", Email: "c@x.com", Status: domain.StatusActive})
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				ids[c.ID] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, ids, n)
	})
}

// RunSessionStore exercises save, lookup, expiry and idempotent delete.
func RunSessionStore(t *testing.T, newStore func(t *testing.T) ports.SessionStore) {
	t.Run("save then find", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		sess := &domain.Session{ID: "sid-1", UserID: 7, ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
		require.NoError(t, store.Save(ctx, sess))

		got, err := store.Find(ctx, "sid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.UserID)
		assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("unknown id", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Find(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("expired session is absent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, &domain.Session{ID: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}))
		_, err := store.Find(ctx, "old")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, &domain.Session{ID: "sid-2", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))
		require.NoError(t, store.Delete(ctx, "sid-2"))
		require.NoError(t, store.Delete(ctx, "sid-2"))

		_, err := store.Find(ctx, "sid-2")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

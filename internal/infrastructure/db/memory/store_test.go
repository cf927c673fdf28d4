package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/ports"
	"github.com/crmdesk/crm-api/internal/infrastructure/db/storetest"
)

func TestUserRepository_Contract(t *testing.T) {
	storetest.RunUserRepository(t, func(*testing.T) ports.UserRepository {
		return NewStore().Users()
	})
}

func TestCustomerRepository_Contract(t *testing.T) {
	storetest.RunCustomerRepository(t, func(*testing.T) ports.CustomerRepository {
		return NewStore().Customers()
	})
}

func TestSessionStore_Contract(t *testing.T) {
	storetest.RunSessionStore(t, func(*testing.T) ports.SessionStore {
		return NewSessionStore()
	})
}

func TestCustomerRepository_ReturnsCopies(t *testing.T) {
	repo := NewStore().Customers()
	ctx := context.Background()

	phone := "555"
	created, err := repo.Create(ctx, domain.CustomerFields{Name: "A", Email: "a@x.com", Phone: &phone, Status: domain.StatusActive})
	require.NoError(t, err)

	phone = "mutated"
	*created.Phone = "also mutated"
	created.Name = "changed"

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "555", *got.Phone)
}

func TestCustomerRepository_UpdateDoesNotAliasInput(t *testing.T) {
	repo := NewStore().Customers()
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.CustomerFields{Name: "A", Email: "a@x.com", Status: domain.StatusActive})
	require.NoError(t, err)

	notes, address := "call back", "1 Main St"
	_, err = repo.Update(ctx, created.ID, domain.CustomerFields{Name: "A", Email: "a@x.com", Address: &address, Notes: &notes, Status: domain.StatusActive})
	require.NoError(t, err)

	notes = "changed after update"
	address = "changed after update"

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "call back", *got.Notes)
	assert.Equal(t, "1 Main St", *got.Address)
}

func TestSessionStore_Prune(t *testing.T) {
	store := NewSessionStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "a", ExpiresAt: base.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "b", ExpiresAt: base.Add(time.Hour)}))

	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	assert.Equal(t, 1, store.Prune())

	_, err := store.Find(ctx, "b")
	assert.NoError(t, err)
	_, err = store.Find(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_DoesNotKeepToken(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "a", Token: "signed", ExpiresAt: time.Now().Add(time.Hour)}))
	got, err := store.Find(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got.Token)
}

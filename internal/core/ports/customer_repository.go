package ports

import (
	"context"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// CustomerRepository defines persistence operations for customers. Ids are
// assigned by the store, increase monotonically and are never reused.
type CustomerRepository interface {
	// Create assigns the id and creation timestamp.
	Create(ctx context.Context, fields domain.CustomerFields) (*domain.Customer, error)
	// List returns every customer ordered by id.
	List(ctx context.Context) ([]*domain.Customer, error)
	// Get returns domain.ErrCustomerNotFound when absent.
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	// Update replaces the mutable fields. Returns domain.ErrCustomerNotFound
	// when absent.
	Update(ctx context.Context, id int64, fields domain.CustomerFields) (*domain.Customer, error)
	// Delete reports whether a record existed and was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

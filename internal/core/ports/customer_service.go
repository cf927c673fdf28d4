package ports

import (
	"context"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// CustomerService defines use-case operations for customers. Inputs are
// already validated by the schema package.
type CustomerService interface {
	CreateCustomer(ctx context.Context, fields domain.CustomerFields) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, fields domain.CustomerFields) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	Stats(ctx context.Context) (domain.CustomerStats, error)
}

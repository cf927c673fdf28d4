package ports

import (
	"context"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create assigns a new id and stores the user. Returns domain.ErrUserExists
	// when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByUsername returns domain.ErrUserNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

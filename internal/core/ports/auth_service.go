package ports

import (
	"context"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, fields domain.UserFields) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error)
	Logout(ctx context.Context, token string) error
	// ResolveSession returns domain.ErrUnauthenticated when the token does not
	// map to a live session.
	ResolveSession(ctx context.Context, token string) (*domain.User, error)
}

package ports

import (
	"context"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// SessionStore is the source of truth for session validity.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	// Find returns domain.ErrSessionNotFound for unknown or expired sessions.
	Find(ctx context.Context, id string) (*domain.Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

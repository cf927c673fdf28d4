package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// SessionStore persists sessions next to the users they reference.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO sessions (sid, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (sid) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.UserID, sess.ExpiresAt.UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Find(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sess := domain.Session{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT user_id, expires_at FROM sessions WHERE sid = $1`, id).
		Scan(&sess.UserID, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	sess.ExpiresAt = sess.ExpiresAt.UTC()

	if sess.Expired(s.now()) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = $1`, id); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Prune removes every expired session and returns how many were removed.
func (s *SessionStore) Prune(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

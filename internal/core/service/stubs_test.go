package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byName map[string]*domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byName: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.byName[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = r.nextID
	r.byName[stored.Username] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.byName {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubSessionStore struct {
	byID    map[string]*domain.Session
	deleted []string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{byID: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	clone := *sess
	s.byID[sess.ID] = &clone
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.byID, id)
	return nil
}

type stubCustomerRepo struct {
	byID   map[int64]*domain.Customer
	nextID int64
	err    error // if set, every call returns this error
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{byID: make(map[int64]*domain.Customer)}
}

func (r *stubCustomerRepo) Create(_ context.Context, f domain.CustomerFields) (*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	c := &domain.Customer{ID: r.nextID}
	c.Apply(f)
	r.byID[c.ID] = c
	clone := *c
	return &clone, nil
}

func (r *stubCustomerRepo) List(_ context.Context) ([]*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Customer
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubCustomerRepo) Get(_ context.Context, id int64) (*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, id int64, f domain.CustomerFields) (*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	c.Apply(f)
	clone := *c
	return &clone, nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

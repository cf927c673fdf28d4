// Package memory is the process-lifetime persistence provider. State is lost
// on restart; ids still never repeat within one process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// Store keeps users and customers in keyed maps behind a single lock.
type Store struct {
	mu sync.RWMutex

	users      map[int64]*domain.User
	byUsername map[string]int64
	customers  map[int64]*domain.Customer

	lastUserID     int64
	lastCustomerID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]*domain.User),
		byUsername: make(map[string]int64),
		customers:  make(map[int64]*domain.Customer),
		now:        time.Now,
	}
}

// Users returns the user repository view of s.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Customers returns the customer repository view of s.
func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{s: s} }

// Ping satisfies the readiness probe; the map is always reachable.
func (s *Store) Ping(context.Context) error { return nil }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byUsername[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.s.lastUserID++
	stored := *user
	stored.ID = r.s.lastUserID
	r.s.users[stored.ID] = &stored
	r.s.byUsername[stored.Username] = stored.ID

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *r.s.users[id]
	return &out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

type CustomerRepository struct{ s *Store }

func (r *CustomerRepository) Create(_ context.Context, fields domain.CustomerFields) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.lastCustomerID++
	c := &domain.Customer{
		ID:        r.s.lastCustomerID,
		CreatedAt: r.s.now().UTC(),
	}
	c.Apply(fields)
	c = cloneCustomer(c)
	r.s.customers[c.ID] = c
	return cloneCustomer(c), nil
}

func (r *CustomerRepository) List(_ context.Context) ([]*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CustomerRepository) Get(_ context.Context, id int64) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

func (r *CustomerRepository) Update(_ context.Context, id int64, fields domain.CustomerFields) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	c.Apply(fields)
	c.Phone, c.Address, c.Notes = cloneString(c.Phone), cloneString(c.Address), cloneString(c.Notes)
	return cloneCustomer(c), nil
}

func (r *CustomerRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return false, nil
	}
	delete(r.s.customers, id)
	return true, nil
}

// cloneCustomer deep-copies c so callers never alias stored optional fields.
func cloneCustomer(c *domain.Customer) *domain.Customer {
	out := *c
	out.Phone = cloneString(c.Phone)
	out.Address = cloneString(c.Address)
	out.Notes = cloneString(c.Notes)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

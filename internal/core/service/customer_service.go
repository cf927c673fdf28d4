package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/ports"
)

type CustomerService struct {
	repo   ports.CustomerRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewCustomerService(repo ports.CustomerRepository, logger zerolog.Logger) *CustomerService {
	return &CustomerService{repo: repo, logger: logger, now: time.Now}
}

// CreateCustomer stores a new customer. A zero status defaults to Active.
func (s *CustomerService) CreateCustomer(ctx context.Context, fields domain.CustomerFields) (*domain.Customer, error) {
	if fields.Status == "" {
		fields.Status = domain.StatusActive
	}

	c, err := s.repo.Create(ctx, fields)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create customer")
		return nil, err
	}

	s.logger.Info().Int64("customer_id", c.ID).Msg("customer created")
	return c, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []*domain.Customer{}
	}
	return customers, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	if id <= 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return s.repo.Get(ctx, id)
}

// UpdateCustomer replaces every mutable field of the customer.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, fields domain.CustomerFields) (*domain.Customer, error) {
	if id <= 0 {
		return nil, domain.ErrCustomerNotFound
	}
	if fields.Status == "" {
		fields.Status = domain.StatusActive
	}

	c, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("customer_id", id).Str("status", string(c.Status)).Msg("customer updated")
	return c, nil
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrCustomerNotFound
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrCustomerNotFound
	}

	s.logger.Info().Int64("customer_id", id).Msg("customer deleted")
	return nil
}

func (s *CustomerService) Stats(ctx context.Context) (domain.CustomerStats, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return domain.CustomerStats{}, err
	}
	return domain.SummarizeCustomers(customers, s.now()), nil
}

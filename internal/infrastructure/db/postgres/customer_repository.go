package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

const customerColumns = `id, name, email, phone, address, status, notes, "createdAt"`

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var (
		c      domain.Customer
		status string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &status, &c.Notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.CustomerStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, f domain.CustomerFields) (*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO customers (name, email, phone, address, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + customerColumns
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query,
		f.Name, f.Email, f.Phone, f.Address, string(f.Status), f.Notes))
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []*domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, id int64, f domain.CustomerFields) (*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `UPDATE customers
		SET name = $2, email = $3, phone = $4, address = $5, status = $6, notes = $7
		WHERE id = $1
		RETURNING ` + customerColumns
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query,
		id, f.Name, f.Email, f.Phone, f.Address, string(f.Status), f.Notes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}
	return n > 0, nil
}

package domain

import (
	"errors"
	"time"
)

// CustomerStatus is the two-value lifecycle flag of a customer record.
type CustomerStatus string

const (
	StatusActive   CustomerStatus = "Active"
	StatusInactive CustomerStatus = "Inactive"
)

// Column bounds shared by the schema validator and the relational DDL.
const (
	MaxNameLen    = 255
	MaxEmailLen   = 255
	MaxPhoneLen   = 50
	MaxAddressLen = 500
	MaxNotesLen   = 1000
)

var ErrCustomerNotFound = errors.New("customer not found")

// Valid reports whether s is one of the enumerated statuses.
func (s CustomerStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Customer is a persisted CRM record. ID and CreatedAt are server-assigned;
// CreatedAt never changes after insertion.
type Customer struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     *string        `json:"phone"`
	Address   *string        `json:"address"`
	Status    CustomerStatus `json:"status"`
	Notes     *string        `json:"notes"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CustomerFields are the client-supplied insert fields. Updates replace all of
// them at once.
type CustomerFields struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
	Status  CustomerStatus
	Notes   *string
}

// Apply overwrites the mutable fields of c, leaving ID and CreatedAt intact.
func (c *Customer) Apply(f CustomerFields) {
	c.Name = f.Name
	c.Email = f.Email
	c.Phone = f.Phone
	c.Address = f.Address
	c.Status = f.Status
	c.Notes = f.Notes
}

// CustomerStats is the dashboard summary over all customers.
type CustomerStats struct {
	Total    int `json:"totalCustomers"`
	Active   int `json:"activeCustomers"`
	Inactive int `json:"inactiveCustomers"`
	New      int `json:"newCustomers"`
}

// NewCustomerWindow is how far back a customer still counts as new.
const NewCustomerWindow = 30 * 24 * time.Hour

// SummarizeCustomers computes stats relative to now.
func SummarizeCustomers(customers []*Customer, now time.Time) CustomerStats {
	var st CustomerStats
	cutoff := now.Add(-NewCustomerWindow)
	for _, c := range customers {
		st.Total++
		switch c.Status {
		case StatusActive:
			st.Active++
		case StatusInactive:
			st.Inactive++
		}
		if !c.CreatedAt.Before(cutoff) {
			st.New++
		}
	}
	return st
}

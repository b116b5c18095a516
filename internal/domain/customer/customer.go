package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when the referenced customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is the subset of a customer record used when placing orders.
type Customer struct {
	ID           int64
	FirstName    string
	LastName     string
	Birthdate    *time.Time
	PostalAreaID int64
	PostalCode   string
}

// BirthdayOn reports whether t falls on the customer's birthday.
// Only month and day are compared, so a 29 February birthday matches
// 29 February only.
func (c *Customer) BirthdayOn(t time.Time) bool {
	if c.Birthdate == nil {
		return false
	}
	return c.Birthdate.Month() == t.Month() && c.Birthdate.Day() == t.Day()
}

// Repository reads customers.
type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
}

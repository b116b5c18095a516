package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/customer"
)

const getCustomerSQL = `SELECT c.id, c.first_name, c.last_name, c.birthdate, c.postal_area_id, pa.postal_code
	FROM customers c
	JOIN postal_areas pa ON pa.id = c.postal_area_id
	WHERE c.id = $1`

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	q querier
}

// Get returns the customer with its postal code.
func (r *CustomerRepository) Get(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.q.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (customer.Customer, error) {
		var c customer.Customer
		err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Birthdate, &c.PostalAreaID, &c.PostalCode)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

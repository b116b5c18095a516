package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
)

const (
	// Rows locked by concurrent placements are skipped rather than waited
	// for, so two placements never reserve the same courier.
	pickCourierSQL = `SELECT c.id, c.first_name, c.last_name, z.priority, c.next_available_at
		FROM couriers c
		JOIN courier_zones z ON z.courier_id = c.id
		WHERE z.postal_area_id = $1
			AND c.is_active
			AND (c.next_available_at IS NULL OR c.next_available_at <= $2)
		ORDER BY z.priority ASC, c.next_available_at ASC NULLS FIRST, c.id ASC
		LIMIT 1
		FOR UPDATE OF c SKIP LOCKED`

	reserveCourierSQL = `UPDATE couriers SET next_available_at = $2 WHERE id = $1`
)

var _ delivery.Repository = (*CourierRepository)(nil)

// CourierRepository implements delivery.Repository backed by PostgreSQL.
type CourierRepository struct {
	q querier
}

// Reserve locks the best eligible courier for the postal area and marks it
// busy for the cooldown period.
func (r *CourierRepository) Reserve(ctx context.Context, postalAreaID int64, at time.Time) (delivery.Assignment, error) {
	rows, err := r.q.Query(ctx, pickCourierSQL, postalAreaID, at)
	if err != nil {
		return delivery.Assignment{}, fmt.Errorf("picking courier for area %d: %w", postalAreaID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (delivery.Courier, error) {
		var c delivery.Courier
		err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Priority, &c.NextAvailableAt)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return delivery.Assignment{}, delivery.ErrNoCourierAvailable
		}
		return delivery.Assignment{}, fmt.Errorf("picking courier for area %d: %w", postalAreaID, err)
	}

	a := delivery.Reservation(&c, at)
	if _, err := r.q.Exec(ctx, reserveCourierSQL, a.CourierID, a.NextAvailableAt); err != nil {
		return delivery.Assignment{}, fmt.Errorf("reserving courier %d: %w", a.CourierID, err)
	}
	return a, nil
}

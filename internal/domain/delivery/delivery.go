package delivery

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Cooldown is how long a courier stays reserved after being assigned.
const Cooldown = 30 * time.Minute

// ErrNoCourierAvailable is returned when no eligible courier can be reserved
// for the customer's postal area.
var ErrNoCourierAvailable = errors.New("no courier available")

// Courier is a delivery person as seen by the assignment query.
type Courier struct {
	ID              int64
	FirstName       string
	LastName        string
	Priority        int
	NextAvailableAt *time.Time
}

// Assignment is the outcome of reserving a courier for an order.
type Assignment struct {
	CourierID       int64
	AssignedAt      time.Time
	NextAvailableAt time.Time
}

// Reservation returns the assignment for a courier picked at the given time.
func Reservation(c *Courier, at time.Time) Assignment {
	return Assignment{
		CourierID:       c.ID,
		AssignedAt:      at,
		NextAvailableAt: at.Add(Cooldown),
	}
}

// Repository reserves couriers.
//
// Reserve picks the best eligible courier zoned for the postal area, skipping
// couriers locked by concurrent placements, and marks it busy until
// at+Cooldown. Eligible couriers are active and free at the given time; the
// best is the lowest zone priority, then the longest idle (never used
// first), then the lowest id. It returns ErrNoCourierAvailable when nothing
// qualifies.
type Repository interface {
	Reserve(ctx context.Context, postalAreaID int64, at time.Time) (Assignment, error)
}

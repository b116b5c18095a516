package postgres

import (
	"context"
	"fmt"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/loyalty"
)

const (
	ensureLoyaltySQL = `INSERT INTO customer_loyalty (customer_id) VALUES ($1)
		ON CONFLICT (customer_id) DO NOTHING`

	lockLoyaltySQL = `SELECT customer_id, lifetime_pizzas, pizzas_since_last_reward
		FROM customer_loyalty WHERE customer_id = $1 FOR UPDATE`

	saveLoyaltySQL = `UPDATE customer_loyalty
		SET lifetime_pizzas = $2, pizzas_since_last_reward = $3, updated_at = now()
		WHERE customer_id = $1`
)

var _ loyalty.Repository = (*LoyaltyRepository)(nil)

// LoyaltyRepository implements loyalty.Repository backed by PostgreSQL.
type LoyaltyRepository struct {
	q querier
}

// Acquire creates the account if needed and locks its row. Concurrent
// placements for the same customer queue here.
func (r *LoyaltyRepository) Acquire(ctx context.Context, customerID int64) (loyalty.Account, error) {
	if _, err := r.q.Exec(ctx, ensureLoyaltySQL, customerID); err != nil {
		return loyalty.Account{}, fmt.Errorf("ensuring loyalty account %d: %w", customerID, err)
	}

	var a loyalty.Account
	if err := r.q.QueryRow(ctx, lockLoyaltySQL, customerID).Scan(
		&a.CustomerID, &a.LifetimePizzas, &a.PizzasSinceLastReward,
	); err != nil {
		return loyalty.Account{}, fmt.Errorf("locking loyalty account %d: %w", customerID, err)
	}
	return a, nil
}

// Save writes the account counters.
func (r *LoyaltyRepository) Save(ctx context.Context, a loyalty.Account) error {
	tag, err := r.q.Exec(ctx, saveLoyaltySQL, a.CustomerID, a.LifetimePizzas, a.PizzasSinceLastReward)
	if err != nil {
		return fmt.Errorf("saving loyalty account %d: %w", a.CustomerID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("saving loyalty account %d: no row updated", a.CustomerID)
	}
	return nil
}

package loyalty

import "context"

// PizzasPerReward is the number of pizzas that completes one reward cycle.
const PizzasPerReward = 10

// Account tracks a customer's pizza purchases toward the loyalty reward.
type Account struct {
	CustomerID            int64
	LifetimePizzas        int
	PizzasSinceLastReward int
}

// Accrue returns the account after buying pizzas and the number of reward
// cycles completed by the purchase. Leftover pizzas carry into the next
// cycle.
func (a Account) Accrue(pizzas int) (Account, int) {
	total := a.PizzasSinceLastReward + pizzas
	next := a
	next.LifetimePizzas += pizzas
	next.PizzasSinceLastReward = total % PizzasPerReward
	return next, total / PizzasPerReward
}

// Repository persists loyalty accounts.
//
// Acquire creates the account with zero counters when missing and returns it
// locked for the rest of the enclosing transaction.
type Repository interface {
	Acquire(ctx context.Context, customerID int64) (Account, error)
	Save(ctx context.Context, account Account) error
}

package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

const (
	findCodeSQL = `SELECT id, code, description, discount_type, discount_value, valid_from, valid_until,
			is_one_time, usage_limit, used_count, is_active
		FROM discount_codes WHERE UPPER(code) = UPPER($1)`

	redeemedSQL = `SELECT EXISTS (
			SELECT 1 FROM customer_discount_redemptions WHERE customer_id = $1 AND discount_code_id = $2
		)`

	// The usage limit is enforced by the row lock taken by the UPDATE:
	// a concurrent redeemer re-evaluates the predicate after commit.
	consumeUseSQL = `UPDATE discount_codes SET used_count = used_count + 1
		WHERE id = $1 AND used_count < usage_limit`

	recordRedemptionSQL = `INSERT INTO customer_discount_redemptions (customer_id, discount_code_id)
		VALUES ($1, $2) ON CONFLICT (customer_id, discount_code_id) DO NOTHING`

	recordApplicationSQL = `INSERT INTO order_discount_applications (order_id, discount_code_id, amount)
		VALUES ($1, $2, $3)`
)

var _ promo.Repository = (*CodeRepository)(nil)

// CodeRepository implements promo.Repository backed by PostgreSQL.
type CodeRepository struct {
	q querier
}

// FindByCode looks up a code case-insensitively.
// Returns promo.ErrCodeNotFound when no code matches.
func (r *CodeRepository) FindByCode(ctx context.Context, code string) (*promo.Code, error) {
	rows, err := r.q.Query(ctx, findCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrCodeNotFound
		}
		return nil, fmt.Errorf("finding code %q: %w", code, err)
	}
	return &c, nil
}

// Redeemed reports whether the customer already redeemed the code.
func (r *CodeRepository) Redeemed(ctx context.Context, customerID, codeID int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, redeemedSQL, customerID, codeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking redemption of code %d: %w", codeID, err)
	}
	return exists, nil
}

// Redeem consumes one use, records the customer redemption and the amount
// applied to the order.
func (r *CodeRepository) Redeem(ctx context.Context, red promo.Redemption) error {
	tag, err := r.q.Exec(ctx, consumeUseSQL, red.CodeID)
	if err != nil {
		return fmt.Errorf("consuming use of code %d: %w", red.CodeID, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrCodeFullyRedeemed
	}

	tag, err = r.q.Exec(ctx, recordRedemptionSQL, red.CustomerID, red.CodeID)
	if err != nil {
		return fmt.Errorf("recording redemption of code %d: %w", red.CodeID, err)
	}
	if tag.RowsAffected() == 0 && red.OneTime {
		return promo.ErrCodeAlreadyUsed
	}

	if _, err := r.q.Exec(ctx, recordApplicationSQL, red.OrderID, red.CodeID, red.Amount); err != nil {
		return fmt.Errorf("recording application of code %d: %w", red.CodeID, err)
	}
	return nil
}

func scanCode(row pgx.CollectableRow) (promo.Code, error) {
	var (
		c   promo.Code
		typ string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &typ, &c.Value, &c.ValidFrom, &c.ValidUntil,
		&c.OneTime, &c.UsageLimit, &c.UsedCount, &c.Active,
	)
	c.Type = promo.DiscountType(typ)
	return c, err
}

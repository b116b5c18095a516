package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (customer_id, placed_at, status, delivery_type, subtotal,
			birthday_discount, loyalty_discount, code_discount, discount_total, total_due, notes, discount_code_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	createAdjustmentSQL = `INSERT INTO order_adjustments (order_id, adjustment_type, amount) VALUES ($1, $2, $3)`

	assignCourierSQL = `UPDATE orders SET courier_id = $2, courier_assigned_at = $3 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	q querier
}

// Create inserts the order header with its per-mechanism discount amounts
// and records the non-zero birthday and loyalty adjustments.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, createOrderSQL,
		o.CustomerID, o.PlacedAt, string(o.Status), string(o.DeliveryMode), o.Subtotal,
		o.BirthdayDiscount, o.LoyaltyDiscount, o.CodeDiscount, o.DiscountTotal, o.TotalDue, o.Notes, o.CodeID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating order for customer %d: %w", o.CustomerID, err)
	}

	for _, adj := range []struct {
		typ    string
		amount decimal.Decimal
	}{
		{"birthday", o.BirthdayDiscount},
		{"loyalty", o.LoyaltyDiscount},
	} {
		if !adj.amount.IsPositive() {
			continue
		}
		if _, err := r.q.Exec(ctx, createAdjustmentSQL, id, adj.typ, adj.amount); err != nil {
			return 0, fmt.Errorf("creating %s adjustment for order %d: %w", adj.typ, id, err)
		}
	}
	return id, nil
}

// AddItems inserts the line items in a single statement, keeping their
// order in the position column.
func (r *OrderRepository) AddItems(ctx context.Context, orderID int64, items []order.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	b := psql.Insert("order_items").
		Columns("order_id", "product_kind", "product_id", "position", "name_snapshot", "quantity", "unit_price")
	for i, l := range items {
		b = b.Values(orderID, string(l.Kind), l.ProductID, i+1, l.Name, l.Quantity, l.UnitPrice)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building items insert: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("adding items to order %d: %w", orderID, err)
	}
	return nil
}

// AssignCourier records the reserved courier on the order.
func (r *OrderRepository) AssignCourier(ctx context.Context, orderID int64, a delivery.Assignment) error {
	if _, err := r.q.Exec(ctx, assignCourierSQL, orderID, a.CourierID, a.AssignedAt); err != nil {
		return fmt.Errorf("assigning courier %d to order %d: %w", a.CourierID, orderID, err)
	}
	return nil
}

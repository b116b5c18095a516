package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/customer"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/loyalty"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
	"github.com/sneakyevil96/DatabaseProject/internal/outbox"
)

var _ order.Transactor = (*Transactor)(nil)

// Transactor runs order placements in READ COMMITTED transactions. Shared
// rows are protected by explicit row locks and conditional updates.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Transactor that uses the given pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// InTx begins a transaction, runs fn with repositories bound to it and
// commits when fn succeeds.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, t.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, txStores{q: tx})
	})
	if err != nil {
		return errors.Wrap(err, "place order tx")
	}
	return nil
}

type txStores struct{ q querier }

func (s txStores) Customers() customer.Repository { return &CustomerRepository{q: s.q} }
func (s txStores) Catalog() catalog.Resolver      { return &CatalogRepository{q: s.q} }
func (s txStores) Loyalty() loyalty.Repository    { return &LoyaltyRepository{q: s.q} }
func (s txStores) Codes() promo.Repository        { return &CodeRepository{q: s.q} }
func (s txStores) Orders() order.Repository       { return &OrderRepository{q: s.q} }
func (s txStores) Couriers() delivery.Repository  { return &CourierRepository{q: s.q} }
func (s txStores) Outbox() outbox.Writer          { return &OutboxRepository{q: s.q} }

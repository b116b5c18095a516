package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
)

var (
	_ catalog.Resolver       = (*CatalogRepository)(nil)
	_ catalog.MenuRepository = (*CatalogRepository)(nil)
)

// catalogSources maps each kind to its price source. Pizza prices come from
// the pizza_pricing view.
var catalogSources = map[catalog.Kind]struct {
	table, id, price string
}{
	catalog.KindPizza:   {table: "pizza_pricing", id: "pizza_id", price: "final_price_with_vat"},
	catalog.KindDrink:   {table: "drinks", id: "id", price: "price_eur"},
	catalog.KindDessert: {table: "desserts", id: "id", price: "price_eur"},
}

// CatalogRepository reads products and their current prices.
type CatalogRepository struct {
	q querier
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{q: pool}
}

// Resolve returns the active products of kind among ids, keyed by id.
func (r *CatalogRepository) Resolve(ctx context.Context, kind catalog.Kind, ids []int64) (map[int64]catalog.Item, error) {
	src, ok := catalogSources[kind]
	if !ok {
		return nil, errors.Wrapf(catalog.ErrUnknownKind, "%q", kind)
	}

	query, args, err := psql.
		Select(src.id, "name", src.price).
		From(src.table).
		Where(sq.Eq{src.id: ids}).
		Where(sq.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build resolve query")
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s prices", kind)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Item, error) {
		it := catalog.Item{Kind: kind}
		err := row.Scan(&it.ID, &it.Name, &it.UnitPrice)
		return it, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s prices", kind)
	}

	out := make(map[int64]catalog.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// Menu returns every active product ordered by name.
func (r *CatalogRepository) Menu(ctx context.Context) (*catalog.Menu, error) {
	var (
		m   catalog.Menu
		err error
	)

	m.Pizzas, err = collect(ctx, r.q, psql.
		Select("pizza_id", "name", "description", "ingredient_cost", "final_price_with_vat", "is_vegetarian", "is_vegan").
		From("pizza_pricing").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name"),
		func(row pgx.CollectableRow) (catalog.Pizza, error) {
			var p catalog.Pizza
			err := row.Scan(&p.ID, &p.Name, &p.Description, &p.IngredientCost, &p.Price, &p.Vegetarian, &p.Vegan)
			return p, err
		})
	if err != nil {
		return nil, errors.Wrap(err, "list pizzas")
	}

	m.Drinks, err = collect(ctx, r.q, psql.
		Select("id", "name", "category", "price_eur").
		From("drinks").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name"),
		func(row pgx.CollectableRow) (catalog.Drink, error) {
			var d catalog.Drink
			err := row.Scan(&d.ID, &d.Name, &d.Category, &d.Price)
			return d, err
		})
	if err != nil {
		return nil, errors.Wrap(err, "list drinks")
	}

	m.Desserts, err = collect(ctx, r.q, psql.
		Select("id", "name", "description", "price_eur", "is_vegan").
		From("desserts").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name"),
		func(row pgx.CollectableRow) (catalog.Dessert, error) {
			var d catalog.Dessert
			err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Vegan)
			return d, err
		})
	if err != nil {
		return nil, errors.Wrap(err, "list desserts")
	}

	return &m, nil
}

func collect[T any](ctx context.Context, q querier, b sq.SelectBuilder, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

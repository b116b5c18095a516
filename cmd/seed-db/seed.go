package main

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/auth"
)

const purgeSQL = `TRUNCATE TABLE
	order_discount_applications, order_adjustments, order_items, orders,
	customer_discount_redemptions, customer_loyalty, courier_zones, couriers,
	customers, pizza_ingredients, pizzas, ingredients, drinks, desserts,
	discount_codes, postal_areas, outbox
	RESTART IDENTITY CASCADE`

const (
	upsertPostalAreaSQL = `INSERT INTO postal_areas (postal_code, city, country)
	VALUES ($1, $2, COALESCE(NULLIF($3, ''), 'Belgium'))
	ON CONFLICT (postal_code) DO UPDATE SET city = EXCLUDED.city, country = EXCLUDED.country
	RETURNING id`

	upsertIngredientSQL = `INSERT INTO ingredients (name, is_meat, is_dairy, is_vegan, unit_cost, unit_type)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (name) DO UPDATE SET is_meat = EXCLUDED.is_meat, is_dairy = EXCLUDED.is_dairy,
		is_vegan = EXCLUDED.is_vegan, unit_cost = EXCLUDED.unit_cost, unit_type = EXCLUDED.unit_type
	RETURNING id`

	upsertPizzaSQL = `INSERT INTO pizzas (name, description, is_active)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, is_active = EXCLUDED.is_active
	RETURNING id`

	clearRecipeSQL  = `DELETE FROM pizza_ingredients WHERE pizza_id = $1`
	insertRecipeSQL = `INSERT INTO pizza_ingredients (pizza_id, ingredient_id, quantity, position)
	VALUES ($1, $2, $3, $4)`

	upsertDrinkSQL = `INSERT INTO drinks (name, category, price_eur, is_active)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (name) DO UPDATE SET category = EXCLUDED.category, price_eur = EXCLUDED.price_eur,
		is_active = EXCLUDED.is_active`

	upsertDessertSQL = `INSERT INTO desserts (name, description, price_eur, is_vegan, is_active)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, price_eur = EXCLUDED.price_eur,
		is_vegan = EXCLUDED.is_vegan, is_active = EXCLUDED.is_active`

	upsertCustomerSQL = `INSERT INTO customers (first_name, last_name, birthdate, email, phone, street, postal_area_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
		birthdate = EXCLUDED.birthdate, phone = EXCLUDED.phone, street = EXCLUDED.street,
		postal_area_id = EXCLUDED.postal_area_id
	RETURNING id`

	ensureLoyaltySQL = `INSERT INTO customer_loyalty (customer_id) VALUES ($1) ON CONFLICT DO NOTHING`

	upsertCourierSQL = `INSERT INTO couriers (first_name, last_name, phone, postal_area_id, is_active)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (phone) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
		postal_area_id = EXCLUDED.postal_area_id, is_active = EXCLUDED.is_active
	RETURNING id`

	clearZonesSQL  = `DELETE FROM courier_zones WHERE courier_id = $1`
	insertZoneSQL  = `INSERT INTO courier_zones (courier_id, postal_area_id, priority) VALUES ($1, $2, $3)`
	upsertCodeSQL  = `INSERT INTO discount_codes
		(code, description, discount_type, discount_value, valid_from, valid_until, is_one_time, usage_limit)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT ((UPPER(code))) DO UPDATE SET description = EXCLUDED.description,
		discount_type = EXCLUDED.discount_type, discount_value = EXCLUDED.discount_value,
		valid_from = EXCLUDED.valid_from, valid_until = EXCLUDED.valid_until,
		is_one_time = EXCLUDED.is_one_time, usage_limit = GREATEST(EXCLUDED.usage_limit, discount_codes.used_count),
		is_active = TRUE`
	upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, name, scopes)
	VALUES ($1, $2, $3)
	ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, scopes = EXCLUDED.scopes, active = TRUE`
)

// Seeder writes a Fixture inside one transaction.
type Seeder struct {
	tx     pgx.Tx
	pepper []byte
	lg     *zap.Logger

	areas       map[string]int64
	ingredients map[string]int64
}

func newSeeder(tx pgx.Tx, pepper []byte, lg *zap.Logger) *Seeder {
	return &Seeder{
		tx:          tx,
		pepper:      pepper,
		lg:          lg,
		areas:       make(map[string]int64),
		ingredients: make(map[string]int64),
	}
}

// Purge empties every seeded table and resets identities.
func (s *Seeder) Purge(ctx context.Context) error {
	s.lg.Info("Purging existing data")
	if _, err := s.tx.Exec(ctx, purgeSQL); err != nil {
		return errors.Wrap(err, "purge")
	}
	return nil
}

// Load upserts every section of f in dependency order.
func (s *Seeder) Load(ctx context.Context, f *Fixture) error {
	steps := []struct {
		name string
		n    int
		fn   func(context.Context, *Fixture) error
	}{
		{"postal areas", len(f.PostalAreas), s.postalAreas},
		{"ingredients", len(f.Ingredients), s.loadIngredients},
		{"pizzas", len(f.Pizzas), s.pizzas},
		{"drinks", len(f.Drinks), s.drinks},
		{"desserts", len(f.Desserts), s.desserts},
		{"customers", len(f.Customers), s.customers},
		{"couriers", len(f.Couriers), s.couriers},
		{"discount codes", len(f.Codes), s.codes},
		{"api keys", len(f.APIKeys), s.apiKeys},
	}
	for _, step := range steps {
		if err := step.fn(ctx, f); err != nil {
			return errors.Wrapf(err, "load %s", step.name)
		}
		s.lg.Info("Loaded", zap.String("section", step.name), zap.Int("rows", step.n))
	}
	return nil
}

func (s *Seeder) postalAreas(ctx context.Context, f *Fixture) error {
	for _, a := range f.PostalAreas {
		var id int64
		if err := s.tx.QueryRow(ctx, upsertPostalAreaSQL, a.Code, a.City, a.Country).Scan(&id); err != nil {
			return errors.Wrapf(err, "postal area %s", a.Code)
		}
		s.areas[a.Code] = id
	}
	return nil
}

func (s *Seeder) loadIngredients(ctx context.Context, f *Fixture) error {
	for _, i := range f.Ingredients {
		var id int64
		if err := s.tx.QueryRow(ctx, upsertIngredientSQL,
			i.Name, i.Meat, i.Dairy, i.Vegan, i.UnitCost, i.Unit,
		).Scan(&id); err != nil {
			return errors.Wrapf(err, "ingredient %s", i.Name)
		}
		s.ingredients[i.Name] = id
	}
	return nil
}

func (s *Seeder) pizzas(ctx context.Context, f *Fixture) error {
	for _, p := range f.Pizzas {
		var id int64
		if err := s.tx.QueryRow(ctx, upsertPizzaSQL, p.Name, p.Description, !p.Inactive).Scan(&id); err != nil {
			return errors.Wrapf(err, "pizza %s", p.Name)
		}
		if _, err := s.tx.Exec(ctx, clearRecipeSQL, id); err != nil {
			return errors.Wrapf(err, "clear recipe of %s", p.Name)
		}
		for pos, l := range p.Recipe {
			if _, err := s.tx.Exec(ctx, insertRecipeSQL, id, s.ingredients[l.Ingredient], l.Quantity, pos+1); err != nil {
				return errors.Wrapf(err, "recipe %s/%s", p.Name, l.Ingredient)
			}
		}
	}
	return nil
}

func (s *Seeder) drinks(ctx context.Context, f *Fixture) error {
	for _, d := range f.Drinks {
		if _, err := s.tx.Exec(ctx, upsertDrinkSQL, d.Name, d.Category, d.Price, !d.Inactive); err != nil {
			return errors.Wrapf(err, "drink %s", d.Name)
		}
	}
	return nil
}

func (s *Seeder) desserts(ctx context.Context, f *Fixture) error {
	for _, d := range f.Desserts {
		if _, err := s.tx.Exec(ctx, upsertDessertSQL, d.Name, d.Description, d.Price, d.Vegan, !d.Inactive); err != nil {
			return errors.Wrapf(err, "dessert %s", d.Name)
		}
	}
	return nil
}

func (s *Seeder) customers(ctx context.Context, f *Fixture) error {
	for _, c := range f.Customers {
		var id int64
		if err := s.tx.QueryRow(ctx, upsertCustomerSQL,
			c.FirstName, c.LastName, c.Birthdate, strings.ToLower(c.Email), c.Phone, c.Street, s.areas[c.PostalCode],
		).Scan(&id); err != nil {
			return errors.Wrapf(err, "customer %s", c.Email)
		}
		if _, err := s.tx.Exec(ctx, ensureLoyaltySQL, id); err != nil {
			return errors.Wrapf(err, "loyalty of %s", c.Email)
		}
	}
	return nil
}

func (s *Seeder) couriers(ctx context.Context, f *Fixture) error {
	for _, c := range f.Couriers {
		var id int64
		if err := s.tx.QueryRow(ctx, upsertCourierSQL,
			c.FirstName, c.LastName, c.Phone, s.areas[c.PostalCode], !c.Inactive,
		).Scan(&id); err != nil {
			return errors.Wrapf(err, "courier %s", c.Phone)
		}
		if _, err := s.tx.Exec(ctx, clearZonesSQL, id); err != nil {
			return errors.Wrapf(err, "clear zones of %s", c.Phone)
		}
		zones := c.Zones
		if len(zones) == 0 {
			zones = map[string]int{c.PostalCode: 1}
		}
		for code, priority := range zones {
			if _, err := s.tx.Exec(ctx, insertZoneSQL, id, s.areas[code], priority); err != nil {
				return errors.Wrapf(err, "zone %s of %s", code, c.Phone)
			}
		}
	}
	return nil
}

func (s *Seeder) codes(ctx context.Context, f *Fixture) error {
	for _, c := range f.Codes {
		if _, err := s.tx.Exec(ctx, upsertCodeSQL,
			strings.ToUpper(c.Code), c.Description, string(c.Type), c.Value,
			c.ValidFrom, c.ValidUntil, c.OneTime, c.UsageLimit,
		); err != nil {
			return errors.Wrapf(err, "discount code %s", c.Code)
		}
	}
	return nil
}

func (s *Seeder) apiKeys(ctx context.Context, f *Fixture) error {
	for _, k := range f.APIKeys {
		if k.Key == "" {
			return errors.Errorf("api key %q has no key", k.Name)
		}
		if _, err := s.tx.Exec(ctx, upsertAPIKeySQL, auth.HashKey(s.pepper, k.Key), k.Name, k.Scopes); err != nil {
			return errors.Wrapf(err, "api key %s", k.Name)
		}
	}
	return nil
}

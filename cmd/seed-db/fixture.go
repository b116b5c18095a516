package main

import (
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

// Fixture is the sample data file. Rows reference each other by natural
// key: ingredient and product names, postal codes and emails.
type Fixture struct {
	PostalAreas []PostalArea `yaml:"postal_areas"`
	Ingredients []Ingredient `yaml:"ingredients"`
	Pizzas      []Pizza      `yaml:"pizzas"`
	Drinks      []Drink      `yaml:"drinks"`
	Desserts    []Dessert    `yaml:"desserts"`
	Customers   []Customer   `yaml:"customers"`
	Couriers    []Courier    `yaml:"couriers"`
	Codes       []Code       `yaml:"discount_codes"`
	APIKeys     []APIKey     `yaml:"api_keys"`
}

type PostalArea struct {
	Code    string `yaml:"code"`
	City    string `yaml:"city"`
	Country string `yaml:"country"`
}

type Ingredient struct {
	Name     string          `yaml:"name"`
	Meat     bool            `yaml:"meat"`
	Dairy    bool            `yaml:"dairy"`
	Vegan    bool            `yaml:"vegan"`
	UnitCost decimal.Decimal `yaml:"unit_cost"`
	Unit     string          `yaml:"unit"`
}

type Pizza struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Inactive    bool         `yaml:"inactive"`
	Recipe      []RecipeLine `yaml:"recipe"`
}

type RecipeLine struct {
	Ingredient string          `yaml:"ingredient"`
	Quantity   decimal.Decimal `yaml:"quantity"`
}

type Drink struct {
	Name     string          `yaml:"name"`
	Category string          `yaml:"category"`
	Price    decimal.Decimal `yaml:"price"`
	Inactive bool            `yaml:"inactive"`
}

type Dessert struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Vegan       bool            `yaml:"vegan"`
	Inactive    bool            `yaml:"inactive"`
}

type Customer struct {
	FirstName  string     `yaml:"first_name"`
	LastName   string     `yaml:"last_name"`
	Email      string     `yaml:"email"`
	Phone      string     `yaml:"phone"`
	Street     string     `yaml:"street"`
	PostalCode string     `yaml:"postal_code"`
	Birthdate  *time.Time `yaml:"birthdate"`
}

type Courier struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Phone      string `yaml:"phone"`
	PostalCode string `yaml:"postal_code"`
	Inactive   bool   `yaml:"inactive"`
	// Zones maps postal codes to priority; lower is preferred.
	Zones map[string]int `yaml:"zones"`
}

type Code struct {
	Code        string             `yaml:"code"`
	Description string             `yaml:"description"`
	Type        promo.DiscountType `yaml:"type"`
	Value       decimal.Decimal    `yaml:"value"`
	ValidFrom   time.Time          `yaml:"valid_from"`
	ValidUntil  *time.Time         `yaml:"valid_until"`
	OneTime     bool               `yaml:"one_time"`
	UsageLimit  int                `yaml:"usage_limit"`
}

type APIKey struct {
	Name   string   `yaml:"name"`
	Key    string   `yaml:"key"`
	Scopes []string `yaml:"scopes"`
}

// ParseFixture decodes and validates a fixture, rejecting unknown fields.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	areas := make(map[string]bool, len(f.PostalAreas))
	for _, a := range f.PostalAreas {
		areas[a.Code] = true
	}
	ingredients := make(map[string]bool, len(f.Ingredients))
	for _, i := range f.Ingredients {
		if !i.UnitCost.IsPositive() {
			return errors.Errorf("ingredient %q: unit cost must be positive", i.Name)
		}
		ingredients[i.Name] = true
	}
	for _, p := range f.Pizzas {
		for _, l := range p.Recipe {
			if !ingredients[l.Ingredient] {
				return errors.Errorf("pizza %q: unknown ingredient %q", p.Name, l.Ingredient)
			}
		}
	}
	for _, c := range f.Customers {
		if !areas[c.PostalCode] {
			return errors.Errorf("customer %q: unknown postal code %q", c.Email, c.PostalCode)
		}
	}
	for _, c := range f.Couriers {
		if !areas[c.PostalCode] {
			return errors.Errorf("courier %q: unknown postal code %q", c.Phone, c.PostalCode)
		}
		for code := range c.Zones {
			if !areas[code] {
				return errors.Errorf("courier %q: unknown zone %q", c.Phone, code)
			}
		}
	}
	for _, c := range f.Codes {
		switch c.Type {
		case promo.DiscountPercentage, promo.DiscountFixed:
		default:
			return errors.Errorf("discount code %q: unknown type %q", c.Code, c.Type)
		}
		if c.UsageLimit <= 0 {
			return errors.Errorf("discount code %q: usage limit must be positive", c.Code)
		}
	}
	return nil
}

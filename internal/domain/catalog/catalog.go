package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind identifies which menu the product belongs to.
type Kind string

const (
	KindPizza   Kind = "pizza"
	KindDrink   Kind = "drink"
	KindDessert Kind = "dessert"
)

// Kinds lists product kinds in the order items are resolved and persisted.
var Kinds = []Kind{KindPizza, KindDrink, KindDessert}

// ErrUnknownKind is returned when parsing a product kind fails.
var ErrUnknownKind = errors.New("unknown product kind")

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPizza, KindDrink, KindDessert:
		return k, nil
	default:
		return "", errors.Wrapf(ErrUnknownKind, "%q", s)
	}
}

// Item is an active, orderable product with its current unit price.
// Pizza prices are the VAT-inclusive final price; drinks and desserts use
// their list price.
type Item struct {
	Kind      Kind
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
}

// Resolver looks up current prices for products of a single kind.
//
// Resolve returns only active products; ids absent from the result are
// unknown or inactive.
type Resolver interface {
	Resolve(ctx context.Context, kind Kind, ids []int64) (map[int64]Item, error)
}

// Pizza is a menu entry for a pizza with its derived pricing.
type Pizza struct {
	ID             int64
	Name           string
	Description    string
	IngredientCost decimal.Decimal
	Price          decimal.Decimal
	Vegetarian     bool
	Vegan          bool
}

// Drink is a menu entry for a drink.
type Drink struct {
	ID       int64
	Name     string
	Category string
	Price    decimal.Decimal
}

// Dessert is a menu entry for a dessert.
type Dessert struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Vegan       bool
}

// Menu holds every active product, sorted by name within each section.
type Menu struct {
	Pizzas   []Pizza
	Drinks   []Drink
	Desserts []Dessert
}

// MenuRepository reads the active menu.
type MenuRepository interface {
	Menu(ctx context.Context) (*Menu, error)
}

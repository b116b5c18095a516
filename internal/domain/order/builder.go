package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/discount"
)

// Basket is the priced content of an order before discounts.
type Basket struct {
	Items         []LineItem
	Subtotal      decimal.Decimal
	PizzaSubtotal decimal.Decimal
	PizzaUnits    int
}

// DiscountItems converts the basket for the discount engine.
func (b *Basket) DiscountItems() []discount.Item {
	items := make([]discount.Item, len(b.Items))
	for i, l := range b.Items {
		items[i] = discount.Item{Kind: l.Kind, Price: l.UnitPrice, Quantity: l.Quantity}
	}
	return items
}

const (
	// MaxQuantity bounds the quantity of one product in an order.
	MaxQuantity = 1000
	// MaxOrderUnits bounds the number of units across all products.
	MaxOrderUnits = 10000
)

// ValidateItems checks quantities and that at least one pizza is requested.
func ValidateItems(reqs []ItemRequest) error {
	type key struct {
		kind catalog.Kind
		id   int64
	}
	var (
		hasPizza bool
		units    int
		perItem  = make(map[key]int, len(reqs))
	)
	for _, r := range reqs {
		if r.Quantity <= 0 || r.Quantity > MaxQuantity {
			return &InvalidQuantityError{Kind: r.Kind, ProductID: r.ID, Quantity: r.Quantity}
		}
		if _, err := catalog.ParseKind(string(r.Kind)); err != nil {
			return errors.Wrap(ErrInvalidRequest, err.Error())
		}
		k := key{r.Kind, r.ID}
		perItem[k] += r.Quantity
		if perItem[k] > MaxQuantity {
			return &InvalidQuantityError{Kind: r.Kind, ProductID: r.ID, Quantity: perItem[k]}
		}
		if units += r.Quantity; units > MaxOrderUnits {
			return ErrTooManyItems
		}
		if r.Kind == catalog.KindPizza {
			hasPizza = true
		}
	}
	if !hasPizza {
		return ErrNoPizzas
	}
	return nil
}

// BuildItems validates the request, resolves current prices one batch per
// kind and returns the priced basket in request order. Repeated products
// are merged into the line of their first occurrence.
func BuildItems(ctx context.Context, r catalog.Resolver, reqs []ItemRequest) (*Basket, error) {
	if err := ValidateItems(reqs); err != nil {
		return nil, err
	}

	type key struct {
		kind catalog.Kind
		id   int64
	}
	merged := make([]ItemRequest, 0, len(reqs))
	pos := make(map[key]int, len(reqs))
	ids := make(map[catalog.Kind][]int64, len(catalog.Kinds))
	for _, req := range reqs {
		k := key{req.Kind, req.ID}
		if i, ok := pos[k]; ok {
			merged[i].Quantity += req.Quantity
			continue
		}
		pos[k] = len(merged)
		merged = append(merged, req)
		ids[req.Kind] = append(ids[req.Kind], req.ID)
	}

	priced := make(map[catalog.Kind]map[int64]catalog.Item, len(ids))
	for _, kind := range catalog.Kinds {
		want := ids[kind]
		if len(want) == 0 {
			continue
		}
		found, err := r.Resolve(ctx, kind, want)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s prices", kind)
		}
		var missing []int64
		for _, id := range want {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return nil, newUnknownProductError(kind, missing)
		}
		priced[kind] = found
	}

	b := &Basket{
		Items:         make([]LineItem, 0, len(merged)),
		Subtotal:      decimal.Zero,
		PizzaSubtotal: decimal.Zero,
	}
	for _, req := range merged {
		item := priced[req.Kind][req.ID]
		line := LineItem{
			Kind:      req.Kind,
			ProductID: req.ID,
			Name:      item.Name,
			Quantity:  req.Quantity,
			UnitPrice: item.UnitPrice,
		}
		b.Items = append(b.Items, line)
		b.Subtotal = b.Subtotal.Add(line.Total())
		if req.Kind == catalog.KindPizza {
			b.PizzaSubtotal = b.PizzaSubtotal.Add(line.Total())
			b.PizzaUnits += req.Quantity
		}
	}
	return b, nil
}

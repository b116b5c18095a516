package discount

import (
	"github.com/shopspring/decimal"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/loyalty"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

// BirthdayDiscount is the birthday gift: one pizza and one drink for free.
// Pizza is the part of Amount that came from the pizza, used by the loyalty
// calculator.
type BirthdayDiscount struct {
	Amount decimal.Decimal
	Pizza  decimal.Decimal
}

// Birthday returns the unit price of the cheapest pizza plus the unit price
// of the cheapest drink. Quantities do not multiply the gift. On equal
// prices the first line wins.
func Birthday(items []Item) BirthdayDiscount {
	pizza := cheapest(items, catalog.KindPizza)
	drink := cheapest(items, catalog.KindDrink)
	return BirthdayDiscount{
		Amount: pizza.Add(drink),
		Pizza:  pizza,
	}
}

// cheapest returns the lowest unit price among items of the kind, or zero
// when none match.
func cheapest(items []Item, kind catalog.Kind) decimal.Decimal {
	found := false
	lowest := zero
	for _, item := range items {
		if item.Kind != kind {
			continue
		}
		if !found || item.Price.LessThan(lowest) {
			found = true
			lowest = item.Price
		}
	}
	return lowest
}

// LoyaltyDiscount is the outcome of the loyalty calculator.
type LoyaltyDiscount struct {
	Amount  decimal.Decimal
	Account loyalty.Account
	Cycles  int
}

// Loyalty advances the account by the pizzas ordered and grants 10% off the
// pizzas not already given away on a birthday when at least one reward cycle
// completes. Several cycles in one order still grant a single 10%.
func Loyalty(acct loyalty.Account, pizzaUnits int, pizzaSubtotal, birthdayPizza decimal.Decimal) LoyaltyDiscount {
	next, cycles := acct.Accrue(pizzaUnits)
	res := LoyaltyDiscount{Amount: zero, Account: next, Cycles: cycles}
	if cycles < 1 || !pizzaSubtotal.IsPositive() {
		return res
	}
	base := floorAtZero(pizzaSubtotal.Sub(birthdayPizza))
	res.Amount = base.Mul(loyaltyRate)
	return res
}

// Code returns the promotional code discount against the taxable amount
// left after birthday and loyalty discounts. A nil code or a non-positive
// taxable amount yields zero.
func Code(code *promo.Code, taxable decimal.Decimal) decimal.Decimal {
	if code == nil || !taxable.IsPositive() {
		return zero
	}
	switch code.Type {
	case promo.DiscountPercentage:
		return applyPercentage(code.Value, taxable)
	case promo.DiscountFixed:
		return applyFixed(code.Value, taxable)
	default:
		return zero
	}
}

func applyPercentage(pct, taxable decimal.Decimal) decimal.Decimal {
	return floorAtZero(decimal.Min(taxable.Mul(pct).Div(hundred), taxable))
}

func applyFixed(value, taxable decimal.Decimal) decimal.Decimal {
	return floorAtZero(decimal.Min(value, taxable))
}

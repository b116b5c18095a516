// Package discount computes the three stacking order discounts: birthday,
// loyalty and promotional code, applied in that order.
//
// Calculators work on unrounded amounts. Compute rounds each discount to
// cents once all of them are known.
package discount

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/loyalty"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

var (
	hundred     = decimal.NewFromInt(100)
	zero        = decimal.Zero
	loyaltyRate = decimal.RequireFromString("0.10")
)

// ErrInconsistent is returned when rounded amounts break the discount
// bounds. It indicates a bug, not a user error.
var ErrInconsistent = errors.New("inconsistent discount computation")

// Item is a priced line item as seen by the calculators.
type Item struct {
	Kind     catalog.Kind
	Price    decimal.Decimal
	Quantity int
}

// Input is everything the engine needs for one order.
type Input struct {
	Items         []Item
	Subtotal      decimal.Decimal
	PizzaSubtotal decimal.Decimal
	PizzaUnits    int
	// Birthday is set when the order is placed on the customer's birthday.
	Birthday bool
	Account  loyalty.Account
	// Code is the validated promotional code, nil when none was supplied.
	Code *promo.Code
}

// Result holds the rounded discount breakdown and the advanced loyalty
// account.
type Result struct {
	Subtotal      decimal.Decimal
	Birthday      decimal.Decimal
	Loyalty       decimal.Decimal
	Code          decimal.Decimal
	DiscountTotal decimal.Decimal
	TotalDue      decimal.Decimal

	Account       loyalty.Account
	LoyaltyCycles int
}

// Compute runs birthday, loyalty and code calculators in sequence, rounds
// the amounts to cents and checks that every discount stays within the
// amount it was computed against.
func Compute(in Input) (Result, error) {
	if in.PizzaUnits < 0 {
		return Result{}, errors.Wrapf(ErrInconsistent, "negative pizza units %d", in.PizzaUnits)
	}

	var bd BirthdayDiscount
	if in.Birthday {
		bd = Birthday(in.Items)
	}

	lr := Loyalty(in.Account, in.PizzaUnits, in.PizzaSubtotal, bd.Pizza)
	if lr.Account.LifetimePizzas < in.Account.LifetimePizzas || lr.Cycles < 0 {
		return Result{}, errors.Wrapf(ErrInconsistent, "loyalty counter overflow adding %d pizzas", in.PizzaUnits)
	}

	taxable := in.Subtotal.Sub(bd.Amount).Sub(lr.Amount)
	code := Code(in.Code, taxable)

	res := Result{
		Subtotal:      Cents(in.Subtotal),
		Birthday:      Cents(bd.Amount),
		Loyalty:       Cents(lr.Amount),
		Account:       lr.Account,
		LoyaltyCycles: lr.Cycles,
	}

	// Independent rounding may push the sum a cent past the subtotal.
	remaining := floorAtZero(res.Subtotal.Sub(res.Birthday).Sub(res.Loyalty))
	res.Code = decimal.Min(Cents(code), remaining)

	res.DiscountTotal = res.Birthday.Add(res.Loyalty).Add(res.Code)
	res.TotalDue = res.Subtotal.Sub(res.DiscountTotal)

	if err := res.check(Cents(in.PizzaSubtotal)); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r Result) check(pizzaSubtotal decimal.Decimal) error {
	switch {
	case r.Birthday.IsNegative(), r.Loyalty.IsNegative(), r.Code.IsNegative():
		return errors.Wrap(ErrInconsistent, "negative discount")
	case r.Birthday.GreaterThan(r.Subtotal):
		return errors.Wrapf(ErrInconsistent, "birthday %s exceeds subtotal %s", r.Birthday, r.Subtotal)
	case r.Loyalty.GreaterThan(pizzaSubtotal):
		return errors.Wrapf(ErrInconsistent, "loyalty %s exceeds pizza subtotal %s", r.Loyalty, pizzaSubtotal)
	case r.TotalDue.IsNegative():
		return errors.Wrapf(ErrInconsistent, "discounts %s exceed subtotal %s", r.DiscountTotal, r.Subtotal)
	}
	return nil
}

// Cents rounds a non-negative amount to two decimal places, half up.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}

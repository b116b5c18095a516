package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promotional code strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the remaining amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the remaining amount.
	DiscountFixed DiscountType = "fixed_amount"
)

var (
	// ErrCodeNotFound is returned when no code matches the supplied string.
	ErrCodeNotFound = errors.New("discount code not found")
	// ErrCodeNotCurrentlyValid is returned for inactive codes or codes
	// outside their validity window.
	ErrCodeNotCurrentlyValid = errors.New("discount code is not currently valid")
	// ErrCodeFullyRedeemed is returned when a code has no uses left.
	ErrCodeFullyRedeemed = errors.New("discount code has been fully redeemed")
	// ErrCodeAlreadyUsed is returned when a one-time code was already
	// redeemed by the same customer.
	ErrCodeAlreadyUsed = errors.New("discount code already used by this customer")
)

// Code is a promotional discount code.
type Code struct {
	ID          int64
	Code        string
	Description string
	Type        DiscountType
	Value       decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  *time.Time
	OneTime     bool
	UsageLimit  int
	UsedCount   int
	Active      bool
}

// ValidOn reports whether the code can be used on the given calendar day.
// The window bounds are inclusive.
func (c *Code) ValidOn(day time.Time) bool {
	if !c.Active {
		return false
	}
	d := Day(day)
	if d.Before(Day(c.ValidFrom)) {
		return false
	}
	if c.ValidUntil != nil && d.After(Day(*c.ValidUntil)) {
		return false
	}
	return true
}

// Exhausted reports whether every allowed use has been consumed.
func (c *Code) Exhausted() bool {
	return c.UsedCount >= c.UsageLimit
}

// Redemption records a code applied to an order.
type Redemption struct {
	CodeID     int64
	CustomerID int64
	OrderID    int64
	Amount     decimal.Decimal
	OneTime    bool
}

// Repository provides lookup and redemption of promotional codes.
//
// Redeem consumes one use and records the redemption atomically. It returns
// ErrCodeFullyRedeemed when no use is left and ErrCodeAlreadyUsed when a
// one-time code was already redeemed by the customer.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
	Redeemed(ctx context.Context, customerID, codeID int64) (bool, error)
	Redeem(ctx context.Context, r Redemption) error
}

// Day truncates t to its calendar date in t's location, expressed as UTC
// midnight so that dates read from DATE columns compare directly.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

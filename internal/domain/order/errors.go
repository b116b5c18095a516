package order

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/customer"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

// Sentinel errors for order validation.
var (
	ErrInvalidRequest = errors.New("invalid order request")
	ErrUnknownProduct = errors.New("unknown or inactive product")

	ErrNoPizzas            = fmt.Errorf("%w: at least one pizza is required", ErrInvalidRequest)
	ErrInvalidCustomer     = fmt.Errorf("%w: customer id must be positive", ErrInvalidRequest)
	ErrInvalidDeliveryMode = fmt.Errorf("%w: delivery mode must be delivery or pickup", ErrInvalidRequest)
	ErrTooManyItems        = fmt.Errorf("%w: more than %d units in one order", ErrInvalidRequest, MaxOrderUnits)
)

// InvalidQuantityError indicates a requested item whose quantity is not
// between 1 and MaxQuantity. Quantities of repeated products are summed
// before the upper bound is checked.
type InvalidQuantityError struct {
	Kind      catalog.Kind
	ProductID int64
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for %s %d, got %d", MaxQuantity, e.Kind, e.ProductID, e.Quantity)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidRequest }

// UnknownProductError lists every requested id of one kind that does not
// exist or is inactive. IDs are sorted.
type UnknownProductError struct {
	Kind catalog.Kind
	IDs  []int64
}

func (e *UnknownProductError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("unknown or inactive %s ids: %s", e.Kind, strings.Join(ids, ", "))
}

func (e *UnknownProductError) Unwrap() error { return ErrUnknownProduct }

func newUnknownProductError(kind catalog.Kind, ids []int64) *UnknownProductError {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return &UnknownProductError{Kind: kind, IDs: sorted}
}

// Reason returns a stable machine-readable name for a placement failure.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrUnknownProduct):
		return "unknown_or_inactive_product"
	case errors.Is(err, customer.ErrNotFound):
		return "customer_not_found"
	case errors.Is(err, promo.ErrCodeNotFound):
		return "code_not_found"
	case errors.Is(err, promo.ErrCodeNotCurrentlyValid):
		return "code_not_currently_valid"
	case errors.Is(err, promo.ErrCodeFullyRedeemed):
		return "code_fully_redeemed"
	case errors.Is(err, promo.ErrCodeAlreadyUsed):
		return "code_already_used"
	case errors.Is(err, delivery.ErrNoCourierAvailable):
		return "no_courier_available"
	default:
		return "internal"
	}
}

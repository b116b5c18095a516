package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/customer"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/loyalty"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
	"github.com/sneakyevil96/DatabaseProject/internal/outbox"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// DeliveryMode tells whether the order is delivered or picked up.
type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
	DeliveryModePickup   DeliveryMode = "pickup"
)

// ItemRequest is one requested product. Quantity defaults to 1 at the
// transport layer.
type ItemRequest struct {
	Kind     catalog.Kind
	ID       int64
	Quantity int
}

// LineItem is a priced entry of an order. Name and UnitPrice are captured at
// placement and never change afterwards.
type LineItem struct {
	Kind      catalog.Kind
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns UnitPrice × Quantity.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order with its price breakdown.
type Order struct {
	ID           int64
	CustomerID   int64
	PlacedAt     time.Time
	Status       Status
	DeliveryMode DeliveryMode
	Notes        string
	Items        []LineItem

	Subtotal         decimal.Decimal
	BirthdayDiscount decimal.Decimal
	LoyaltyDiscount  decimal.Decimal
	CodeDiscount     decimal.Decimal
	DiscountTotal    decimal.Decimal
	TotalDue         decimal.Decimal

	// CodeID and Code reference the applied promotional code, if any.
	CodeID *int64
	Code   string

	CourierID         *int64
	CourierAssignedAt *time.Time
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	CustomerID   int64
	Items        []ItemRequest
	DiscountCode string
	DeliveryMode DeliveryMode
	Notes        string
}

// Repository defines persistence operations for orders.
//
// Create stores the header with its automatic discount adjustments and
// returns the generated id.
type Repository interface {
	Create(ctx context.Context, o *Order) (int64, error)
	AddItems(ctx context.Context, orderID int64, items []LineItem) error
	AssignCourier(ctx context.Context, orderID int64, a delivery.Assignment) error
}

// Tx gives access to every store taking part in a placement. All of them
// share one database transaction.
type Tx interface {
	Customers() customer.Repository
	Catalog() catalog.Resolver
	Loyalty() loyalty.Repository
	Codes() promo.Repository
	Orders() Repository
	Couriers() delivery.Repository
	Outbox() outbox.Writer
}

// Transactor runs fn in a transaction that commits when fn returns nil and
// rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

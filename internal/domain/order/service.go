package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/discount"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

const instrumentation = "github.com/sneakyevil96/DatabaseProject/internal/domain/order"

// Service encapsulates order placement business logic.
type Service struct {
	tx  Transactor
	now func() time.Time
	loc *time.Location

	tracer   trace.Tracer
	placed   metric.Int64Counter
	rejected metric.Int64Counter
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	now func() time.Time
	loc *time.Location
	tp  trace.TracerProvider
	mp  metric.MeterProvider
}

// WithClock overrides the clock used to timestamp orders.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// WithLocation sets the time zone in which birthdays and code validity
// days are evaluated. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *serviceOptions) { o.loc = loc }
}

// WithTelemetry sets the tracer and meter providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(o *serviceOptions) {
		o.tp = tp
		o.mp = mp
	}
}

// NewService creates an order Service running placements through tx.
func NewService(tx Transactor, opts ...Option) (*Service, error) {
	o := serviceOptions{
		now: time.Now,
		loc: time.UTC,
		tp:  tracenoop.NewTracerProvider(),
		mp:  metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.mp.Meter(instrumentation)
	placed, err := meter.Int64Counter("pizzeria.orders.placed",
		metric.WithDescription("Orders placed successfully"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	rejected, err := meter.Int64Counter("pizzeria.orders.rejected",
		metric.WithDescription("Order placements rejected, by reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}

	return &Service{
		tx:       tx,
		now:      o.now,
		loc:      o.loc,
		tracer:   o.tp.Tracer(instrumentation),
		placed:   placed,
		rejected: rejected,
	}, nil
}

// PlaceOrder prices the requested items, applies birthday, loyalty and code
// discounts, persists the order and reserves a courier for deliveries. All
// effects are committed together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(
			attribute.Int64("customer.id", req.CustomerID),
			attribute.String("delivery.mode", string(req.DeliveryMode)),
		),
	)
	defer func() {
		if rerr != nil {
			reason := Reason(rerr)
			span.RecordError(rerr)
			span.SetStatus(codes.Error, reason)
			s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		} else {
			s.placed.Add(ctx, 1)
		}
		span.End()
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	at := s.now().In(s.loc)

	var placed *Order
	if err := s.tx.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := s.place(ctx, tx, req, at)
		if err != nil {
			return err
		}
		placed = o
		return nil
	}); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", placed.ID))
	return placed, nil
}

func validateRequest(req PlaceRequest) error {
	if req.CustomerID <= 0 {
		return ErrInvalidCustomer
	}
	switch req.DeliveryMode {
	case DeliveryModeDelivery, DeliveryModePickup:
	default:
		return ErrInvalidDeliveryMode
	}
	return ValidateItems(req.Items)
}

func (s *Service) place(ctx context.Context, tx Tx, req PlaceRequest, at time.Time) (*Order, error) {
	cust, err := tx.Customers().Get(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "get customer")
	}

	acct, err := tx.Loyalty().Acquire(ctx, cust.ID)
	if err != nil {
		return nil, errors.Wrap(err, "acquire loyalty account")
	}

	var code *promo.Code
	if raw := promo.Normalize(req.DiscountCode); raw != "" {
		code, err = promo.Check(ctx, tx.Codes(), raw, cust.ID, at)
		if err != nil {
			return nil, errors.Wrap(err, "check discount code")
		}
	}

	basket, err := BuildItems(ctx, tx.Catalog(), req.Items)
	if err != nil {
		return nil, err
	}

	res, err := discount.Compute(discount.Input{
		Items:         basket.DiscountItems(),
		Subtotal:      basket.Subtotal,
		PizzaSubtotal: basket.PizzaSubtotal,
		PizzaUnits:    basket.PizzaUnits,
		Birthday:      cust.BirthdayOn(at),
		Account:       acct,
		Code:          code,
	})
	if err != nil {
		return nil, errors.Wrap(err, "compute discounts")
	}

	o := &Order{
		CustomerID:       cust.ID,
		PlacedAt:         at,
		Status:           StatusPending,
		DeliveryMode:     req.DeliveryMode,
		Notes:            strings.TrimSpace(req.Notes),
		Items:            basket.Items,
		Subtotal:         res.Subtotal,
		BirthdayDiscount: res.Birthday,
		LoyaltyDiscount:  res.Loyalty,
		CodeDiscount:     res.Code,
		DiscountTotal:    res.DiscountTotal,
		TotalDue:         res.TotalDue,
	}
	if code != nil {
		o.CodeID = &code.ID
		o.Code = code.Code
	}

	id, err := tx.Orders().Create(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	o.ID = id

	if err := tx.Orders().AddItems(ctx, id, o.Items); err != nil {
		return nil, errors.Wrap(err, "add items")
	}

	if code != nil && res.Code.IsPositive() {
		if err := tx.Codes().Redeem(ctx, promo.Redemption{
			CodeID:     code.ID,
			CustomerID: cust.ID,
			OrderID:    id,
			Amount:     res.Code,
			OneTime:    code.OneTime,
		}); err != nil {
			return nil, errors.Wrap(err, "redeem discount code")
		}
	}

	if err := tx.Loyalty().Save(ctx, res.Account); err != nil {
		return nil, errors.Wrap(err, "save loyalty account")
	}

	if o.DeliveryMode == DeliveryModeDelivery {
		a, err := tx.Couriers().Reserve(ctx, cust.PostalAreaID, at)
		if err != nil {
			return nil, errors.Wrap(err, "reserve courier")
		}
		if err := tx.Orders().AssignCourier(ctx, id, a); err != nil {
			return nil, errors.Wrap(err, "assign courier")
		}
		o.CourierID = &a.CourierID
		o.CourierAssignedAt = &a.AssignedAt
	}

	if err := tx.Outbox().Enqueue(ctx, placedMessage(o)); err != nil {
		return nil, errors.Wrap(err, "enqueue placed event")
	}

	return o, nil
}

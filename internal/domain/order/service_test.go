package order

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/customer"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/loyalty"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
	"github.com/sneakyevil96/DatabaseProject/internal/outbox"
)

// --- In-memory store ---

type memCourier struct {
	ID              int64
	AreaID          int64
	Priority        int
	Active          bool
	NextAvailableAt *time.Time
}

type redemptionKey struct {
	customerID int64
	codeID     int64
}

type memState struct {
	customers   map[int64]customer.Customer
	catalog     map[catalog.Kind]map[int64]catalog.Item
	accounts    map[int64]loyalty.Account
	codes       map[string]promo.Code
	redemptions map[redemptionKey]bool
	applied     []promo.Redemption
	orders      map[int64]Order
	couriers    []memCourier
	events      []outbox.Message
	nextOrderID int64
}

func (s *memState) clone() *memState {
	c := *s
	c.customers = maps.Clone(s.customers)
	c.accounts = maps.Clone(s.accounts)
	c.codes = maps.Clone(s.codes)
	c.redemptions = maps.Clone(s.redemptions)
	c.applied = slices.Clone(s.applied)
	c.orders = maps.Clone(s.orders)
	c.couriers = slices.Clone(s.couriers)
	c.events = slices.Clone(s.events)
	return &c
}

// memDB runs transactions one at a time and restores a snapshot on error.
type memDB struct {
	mu    sync.Mutex
	state *memState
	// failStep makes the named store operation fail, to exercise rollback.
	failStep string
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		customers:   map[int64]customer.Customer{},
		catalog:     map[catalog.Kind]map[int64]catalog.Item{},
		accounts:    map[int64]loyalty.Account{},
		codes:       map[string]promo.Code{},
		redemptions: map[redemptionKey]bool{},
		orders:      map[int64]Order{},
		nextOrderID: 1,
	}}
}

func (db *memDB) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.state.clone()
	if err := fn(ctx, &memTx{db: db}); err != nil {
		db.state = snapshot
		return err
	}
	return nil
}

func (db *memDB) fail(step string) error {
	if db.failStep == step {
		return errors.Errorf("%s: injected failure", step)
	}
	return nil
}

type memTx struct{ db *memDB }

func (t *memTx) Customers() customer.Repository { return t }
func (t *memTx) Catalog() catalog.Resolver      { return t }
func (t *memTx) Loyalty() loyalty.Repository    { return (*memLoyalty)(t) }
func (t *memTx) Codes() promo.Repository        { return (*memCodes)(t) }
func (t *memTx) Orders() Repository             { return (*memOrders)(t) }
func (t *memTx) Couriers() delivery.Repository  { return (*memCouriers)(t) }
func (t *memTx) Outbox() outbox.Writer          { return (*memOutbox)(t) }

func (t *memTx) Get(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := t.db.state.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (t *memTx) Resolve(_ context.Context, kind catalog.Kind, ids []int64) (map[int64]catalog.Item, error) {
	out := make(map[int64]catalog.Item, len(ids))
	for _, id := range ids {
		if it, ok := t.db.state.catalog[kind][id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type memLoyalty memTx

func (t *memLoyalty) Acquire(_ context.Context, customerID int64) (loyalty.Account, error) {
	acct, ok := t.db.state.accounts[customerID]
	if !ok {
		acct = loyalty.Account{CustomerID: customerID}
		t.db.state.accounts[customerID] = acct
	}
	return acct, nil
}

func (t *memLoyalty) Save(_ context.Context, a loyalty.Account) error {
	if err := t.db.fail("loyalty.save"); err != nil {
		return err
	}
	t.db.state.accounts[a.CustomerID] = a
	return nil
}

type memCodes memTx

func (t *memCodes) FindByCode(_ context.Context, code string) (*promo.Code, error) {
	c, ok := t.db.state.codes[strings.ToUpper(code)]
	if !ok {
		return nil, promo.ErrCodeNotFound
	}
	return &c, nil
}

func (t *memCodes) Redeemed(_ context.Context, customerID, codeID int64) (bool, error) {
	return t.db.state.redemptions[redemptionKey{customerID, codeID}], nil
}

func (t *memCodes) Redeem(_ context.Context, r promo.Redemption) error {
	for k, c := range t.db.state.codes {
		if c.ID != r.CodeID {
			continue
		}
		if c.UsedCount >= c.UsageLimit {
			return promo.ErrCodeFullyRedeemed
		}
		key := redemptionKey{r.CustomerID, r.CodeID}
		if t.db.state.redemptions[key] && r.OneTime {
			return promo.ErrCodeAlreadyUsed
		}
		c.UsedCount++
		t.db.state.codes[k] = c
		t.db.state.redemptions[key] = true
		t.db.state.applied = append(t.db.state.applied, r)
		return nil
	}
	return promo.ErrCodeNotFound
}

type memOrders memTx

func (t *memOrders) Create(_ context.Context, o *Order) (int64, error) {
	id := t.db.state.nextOrderID
	t.db.state.nextOrderID++
	stored := *o
	stored.ID = id
	t.db.state.orders[id] = stored
	return id, nil
}

func (t *memOrders) AddItems(_ context.Context, orderID int64, items []LineItem) error {
	o := t.db.state.orders[orderID]
	o.Items = slices.Clone(items)
	t.db.state.orders[orderID] = o
	return nil
}

func (t *memOrders) AssignCourier(_ context.Context, orderID int64, a delivery.Assignment) error {
	o := t.db.state.orders[orderID]
	o.CourierID = &a.CourierID
	o.CourierAssignedAt = &a.AssignedAt
	t.db.state.orders[orderID] = o
	return nil
}

type memCouriers memTx

func (t *memCouriers) Reserve(_ context.Context, areaID int64, at time.Time) (delivery.Assignment, error) {
	best := -1
	for i, c := range t.db.state.couriers {
		if !c.Active || c.AreaID != areaID {
			continue
		}
		if c.NextAvailableAt != nil && c.NextAvailableAt.After(at) {
			continue
		}
		if best < 0 || courierLess(c, t.db.state.couriers[best]) {
			best = i
		}
	}
	if best < 0 {
		return delivery.Assignment{}, delivery.ErrNoCourierAvailable
	}
	c := &t.db.state.couriers[best]
	a := delivery.Reservation(&delivery.Courier{ID: c.ID}, at)
	c.NextAvailableAt = &a.NextAvailableAt
	return a, nil
}

func courierLess(a, b memCourier) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	switch {
	case a.NextAvailableAt == nil && b.NextAvailableAt != nil:
		return true
	case a.NextAvailableAt != nil && b.NextAvailableAt == nil:
		return false
	case a.NextAvailableAt != nil && !a.NextAvailableAt.Equal(*b.NextAvailableAt):
		return a.NextAvailableAt.Before(*b.NextAvailableAt)
	}
	return a.ID < b.ID
}

type memOutbox memTx

func (t *memOutbox) Enqueue(_ context.Context, msg outbox.Message) error {
	t.db.state.events = append(t.db.state.events, msg)
	return nil
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

const (
	areaCenter int64 = 1
	areaNorth  int64 = 2

	margherita int64 = 1
	funghi     int64 = 2
	cola       int64 = 10
	tiramisu   int64 = 20
)

func seededDB() *memDB {
	db := newMemDB()
	s := db.state
	s.customers[1] = customer.Customer{ID: 1, FirstName: "Anna", PostalAreaID: areaCenter}
	bday := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	s.customers[2] = customer.Customer{ID: 2, FirstName: "Bram", Birthdate: &bday, PostalAreaID: areaCenter}
	s.customers[3] = customer.Customer{ID: 3, FirstName: "Chloe", PostalAreaID: areaNorth}

	s.catalog[catalog.KindPizza] = map[int64]catalog.Item{
		margherita: {Kind: catalog.KindPizza, ID: margherita, Name: "Margherita", UnitPrice: d("10.00")},
		funghi:     {Kind: catalog.KindPizza, ID: funghi, Name: "Funghi", UnitPrice: d("12.50")},
	}
	s.catalog[catalog.KindDrink] = map[int64]catalog.Item{
		cola: {Kind: catalog.KindDrink, ID: cola, Name: "Cola", UnitPrice: d("2.50")},
	}
	s.catalog[catalog.KindDessert] = map[int64]catalog.Item{
		tiramisu: {Kind: catalog.KindDessert, ID: tiramisu, Name: "Tiramisu", UnitPrice: d("5.00")},
	}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.codes["SPRING15"] = promo.Code{ID: 100, Code: "SPRING15", Type: promo.DiscountPercentage, Value: d("15"), ValidFrom: from, UsageLimit: 100, Active: true}
	s.codes["FIVEOFF"] = promo.Code{ID: 101, Code: "FIVEOFF", Type: promo.DiscountFixed, Value: d("5"), ValidFrom: from, UsageLimit: 100, Active: true}
	s.codes["WELCOME10"] = promo.Code{ID: 102, Code: "WELCOME10", Type: promo.DiscountPercentage, Value: d("10"), ValidFrom: from, OneTime: true, UsageLimit: 10, Active: true}

	s.couriers = []memCourier{
		{ID: 1, AreaID: areaCenter, Priority: 2, Active: true},
		{ID: 2, AreaID: areaCenter, Priority: 1, Active: true},
		{ID: 3, AreaID: areaNorth, Priority: 1, Active: false},
	}
	return db
}

func newTestService(t *testing.T, db *memDB) *Service {
	t.Helper()
	svc, err := NewService(db, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return svc
}

func pizzas(id int64, qty int) ItemRequest {
	return ItemRequest{Kind: catalog.KindPizza, ID: id, Quantity: qty}
}

// --- Tests ---

func TestPlaceOrder_LoyaltyReward(t *testing.T) {
	db := seededDB()
	db.state.accounts[1] = loyalty.Account{CustomerID: 1, LifetimePizzas: 8, PizzasSinceLastReward: 8}
	svc := newTestService(t, db)

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 2)},
		DeliveryMode: DeliveryModePickup,
	})
	require.NoError(t, err)

	assert.True(t, d("20.00").Equal(o.Subtotal))
	assert.True(t, d("2.00").Equal(o.LoyaltyDiscount))
	assert.True(t, d("18.00").Equal(o.TotalDue))
	assert.Nil(t, o.CourierID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, fixedNow, o.PlacedAt)

	acct := db.state.accounts[1]
	assert.Equal(t, 0, acct.PizzasSinceLastReward)
	assert.Equal(t, 10, acct.LifetimePizzas)

	stored := db.state.orders[o.ID]
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Margherita", stored.Items[0].Name)
	assert.True(t, d("10.00").Equal(stored.Items[0].UnitPrice))
}

func TestPlaceOrder_PercentageCodeAfterLoyalty(t *testing.T) {
	db := seededDB()
	db.state.accounts[1] = loyalty.Account{CustomerID: 1, LifetimePizzas: 8, PizzasSinceLastReward: 8}
	svc := newTestService(t, db)

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 2)},
		DiscountCode: " spring15 ",
		DeliveryMode: DeliveryModePickup,
	})
	require.NoError(t, err)

	assert.True(t, d("2.70").Equal(o.CodeDiscount))
	assert.True(t, d("4.70").Equal(o.DiscountTotal))
	assert.True(t, d("15.30").Equal(o.TotalDue))
	require.NotNil(t, o.CodeID)
	assert.Equal(t, int64(100), *o.CodeID)
	assert.Equal(t, "SPRING15", o.Code)

	assert.Equal(t, 1, db.state.codes["SPRING15"].UsedCount)
	require.Len(t, db.state.applied, 1)
	assert.Equal(t, o.ID, db.state.applied[0].OrderID)
	assert.True(t, d("2.70").Equal(db.state.applied[0].Amount))
}

func TestPlaceOrder_FixedCodeCapped(t *testing.T) {
	db := seededDB()
	db.state.catalog[catalog.KindPizza][margherita] = catalog.Item{
		Kind: catalog.KindPizza, ID: margherita, Name: "Margherita", UnitPrice: d("3.00"),
	}
	svc := newTestService(t, db)

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 1)},
		DiscountCode: "FIVEOFF",
		DeliveryMode: DeliveryModePickup,
	})
	require.NoError(t, err)
	assert.True(t, d("3.00").Equal(o.CodeDiscount))
	assert.True(t, o.TotalDue.IsZero())
}

func TestPlaceOrder_NoCourierRollsBack(t *testing.T) {
	db := seededDB()
	busy := fixedNow.Add(10 * time.Minute)
	for i := range db.state.couriers {
		db.state.couriers[i].NextAvailableAt = &busy
	}
	db.state.accounts[1] = loyalty.Account{CustomerID: 1, LifetimePizzas: 4, PizzasSinceLastReward: 4}
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 2)},
		DiscountCode: "SPRING15",
		DeliveryMode: DeliveryModeDelivery,
	})
	require.ErrorIs(t, err, delivery.ErrNoCourierAvailable)
	assert.Equal(t, "no_courier_available", Reason(err))

	assert.Empty(t, db.state.orders)
	assert.Empty(t, db.state.events)
	assert.Empty(t, db.state.applied)
	assert.Equal(t, 0, db.state.codes["SPRING15"].UsedCount)
	assert.Equal(t, loyalty.Account{CustomerID: 1, LifetimePizzas: 4, PizzasSinceLastReward: 4}, db.state.accounts[1])
}

func TestPlaceOrder_FailureAfterWritesRollsBack(t *testing.T) {
	db := seededDB()
	db.failStep = "loyalty.save"
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 1)},
		DiscountCode: "WELCOME10",
		DeliveryMode: DeliveryModePickup,
	})
	require.Error(t, err)
	assert.Equal(t, "internal", Reason(err))
	assert.Empty(t, db.state.orders)
	assert.Empty(t, db.state.redemptions)
	assert.NotContains(t, db.state.accounts, int64(1))
}

func TestPlaceOrder_DeliveryAssignsCourier(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)
	req := PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(funghi, 1)},
		DeliveryMode: DeliveryModeDelivery,
	}

	first, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, first.CourierID)
	assert.Equal(t, int64(2), *first.CourierID, "lowest priority value wins")
	require.NotNil(t, first.CourierAssignedAt)
	assert.Equal(t, fixedNow, *first.CourierAssignedAt)
	assert.Equal(t, fixedNow.Add(delivery.Cooldown), *db.state.couriers[1].NextAvailableAt)

	second, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *second.CourierID, "reserved courier is skipped")

	_, err = svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, delivery.ErrNoCourierAvailable)

	stored := db.state.orders[first.ID]
	require.NotNil(t, stored.CourierID)
	assert.Equal(t, int64(2), *stored.CourierID)
}

func TestPlaceOrder_InactiveCourierNotEligible(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   3,
		Items:        []ItemRequest{pizzas(funghi, 1)},
		DeliveryMode: DeliveryModeDelivery,
	})
	require.ErrorIs(t, err, delivery.ErrNoCourierAvailable)
}

func TestPlaceOrder_Birthday(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID: 2,
		Items: []ItemRequest{
			pizzas(funghi, 1),
			pizzas(margherita, 2),
			{Kind: catalog.KindDrink, ID: cola, Quantity: 3},
			{Kind: catalog.KindDessert, ID: tiramisu, Quantity: 1},
		},
		DeliveryMode: DeliveryModePickup,
	})
	require.NoError(t, err)
	// 12.50 + 20.00 + 7.50 + 5.00; free margherita and cola
	assert.True(t, d("45.00").Equal(o.Subtotal))
	assert.True(t, d("12.50").Equal(o.BirthdayDiscount))
	assert.True(t, d("32.50").Equal(o.TotalDue))
}

func TestPlaceOrder_ZeroCodeAmountNotRedeemed(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   2,
		Items:        []ItemRequest{pizzas(margherita, 1)},
		DiscountCode: "WELCOME10",
		DeliveryMode: DeliveryModePickup,
	})
	require.NoError(t, err)
	assert.True(t, o.CodeDiscount.IsZero())
	assert.True(t, o.TotalDue.IsZero())
	assert.Equal(t, 0, db.state.codes["WELCOME10"].UsedCount)
	assert.Empty(t, db.state.redemptions)
}

func TestPlaceOrder_OneTimeCodeReuse(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)
	req := PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 1)},
		DiscountCode: "welcome10",
		DeliveryMode: DeliveryModePickup,
	}

	_, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, promo.ErrCodeAlreadyUsed)
	assert.Len(t, db.state.orders, 1)
}

func TestPlaceOrder_CodeErrors(t *testing.T) {
	db := seededDB()
	until := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	db.state.codes["OLD"] = promo.Code{ID: 200, Code: "OLD", Type: promo.DiscountFixed, Value: d("1"), ValidFrom: until.AddDate(0, -1, 0), ValidUntil: &until, UsageLimit: 5, Active: true}
	db.state.codes["GONE"] = promo.Code{ID: 201, Code: "GONE", Type: promo.DiscountFixed, Value: d("1"), ValidFrom: until, UsageLimit: 2, UsedCount: 2, Active: true}
	svc := newTestService(t, db)

	tests := []struct {
		code    string
		wantErr error
	}{
		{code: "NOPE", wantErr: promo.ErrCodeNotFound},
		{code: "OLD", wantErr: promo.ErrCodeNotCurrentlyValid},
		{code: "GONE", wantErr: promo.ErrCodeFullyRedeemed},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), PlaceRequest{
				CustomerID:   1,
				Items:        []ItemRequest{pizzas(margherita, 1)},
				DiscountCode: tt.code,
				DeliveryMode: DeliveryModePickup,
			})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, db.state.accounts, "loyalty account creation is rolled back")
}

func TestPlaceOrder_RequestErrors(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)

	tests := []struct {
		name    string
		req     PlaceRequest
		wantErr error
	}{
		{
			name:    "no items",
			req:     PlaceRequest{CustomerID: 1, DeliveryMode: DeliveryModePickup},
			wantErr: ErrNoPizzas,
		},
		{
			name: "drinks only",
			req: PlaceRequest{CustomerID: 1, DeliveryMode: DeliveryModePickup, Items: []ItemRequest{
				{Kind: catalog.KindDrink, ID: cola, Quantity: 1},
			}},
			wantErr: ErrNoPizzas,
		},
		{
			name:    "zero quantity",
			req:     PlaceRequest{CustomerID: 1, DeliveryMode: DeliveryModePickup, Items: []ItemRequest{pizzas(margherita, 0)}},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "quantity above bound",
			req:     PlaceRequest{CustomerID: 1, DeliveryMode: DeliveryModePickup, Items: []ItemRequest{pizzas(margherita, MaxQuantity+1)}},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "bad delivery mode",
			req:     PlaceRequest{CustomerID: 1, DeliveryMode: "drone", Items: []ItemRequest{pizzas(margherita, 1)}},
			wantErr: ErrInvalidDeliveryMode,
		},
		{
			name:    "missing customer id",
			req:     PlaceRequest{DeliveryMode: DeliveryModePickup, Items: []ItemRequest{pizzas(margherita, 1)}},
			wantErr: ErrInvalidCustomer,
		},
		{
			name:    "unknown customer",
			req:     PlaceRequest{CustomerID: 99, DeliveryMode: DeliveryModePickup, Items: []ItemRequest{pizzas(margherita, 1)}},
			wantErr: customer.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, db.state.orders)
}

func TestPlaceOrder_UnknownProducts(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		DeliveryMode: DeliveryModePickup,
		Items: []ItemRequest{
			pizzas(margherita, 1),
			{Kind: catalog.KindDrink, ID: 77, Quantity: 1},
			{Kind: catalog.KindDrink, ID: 13, Quantity: 1},
			{Kind: catalog.KindDrink, ID: cola, Quantity: 1},
		},
	})

	var upErr *UnknownProductError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, catalog.KindDrink, upErr.Kind)
	assert.Equal(t, []int64{13, 77}, upErr.IDs)
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, "unknown_or_inactive_product", Reason(err))
}

func TestPlaceOrder_EmitsEvent(t *testing.T) {
	db := seededDB()
	svc := newTestService(t, db)

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		CustomerID:   1,
		Items:        []ItemRequest{pizzas(margherita, 1)},
		DeliveryMode: DeliveryModeDelivery,
		Notes:        "  ring twice ",
	})
	require.NoError(t, err)
	assert.Equal(t, "ring twice", o.Notes)

	require.Len(t, db.state.events, 1)
	msg := db.state.events[0]
	assert.Equal(t, TopicPlaced, msg.Topic)
	assert.Equal(t, "1", msg.Key)
	assert.Equal(t, outbox.ContentTypeJSON, msg.ContentType)

	var (
		id      int64
		due     string
		courier int64
	)
	require.NoError(t, jx.DecodeBytes(msg.Payload).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			id, err = d.Int64()
		case "total_due":
			due, err = d.Str()
		case "courier_id":
			courier, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	}))
	assert.Equal(t, o.ID, id)
	assert.Equal(t, "10.00", due)
	assert.Equal(t, int64(2), courier)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "invalid_request", Reason(&InvalidQuantityError{Kind: catalog.KindPizza, ProductID: 1}))
	assert.Equal(t, "customer_not_found", Reason(errors.Wrap(customer.ErrNotFound, "get customer")))
	assert.Equal(t, "code_already_used", Reason(errors.Wrap(promo.ErrCodeAlreadyUsed, "redeem")))
	assert.Equal(t, "code_fully_redeemed", Reason(promo.ErrCodeFullyRedeemed))
	assert.Equal(t, "code_not_currently_valid", Reason(promo.ErrCodeNotCurrentlyValid))
	assert.Equal(t, "code_not_found", Reason(promo.ErrCodeNotFound))
	assert.Equal(t, "internal", Reason(errors.New("boom")))
}

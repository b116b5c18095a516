package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/auth"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/customer"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/delivery"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/promo"
)

// --- Mock implementations ---

type mockMenu struct {
	menu *catalog.Menu
	err  error
}

func (m *mockMenu) Menu(context.Context) (*catalog.Menu, error) { return m.menu, m.err }

type mockPlacer struct {
	got   order.PlaceRequest
	order *order.Order
	err   error
}

func (m *mockPlacer) PlaceOrder(_ context.Context, req order.PlaceRequest) (*order.Order, error) {
	m.got = req
	return m.order, m.err
}

type mockKeys struct {
	keys map[string]*auth.APIKeyInfo
	err  error
}

func (m *mockKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	info, ok := m.keys[hash]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return info, nil
}

var pepper = []byte("pepper")

const (
	writerKey = "key-writer"
	readerKey = "key-reader"
)

func newKeys() *mockKeys {
	w := auth.HashKey(pepper, writerKey)
	r := auth.HashKey(pepper, readerKey)
	return &mockKeys{keys: map[string]*auth.APIKeyInfo{
		w: {ID: 1, KeyHash: w, Name: "till", Scopes: []string{auth.ScopeOrdersWrite}},
		r: {ID: 2, KeyHash: r, Name: "board", Scopes: []string{"menu:read"}},
	}}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func placedOrder() *order.Order {
	courier := int64(2)
	at := time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)
	return &order.Order{
		ID:           41,
		CustomerID:   7,
		PlacedAt:     at,
		Status:       order.StatusPending,
		DeliveryMode: order.DeliveryModeDelivery,
		Items: []order.LineItem{
			{Kind: catalog.KindPizza, ProductID: 1, Name: "Margherita", Quantity: 2, UnitPrice: d("10.00")},
		},
		Subtotal:          d("20.00"),
		CodeDiscount:      d("3.00"),
		DiscountTotal:     d("3.00"),
		TotalDue:          d("17.00"),
		Code:              "SPRING15",
		CourierID:         &courier,
		CourierAssignedAt: &at,
	}
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)
	return w
}

func postOrder(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderAPIKey, key)
	}
	return req
}

func TestGetMenu(t *testing.T) {
	menu := &mockMenu{menu: &catalog.Menu{
		Pizzas: []catalog.Pizza{{
			ID: 1, Name: "Margherita", IngredientCost: d("3.10"), Price: d("4.73"), Vegetarian: true,
		}},
		Drinks:   []catalog.Drink{{ID: 5, Name: "Cola", Category: "soft", Price: d("2.5")}},
		Desserts: []catalog.Dessert{{ID: 9, Name: "Tiramisu", Price: d("5")}},
	}}
	h := New(menu, &mockPlacer{}, NewAuthenticator(newKeys(), pepper))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"pizzas": [{"id":1,"name":"Margherita","price":"4.73","vegetarian":true,"vegan":false}],
		"drinks": [{"id":5,"name":"Cola","category":"soft","price":"2.50"}],
		"desserts": [{"id":9,"name":"Tiramisu","price":"5.00","vegan":false}]
	}`, w.Body.String())

	w = serve(h, httptest.NewRequest(http.MethodGet, "/api/menu?include_cost=1", nil))
	assert.Contains(t, w.Body.String(), `"ingredient_cost":"3.10"`)
}

func TestGetMenu_Error(t *testing.T) {
	h := New(&mockMenu{err: errors.New("db down")}, &mockPlacer{}, NewAuthenticator(newKeys(), pepper))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestPlaceOrder(t *testing.T) {
	placer := &mockPlacer{order: placedOrder()}
	h := New(&mockMenu{}, placer, NewAuthenticator(newKeys(), pepper))

	w := serve(h, postOrder(`{
		"customer_id": 7,
		"items": [{"kind":"pizza","id":1,"quantity":2},{"kind":"drink","id":5}],
		"discount_code": " spring15 ",
		"notes": null,
		"extra": {"ignored": true}
	}`, writerKey))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, order.PlaceRequest{
		CustomerID: 7,
		Items: []order.ItemRequest{
			{Kind: catalog.KindPizza, ID: 1, Quantity: 2},
			{Kind: catalog.KindDrink, ID: 5, Quantity: 1},
		},
		DiscountCode: " spring15 ",
		DeliveryMode: order.DeliveryModeDelivery,
	}, placer.got)

	assert.JSONEq(t, `{
		"id": 41,
		"customer_id": 7,
		"placed_at": "2025-06-15T18:30:00Z",
		"status": "pending",
		"delivery_type": "delivery",
		"items": [{"kind":"pizza","product_id":1,"name":"Margherita","quantity":2,"unit_price":"10.00"}],
		"subtotal": "20.00",
		"discounts": {"birthday":"0.00","loyalty":"0.00","code":"3.00","total":"3.00"},
		"total_due": "17.00",
		"discount_code": "SPRING15",
		"courier_id": 2,
		"courier_assigned_at": "2025-06-15T18:30:00Z"
	}`, w.Body.String())
}

func TestPlaceOrder_Pickup(t *testing.T) {
	placer := &mockPlacer{order: placedOrder()}
	h := New(&mockMenu{}, placer, NewAuthenticator(newKeys(), pepper))

	w := serve(h, postOrder(`{"customer_id":7,"delivery_type":"pickup","items":[{"kind":"pizza","id":1}]}`, writerKey))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, order.DeliveryModePickup, placer.got.DeliveryMode)
}

func TestPlaceOrder_LogsKeyName(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := New(&mockMenu{}, &mockPlacer{order: placedOrder()}, NewAuthenticator(newKeys(), pepper))

	req := postOrder(`{"customer_id":7,"items":[{"kind":"pizza","id":1}]}`, writerKey)
	req = req.WithContext(zctx.Base(req.Context(), zap.New(core)))
	w := serve(h, req)
	require.Equal(t, http.StatusCreated, w.Code)

	placed := logs.FilterMessage("Order placed").All()
	require.Len(t, placed, 1)
	assert.Equal(t, "till", placed[0].ContextMap()["api_key"])
}

func TestPlaceOrder_Auth(t *testing.T) {
	for _, tt := range []struct {
		name   string
		keys   *mockKeys
		key    string
		status int
	}{
		{name: "missing key", keys: newKeys(), status: http.StatusUnauthorized},
		{name: "unknown key", keys: newKeys(), key: "nope", status: http.StatusUnauthorized},
		{name: "missing scope", keys: newKeys(), key: readerKey, status: http.StatusUnauthorized},
		{name: "store failure", keys: &mockKeys{err: errors.New("db down")}, key: writerKey, status: http.StatusInternalServerError},
		{name: "valid", keys: newKeys(), key: writerKey, status: http.StatusCreated},
	} {
		t.Run(tt.name, func(t *testing.T) {
			placer := &mockPlacer{order: placedOrder()}
			h := New(&mockMenu{}, placer, NewAuthenticator(tt.keys, pepper))

			w := serve(h, postOrder(`{"customer_id":7,"items":[{"kind":"pizza","id":1}]}`, tt.key))
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusCreated {
				assert.Zero(t, placer.got.CustomerID, "service not called")
			}
		})
	}
}

func TestAuthenticate_StoredHashMismatch(t *testing.T) {
	hash := auth.HashKey(pepper, writerKey)
	keys := &mockKeys{keys: map[string]*auth.APIKeyInfo{
		hash: {ID: 1, KeyHash: strings.Repeat("0", 64), Scopes: []string{auth.ScopeOrdersWrite}},
	}}
	_, err := NewAuthenticator(keys, pepper).Authenticate(context.Background(), writerKey, auth.ScopeOrdersWrite)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestPlaceOrder_BadBody(t *testing.T) {
	placer := &mockPlacer{}
	h := New(&mockMenu{}, placer, NewAuthenticator(newKeys(), pepper))

	for _, body := range []string{
		`not json`,
		`{"customer_id":"seven"}`,
		`{"customer_id":7,"items":[{"kind":"pizza","id":1,"quantity":"two"}]}`,
	} {
		w := serve(h, postOrder(body, writerKey))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"error":"invalid_request"`)
	}
	assert.Zero(t, placer.got.CustomerID)
}

func TestPlaceOrder_Errors(t *testing.T) {
	for _, tt := range []struct {
		err    error
		status int
		reason string
		msg    string
	}{
		{order.ErrNoPizzas, http.StatusBadRequest, "invalid_request", "invalid order request: at least one pizza is required"},
		{&order.InvalidQuantityError{Kind: catalog.KindPizza, ProductID: 1, Quantity: 0}, http.StatusBadRequest, "invalid_request", ""},
		{errors.Wrap(customer.ErrNotFound, "get customer"), http.StatusNotFound, "customer_not_found", "customer not found"},
		{errors.Wrap(promo.ErrCodeNotFound, "check"), http.StatusUnprocessableEntity, "code_not_found", ""},
		{promo.ErrCodeNotCurrentlyValid, http.StatusUnprocessableEntity, "code_not_currently_valid", ""},
		{promo.ErrCodeFullyRedeemed, http.StatusUnprocessableEntity, "code_fully_redeemed", ""},
		{promo.ErrCodeAlreadyUsed, http.StatusUnprocessableEntity, "code_already_used", ""},
		{errors.Wrap(delivery.ErrNoCourierAvailable, "reserve courier"), http.StatusConflict, "no_courier_available", ""},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal", "internal server error"},
	} {
		t.Run(tt.reason, func(t *testing.T) {
			h := New(&mockMenu{}, &mockPlacer{err: tt.err}, NewAuthenticator(newKeys(), pepper))

			w := serve(h, postOrder(`{"customer_id":7,"items":[{"kind":"pizza","id":1}]}`, writerKey))
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tt.reason+`"`)
			if tt.msg != "" {
				assert.Contains(t, w.Body.String(), tt.msg)
			}
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := New(&mockMenu{}, &mockPlacer{}, NewAuthenticator(newKeys(), pepper))

	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, "/api/nope", nil)).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, httptest.NewRequest(http.MethodDelete, "/api/menu", nil)).Code)
}

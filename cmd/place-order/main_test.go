package main

import (
	"flag"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
)

func TestParseItem(t *testing.T) {
	for _, tt := range []struct {
		raw  string
		want order.ItemRequest
		err  bool
	}{
		{raw: "3", want: order.ItemRequest{Kind: catalog.KindPizza, ID: 3, Quantity: 1}},
		{raw: "3:2", want: order.ItemRequest{Kind: catalog.KindPizza, ID: 3, Quantity: 2}},
		{raw: " 12:0 ", want: order.ItemRequest{Kind: catalog.KindPizza, ID: 12, Quantity: 0}},
		{raw: "", err: true},
		{raw: "abc", err: true},
		{raw: "-1", err: true},
		{raw: "3:x", err: true},
	} {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseItem(catalog.KindPizza, tt.raw)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemFlag(t *testing.T) {
	var items []order.ItemRequest
	fs := flag.NewFlagSet("place-order", flag.ContinueOnError)
	fs.Var(itemFlag{kind: catalog.KindPizza, items: &items}, "pizza", "")
	fs.Var(itemFlag{kind: catalog.KindDrink, items: &items}, "drink", "")

	require.NoError(t, fs.Parse([]string{"--pizza", "1:2", "--drink", "4", "--pizza", "2"}))
	assert.Equal(t, []order.ItemRequest{
		{Kind: catalog.KindPizza, ID: 1, Quantity: 2},
		{Kind: catalog.KindDrink, ID: 4, Quantity: 1},
		{Kind: catalog.KindPizza, ID: 2, Quantity: 1},
	}, items)
}

func TestReceipt(t *testing.T) {
	o := &order.Order{
		ID:            17,
		Subtotal:      decimal.RequireFromString("28"),
		DiscountTotal: decimal.RequireFromString("18.2"),
		TotalDue:      decimal.RequireFromString("9.80"),
	}
	assert.Equal(t, "Order #17 placed. Subtotal: EUR 28.00 | Discounts: EUR 18.20 | Total due: EUR 9.80", receipt(o))
}

package order

import (
	"strconv"
	"time"

	"github.com/go-faster/jx"

	"github.com/sneakyevil96/DatabaseProject/internal/outbox"
)

// TopicPlaced is the event topic emitted for every placed order.
const TopicPlaced = "order.placed"

// Encode writes the order as JSON. Money is encoded as strings with two
// decimals.
func (o *Order) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("customer_id")
	e.Int64(o.CustomerID)
	e.FieldStart("placed_at")
	e.Str(o.PlacedAt.Format(time.RFC3339))
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("delivery_type")
	e.Str(string(o.DeliveryMode))
	if o.Notes != "" {
		e.FieldStart("notes")
		e.Str(o.Notes)
	}

	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Items {
		e.ObjStart()
		e.FieldStart("kind")
		e.Str(string(l.Kind))
		e.FieldStart("product_id")
		e.Int64(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("unit_price")
		e.Str(l.UnitPrice.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("subtotal")
	e.Str(o.Subtotal.StringFixed(2))
	e.FieldStart("discounts")
	e.ObjStart()
	e.FieldStart("birthday")
	e.Str(o.BirthdayDiscount.StringFixed(2))
	e.FieldStart("loyalty")
	e.Str(o.LoyaltyDiscount.StringFixed(2))
	e.FieldStart("code")
	e.Str(o.CodeDiscount.StringFixed(2))
	e.FieldStart("total")
	e.Str(o.DiscountTotal.StringFixed(2))
	e.ObjEnd()
	e.FieldStart("total_due")
	e.Str(o.TotalDue.StringFixed(2))

	if o.Code != "" {
		e.FieldStart("discount_code")
		e.Str(o.Code)
	}
	if o.CourierID != nil {
		e.FieldStart("courier_id")
		e.Int64(*o.CourierID)
	}
	if o.CourierAssignedAt != nil {
		e.FieldStart("courier_assigned_at")
		e.Str(o.CourierAssignedAt.Format(time.RFC3339))
	}
	e.ObjEnd()
}

func placedMessage(o *Order) outbox.Message {
	var e jx.Encoder
	o.Encode(&e)
	return outbox.NewMessage(TopicPlaced, strconv.FormatInt(o.ID, 10), e.Bytes(), o.PlacedAt)
}

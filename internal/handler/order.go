package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
	"github.com/sneakyevil96/DatabaseProject/pkg/httpmiddleware"
)

const maxOrderBody = 64 << 10

// PlaceOrder serves POST /api/orders and answers 201 with the placed order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOrderBody))
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid_request", "request body too large or unreadable")
		return
	}
	req, err := decodePlaceRequest(jx.DecodeBytes(body))
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	lg := zctx.From(ctx)
	if key, ok := KeyFromContext(ctx); ok {
		lg = lg.With(zap.String("api_key", key.Name))
	}

	o, err := h.orders.PlaceOrder(ctx, req)
	if err != nil {
		status, reason, msg := placeError(err)
		lg := lg.With(zap.Int64("customer_id", req.CustomerID), zap.String("reason", reason))
		if status >= http.StatusInternalServerError {
			lg.Error("Place order failed", zap.Error(err))
		} else {
			lg.Info("Order rejected", zap.Error(err))
		}
		httpmiddleware.WriteError(w, status, reason, msg)
		return
	}

	lg.Info("Order placed",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", o.CustomerID),
		zap.String("total_due", o.TotalDue.StringFixed(2)),
	)

	var e jx.Encoder
	o.Encode(&e)
	writeJSON(w, http.StatusCreated, e.Bytes())
}

// decodePlaceRequest reads
//
//	{"customer_id":1,"items":[{"kind":"pizza","id":3,"quantity":2}],
//	 "discount_code":"SPRING15","delivery_type":"pickup","notes":"ring twice"}
//
// Missing quantity means 1 and missing delivery_type means delivery.
func decodePlaceRequest(d *jx.Decoder) (order.PlaceRequest, error) {
	req := order.PlaceRequest{DeliveryMode: order.DeliveryModeDelivery}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customer_id":
			req.CustomerID, err = d.Int64()
		case "discount_code":
			req.DiscountCode, err = optStr(d)
		case "delivery_type":
			var s string
			if s, err = optStr(d); err == nil && s != "" {
				req.DeliveryMode = order.DeliveryMode(s)
			}
		case "notes":
			req.Notes, err = optStr(d)
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			err = d.Skip()
		}
		return errors.Wrap(err, key)
	})
	if err != nil {
		return order.PlaceRequest{}, errors.Wrap(err, "decode order request")
	}
	return req, nil
}

func decodeItem(d *jx.Decoder) (order.ItemRequest, error) {
	item := order.ItemRequest{Quantity: 1}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "kind":
			var s string
			s, err = d.Str()
			item.Kind = catalog.Kind(s)
		case "id":
			item.ID, err = d.Int64()
		case "quantity":
			item.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return errors.Wrap(err, key)
	})
	return item, err
}

func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// placeError maps a placement failure to status, reason and client message.
func placeError(err error) (int, string, string) {
	reason := order.Reason(err)
	switch reason {
	case "invalid_request":
		var iq *order.InvalidQuantityError
		if errors.As(err, &iq) {
			return http.StatusBadRequest, reason, iq.Error()
		}
		return http.StatusBadRequest, reason, err.Error()
	case "unknown_or_inactive_product":
		var up *order.UnknownProductError
		if errors.As(err, &up) {
			return http.StatusUnprocessableEntity, reason, up.Error()
		}
		return http.StatusUnprocessableEntity, reason, "unknown or inactive product"
	case "customer_not_found":
		return http.StatusNotFound, reason, "customer not found"
	case "code_not_found":
		return http.StatusUnprocessableEntity, reason, "discount code not found"
	case "code_not_currently_valid":
		return http.StatusUnprocessableEntity, reason, "discount code is not currently valid"
	case "code_fully_redeemed":
		return http.StatusUnprocessableEntity, reason, "discount code has reached its usage limit"
	case "code_already_used":
		return http.StatusUnprocessableEntity, reason, "discount code was already used by this customer"
	case "no_courier_available":
		return http.StatusConflict, reason, "no courier available for the delivery area"
	default:
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}

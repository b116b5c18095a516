// Package handler exposes the menu and order placement over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/auth"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
	"github.com/sneakyevil96/DatabaseProject/pkg/httpmiddleware"
)

// OrderPlacer is implemented by *order.Service.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error)
}

// Handler serves the /api routes.
type Handler struct {
	menu   catalog.MenuRepository
	orders OrderPlacer
	keys   *Authenticator
}

// New returns a Handler.
func New(menu catalog.MenuRepository, orders OrderPlacer, keys *Authenticator) *Handler {
	return &Handler{
		menu:   menu,
		orders: orders,
		keys:   keys,
	}
}

// Router mounts the API under /api. Health probes are mounted by the caller.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.GetMenu)
		r.With(h.keys.Require(auth.ScopeOrdersWrite)).Post("/orders", h.PlaceOrder)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

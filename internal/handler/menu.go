package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/pkg/httpmiddleware"
)

// GetMenu serves GET /api/menu. include_cost=1 adds the ingredient cost of
// each pizza.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	includeCost, _ := strconv.ParseBool(r.URL.Query().Get("include_cost"))

	m, err := h.menu.Menu(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("Load menu", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	var e jx.Encoder
	encodeMenu(&e, m, includeCost)
	writeJSON(w, http.StatusOK, e.Bytes())
}

func encodeMenu(e *jx.Encoder, m *catalog.Menu, includeCost bool) {
	e.ObjStart()

	e.FieldStart("pizzas")
	e.ArrStart()
	for _, p := range m.Pizzas {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("name")
		e.Str(p.Name)
		if p.Description != "" {
			e.FieldStart("description")
			e.Str(p.Description)
		}
		if includeCost {
			e.FieldStart("ingredient_cost")
			e.Str(p.IngredientCost.StringFixed(2))
		}
		e.FieldStart("price")
		e.Str(p.Price.StringFixed(2))
		e.FieldStart("vegetarian")
		e.Bool(p.Vegetarian)
		e.FieldStart("vegan")
		e.Bool(p.Vegan)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("drinks")
	e.ArrStart()
	for _, d := range m.Drinks {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(d.ID)
		e.FieldStart("name")
		e.Str(d.Name)
		if d.Category != "" {
			e.FieldStart("category")
			e.Str(d.Category)
		}
		e.FieldStart("price")
		e.Str(d.Price.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("desserts")
	e.ArrStart()
	for _, d := range m.Desserts {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(d.ID)
		e.FieldStart("name")
		e.Str(d.Name)
		if d.Description != "" {
			e.FieldStart("description")
			e.Str(d.Description)
		}
		e.FieldStart("price")
		e.Str(d.Price.StringFixed(2))
		e.FieldStart("vegan")
		e.Bool(d.Vegan)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.ObjEnd()
}

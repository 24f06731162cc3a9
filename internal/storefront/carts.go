package storefront

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
	"github.com/noah-isme/storefront-checkout/internal/common"
	"github.com/noah-isme/storefront-checkout/internal/discount"
	"github.com/noah-isme/storefront-checkout/internal/events"
)

// EvaluateCart evaluates a cart snapshot supplied in the request body.
func (h *Handler) EvaluateCart(w http.ResponseWriter, r *http.Request) {
	var cart commerce.Cart
	if err := decodeJSON(r, &cart, false); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondDiscount(w, r, &cart)
}

// CartDiscount fetches the cart from the commerce backend and evaluates it.
func (h *Handler) CartDiscount(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart id is required", nil)
		return
	}
	if h.Backend == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "commerce backend not configured", nil)
		return
	}
	cart, err := h.Backend.GetCart(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondDiscount(w, r, cart)
}

func (h *Handler) respondDiscount(w http.ResponseWriter, r *http.Request, cart *commerce.Cart) {
	res := discount.Evaluate(cart)
	_ = events.Publish(r.Context(), h.Bus, events.CartEvaluated{
		CartID:         cart.ID,
		Result:         res,
		Reconciliation: res.Reconciliation(),
	})

	adjustments := []discount.Adjustment{}
	for _, item := range cart.Items {
		adjustments = append(adjustments, discount.ClassifyAll(item.Adjustments)...)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"cartId":      cart.ID,
			"discount":    res.Present(h.formatter(), cart.CurrencyCode, h.locale(r)),
			"adjustments": adjustments,
		},
	})
}

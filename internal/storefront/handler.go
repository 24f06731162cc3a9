package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
	"github.com/noah-isme/storefront-checkout/internal/common"
	"github.com/noah-isme/storefront-checkout/internal/events"
	"github.com/noah-isme/storefront-checkout/internal/handoff"
	"github.com/noah-isme/storefront-checkout/internal/money"
	"github.com/noah-isme/storefront-checkout/internal/payment"
	"github.com/noah-isme/storefront-checkout/internal/resilience"
)

// Backend loads snapshots from the commerce backend.
type Backend interface {
	GetCart(ctx context.Context, id string) (*commerce.Cart, error)
	GetOrder(ctx context.Context, id string) (*commerce.Order, error)
}

// Handler serves the storefront checkout endpoints.
type Handler struct {
	Backend       Backend
	Handoff       *handoff.Manager
	Providers     *payment.Catalog
	Money         *money.Formatter
	Bus           *events.Bus
	DefaultLocale string
	Logger        zerolog.Logger
}

// Routes mounts the storefront endpoints. publishLimit wraps the financing
// publish endpoint and may be nil.
func (h *Handler) Routes(r chi.Router, publishLimit func(http.Handler) http.Handler) {
	r.Post("/carts/bulk-discount", h.EvaluateCart)
	r.Get("/carts/{id}/bulk-discount", h.CartDiscount)
	if publishLimit != nil {
		r.With(publishLimit).Post("/checkout/financing", h.PublishFinancing)
	} else {
		r.Post("/checkout/financing", h.PublishFinancing)
	}
	r.Delete("/checkout/financing", h.DiscardFinancing)
	r.Get("/orders/{id}/confirmation", h.Confirmation)
	r.Get("/payment-providers/{id}", h.Provider)
	r.Get("/money/format", h.FormatMoney)
}

func (h *Handler) formatter() *money.Formatter {
	if h.Money == nil {
		return money.Default
	}
	return h.Money
}

// locale resolves the display locale from ?locale=, then Accept-Language,
// then the configured default.
func (h *Handler) locale(r *http.Request) string {
	if q := strings.TrimSpace(r.URL.Query().Get("locale")); q != "" {
		if tag, err := language.Parse(q); err == nil {
			return tag.String()
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		tags, _, err := language.ParseAcceptLanguage(header)
		if err == nil && len(tags) > 0 && tags[0] != language.Und {
			return tags[0].String()
		}
	}
	return h.DefaultLocale
}

func (h *Handler) session(r *http.Request) handoff.Session {
	id, _ := common.SessionID(r.Context())
	return h.Handoff.Scope(id)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, commerce.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, commerce.ErrNotConfigured):
		common.JSONError(w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "commerce backend not configured", nil)
	case errors.Is(err, resilience.ErrOpenCircuit):
		common.JSONError(w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "commerce backend temporarily unavailable", nil)
	default:
		h.Logger.Error().Err(err).Msg("commerce_fetch_failed")
		common.JSONError(w, http.StatusBadGateway, "BAD_GATEWAY", "unable to reach commerce backend", nil)
	}
}

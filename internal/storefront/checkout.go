package storefront

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
	"github.com/noah-isme/storefront-checkout/internal/common"
	"github.com/noah-isme/storefront-checkout/internal/discount"
	"github.com/noah-isme/storefront-checkout/internal/events"
	"github.com/noah-isme/storefront-checkout/internal/financing"
	"github.com/noah-isme/storefront-checkout/internal/handoff"
	"github.com/noah-isme/storefront-checkout/internal/money"
	"github.com/noah-isme/storefront-checkout/internal/payment"
)

type financingRequest struct {
	ProviderID   string                   `json:"provider_id"`
	CurrencyCode string                   `json:"currency_code" validate:"required,len=3,alpha"`
	Payment      *financing.PaymentRecord `json:"payment" validate:"required"`
}

// PublishFinancing derives the financing breakdown for the payment chosen at
// checkout and hands it to the order confirmation through the session.
func (h *Handler) PublishFinancing(w http.ResponseWriter, r *http.Request) {
	var req financingRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeError(w, err)
		return
	}
	info := financing.Derive(req.Payment)
	info.CurrencyCode = money.NormalizeCode(req.CurrencyCode)
	info.ProviderID = strings.TrimSpace(req.ProviderID)

	sessionID, _ := common.SessionID(r.Context())
	stored := true
	if err := handoff.FinancingChannel.Publish(r.Context(), h.session(r), *info); err != nil {
		stored = false
		h.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("financing_handoff_unavailable")
	}
	_ = events.Publish(r.Context(), h.Bus, events.FinancingPublished{SessionID: sessionID, Info: info, Stored: stored})

	f := h.formatter()
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"financing":  info,
			"path":       info.Path(),
			"lines":      financing.Lines(info, f, h.locale(r)),
			"consistent": info.Consistent(financing.RecordedUnit(f, info.CurrencyCode)),
			"stored":     stored,
		},
	})
}

// DiscardFinancing drops any pending financing context for the session.
func (h *Handler) DiscardFinancing(w http.ResponseWriter, r *http.Request) {
	handoff.FinancingChannel.Discard(r.Context(), h.session(r))
	w.WriteHeader(http.StatusNoContent)
}

// Confirmation renders the order confirmation payload. Financing context is
// taken from the session at most once, otherwise derived from the order's
// payment data.
func (h *Handler) Confirmation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id is required", nil)
		return
	}
	if h.Backend == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "commerce backend not configured", nil)
		return
	}
	order, err := h.Backend.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	f := h.formatter()
	locale := h.locale(r)
	pay, hasPayment := order.PrimaryPayment()
	info, source := h.resolveFinancing(r, order, pay, hasPayment)

	sessionID, _ := common.SessionID(r.Context())
	_ = events.Publish(r.Context(), h.Bus, events.FinancingConsumed{SessionID: sessionID, OrderID: order.ID, Source: source})

	var summary *payment.Summary
	if hasPayment {
		s := h.Providers.Summarize(pay, order.CurrencyCode, f, locale)
		summary = &s
	}
	res := discount.Evaluate(order.Cart())
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"orderId":         order.ID,
			"displayId":       order.DisplayID,
			"total":           f.FormatDecimal(order.Total, order.CurrencyCode, locale),
			"payment":         summary,
			"financing":       info,
			"financingSource": source,
			"financingLines":  financing.Lines(info, f, locale),
			"discount":        res.Present(f, order.CurrencyCode, locale),
		},
	})
}

func (h *Handler) resolveFinancing(r *http.Request, order *commerce.Order, pay commerce.Payment, hasPayment bool) (*financing.Info, string) {
	if stored, ok := handoff.FinancingChannel.Consume(r.Context(), h.session(r)); ok && matchesOrder(stored, order, pay, hasPayment) {
		return &stored, events.SourceHandoff
	}
	if !hasPayment {
		return nil, events.SourceNone
	}
	info := financing.Derive(financing.RecordFromPayment(pay))
	if info == nil {
		return nil, events.SourceNone
	}
	info.CurrencyCode = money.NormalizeCode(order.CurrencyCode)
	info.ProviderID = pay.ProviderID
	return info, events.SourceOrder
}

// matchesOrder rejects context left behind by another checkout: a different
// currency or provider, amounts that belong to neither the order nor its
// payment, or an order whose own payment data records a single charge.
func matchesOrder(info financing.Info, order *commerce.Order, pay commerce.Payment, hasPayment bool) bool {
	if info.CurrencyCode != "" && order.CurrencyCode != "" && info.CurrencyCode != money.NormalizeCode(order.CurrencyCode) {
		return false
	}
	if hasPayment && info.ProviderID != "" && pay.ProviderID != "" && info.ProviderID != pay.ProviderID {
		return false
	}
	actual := []decimal.Decimal{order.Total}
	if hasPayment {
		actual = append(actual, pay.Amount)
		if own := financing.Derive(financing.RecordFromPayment(pay)); own != nil && own.Path() == financing.PathSimple {
			return false
		}
	}
	return amountsOverlap([]decimal.Decimal{info.OriginalAmount, info.TotalFinancedAmount}, actual)
}

// amountsOverlap reports whether any non-zero stored amount equals a non-zero
// order amount. Missing amounts on either side are not held against the context.
func amountsOverlap(stored, actual []decimal.Decimal) bool {
	compared := false
	for _, s := range stored {
		if s.IsZero() {
			continue
		}
		for _, a := range actual {
			if a.IsZero() {
				continue
			}
			if s.Equal(a) {
				return true
			}
			compared = true
		}
	}
	return !compared
}

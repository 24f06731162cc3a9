package storefront

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-checkout/internal/common"
	"github.com/noah-isme/storefront-checkout/internal/money"
)

// Provider returns classification and display metadata for a payment provider id.
func (h *Handler) Provider(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	common.Data(w, http.StatusOK, h.Providers.Describe(id))
}

// FormatMoney formats an amount given in subunits.
func (h *Handler) FormatMoney(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("amount"))
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", map[string]string{
			"amount": "must be an integer amount in subunits",
		})
		return
	}
	code := money.NormalizeCode(q.Get("currency"))
	locale := h.locale(r)
	common.Data(w, http.StatusOK, map[string]any{
		"amount":    amount,
		"currency":  code,
		"locale":    locale,
		"formatted": h.formatter().Format(amount, code, locale),
	})
}

package payment

import (
	"strings"
	"time"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
	"github.com/noah-isme/storefront-checkout/internal/money"
)

// Display is the copy and icon shown for a provider.
type Display struct {
	Title   string `json:"title"`
	IconRef string `json:"iconRef"`
}

// Catalog is a closed lookup table of provider display metadata.
type Catalog struct {
	entries map[string]Display
}

// DefaultEntries is the provider table shipped with the storefront.
var DefaultEntries = map[string]Display{
	"pp_stripe_stripe":            {Title: "Credit card", IconRef: "credit-card"},
	"pp_stripe-ideal_stripe":      {Title: "iDeal", IconRef: "ideal"},
	"pp_stripe-bancontact_stripe": {Title: "Bancontact", IconRef: "bancontact"},
	"pp_paypal_paypal":            {Title: "PayPal", IconRef: "paypal"},
	"pp_system_default":           {Title: "Manual Payment", IconRef: "credit-card"},
	"pp_mercadopago_mercadopago":  {Title: "Mercado Pago", IconRef: "mercadopago"},
	MercadoCreditoID:              {Title: "Mercado Crédito", IconRef: "mercadocredito"},
}

// NewCatalog copies entries into a catalog. A nil map yields DefaultEntries.
func NewCatalog(entries map[string]Display) *Catalog {
	if entries == nil {
		entries = DefaultEntries
	}
	copied := make(map[string]Display, len(entries))
	for id, d := range entries {
		copied[id] = d
	}
	return &Catalog{entries: copied}
}

// Lookup returns the entry for id and whether it exists.
func (c *Catalog) Lookup(id string) (Display, bool) {
	if c == nil {
		return Display{}, false
	}
	d, ok := c.entries[id]
	return d, ok
}

// Display returns the entry for id or a fallback for unknown identifiers.
func (c *Catalog) Display(id string) Display {
	if d, ok := c.Lookup(id); ok {
		return d
	}
	return fallbackDisplay(id)
}

func fallbackDisplay(id string) Display {
	title := strings.TrimSpace(id)
	title = strings.TrimPrefix(title, "pp_")
	if i := strings.IndexAny(title, "_-"); i > 0 {
		title = title[:i]
	}
	if title == "" {
		title = fallbackTitleLabel
	} else {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return Display{Title: title, IconRef: fallbackIconRef}
}

// Provider bundles classification and display metadata for one identifier.
type Provider struct {
	ID           string       `json:"id"`
	Capabilities Capabilities `json:"capabilities"`
	Display      Display      `json:"display"`
	Known        bool         `json:"known"`
}

// Describe classifies id and resolves its display entry.
func (c *Catalog) Describe(id string) Provider {
	_, listed := c.Lookup(id)
	caps := Classify(id)
	return Provider{
		ID:           id,
		Capabilities: caps,
		Display:      c.Display(id),
		Known:        listed || caps.Known(),
	}
}

// Summary is the payment block rendered on the order confirmation view.
type Summary struct {
	Provider  Provider   `json:"provider"`
	Amount    string     `json:"amount"`
	CardLast4 string     `json:"cardLast4,omitempty"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
}

// Summarize builds the confirmation payment block for p.
func (c *Catalog) Summarize(p commerce.Payment, currencyCode string, f *money.Formatter, locale string) Summary {
	if p.CurrencyCode != "" {
		currencyCode = p.CurrencyCode
	}
	s := Summary{
		Provider: c.Describe(p.ProviderID),
		Amount:   f.FormatDecimal(p.Amount, currencyCode, locale),
		PaidAt:   p.CreatedAt,
	}
	if s.Provider.Capabilities.IsStripe {
		s.CardLast4 = p.CardLast4()
	}
	return s
}

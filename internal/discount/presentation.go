package discount

import (
	"github.com/noah-isme/storefront-checkout/internal/money"
)

// Presentation is the render-ready copy for the volume discount banner.
type Presentation struct {
	Result
	Reconciliation Reconciliation `json:"reconciliation"`
	Applied        bool           `json:"applied"`
	Threshold      int            `json:"threshold"`
	Percentage     int            `json:"percentage"`
	SentinelCode   string         `json:"sentinelCode"`
	DiscountLabel  string         `json:"discountLabel,omitempty"`
}

// Present formats r for display. The label is only set when a discount was applied.
func (r Result) Present(f *money.Formatter, currencyCode, locale string) Presentation {
	p := Presentation{
		Result:         r,
		Reconciliation: r.Reconciliation(),
		Applied:        r.Applied(),
		Threshold:      Threshold,
		Percentage:     Percentage,
		SentinelCode:   SentinelCode,
	}
	if p.Applied {
		p.DiscountLabel = f.FormatDecimal(r.DiscountAmount, currencyCode, locale)
	}
	return p
}

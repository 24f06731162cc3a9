package discount

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
)

// Kind is the closed set of adjustment codes the storefront interprets.
type Kind int

const (
	// KindUnrecognized adjustments are preserved but carry no meaning here.
	KindUnrecognized Kind = iota
	// KindBulk is the backend volume discount.
	KindBulk
)

func (k Kind) String() string {
	switch k {
	case KindBulk:
		return "bulk"
	default:
		return "unrecognized"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Adjustment is a typed view over a backend adjustment.
type Adjustment struct {
	Kind   Kind            `json:"kind"`
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// Classify tags a raw adjustment. Codes are matched exactly.
func Classify(adj commerce.Adjustment) Adjustment {
	kind := KindUnrecognized
	if adj.Code == SentinelCode {
		kind = KindBulk
	}
	return Adjustment{Kind: kind, Code: adj.Code, Amount: adj.Amount}
}

// ClassifyAll tags every adjustment, keeping order.
func ClassifyAll(adjs []commerce.Adjustment) []Adjustment {
	if len(adjs) == 0 {
		return nil
	}
	out := make([]Adjustment, 0, len(adjs))
	for _, adj := range adjs {
		out = append(out, Classify(adj))
	}
	return out
}

package discount

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
)

// Volume discount constants shared with storefront copy.
const (
	// Threshold is the number of units a cart needs to qualify.
	Threshold = 12
	// Percentage is the discount the backend applies once the cart qualifies.
	Percentage = 20
	// SentinelCode marks the adjustment the backend applies for the volume discount.
	SentinelCode = "BULK_20_AUTO"
)

// Result describes the volume-discount state of a cart snapshot.
type Result struct {
	IsEligible         bool            `json:"isEligible"`
	TotalItems         int             `json:"totalItems"`
	ItemsNeeded        int             `json:"itemsNeeded"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	HasBackendDiscount bool            `json:"hasBackendDiscount"`
}

// DefaultResult is returned for absent or empty carts.
func DefaultResult() Result {
	return Result{
		ItemsNeeded:    Threshold + 1,
		DiscountAmount: decimal.Zero,
	}
}

// Evaluate derives eligibility from cart and reconciles it with the
// adjustments already applied by the backend. The discount amount is only
// ever read from the backend adjustments.
func Evaluate(cart *commerce.Cart) Result {
	if cart == nil || len(cart.Items) == 0 {
		return DefaultResult()
	}
	res := Result{DiscountAmount: decimal.Zero}
	for _, item := range cart.Items {
		res.TotalItems += item.Quantity
		for _, adj := range ClassifyAll(item.Adjustments) {
			if adj.Kind != KindBulk {
				continue
			}
			res.HasBackendDiscount = true
			res.DiscountAmount = res.DiscountAmount.Add(adj.Amount)
		}
	}
	res.IsEligible = res.TotalItems >= Threshold
	res.ItemsNeeded = max(0, Threshold-res.TotalItems)
	return res
}

// HasBulkDiscount reports whether the backend applied a positive volume discount.
func HasBulkDiscount(cart *commerce.Cart) bool {
	return Evaluate(cart).Applied()
}

// Applied reports whether a positive backend volume discount is present.
func (r Result) Applied() bool {
	return r.HasBackendDiscount && r.DiscountAmount.IsPositive()
}

// Reconciliation compares eligibility with what the backend applied.
type Reconciliation string

const (
	// ReconcileOK means eligibility and the applied adjustment agree.
	ReconcileOK Reconciliation = "ok"
	// ReconcileMissing means the cart qualifies but no adjustment was applied.
	ReconcileMissing Reconciliation = "missing"
	// ReconcileUnexpected means an adjustment is present although the cart does not qualify.
	ReconcileUnexpected Reconciliation = "unexpected"
)

// Reconciliation classifies the result. It never alters the result itself.
func (r Result) Reconciliation() Reconciliation {
	switch {
	case r.IsEligible && !r.Applied():
		return ReconcileMissing
	case !r.IsEligible && r.HasBackendDiscount:
		return ReconcileUnexpected
	default:
		return ReconcileOK
	}
}

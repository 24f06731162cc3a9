package commerce

import (
	"time"

	"github.com/shopspring/decimal"
)

// Adjustment is a backend-applied price adjustment on a line item.
type Adjustment struct {
	ID     string          `json:"id,omitempty"`
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// LineItem is a single cart or order line.
type LineItem struct {
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title,omitempty"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Adjustments []Adjustment    `json:"adjustments,omitempty" validate:"dive"`
}

// Cart is a read-only snapshot of a backend cart.
type Cart struct {
	ID           string     `json:"id,omitempty"`
	CurrencyCode string     `json:"currency_code"`
	Items        []LineItem `json:"items" validate:"dive"`
}

// Payment is a captured or authorised payment on an order.
type Payment struct {
	ID           string          `json:"id,omitempty"`
	ProviderID   string          `json:"provider_id"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code,omitempty"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
	Data         map[string]any  `json:"data,omitempty"`
}

// PaymentCollection groups the payments made towards an order.
type PaymentCollection struct {
	ID       string    `json:"id,omitempty"`
	Payments []Payment `json:"payments"`
}

// Order is a read-only snapshot of a placed order.
type Order struct {
	ID                 string              `json:"id"`
	DisplayID          int                 `json:"display_id,omitempty"`
	CurrencyCode       string              `json:"currency_code"`
	Total              decimal.Decimal     `json:"total"`
	Items              []LineItem          `json:"items"`
	PaymentCollections []PaymentCollection `json:"payment_collections"`
}

// PrimaryPayment returns payment_collections[0].payments[0] when present.
func (o *Order) PrimaryPayment() (Payment, bool) {
	if o == nil || len(o.PaymentCollections) == 0 {
		return Payment{}, false
	}
	payments := o.PaymentCollections[0].Payments
	if len(payments) == 0 {
		return Payment{}, false
	}
	return payments[0], true
}

// Cart returns the order's lines as a cart snapshot so the discount evaluator can inspect them.
func (o *Order) Cart() *Cart {
	if o == nil {
		return nil
	}
	return &Cart{ID: o.ID, CurrencyCode: o.CurrencyCode, Items: o.Items}
}

// CardLast4 returns data.card_last4 when the provider recorded one.
func (p Payment) CardLast4() string {
	if p.Data == nil {
		return ""
	}
	if v, ok := p.Data["card_last4"].(string); ok {
		return v
	}
	return ""
}

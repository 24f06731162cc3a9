package financing

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
)

var recordKeys = []string{
	"total_financed_amount",
	"installment_amount",
	"financing_cost",
	"installments",
	"original_amount",
	"payment_type",
}

// RecordFromPayment extracts the financing record from a payment's provider
// data. It returns nil when the provider attached no financing fields.
func RecordFromPayment(p commerce.Payment) *PaymentRecord {
	if len(p.Data) == 0 {
		return nil
	}
	present := false
	for _, key := range recordKeys {
		if _, ok := p.Data[key]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	rec := &PaymentRecord{
		TotalFinancedAmount: decimalField(p.Data, "total_financed_amount"),
		InstallmentAmount:   decimalField(p.Data, "installment_amount"),
		FinancingCost:       decimalField(p.Data, "financing_cost"),
		OriginalAmount:      decimalField(p.Data, "original_amount"),
		PaymentType:         stringField(p.Data, "payment_type"),
		PaymentMethod:       stringField(p.Data, "payment_method"),
	}
	if n, ok := toDecimal(p.Data["installments"]); ok {
		rec.Installments = int(n.IntPart())
	}
	if rec.OriginalAmount.IsZero() {
		rec.OriginalAmount = p.Amount
	}
	return rec
}

func decimalField(data map[string]any, key string) decimal.Decimal {
	d, _ := toDecimal(data[key])
	return d
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		trimmed := strings.TrimSpace(x)
		if trimmed == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(trimmed)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

package financing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-checkout/internal/money"
)

// LineKind identifies a row of the financing breakdown.
type LineKind string

const (
	LineInstallment        LineKind = "installment"
	LineFinancingCost      LineKind = "financing_cost"
	LineTotalWithFinancing LineKind = "total_with_financing"
	LineCostPending        LineKind = "cost_pending"
)

// Line is a render-ready breakdown row.
type Line struct {
	Kind   LineKind `json:"kind"`
	Label  string   `json:"label"`
	Amount string   `json:"amount,omitempty"`
}

// Lines renders info following the confirmation policy: nothing for the
// simple path; the per-installment row always for the installment path; the
// cost and total rows only when financing has a cost, otherwise a row noting
// the provider will confirm the cost.
func Lines(info *Info, f *money.Formatter, locale string) []Line {
	if info.Path() != PathInstallment {
		return nil
	}
	code := info.CurrencyCode
	lines := []Line{{
		Kind:   LineInstallment,
		Label:  fmt.Sprintf("%d installments of", info.Installments),
		Amount: f.FormatDecimal(info.InstallmentAmount, code, locale),
	}}
	if !info.HasFinancingCost {
		return append(lines, Line{
			Kind:  LineCostPending,
			Label: "Financing cost will be confirmed by the payment provider",
		})
	}
	return append(lines,
		Line{
			Kind:   LineFinancingCost,
			Label:  "Financing cost",
			Amount: f.FormatDecimal(info.FinancingCost, code, locale),
		},
		Line{
			Kind:   LineTotalWithFinancing,
			Label:  "Total with financing",
			Amount: f.FormatDecimal(info.TotalFinancedAmount, code, locale),
		},
	)
}

var centUnit = decimal.New(1, -2)

// RecordedUnit returns the smallest recorded step for code: amounts recorded
// in hundredths step by 1, amounts recorded in display units by 0.01.
func RecordedUnit(f *money.Formatter, code string) decimal.Decimal {
	if f.IsNoDivision(code) {
		return centUnit
	}
	return decimal.NewFromInt(1)
}

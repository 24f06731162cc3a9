package financing

import (
	"github.com/shopspring/decimal"
)

// PaymentTypeDebitCard payments never carry installment financing.
const PaymentTypeDebitCard = "debit_card"

// PaymentRecord is the financing data the backend attaches to a payment.
type PaymentRecord struct {
	TotalFinancedAmount decimal.Decimal `json:"total_financed_amount"`
	InstallmentAmount   decimal.Decimal `json:"installment_amount"`
	FinancingCost       decimal.Decimal `json:"financing_cost"`
	Installments        int             `json:"installments" validate:"gte=0"`
	OriginalAmount      decimal.Decimal `json:"original_amount"`
	PaymentType         string          `json:"payment_type,omitempty"`
	PaymentMethod       string          `json:"payment_method,omitempty"`
}

// Path is the branch of the financing decision table.
type Path string

const (
	// PathSimple renders the payment as a single charge.
	PathSimple Path = "simple"
	// PathInstallment renders the per-installment breakdown.
	PathInstallment Path = "installment"
)

// Info is the checkout-scoped financing breakdown handed to the confirmation view.
type Info struct {
	HasFinancing        bool            `json:"hasFinancing"`
	HasFinancingCost    bool            `json:"hasFinancingCost"`
	OriginalAmount      decimal.Decimal `json:"originalAmount"`
	TotalFinancedAmount decimal.Decimal `json:"totalFinancedAmount"`
	FinancingCost       decimal.Decimal `json:"financingCost"`
	Installments        int             `json:"installments"`
	InstallmentAmount   decimal.Decimal `json:"installmentAmount"`
	PaymentType         string          `json:"paymentType,omitempty"`
	PaymentMethod       string          `json:"paymentMethod,omitempty"`
	CurrencyCode        string          `json:"currencyCode,omitempty"`
	ProviderID          string          `json:"providerId,omitempty"`
}

// Derive normalises rec and applies the financing decision table to it:
//
//	nil record                        -> nil
//	payment_type == debit_card        -> simple
//	installments == 1 && cost <= 0    -> simple
//	otherwise                         -> installment
//
// Normalising reads an installment count below 1 as a single payment and a
// negative financing cost as zero, so {installments: 0, cost: 0} is simple.
// All other fields pass through unchanged.
func Derive(rec *PaymentRecord) *Info {
	if rec == nil {
		return nil
	}
	installments := rec.Installments
	if installments < 1 {
		installments = 1
	}
	cost := rec.FinancingCost
	if cost.IsNegative() {
		cost = decimal.Zero
	}
	info := &Info{
		OriginalAmount:      rec.OriginalAmount,
		TotalFinancedAmount: rec.TotalFinancedAmount,
		FinancingCost:       cost,
		Installments:        installments,
		InstallmentAmount:   rec.InstallmentAmount,
		PaymentType:         rec.PaymentType,
		PaymentMethod:       rec.PaymentMethod,
	}
	if rec.PaymentType == PaymentTypeDebitCard {
		return info
	}
	if installments == 1 && !cost.IsPositive() {
		return info
	}
	info.HasFinancing = true
	info.HasFinancingCost = cost.IsPositive()
	return info
}

// Path reports which branch produced info. A nil Info is treated as simple.
func (i *Info) Path() Path {
	if i == nil || !i.HasFinancing {
		return PathSimple
	}
	return PathInstallment
}

// Consistent reports whether InstallmentAmount x Installments matches
// TotalFinancedAmount within one recorded minor unit per installment.
// unit is the smallest recorded step for the currency (1 for currencies
// recorded in hundredths, 0.01 for currencies recorded in display units).
func (i *Info) Consistent(unit decimal.Decimal) bool {
	if i == nil || !i.HasFinancing {
		return true
	}
	n := decimal.NewFromInt(int64(i.Installments))
	diff := i.InstallmentAmount.Mul(n).Sub(i.TotalFinancedAmount).Abs()
	return diff.LessThanOrEqual(unit.Abs().Mul(n))
}

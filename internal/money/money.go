package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NoDivisionCurrencies lists currencies whose recorded amount is already the
// display unit. Every other currency stores hundredths.
var NoDivisionCurrencies = []string{
	"MXN", "KRW", "JPY", "VND", "CLP", "PYG", "XAF", "XOF", "BIF", "DJF",
	"GNF", "KMF", "MGA", "RWF", "XPF", "HTG", "VUV", "XAG", "XDR", "XAU",
}

var hundred = decimal.NewFromInt(100)

// Money represents an amount recorded in a currency's subunits.
type Money struct {
	AmountInSubunits int64  `json:"amountInSubunits"`
	CurrencyCode     string `json:"currencyCode"`
}

// New builds a Money value with a normalised currency code.
func New(amount int64, currencyCode string) Money {
	return Money{AmountInSubunits: amount, CurrencyCode: NormalizeCode(currencyCode)}
}

// Major returns the display-unit amount using the default division policy.
func (m Money) Major() decimal.Decimal {
	return Default.Major(decimal.NewFromInt(m.AmountInSubunits), m.CurrencyCode)
}

// String renders the amount with the default formatter and locale.
func (m Money) String() string {
	return Default.Format(m.AmountInSubunits, m.CurrencyCode, "")
}

// NormalizeCode trims and uppercases an ISO-4217 code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsNoDivision reports whether the default formatter treats the currency as
// already expressed in display units.
func IsNoDivision(code string) bool {
	return Default.IsNoDivision(code)
}

package money

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const fractionDigits = 2

// Options configures a Formatter.
type Options struct {
	// NoDivision overrides the set of currencies used as-is. Nil keeps NoDivisionCurrencies.
	NoDivision    []string
	DefaultLocale string
}

// Formatter renders subunit amounts as localized currency strings.
type Formatter struct {
	noDivision map[string]struct{}
	fallback   language.Tag
}

// Default is the formatter used by the package-level helpers.
var Default = NewFormatter(Options{})

// NewFormatter constructs a formatter with the provided no-division set and default locale.
func NewFormatter(opts Options) *Formatter {
	codes := opts.NoDivision
	if codes == nil {
		codes = NoDivisionCurrencies
	}
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if normalized := NormalizeCode(code); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	fallback := language.AmericanEnglish
	if tag, err := language.Parse(strings.TrimSpace(opts.DefaultLocale)); err == nil && opts.DefaultLocale != "" {
		fallback = tag
	}
	return &Formatter{noDivision: set, fallback: fallback}
}

// Format renders amountInSubunits for currencyCode in locale.
func Format(amountInSubunits int64, currencyCode, locale string) string {
	return Default.Format(amountInSubunits, currencyCode, locale)
}

// ConvertToLocale renders an amount, degrading to the bare number when the currency is missing.
func ConvertToLocale(amountInSubunits int64, currencyCode, locale string) string {
	return Default.ConvertToLocale(amountInSubunits, currencyCode, locale)
}

// IsNoDivision reports whether code is matched (case-insensitively) by the no-division set.
func (f *Formatter) IsNoDivision(code string) bool {
	if f == nil {
		return false
	}
	_, ok := f.noDivision[NormalizeCode(code)]
	return ok
}

// Major converts a recorded amount into display units.
func (f *Formatter) Major(amount decimal.Decimal, code string) decimal.Decimal {
	if f.IsNoDivision(code) {
		return amount
	}
	return amount.Div(hundred)
}

// Format renders amountInSubunits for currencyCode in locale.
func (f *Formatter) Format(amountInSubunits int64, currencyCode, locale string) string {
	return f.FormatDecimal(decimal.NewFromInt(amountInSubunits), currencyCode, locale)
}

// ConvertToLocale behaves like Format and degrades to the bare localized
// number when currencyCode is empty. Codes outside the ISO table are still
// rendered, as "<CODE> <amount>".
func (f *Formatter) ConvertToLocale(amountInSubunits int64, currencyCode, locale string) string {
	return f.FormatDecimal(decimal.NewFromInt(amountInSubunits), currencyCode, locale)
}

// FormatDecimal renders a recorded amount that may carry a fractional part.
func (f *Formatter) FormatDecimal(amount decimal.Decimal, currencyCode, locale string) string {
	if f == nil {
		f = Default
	}
	tag := f.tag(locale)
	code := NormalizeCode(currencyCode)
	printer := message.NewPrinter(tag)

	major := f.Major(amount, code)
	rounded := major.Round(fractionDigits)
	digits := localizedDigits(printer, rounded.Abs())

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	if code == "" {
		return sign + digits
	}
	symbol := code
	spaced := true
	if unit, err := currency.ParseISO(code); err == nil {
		if s := strings.TrimSpace(printer.Sprint(currency.Symbol(unit))); s != "" {
			symbol = s
			spaced = isAlphabetic(s)
		}
	}
	if symbolAfter(tag) {
		return sign + digits + " " + symbol
	}
	if spaced {
		return sign + symbol + " " + digits
	}
	return sign + symbol + digits
}

// localizedDigits renders a non-negative amount already rounded to
// fractionDigits. The integer part goes through x/text as an int64 so that
// amounts beyond float64's 2^53 mantissa keep every digit.
func localizedDigits(printer *message.Printer, amount decimal.Decimal) string {
	whole := amount.Truncate(0)
	if !whole.BigInt().IsInt64() {
		return printer.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(fractionDigits)))
	}
	// 0.xx renders as the localized zero, separator and fraction; the zero
	// rune is dropped.
	frac := printer.Sprint(number.Decimal(amount.Sub(whole).InexactFloat64(), number.Scale(fractionDigits)))
	_, size := utf8.DecodeRuneInString(frac)
	return printer.Sprint(number.Decimal(whole.IntPart())) + frac[size:]
}

func (f *Formatter) tag(locale string) language.Tag {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return f.fallback
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return f.fallback
	}
	return tag
}

// trailingSymbolLanguages place the currency symbol after the amount.
var trailingSymbolLanguages = map[string]struct{}{
	"de": {}, "fr": {}, "it": {}, "ru": {}, "pl": {}, "cs": {},
	"sv": {}, "fi": {}, "nb": {}, "da": {}, "sk": {}, "hu": {},
}

func symbolAfter(tag language.Tag) bool {
	base, _ := tag.Base()
	region, _ := tag.Region()
	switch base.String() {
	case "es":
		return region.String() == "ES"
	case "pt":
		return region.String() == "PT"
	}
	_, ok := trailingSymbolLanguages[base.String()]
	return ok
}

func isAlphabetic(symbol string) bool {
	for _, r := range symbol {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return symbol != ""
}

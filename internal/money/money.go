// Package money turns loosely typed amount text into numbers and numbers back
// into display strings. ParseAmount is the only place amount text is interpreted.
package money

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numericPrefix matches the longest leading decimal, like a lenient float parser:
// "12.5abc" reads as 12.5, "5k" as 5.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads raw as a money amount. Thousands separators, currency symbols
// and whitespace are ignored. Anything that does not start with a number, or does
// not fit a finite float64, reads as 0.
func ParseAmount(raw string) float64 {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '€', '£', '¥', ' ', '\t', '\n', '\u00a0':
			return -1
		}

		return r
	}, raw)

	prefix := numericPrefix.FindString(clean)
	if prefix == "" {
		return 0
	}

	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return 0
	}

	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}

// Formatter renders amounts for display. Its output is never parsed back or compared.
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter builds a Formatter for a currency symbol and a BCP 47 language tag.
// An unparseable tag falls back to English.
func NewFormatter(symbol, lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}

	return &Formatter{
		symbol:  symbol,
		printer: message.NewPrinter(tag),
	}
}

var defaultFormatter = NewFormatter("$", "en")

// Money formats v with the currency symbol, grouped thousands and two decimals.
func (f *Formatter) Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	sign := ""
	if v < 0 && math.Round(v*100) != 0 {
		sign = "-"
	}

	return sign + f.symbol + f.printer.Sprintf("%.2f", math.Abs(v))
}

// FormatMoney formats v with the default "$" / English formatter.
func FormatMoney(v float64) string {
	return defaultFormatter.Money(v)
}

// FormatPercent returns actual as a rounded percentage of budget, or "" when the
// budget is not positive.
func FormatPercent(actual, budget float64) string {
	if budget <= 0 {
		return ""
	}

	pct := math.Round(actual / budget * 100)
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return ""
	}

	return fmt.Sprintf("%d%%", int64(pct))
}

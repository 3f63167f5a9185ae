package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitFactor converts between major and minor units (e.g. shillings and cents).
const MinorUnitFactor = 100

var minorFactor = decimal.NewFromInt(MinorUnitFactor)

func ToMinor(major int64) int64 {
	return major * MinorUnitFactor
}

func ToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorFactor)
}

// FormatMoney renders an amount as "KES 25,000.00".
func FormatMoney(currency string, amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	out := sign + b.String() + "." + frac
	if currency == "" {
		return out
	}
	return strings.ToUpper(currency) + " " + out
}

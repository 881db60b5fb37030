package pricing

import "github.com/shopspring/decimal"

// DefaultPrecision is the number of decimal places used when callers do not specify one.
const DefaultPrecision int32 = 2

var hundred = decimal.NewFromInt(100)

// Round rounds d to precision places, half away from zero.
func Round(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Round(precision)
}

// Percent returns rate percent of amount, unrounded.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// ApplyDiscount returns amount reduced by pct percent.
func ApplyDiscount(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Sub(pct.Div(hundred)))
}

func valueOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback
	}
	return *v
}

func firstPositive(values ...decimal.Decimal) (decimal.Decimal, bool) {
	for _, v := range values {
		if v.IsPositive() {
			return v, true
		}
	}
	return decimal.Zero, false
}

package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func gst(rate string) *pricing.HSNDetails {
	half := dec(rate).Div(decimal.NewFromInt(2))
	return &pricing.HSNDetails{
		HSNCode:  "8471",
		InterTax: []pricing.TaxRate{{TaxName: "igst", Rate: dec(rate)}},
		IntraTax: []pricing.TaxRate{
			{TaxName: "cgst", Rate: half},
			{TaxName: "sgst", Rate: half},
		},
	}
}

package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/pricing"
)

func cessSchedule() *pricing.HSNDetails {
	return &pricing.HSNDetails{IntraTax: []pricing.TaxRate{
		{TaxName: "cess", Rate: dec("1"), Compound: true},
		{TaxName: "cgst", Rate: dec("9")},
		{TaxName: "sgst", Rate: dec("9")},
	}}
}

func TestSetTaxBreakupPutsCompoundLast(t *testing.T) {
	items := []pricing.CartItem{
		{ProductID: "a", HSNDetails: cessSchedule()},
		{ProductID: "b", HSNDetails: gst("18")},
		{ProductID: "c"},
	}

	breakup := pricing.SetTaxBreakup(items, false)

	require.Equal(t, []pricing.TaxBreakupEntry{
		{TaxName: "cgst"},
		{TaxName: "sgst"},
		{TaxName: "cess", Compound: true},
	}, breakup)
}

func TestSetTaxBreakupCompoundNeverPrecedesNonCompound(t *testing.T) {
	items := []pricing.CartItem{
		{HSNDetails: &pricing.HSNDetails{InterTax: []pricing.TaxRate{{TaxName: "cess", Rate: dec("2"), Compound: true}}}},
		{HSNDetails: &pricing.HSNDetails{InterTax: []pricing.TaxRate{{TaxName: "igst", Rate: dec("18")}}}},
		{HSNDetails: &pricing.HSNDetails{InterTax: []pricing.TaxRate{{TaxName: "surcharge", Rate: dec("1"), Compound: true}}}},
		{HSNDetails: &pricing.HSNDetails{InterTax: []pricing.TaxRate{{TaxName: "vat", Rate: dec("5")}}}},
	}

	breakup := pricing.SetTaxBreakup(items, true)

	seenCompound := false
	for _, entry := range breakup {
		if entry.Compound {
			seenCompound = true
			continue
		}
		require.False(t, seenCompound, "non-compound %s after a compound entry", entry.TaxName)
	}
	require.Len(t, breakup, 4)
}

func TestCalculateShippingTaxAggregate(t *testing.T) {
	items := []pricing.CartItem{
		{ProductID: "a", Quantity: dec("1"), HSNDetails: gst("18")},
		{ProductID: "b", Quantity: dec("1"), HSNDetails: gst("18")},
	}
	cv := pricing.CartValue{
		TotalValue: dec("1000"),
		TotalTax:   dec("180"),
		TaxTotals:  map[string]decimal.Decimal{"cgst": dec("90"), "sgst": dec("90")},
	}

	res := pricing.CalculateShippingTax(pricing.ShippingTaxInput{
		TotalShipping: dec("100"),
		CartValue:     cv,
		Items:         items,
		IsBeforeTax:   true,
		Precision:     2,
	})

	requireDecimal(t, "18", res.CartValue.ShippingTax)
	requireDecimal(t, "99", res.CartValue.TaxTotals["cgst"])
	requireDecimal(t, "198", res.CartValue.TotalTax)
	requireDecimal(t, "1100", res.CartValue.TaxableAmount)
	requireDecimal(t, "1298", res.CartValue.CalculatedTotal)
	requireDecimal(t, "90", cv.TaxTotals["cgst"], "input cart value must not change")
	require.Len(t, res.Breakup, 2)
}

func TestCalculateShippingTaxItemWise(t *testing.T) {
	hidden := false
	items := []pricing.CartItem{
		{
			ProductID:       "a",
			Quantity:        dec("5"),
			AskedQuantity:   dec("5"),
			ShippingCharges: dec("10"),
			HSNDetails:      cessSchedule(),
			TotalTax:        dec("100"),
		},
		{
			ProductID:       "b",
			Quantity:        dec("1"),
			AskedQuantity:   dec("1"),
			ShippingCharges: dec("40"),
			HSNDetails:      cessSchedule(),
			ShowPrice:       &hidden,
		},
	}

	res := pricing.CalculateShippingTax(pricing.ShippingTaxInput{
		TotalShipping:       dec("90"),
		CartValue:           pricing.CartValue{},
		Items:               items,
		IsBeforeTax:         true,
		Precision:           2,
		ItemWiseShippingTax: true,
	})

	// 50 shipping at 9% each, cess 1% of 9.
	first := res.Items[0]
	requireDecimal(t, "4.5", first.TaxValues["cgst"])
	requireDecimal(t, "4.5", first.TaxValues["sgst"])
	requireDecimal(t, "0.09", first.TaxValues["cess"])
	requireDecimal(t, "9.09", first.ShippingTax)
	requireDecimal(t, "109.09", first.TotalTax)
	requireDecimal(t, "0", res.Items[1].ShippingTax)
	requireDecimal(t, "9.09", res.CartValue.ShippingTax)
	require.Nil(t, items[0].TaxValues, "input items must not change")
	require.Len(t, res.Items, 2)
}

func TestCalculateShippingTaxAfterTaxIsZero(t *testing.T) {
	items := []pricing.CartItem{{ProductID: "a", Quantity: dec("1"), HSNDetails: gst("18")}}
	cv := pricing.CartValue{TotalValue: dec("500"), PfRate: dec("5")}

	res := pricing.CalculateShippingTax(pricing.ShippingTaxInput{
		TotalShipping: dec("50"),
		CartValue:     cv,
		Items:         items,
		IsBeforeTax:   false,
		Precision:     2,
	})

	requireDecimal(t, "0", res.CartValue.ShippingTax)
	requireDecimal(t, "505", res.CartValue.TaxableAmount)
	requireDecimal(t, "555", res.CartValue.CalculatedTotal)
}

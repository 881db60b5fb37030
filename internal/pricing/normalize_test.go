package pricing_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/pricing"
)

func TestRawProductCoercesNumericStringsAndKeepsExtra(t *testing.T) {
	var raw pricing.RawProduct
	err := json.Unmarshal([]byte(`{"productId":"p-1","quantity":"3","packagingQty":"2","pfItemValue":1.5,"brand":"acme"}`), &raw)
	require.NoError(t, err)

	require.NotNil(t, raw.Quantity)
	requireDecimal(t, "3", *raw.Quantity)
	requireDecimal(t, "2", *raw.PackagingQty)
	requireDecimal(t, "1.5", raw.PfItemValue)
	require.JSONEq(t, `"acme"`, string(raw.Extra["brand"]))
	require.NotContains(t, raw.Extra, "productId")

	out, err := json.Marshal(raw)
	require.NoError(t, err)
	require.Contains(t, string(out), `"brand":"acme"`)
}

func TestRawProductRejectsWrongType(t *testing.T) {
	var raw pricing.RawProduct
	err := json.Unmarshal([]byte(`{"productId":"p-1","quantity":{"value":3}}`), &raw)
	require.Error(t, err)
	require.True(t, errors.Is(err, pricing.ErrInvalidPricingPayload))
}

func TestPriceListResponseKeepsUnknownFields(t *testing.T) {
	var resp pricing.PriceListResponse
	err := json.Unmarshal([]byte(`{"productId":"p-1","MasterPrice":"120","BasePrice":100,"isProductAvailableInPriceList":true,"discounts":[{"min_qty":"10","max_qty":0,"Value":"5"}],"currency":"INR"}`), &resp)
	require.NoError(t, err)

	requireDecimal(t, "120", *resp.MasterPrice)
	requireDecimal(t, "100", *resp.BasePrice)
	require.Len(t, resp.Discounts, 1)
	requireDecimal(t, "10", resp.Discounts[0].MinQuantity)
	require.True(t, resp.OverridesPricelist())
	require.Contains(t, resp.Extra, "currency")
}

func priceList() *pricing.PriceListResponse {
	return &pricing.PriceListResponse{
		ProductID:                     "p-1",
		MasterPrice:                   decPtr("120"),
		BasePrice:                     decPtr("100"),
		IsProductAvailableInPriceList: true,
		PriceListCode:                 "PL-01",
		Discounts: []pricing.DiscountRange{
			{MinQuantity: dec("10"), Value: dec("5"), CantCombineWithOtherDisCounts: true, DiscountID: "d-10"},
			{MinQuantity: dec("50"), Value: dec("8")},
		},
	}
}

func TestAssignPricelistDiscountsOverrideActive(t *testing.T) {
	item, err := pricing.AssignPricelistDiscounts(pricing.RawProduct{ProductID: "p-1", Quantity: decPtr("10")}, priceList(), true)
	require.NoError(t, err)

	requireDecimal(t, "100", item.UnitPrice)
	requireDecimal(t, "100", item.UnitListPrice)
	requireDecimal(t, "1000", item.TotalPrice)
	requireDecimal(t, "5", item.Discount)
	requireDecimal(t, "95", item.DiscountedPrice)
	requireDecimal(t, "16.67", item.OverrideDiscount.Round(2))
	require.True(t, item.CantCombineWithOtherDisCounts)
	require.NotNil(t, item.NextSuitableDiscount)
	requireDecimal(t, "8", item.NextSuitableDiscount.Value)
	require.Equal(t, "d-10", item.DiscountDetails.DiscountID)
	require.Equal(t, "PL-01", item.DiscountDetails.PriceListCode)
	require.False(t, item.PriceNotAvailable)
	require.True(t, item.IsOveridePricelist)
	requireDecimal(t, "10", item.AskedQuantity)
}

func TestAssignPricelistDiscountsOverrideInactive(t *testing.T) {
	resp := priceList()
	off := false
	resp.IsOveridePricelist = &off

	item, err := pricing.AssignPricelistDiscounts(pricing.RawProduct{ProductID: "p-1", Quantity: decPtr("10")}, resp, false)
	require.NoError(t, err)

	requireDecimal(t, "120", item.UnitListPrice)
	requireDecimal(t, "100", item.DiscountedPrice)
	requireDecimal(t, "21.67", item.Discount.Round(2))
	require.False(t, item.IsOveridePricelist)
	requireDecimal(t, "1200", item.TotalLP)
}

func TestAssignPricelistDiscountsQuantityFallback(t *testing.T) {
	cases := []struct {
		name string
		raw  pricing.RawProduct
		want string
	}{
		{"explicit", pricing.RawProduct{Quantity: decPtr("7"), MinOrderQuantity: decPtr("4")}, "7"},
		{"min order", pricing.RawProduct{MinOrderQuantity: decPtr("4"), PackagingQty: decPtr("6")}, "4"},
		{"packaging qty", pricing.RawProduct{PackagingQty: decPtr("6")}, "6"},
		{"packaging quantity", pricing.RawProduct{PackagingQuantity: decPtr("12")}, "12"},
		{"floor", pricing.RawProduct{}, "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.raw.ProductID = "p-1"
			item, err := pricing.AssignPricelistDiscounts(tc.raw, nil, false)
			require.NoError(t, err)
			requireDecimal(t, tc.want, item.Quantity)
		})
	}
}

func TestAssignPricelistDiscountsPriceNotAvailable(t *testing.T) {
	resp := priceList()
	resp.BasePrice = nil

	item, err := pricing.AssignPricelistDiscounts(pricing.RawProduct{ProductID: "p-1"}, resp, true)
	require.NoError(t, err)
	require.True(t, item.PriceNotAvailable)
	requireDecimal(t, "120", item.UnitPrice)
	requireDecimal(t, "0", item.OverrideDiscount)

	item, err = pricing.AssignPricelistDiscounts(pricing.RawProduct{ProductID: "p-1"}, resp, false)
	require.NoError(t, err)
	require.False(t, item.PriceNotAvailable)

	item, err = pricing.AssignPricelistDiscounts(pricing.RawProduct{ProductID: "p-1"}, nil, true)
	require.NoError(t, err)
	require.True(t, item.PriceNotAvailable)
	requireDecimal(t, "0", item.UnitPrice)
}

func TestAssignPricelistDiscountsRejectsMismatchedEntry(t *testing.T) {
	_, err := pricing.AssignPricelistDiscounts(pricing.RawProduct{ProductID: "p-2"}, priceList(), true)
	require.ErrorIs(t, err, pricing.ErrInvalidPricingPayload)

	_, err = pricing.AssignPricelistDiscounts(pricing.RawProduct{}, nil, true)
	require.ErrorIs(t, err, pricing.ErrInvalidPricingPayload)
}

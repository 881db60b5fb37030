package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/cart"
	"github.com/growmax/storefront-pricing/internal/obs"
	"github.com/growmax/storefront-pricing/internal/pricelist"
	"github.com/growmax/storefront-pricing/internal/pricing"
)

type stubEnricher struct {
	req    pricelist.Request
	update bool
	err    error
}

func (s *stubEnricher) Enrich(_ context.Context, req pricelist.Request, products []pricing.RawProduct, update bool) ([]pricing.CartItem, error) {
	s.req = req
	s.update = update
	if s.err != nil {
		return nil, s.err
	}
	out := make([]pricing.CartItem, 0, len(products))
	for _, p := range products {
		out = append(out, pricing.CartItem{
			ProductID:                     p.ProductID,
			Quantity:                      decimal.NewFromInt(2),
			AskedQuantity:                 decimal.NewFromInt(2),
			UnitPrice:                     decimal.NewFromInt(50),
			UnitListPrice:                 decimal.NewFromInt(50),
			IsProductAvailableInPriceList: true,
		})
	}
	return out, nil
}

func lineItem(unit string) pricing.CartItem {
	return pricing.CartItem{
		ProductID:                     "p-1",
		Quantity:                      decimal.NewFromInt(3),
		AskedQuantity:                 decimal.NewFromInt(3),
		UnitPrice:                     decimal.RequireFromString(unit),
		UnitListPrice:                 decimal.RequireFromString(unit),
		IsProductAvailableInPriceList: true,
		HSNDetails: &pricing.HSNDetails{
			IntraTax: []pricing.TaxRate{{TaxName: "vat", Rate: decimal.NewFromInt(10)}},
		},
	}
}

func TestCalculateItems(t *testing.T) {
	svc := &cart.Service{Precision: 2, NewID: func() string { return "calc-1" }}

	calc, err := svc.Calculate(context.Background(), cart.CalculateRequest{Items: []pricing.CartItem{lineItem("33.335")}})
	require.NoError(t, err)
	require.Equal(t, "calc-1", calc.ID)
	require.Len(t, calc.Items, 1)
	require.NotEmpty(t, calc.Items[0].ItemNo)
	require.True(t, decimal.RequireFromString("100.005").Equal(calc.CartValue.TotalValue))
	require.True(t, decimal.RequireFromString("9.99").Equal(calc.CartValue.TotalTax), calc.CartValue.TotalTax.String())
}

func TestCalculateRequestOverridesDefaults(t *testing.T) {
	svc := &cart.Service{Precision: 2, IDs: pricing.SequenceIDs{Base: 1}}
	zero := int32(0)

	calc, err := svc.Calculate(context.Background(), cart.CalculateRequest{
		Items:     []pricing.CartItem{lineItem("33.335")},
		Precision: &zero,
		Settings:  &pricing.Settings{RoundingAdjustment: true},
	})
	require.NoError(t, err)
	require.Equal(t, "1", calc.Items[0].ItemNo)
	require.True(t, decimal.NewFromInt(9).Equal(calc.CartValue.TotalTax), calc.CartValue.TotalTax.String())
	require.True(t, decimal.NewFromInt(109).Equal(calc.CartValue.GrandTotal), calc.CartValue.GrandTotal.String())
}

func TestCalculateProductsEnriched(t *testing.T) {
	enricher := &stubEnricher{}
	svc := &cart.Service{Pricelist: enricher}

	calc, err := svc.Calculate(context.Background(), cart.CalculateRequest{
		Products:              []pricing.RawProduct{{ProductID: "p-9"}},
		CurrencyCode:          "INR",
		CompanyID:             "c-1",
		SellerID:              "s-1",
		ShouldUpdateDiscounts: true,
	})
	require.NoError(t, err)
	require.Equal(t, pricelist.Request{CurrencyCode: "INR", CompanyID: "c-1", SellerID: "s-1"}, enricher.req)
	require.True(t, enricher.update)
	require.Equal(t, "p-9", calc.Items[0].ProductID)
	require.True(t, decimal.NewFromInt(100).Equal(calc.CartValue.GrandTotal))
}

func TestCalculateProductsWithoutPricelist(t *testing.T) {
	svc := &cart.Service{}
	_, err := svc.Calculate(context.Background(), cart.CalculateRequest{Products: []pricing.RawProduct{{ProductID: "p-9"}}})
	require.ErrorIs(t, err, cart.ErrPricelistDisabled)
}

func TestCalculateRecordsMetrics(t *testing.T) {
	obs.MustRegisterDomainMetrics("storefront", prometheus.NewRegistry())
	okBefore := testutil.ToFloat64(obs.PricingCalculationsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(obs.PricingCalculationsTotal.WithLabelValues("error"))

	svc := &cart.Service{Pricelist: &stubEnricher{err: pricelist.ErrPricingUnavailable}}
	_, err := svc.Calculate(context.Background(), cart.CalculateRequest{Items: []pricing.CartItem{lineItem("10")}})
	require.NoError(t, err)
	_, err = svc.Calculate(context.Background(), cart.CalculateRequest{Products: []pricing.RawProduct{{ProductID: "p-1"}}})
	require.True(t, errors.Is(err, pricelist.ErrPricingUnavailable))

	require.Equal(t, okBefore+1, testutil.ToFloat64(obs.PricingCalculationsTotal.WithLabelValues("ok")))
	require.Equal(t, errBefore+1, testutil.ToFloat64(obs.PricingCalculationsTotal.WithLabelValues("error")))
}

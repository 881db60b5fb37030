package pricelist_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/pricelist"
	"github.com/growmax/storefront-pricing/internal/resilience"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

func TestHTTPClientFetchDiscounts(t *testing.T) {
	var got pricelist.Request
	var tenantHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/discounts/lookup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		tenantHeader = r.Header.Get(tenant.DefaultHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"productId":"p-1","MasterPrice":"120.50","BasePrice":100,"isProductAvailableInPriceList":true,"discounts":[{"min_qty":10,"Value":"5"}],"priceListCode":"PL-01"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := &pricelist.HTTPClient{
		BaseURL: srv.URL + "/",
		HTTP:    resilience.HTTPClient{Client: srv.Client(), Timeout: time.Second},
	}
	ctx := tenant.WithTenant(context.Background(), "acme")

	entries, err := client.FetchDiscounts(ctx, pricelist.Request{ProductIDs: []string{"p-1"}, CurrencyCode: "INR", CompanyID: "c-9"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "p-1", entries[0].ProductID)
	require.Equal(t, "120.5", entries[0].MasterPrice.String())
	require.Len(t, entries[0].Discounts, 1)
	require.Equal(t, "acme", tenantHeader)
	require.Equal(t, []string{"p-1"}, got.ProductIDs)
	require.Equal(t, "INR", got.CurrencyCode)
	require.Equal(t, "c-9", got.CompanyID)
}

func TestHTTPClientFetchDiscountsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "price list locked", http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	client := &pricelist.HTTPClient{BaseURL: srv.URL, HTTP: resilience.HTTPClient{Client: srv.Client()}}
	_, err := client.FetchDiscounts(context.Background(), pricelist.Request{ProductIDs: []string{"p-1"}})
	require.ErrorIs(t, err, pricelist.ErrUpstream)
	require.Contains(t, err.Error(), "409")
}

func TestHTTPClientFetchDiscountsNoProducts(t *testing.T) {
	client := &pricelist.HTTPClient{BaseURL: "http://unused.invalid", HTTP: resilience.HTTPClient{Client: http.DefaultClient}}
	entries, err := client.FetchDiscounts(context.Background(), pricelist.Request{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

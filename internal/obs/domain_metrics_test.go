package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/obs"
)

func TestMustRegisterDomainMetricsIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("storefront", reg)
	obs.MustRegisterDomainMetrics("storefront", reg)

	require.NotNil(t, obs.PricingCalculationsTotal)
	require.NotNil(t, obs.CheckoutValidationTotal)
	require.NotNil(t, obs.PricelistCacheTotal)

	before := testutil.ToFloat64(obs.PricelistCacheTotal.WithLabelValues("hit"))
	obs.PricelistCacheTotal.WithLabelValues("hit").Add(3)
	require.Equal(t, before+3, testutil.ToFloat64(obs.PricelistCacheTotal.WithLabelValues("hit")))
}

func TestNewHTTPMetricsReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("storefront", nil, reg)
	second := obs.NewHTTPMetrics("storefront", nil, reg)
	require.Same(t, first.Requests, second.Requests)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 10.5}, obs.ParseBucketsCSV(" 5, x, -1, 10.5,"))
	require.Nil(t, obs.ParseBucketsCSV(""))
}

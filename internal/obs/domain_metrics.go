package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingCalculationsTotal counts cart calculation outcomes.
	PricingCalculationsTotal *prometheus.CounterVec
	// PricingCalculationDuration records cart calculation latency in milliseconds.
	PricingCalculationDuration *prometheus.HistogramVec
	// PricingCartLines tracks how many lines each calculated cart carried.
	PricingCartLines prometheus.Histogram
	// CheckoutValidationTotal counts order and quote validation outcomes.
	CheckoutValidationTotal *prometheus.CounterVec
	// PricelistCacheTotal counts price-list cache lookups by outcome.
	PricelistCacheTotal *prometheus.CounterVec
	// PricelistUpstreamTotal counts discount service calls by outcome.
	PricelistUpstreamTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingCalculationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_calculations_total",
			Help:      "Count of cart calculations by outcome.",
		}, []string{"result"}))
		PricingCalculationDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_calculation_duration_ms",
			Help:      "Latency of cart calculations in milliseconds, including price-list enrichment.",
			Buckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"result"}))
		PricingCartLines = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_cart_lines",
			Help:      "Number of lines per calculated cart.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}))
		CheckoutValidationTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_validation_total",
			Help:      "Count of order and quote validations by outcome.",
		}, []string{"kind", "result"}))
		PricelistCacheTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricelist_cache_total",
			Help:      "Count of price-list cache lookups by outcome.",
		}, []string{"result"}))
		PricelistUpstreamTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricelist_upstream_total",
			Help:      "Count of discount service requests by outcome.",
		}, []string{"result"}))
	})
}

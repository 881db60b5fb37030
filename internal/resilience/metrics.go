package resilience

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BreakerState exposes the current breaker state per upstream target.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breaker_state",
			Help: "Current breaker state: 0=closed,1=open,2=half-open",
		},
		[]string{"target"},
	)
	// BreakerTransitions counts state changes per upstream target.
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breaker_transition_total",
			Help: "Count of breaker state transitions",
		},
		[]string{"target", "from", "to"},
	)
	// BreakerOpenedTotal counts how often each breaker opened.
	BreakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breaker_open_total",
			Help: "Number of times a breaker transitioned into open state",
		},
		[]string{"target"},
	)
	// UpstreamAttempts counts individual HTTP attempts made through HTTPClient.
	UpstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_attempts_total",
			Help: "Count of upstream HTTP attempts by target and outcome",
		},
		[]string{"target", "result"},
	)
)

// MustRegisterMetrics registers the breaker and upstream collectors. Collectors
// that are already registered are left in place.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{BreakerState, BreakerTransitions, BreakerOpenedTotal, UpstreamAttempts} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(fmt.Errorf("register resilience metric: %w", err))
		}
	}
}

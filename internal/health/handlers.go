package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/resilience"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness, e.g. to drain traffic during shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker probes a dependency the service cannot serve without.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// RedisChecker pings the shared Redis client.
type RedisChecker struct {
	Client *redis.Client
}

func (RedisChecker) Name() string { return "redis" }

func (c RedisChecker) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checkers []Checker
	// Breakers are reported by state but never fail readiness; an open
	// breaker only degrades price-list enrichment.
	Breakers map[string]*resilience.Breaker
	Timeout  time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "shutting_down"})
		return
	}
	healthy := true
	checks := make(map[string]string, len(h.Checkers))
	for _, c := range h.Checkers {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
		err := c.Ping(ctx)
		cancel()
		if err != nil {
			healthy = false
			checks[c.Name()] = err.Error()
			continue
		}
		checks[c.Name()] = "ok"
	}
	body := map[string]any{"status": "ok", "checks": checks}
	if len(h.Breakers) > 0 {
		states := make(map[string]string, len(h.Breakers))
		for name, b := range h.Breakers {
			states[name] = b.State().String()
		}
		body["breakers"] = states
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}
	common.JSON(w, status, body)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.Timeout
}

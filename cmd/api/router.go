package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/growmax/storefront-pricing/internal/cart"
	"github.com/growmax/storefront-pricing/internal/checkout"
	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/health"
	"github.com/growmax/storefront-pricing/internal/obs"
	"github.com/growmax/storefront-pricing/internal/ratelimit"
	"github.com/growmax/storefront-pricing/internal/security"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

type pprofConfig struct {
	Enabled bool
	User    string
	Pass    string
}

type routerDeps struct {
	Logger         zerolog.Logger
	Tracing        bool
	Metrics        *obs.HTTPMetrics
	MetricsHandler http.Handler
	CORSOrigins    []string
	MaxBodyBytes   int64
	Headers        security.Headers
	Tenant         *tenant.Resolver
	TenantRequired bool
	RateLimit      ratelimit.Handler
	Cart           *cart.Handler
	Checkout       *checkout.Handler
	Health         health.Handler
	Pprof          pprofConfig
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(d.Tenant.Middleware)
	if d.Tracing {
		r.Use(obs.RouteSpanMiddleware)
	}
	if d.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger, Quiet: []string{"/health/live", "/health/ready", "/metrics"}}.Middleware)
	r.Use(d.Headers.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(d.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", tenant.DefaultHeader},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}
	if d.Pprof.Enabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), d.Pprof.User, d.Pprof.Pass))
	}

	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: d.MaxBodyBytes}.Middleware)
		if d.TenantRequired {
			v.Use(tenant.Require)
		}
		v.Use(common.GatewayIdentity)
		v.Use(d.RateLimit.Middleware)

		v.Route("/cart", func(c chi.Router) {
			c.Post("/calculate", d.Cart.Calculate)
			c.Post("/validate/order", d.Checkout.ValidateOrder)
			c.Post("/validate/quote", d.Checkout.ValidateQuote)
		})
	})

	if d.Tracing {
		return obs.ServerTracing(r)
	}
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

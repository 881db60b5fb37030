package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/growmax/storefront-pricing/internal/cart"
	"github.com/growmax/storefront-pricing/internal/checkout"
	"github.com/growmax/storefront-pricing/internal/config"
	"github.com/growmax/storefront-pricing/internal/health"
	"github.com/growmax/storefront-pricing/internal/lock"
	"github.com/growmax/storefront-pricing/internal/obs"
	"github.com/growmax/storefront-pricing/internal/pricelist"
	"github.com/growmax/storefront-pricing/internal/pricing"
	"github.com/growmax/storefront-pricing/internal/ratelimit"
	"github.com/growmax/storefront-pricing/internal/resilience"
	"github.com/growmax/storefront-pricing/internal/security"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

const discountTarget = "discount-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	resilience.MustRegisterMetrics(nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-pricing",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
		if cfg.MetricsEnabled {
			if err := redisotel.InstrumentMetrics(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	} else {
		logger.Warn().Msg("REDIS_URL not set: price-list cache disabled, rate limits are per instance")
	}

	breaker := resilience.NewBreaker(5, 0.5, cfg.DiscountBreakerCooldown).
		WithTarget(discountTarget).
		WithLogger(logger)

	cartSvc := &cart.Service{
		Precision: cfg.PricingPrecision,
		Settings: pricing.Settings{
			RoundingAdjustment:  cfg.PricingRoundingAdjustment,
			ItemWiseShippingTax: cfg.PricingItemWiseShippingTax,
			ShippingBeforeTax:   cfg.PricingShippingBeforeTax,
		},
	}
	if cfg.DiscountServiceURL != "" {
		upstream := resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     breaker,
			Target:      discountTarget,
			MaxAttempts: cfg.DiscountServiceAttempts,
			Jitter:      0.2,
			Timeout:     cfg.DiscountServiceTimeout,
		}
		var cache *pricelist.Cache
		var locker *lock.Locker
		if redisClient != nil {
			cache = pricelist.NewCache(redisClient, cfg.PricelistCacheTTL)
			locker = &lock.Locker{Client: redisClient, Wait: cfg.DiscountServiceTimeout}
		}
		cartSvc.Pricelist = &pricelist.Service{
			Client: &pricelist.HTTPClient{
				BaseURL:      cfg.DiscountServiceURL,
				HTTP:         upstream,
				TenantHeader: cfg.TenantHeader,
			},
			Cache:  cache,
			Locker: locker,
			Logger: logger.With().Str("component", "pricelist").Logger(),
		}
	} else {
		logger.Warn().Msg("DISCOUNT_SERVICE_URL not set: only pre-priced items can be calculated")
	}

	formatter, err := checkout.NewAccountingFormatter(cfg.CurrencyCode, cfg.CurrencyLocale)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure currency formatter")
	}

	limiterStore, err := ratelimit.NewStore(redisClient, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("configure rate limiter")
	}

	validate := validator.New()

	var httpMetrics *obs.HTTPMetrics
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), nil)
		metricsHandler = promhttp.Handler()
	}

	healthHandler := health.Handler{
		Breakers: map[string]*resilience.Breaker{discountTarget: breaker},
	}
	if redisClient != nil {
		healthHandler.Checkers = append(healthHandler.Checkers, health.RedisChecker{Client: redisClient})
	}

	router := newRouter(routerDeps{
		Logger:         logger,
		Tracing:        tracingEnabled,
		Metrics:        httpMetrics,
		MetricsHandler: metricsHandler,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Headers: security.Headers{
			EnableHSTS:            cfg.HSTSEnabled,
			HSTSMaxAge:            cfg.HSTSMaxAge,
			HSTSIncludeSubdomains: cfg.HSTSIncludeSubdomains,
		},
		Tenant:         tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, cfg.TenantDefault),
		TenantRequired: cfg.TenantRequired,
		RateLimit: ratelimit.Handler{
			Limiter: ratelimit.NewLimiter(limiterStore, cfg.RateLimitPerMinute),
			OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
		},
		Cart: &cart.Handler{Svc: cartSvc, Validate: validate, Logger: logger},
		Checkout: &checkout.Handler{
			Cart:     cartSvc,
			Validate: validate,
			Logger:   logger,
			Policy: checkout.Policy{
				MinimumOrder: checkout.Minimum{Enabled: cfg.MinOrderEnabled, Value: cfg.MinOrderValue},
				MinimumQuote: checkout.Minimum{Enabled: cfg.MinQuoteEnabled, Value: cfg.MinQuoteValue},
				FutureStock:  cfg.FutureStock,
				Formatter:    formatter,
			},
		},
		Health: healthHandler,
		Pprof:  pprofConfig{Enabled: cfg.PprofEnabled, User: cfg.PprofUser, Pass: cfg.PprofPass},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-stop
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	<-drained
	logger.Info().Msg("server stopped")
}

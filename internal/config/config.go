package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	RateLimitPerMinute int

	HSTSEnabled           bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	DiscountServiceURL      string
	DiscountServiceTimeout  time.Duration
	DiscountServiceAttempts int
	DiscountBreakerCooldown time.Duration
	PricelistCacheTTL       time.Duration

	PricingPrecision           int32
	PricingRoundingAdjustment  bool
	PricingItemWiseShippingTax bool
	PricingShippingBeforeTax   bool

	MinOrderEnabled bool
	MinOrderValue   decimal.Decimal
	MinQuoteEnabled bool
	MinQuoteValue   decimal.Decimal
	FutureStock     bool
	CurrencyCode    string
	CurrencyLocale  string

	TenantHeader     string
	TenantRootDomain string
	TenantDefault    string
	TenantRequired   bool

	LogFormat            string
	LogLevel             string
	MetricsNamespace     string
	MetricsEnabled       bool
	MetricsBucketsMS     string
	TracingEnabled       bool
	TracingExporter      string
	TracingEndpoint      string
	TracingSamplingRatio float64
	PprofEnabled         bool
	PprofUser            string
	PprofPass            string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),

		HSTSEnabled:           parseBool(k.String("SECURITY_HSTS_ENABLED")),
		HSTSMaxAge:            parseInt(k.String("SECURITY_HSTS_MAX_AGE"), 31536000),
		HSTSIncludeSubdomains: parseBool(k.String("SECURITY_HSTS_INCLUDE_SUBDOMAINS")),

		DiscountServiceURL:      strings.TrimRight(strings.TrimSpace(k.String("DISCOUNT_SERVICE_URL")), "/"),
		DiscountServiceTimeout:  parseDuration(k.String("DISCOUNT_SERVICE_TIMEOUT"), "2s"),
		DiscountServiceAttempts: parseInt(k.String("DISCOUNT_SERVICE_ATTEMPTS"), 3),
		DiscountBreakerCooldown: parseDuration(k.String("DISCOUNT_BREAKER_COOLDOWN"), "30s"),
		PricelistCacheTTL:       parseDuration(k.String("PRICELIST_CACHE_TTL"), "5m"),

		PricingPrecision:           int32(parseInt(k.String("PRICING_PRECISION"), 2)),
		PricingRoundingAdjustment:  parseBool(k.String("PRICING_ROUNDING_ADJUSTMENT")),
		PricingItemWiseShippingTax: parseBool(k.String("PRICING_ITEMWISE_SHIPPING_TAX")),
		PricingShippingBeforeTax:   parseBool(k.String("PRICING_SHIPPING_BEFORE_TAX")),

		MinOrderEnabled: parseBool(k.String("CHECKOUT_MIN_ORDER_ENABLED")),
		MinQuoteEnabled: parseBool(k.String("CHECKOUT_MIN_QUOTE_ENABLED")),
		FutureStock:     parseBool(k.String("CHECKOUT_FUTURE_STOCK")),
		CurrencyCode:    strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "INR")),
		CurrencyLocale:  valueOrDefault(k.String("CURRENCY_LOCALE"), "en-IN"),

		TenantHeader:     valueOrDefault(k.String("TENANT_HEADER"), "X-Tenant-ID"),
		TenantRootDomain: strings.TrimSpace(k.String("TENANT_ROOT_DOMAIN")),
		TenantDefault:    strings.TrimSpace(k.String("TENANT_DEFAULT")),
		TenantRequired:   parseBool(k.String("TENANT_REQUIRED")),

		LogFormat:            valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "storefront"),
		MetricsEnabled:       parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsBucketsMS:     k.String("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:       parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:      valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		TracingEndpoint:      strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSamplingRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		PprofEnabled:         parseBool(k.String("OBS_ENABLE_PPROF")),
		PprofUser:            strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
		PprofPass:            strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
	}

	var err error
	if cfg.MinOrderValue, err = parseDecimal(k.String("CHECKOUT_MIN_ORDER_VALUE")); err != nil {
		return nil, fmt.Errorf("CHECKOUT_MIN_ORDER_VALUE: %w", err)
	}
	if cfg.MinQuoteValue, err = parseDecimal(k.String("CHECKOUT_MIN_QUOTE_VALUE")); err != nil {
		return nil, fmt.Errorf("CHECKOUT_MIN_QUOTE_VALUE: %w", err)
	}

	if cfg.PricingPrecision < 0 || cfg.PricingPrecision > 6 {
		return nil, errors.New("PRICING_PRECISION must be between 0 and 6")
	}
	if cfg.MinOrderEnabled && !cfg.MinOrderValue.IsPositive() {
		return nil, errors.New("CHECKOUT_MIN_ORDER_VALUE is required when the minimum order is enabled")
	}
	if cfg.MinQuoteEnabled && !cfg.MinQuoteValue.IsPositive() {
		return nil, errors.New("CHECKOUT_MIN_QUOTE_VALUE is required when the minimum quote is enabled")
	}
	if len(cfg.CurrencyCode) != 3 {
		return nil, errors.New("CURRENCY_CODE must be an ISO 4217 code")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}

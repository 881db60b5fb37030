package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/cart"
	"github.com/growmax/storefront-pricing/internal/checkout"
	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/health"
	"github.com/growmax/storefront-pricing/internal/ratelimit"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

const cartBody = `{"items":[{"productId":"p-1","quantity":"30","askedQuantity":"30","unitPrice":"100","unitListPrice":"100","isProductAvailableInPriceList":true}]}`

func testRouter(t *testing.T, perMinute int, tenantRequired bool) http.Handler {
	t.Helper()
	store, err := ratelimit.NewStore(nil, t.Name())
	require.NoError(t, err)
	svc := &cart.Service{Precision: 2}
	validate := validator.New()
	return newRouter(routerDeps{
		Logger:         zerolog.Nop(),
		MaxBodyBytes:   1 << 16,
		Tenant:         tenant.NewResolver("", "", ""),
		TenantRequired: tenantRequired,
		RateLimit:      ratelimit.Handler{Limiter: ratelimit.NewLimiter(store, perMinute)},
		Cart:           &cart.Handler{Svc: svc, Validate: validate},
		Checkout: &checkout.Handler{
			Cart:     svc,
			Validate: validate,
			Policy:   checkout.Policy{MinimumOrder: checkout.Minimum{Enabled: true, Value: decimal.NewFromInt(5000)}},
		},
		Health: health.Handler{},
	})
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterServesCartRoutes(t *testing.T) {
	h := testRouter(t, 100, false)

	rr := do(h, http.MethodPost, "/api/v1/cart/calculate", cartBody, map[string]string{tenant.DefaultHeader: "acme"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"grandTotal":"3000"`)
	require.Equal(t, "100", rr.Header().Get("X-RateLimit-Limit"))

	rr = do(h, http.MethodPost, "/api/v1/cart/validate/order", cartBody, map[string]string{
		common.HeaderUserID:      "buyer-1",
		common.HeaderPermissions: checkout.PermissionCreateOrder,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Minimum order value is 5000.00")

	rr = do(h, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRequiresTenant(t *testing.T) {
	h := testRouter(t, 100, true)

	rr := do(h, http.MethodPost, "/api/v1/cart/calculate", cartBody, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "TENANT_REQUIRED")

	rr = do(h, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRateLimits(t *testing.T) {
	h := testRouter(t, 1, false)

	rr := do(h, http.MethodPost, "/api/v1/cart/calculate", cartBody, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(h, http.MethodPost, "/api/v1/cart/calculate", cartBody, nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRouterRejectsOversizedBody(t *testing.T) {
	h := testRouter(t, 100, false)
	huge := `{"items":[],"companyId":"` + strings.Repeat("x", 1<<17) + `"}`

	rr := do(h, http.MethodPost, "/api/v1/cart/calculate", huge, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

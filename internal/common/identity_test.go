package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/common"
)

func TestGatewayIdentityParsesHeaders(t *testing.T) {
	var got common.Identity
	var found bool
	h := common.GatewayIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = common.IdentityFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout/validate-order", nil)
	req.Header.Set(common.HeaderUserID, "user-7")
	req.Header.Set(common.HeaderPermissions, "order:create, quote:request ,")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	require.Equal(t, "user-7", got.UserID)
	require.True(t, got.Can("order:create"))
	require.True(t, got.Can("quote:request"))
	require.False(t, got.Can("order:cancel"))
	require.True(t, got.BuyerActive)
}

func TestGatewayIdentityInactiveBuyer(t *testing.T) {
	var got common.Identity
	h := common.GatewayIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = common.IdentityFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(common.HeaderUserID, "user-7")
	req.Header.Set(common.HeaderBuyerStatus, "INACTIVE")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.False(t, got.BuyerActive)
}

func TestGatewayIdentityAnonymous(t *testing.T) {
	called := false
	h := common.GatewayIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := common.UserID(r.Context())
		require.False(t, ok)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

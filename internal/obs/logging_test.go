package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/obs"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.RequestLogger{Logger: zerolog.New(&buf)}
	handler := tenant.NewResolver("", "", "").Middleware(
		common.GatewayIdentity(logger.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("{}"))
		}))),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/calculate", nil)
	req.Header.Set(tenant.DefaultHeader, "acme")
	req.Header.Set(common.HeaderUserID, "buyer-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "acme", entry["tenant_id"])
	require.Equal(t, "buyer-1", entry["user_id"])
	require.Equal(t, float64(http.StatusCreated), entry["status"])
	require.Equal(t, float64(2), entry["bytes"])
}

func TestRequestLoggerLevelsAndContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.RequestLogger{Logger: zerolog.New(&buf), Quiet: []string{"/health/live"}}
	handler := logger.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))

	levels := map[string]string{"/health/live": "debug", "/boom": "error", "/api/v1/cart/calculate": "info"}
	for path, want := range levels {
		buf.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2, path)
		var inner, access map[string]any
		require.NoError(t, json.Unmarshal(lines[0], &inner))
		require.NoError(t, json.Unmarshal(lines[1], &access))
		require.Equal(t, "inside", inner["message"])
		require.Contains(t, inner, "request_id")
		require.Equal(t, want, access["level"], path)
	}
}

package pricelist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/growmax/storefront-pricing/internal/pricing"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

// ErrUpstream wraps any failure talking to the discount service.
var ErrUpstream = errors.New("discount service error")

// Request scopes a price-list lookup.
type Request struct {
	ProductIDs   []string `json:"productIds"`
	CurrencyCode string   `json:"currencyCode"`
	CompanyID    string   `json:"companyId,omitempty"`
	SellerID     string   `json:"sellerId,omitempty"`
}

// Client fetches price-list entries from the discount service.
type Client interface {
	FetchDiscounts(ctx context.Context, req Request) ([]pricing.PriceListResponse, error)
}

// Doer executes an HTTP request. resilience.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPClient calls the discount service lookup endpoint.
type HTTPClient struct {
	BaseURL      string
	HTTP         Doer
	TenantHeader string
}

type lookupResponse struct {
	Data []pricing.PriceListResponse `json:"data"`
}

// FetchDiscounts implements Client.
func (c *HTTPClient) FetchDiscounts(ctx context.Context, req Request) ([]pricing.PriceListResponse, error) {
	if c == nil || c.HTTP == nil || strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("%w: client not configured", ErrUpstream)
	}
	if len(req.ProductIDs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/discounts/lookup"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if id, ok := tenant.FromContext(ctx); ok {
		header := c.TenantHeader
		if header == "" {
			header = tenant.DefaultHeader
		}
		httpReq.Header.Set(header, id)
	}

	resp, err := c.HTTP.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode lookup response: %w", ErrUpstream, err)
	}
	return payload.Data, nil
}

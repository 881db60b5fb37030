package pricelist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/growmax/storefront-pricing/internal/pricing"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

// Cache stores discount service entries in Redis as JSON.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Key returns the tenant scoped cache key of one product's entry for the request scope.
func Key(ctx context.Context, req Request, productID string) string {
	return tenant.Key(ctx, "pricelist", req.CurrencyCode, req.CompanyID, req.SellerID, productID)
}

// GetMany looks up the entries of several products at once. Missing keys are
// absent from the returned map.
func (c *Cache) GetMany(ctx context.Context, req Request, productIDs []string) (map[string]pricing.PriceListResponse, error) {
	out := make(map[string]pricing.PriceListResponse, len(productIDs))
	if c == nil || c.client == nil || len(productIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = Key(ctx, req, id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return out, err
	}
	var decodeErr error
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry pricing.PriceListResponse
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			decodeErr = errors.Join(decodeErr, err)
			continue
		}
		out[productIDs[i]] = entry
	}
	return out, decodeErr
}

// SetMany stores entries keyed by their product id with the configured TTL.
func (c *Cache) SetMany(ctx context.Context, req Request, entries []pricing.PriceListResponse) error {
	if c == nil || c.client == nil || len(entries) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, entry := range entries {
		if entry.ProductID == "" {
			continue
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		pipe.Set(ctx, Key(ctx, req, entry.ProductID), data, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops the cached entries of the given products.
func (c *Cache) Invalidate(ctx context.Context, req Request, productIDs ...string) error {
	if c == nil || c.client == nil || len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = Key(ctx, req, id)
	}
	return c.client.Del(ctx, keys...).Err()
}

package pricelist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/growmax/storefront-pricing/internal/lock"
	"github.com/growmax/storefront-pricing/internal/obs"
	"github.com/growmax/storefront-pricing/internal/pricing"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

// ErrPricingUnavailable is returned when price-list data could not be loaded.
var ErrPricingUnavailable = errors.New("failed to load pricing")

// Service merges catalog products with price-list data, reading through the cache.
type Service struct {
	Client Client
	Cache  *Cache
	// Locker, when set, lets one instance at a time fill the cache for a
	// price-list scope. The others wait and re-read the cache.
	Locker *lock.Locker
	Logger zerolog.Logger
}

const fillLockTTL = 10 * time.Second

// Enrich loads price-list entries for products and turns each product into a
// cart line. Cache failures degrade to an upstream fetch; upstream failures
// are returned wrapped in ErrPricingUnavailable.
func (s *Service) Enrich(ctx context.Context, req Request, products []pricing.RawProduct, shouldUpdateDiscounts bool) ([]pricing.CartItem, error) {
	if s == nil || s.Client == nil {
		return nil, fmt.Errorf("%w: price list service not configured", ErrPricingUnavailable)
	}
	ctx, span := otel.Tracer("pricelist.Service").Start(ctx, "PricelistService.Enrich")
	defer span.End()

	ids := uniqueProductIDs(products)
	span.SetAttributes(attribute.Int("pricelist.products", len(ids)))

	entries, err := s.Cache.GetMany(ctx, req, ids)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("pricelist_cache_read_failed")
		countCache("error", 1)
	}
	var missing []string
	for _, id := range ids {
		if _, ok := entries[id]; !ok {
			missing = append(missing, id)
		}
	}
	countCache("hit", len(ids)-len(missing))
	countCache("miss", len(missing))
	span.SetAttributes(attribute.Int("pricelist.cache_misses", len(missing)))

	if len(missing) > 0 {
		if err := s.fill(ctx, req, missing, entries); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	items := make([]pricing.CartItem, 0, len(products))
	for _, p := range products {
		var resp *pricing.PriceListResponse
		if entry, ok := entries[p.ProductID]; ok {
			resp = &entry
		}
		item, err := pricing.AssignPricelistDiscounts(p, resp, shouldUpdateDiscounts)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// fill loads missing entries into entries, under the fill lock when one is
// configured. A lock that cannot be taken falls back to a direct fetch.
func (s *Service) fill(ctx context.Context, req Request, missing []string, entries map[string]pricing.PriceListResponse) error {
	if s.Locker == nil || s.Cache == nil || s.Cache.client == nil {
		return s.fetch(ctx, req, missing, entries)
	}
	var fetchErr error
	key := tenant.Key(ctx, "pricelist-fill", req.CurrencyCode, req.CompanyID, req.SellerID)
	err := s.Locker.Do(ctx, key, fillLockTTL, func(ctx context.Context) error {
		// a previous holder may have filled some of them already
		cached, err := s.Cache.GetMany(ctx, req, missing)
		if err != nil {
			s.Logger.Warn().Err(err).Msg("pricelist_cache_read_failed")
		}
		var still []string
		for _, id := range missing {
			if entry, ok := cached[id]; ok {
				entries[id] = entry
				continue
			}
			still = append(still, id)
		}
		if len(still) > 0 {
			fetchErr = s.fetch(ctx, req, still, entries)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrPricingUnavailable, ctxErr)
		}
		s.Logger.Warn().Err(err).Msg("pricelist_fill_lock_skipped")
		return s.fetch(ctx, req, missing, entries)
	}
	return fetchErr
}

func (s *Service) fetch(ctx context.Context, req Request, ids []string, entries map[string]pricing.PriceListResponse) error {
	lookup := req
	lookup.ProductIDs = ids
	fetched, err := s.Client.FetchDiscounts(ctx, lookup)
	if err != nil {
		countUpstream("error")
		return fmt.Errorf("%w: %w", ErrPricingUnavailable, err)
	}
	countUpstream("ok")
	for _, entry := range fetched {
		if entry.ProductID != "" {
			entries[entry.ProductID] = entry
		}
	}
	if err := s.Cache.SetMany(ctx, req, fetched); err != nil {
		s.Logger.Warn().Err(err).Msg("pricelist_cache_write_failed")
		countCache("error", 1)
	}
	return nil
}

func uniqueProductIDs(products []pricing.RawProduct) []string {
	seen := make(map[string]bool, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		if p.ProductID == "" || seen[p.ProductID] {
			continue
		}
		seen[p.ProductID] = true
		ids = append(ids, p.ProductID)
	}
	return ids
}

func countCache(result string, n int) {
	if obs.PricelistCacheTotal == nil || n <= 0 {
		return
	}
	obs.PricelistCacheTotal.WithLabelValues(result).Add(float64(n))
}

func countUpstream(result string) {
	if obs.PricelistUpstreamTotal != nil {
		obs.PricelistUpstreamTotal.WithLabelValues(result).Inc()
	}
}

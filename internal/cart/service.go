package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/growmax/storefront-pricing/internal/obs"
	"github.com/growmax/storefront-pricing/internal/pricelist"
	"github.com/growmax/storefront-pricing/internal/pricing"
)

// ErrPricelistDisabled is returned when raw products are submitted but no
// price-list service is configured to enrich them.
var ErrPricelistDisabled = errors.New("price list enrichment not configured")

// Enricher turns raw products into priced cart lines.
type Enricher interface {
	Enrich(ctx context.Context, req pricelist.Request, products []pricing.RawProduct, shouldUpdateDiscounts bool) ([]pricing.CartItem, error)
}

// CalculateRequest is the payload accepted by the calculate endpoints.
// Exactly one of Items and Products is expected; Items wins when both are set.
type CalculateRequest struct {
	Items                 []pricing.CartItem   `json:"items" validate:"required_without=Products,max=1000"`
	Products              []pricing.RawProduct `json:"products" validate:"required_without=Items,max=1000"`
	IsInter               bool                 `json:"isInter"`
	InsuranceCharges      decimal.Decimal      `json:"insuranceCharges"`
	Precision             *int32               `json:"precision" validate:"omitempty,min=0,max=6"`
	Settings              *pricing.Settings    `json:"settings"`
	CurrencyCode          string               `json:"currencyCode" validate:"omitempty,len=3,alpha"`
	CompanyID             string               `json:"companyId" validate:"max=64"`
	SellerID              string               `json:"sellerId" validate:"max=64"`
	ShouldUpdateDiscounts bool                 `json:"shouldUpdateDiscounts"`
}

// Calculation is a priced cart.
type Calculation struct {
	ID        string             `json:"calculationId"`
	CartValue pricing.CartValue  `json:"cartValue"`
	Items     []pricing.CartItem `json:"items"`
}

// UUIDs assigns random item numbers.
type UUIDs struct{}

// NextID implements pricing.IDGenerator.
func (UUIDs) NextID(int) string { return uuid.NewString() }

// Service prices carts, enriching raw products from the price list first.
type Service struct {
	Pricelist Enricher
	Precision int32
	Settings  pricing.Settings
	IDs       pricing.IDGenerator
	NewID     func() string
}

// Calculate prices the request's cart.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (calc Calculation, err error) {
	ctx, span := otel.Tracer("cart.Service").Start(ctx, "CartService.Calculate")
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if obs.PricingCalculationsTotal != nil {
			obs.PricingCalculationsTotal.WithLabelValues(result).Inc()
		}
		if obs.PricingCalculationDuration != nil {
			obs.PricingCalculationDuration.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
		}
		span.End()
	}()

	items := req.Items
	if items == nil && len(req.Products) > 0 {
		if s.Pricelist == nil {
			return Calculation{}, ErrPricelistDisabled
		}
		items, err = s.Pricelist.Enrich(ctx, pricelist.Request{
			CurrencyCode: req.CurrencyCode,
			CompanyID:    req.CompanyID,
			SellerID:     req.SellerID,
		}, req.Products, req.ShouldUpdateDiscounts)
		if err != nil {
			return Calculation{}, err
		}
	}
	span.SetAttributes(
		attribute.Int("cart.lines", len(items)),
		attribute.Bool("cart.inter_state", req.IsInter),
	)
	if obs.PricingCartLines != nil {
		obs.PricingCartLines.Observe(float64(len(items)))
	}

	opts := pricing.Options{
		IsInter:          req.IsInter,
		InsuranceCharges: req.InsuranceCharges,
		Precision:        s.Precision,
		Settings:         s.Settings,
		IDs:              s.IDs,
	}
	if req.Precision != nil {
		opts.Precision = *req.Precision
	}
	if req.Settings != nil {
		opts.Settings = *req.Settings
	}
	if opts.IDs == nil {
		opts.IDs = UUIDs{}
	}

	res, err := pricing.CalculateCart(items, opts)
	if err != nil {
		return Calculation{}, err
	}
	return Calculation{ID: s.newID(), CartValue: res.CartValue, Items: res.Items}, nil
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

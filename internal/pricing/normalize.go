package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPricingPayload is returned when a product or price-list payload
// cannot be coerced into the shape the calculator reads.
var ErrInvalidPricingPayload = errors.New("invalid pricing payload")

// RawProduct is a product reference as it arrives from the catalog or a
// stored cart, before price-list data is merged in. Unknown fields are kept
// in Extra and written back out unchanged.
type RawProduct struct {
	ProductID         string             `json:"productId"`
	ItemNo            string             `json:"itemNo,omitempty"`
	ItemName          string             `json:"itemName,omitempty"`
	Quantity          *decimal.Decimal   `json:"quantity,omitempty"`
	AskedQuantity     *decimal.Decimal   `json:"askedQuantity,omitempty"`
	MinOrderQuantity  *decimal.Decimal   `json:"minOrderQuantity,omitempty"`
	PackagingQty      *decimal.Decimal   `json:"packagingQty,omitempty"`
	PackagingQuantity *decimal.Decimal   `json:"packagingQuantity,omitempty"`
	CashDiscountValue decimal.Decimal    `json:"cashdiscountValue"`
	ShippingCharges   decimal.Decimal    `json:"shippingCharges"`
	PfItemValue       decimal.Decimal    `json:"pfItemValue"`
	HSNCode           string             `json:"hsnCode,omitempty"`
	HSNDetails        *HSNDetails        `json:"hsnDetails,omitempty"`
	ShowPrice         *bool              `json:"showPrice,omitempty"`
	Replacement       bool               `json:"replacement"`
	InventoryResponse *InventoryResponse `json:"inventoryResponse,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// PriceListResponse is one product entry returned by the discount service.
type PriceListResponse struct {
	ProductID                     string           `json:"productId,omitempty"`
	MasterPrice                   *decimal.Decimal `json:"MasterPrice"`
	BasePrice                     *decimal.Decimal `json:"BasePrice"`
	IsProductAvailableInPriceList bool             `json:"isProductAvailableInPriceList"`
	Discounts                     []DiscountRange  `json:"discounts"`
	PriceListCode                 string           `json:"priceListCode,omitempty"`
	PlnErpCode                    string           `json:"plnErpCode,omitempty"`
	PricingConditionCode          string           `json:"pricingConditionCode,omitempty"`
	IsOveridePricelist            *bool            `json:"isOveridePricelist,omitempty"`
	IsApprovalRequired            bool             `json:"isApprovalRequired"`

	Extra map[string]json.RawMessage `json:"-"`
}

type rawProductFields RawProduct

// UnmarshalJSON decodes known fields, coercing numeric strings, and keeps the rest in Extra.
func (p *RawProduct) UnmarshalJSON(data []byte) error {
	var fields rawProductFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return fmt.Errorf("product: %w", err)
	}
	*p = RawProduct(fields)
	p.Extra = extra
	return nil
}

// MarshalJSON writes the known fields followed by any passthrough fields.
func (p RawProduct) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(rawProductFields(p), p.Extra)
}

type priceListFields PriceListResponse

// UnmarshalJSON decodes known fields, coercing numeric strings, and keeps the rest in Extra.
func (p *PriceListResponse) UnmarshalJSON(data []byte) error {
	var fields priceListFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return fmt.Errorf("price list: %w", err)
	}
	*p = PriceListResponse(fields)
	p.Extra = extra
	return nil
}

// MarshalJSON writes the known fields followed by any passthrough fields.
func (p PriceListResponse) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(priceListFields(p), p.Extra)
}

func (p PriceListResponse) clone() PriceListResponse {
	out := p
	out.MasterPrice = cloneDecimal(p.MasterPrice)
	out.BasePrice = cloneDecimal(p.BasePrice)
	if p.IsOveridePricelist != nil {
		v := *p.IsOveridePricelist
		out.IsOveridePricelist = &v
	}
	out.Discounts = append([]DiscountRange(nil), p.Discounts...)
	out.Extra = cloneExtra(p.Extra)
	return out
}

// OverridesPricelist reports whether the price list overrides the master
// price. An absent flag counts as true.
func (p *PriceListResponse) OverridesPricelist() bool {
	return p == nil || p.IsOveridePricelist == nil || *p.IsOveridePricelist
}

// AssignPricelistDiscounts merges a product reference with its price-list
// entry and returns a cart line ready for CalculateCart. resp may be nil when
// the discount service had no entry for the product.
func AssignPricelistDiscounts(raw RawProduct, resp *PriceListResponse, shouldUpdateDiscounts bool) (CartItem, error) {
	if strings.TrimSpace(raw.ProductID) == "" {
		return CartItem{}, fmt.Errorf("%w: productId is required", ErrInvalidPricingPayload)
	}
	if resp != nil && resp.ProductID != "" && resp.ProductID != raw.ProductID {
		return CartItem{}, fmt.Errorf("%w: price list entry %q does not match product %q", ErrInvalidPricingPayload, resp.ProductID, raw.ProductID)
	}

	pack, ok := firstPositive(valueOr(raw.PackagingQty, decimal.Zero), valueOr(raw.PackagingQuantity, decimal.Zero))
	if !ok {
		pack = decimal.NewFromInt(1)
	}
	quantity, ok := firstPositive(
		valueOr(raw.Quantity, decimal.Zero),
		valueOr(raw.MinOrderQuantity, decimal.Zero),
		pack,
	)
	if !ok {
		quantity = decimal.NewFromInt(1)
	}
	asked := quantity
	if raw.AskedQuantity != nil && raw.AskedQuantity.IsPositive() {
		asked = *raw.AskedQuantity
	}

	item := CartItem{
		ProductID:         raw.ProductID,
		ItemNo:            raw.ItemNo,
		ItemName:          raw.ItemName,
		Quantity:          quantity,
		AskedQuantity:     asked,
		PackagingQuantity: pack,
		MinOrderQuantity:  valueOr(raw.MinOrderQuantity, decimal.Zero),
		CashDiscountValue: raw.CashDiscountValue,
		ShippingCharges:   raw.ShippingCharges,
		PfItemValue:       raw.PfItemValue,
		HSNCode:           raw.HSNCode,
		Replacement:       raw.Replacement,
	}
	if raw.HSNDetails != nil {
		item.HSNDetails = &HSNDetails{
			HSNCode:  raw.HSNDetails.HSNCode,
			InterTax: cloneRates(raw.HSNDetails.InterTax),
			IntraTax: cloneRates(raw.HSNDetails.IntraTax),
		}
		if item.HSNCode == "" {
			item.HSNCode = raw.HSNDetails.HSNCode
		}
	}
	if raw.ShowPrice != nil {
		v := *raw.ShowPrice
		item.ShowPrice = &v
	}
	if raw.InventoryResponse != nil {
		v := *raw.InventoryResponse
		item.InventoryResponse = &v
	}

	var (
		master    *decimal.Decimal
		base      *decimal.Decimal
		available bool
		discounts []DiscountRange
	)
	if resp != nil {
		master = cloneDecimal(resp.MasterPrice)
		base = cloneDecimal(resp.BasePrice)
		available = resp.IsProductAvailableInPriceList
		discounts = append([]DiscountRange(nil), resp.Discounts...)

		item.PriceListCode = resp.PriceListCode
		item.PlnErpCode = resp.PlnErpCode
		item.PricingConditionCode = resp.PricingConditionCode
		item.IsApprovalRequired = resp.IsApprovalRequired
		pl := resp.clone()
		item.PriceList = &pl
	}
	item.MasterPrice = master
	item.BasePrice = base
	item.IsProductAvailableInPriceList = available
	item.IsOveridePricelist = resp.OverridesPricelist()
	item.DiscountsList = discounts

	unitPrice := valueOr(base, valueOr(master, decimal.Zero))
	item.UnitPrice = unitPrice
	item.TotalPrice = unitPrice.Mul(quantity)

	if master != nil && master.IsPositive() {
		item.OverrideDiscount = master.Sub(unitPrice).Div(*master).Mul(hundred)
	}

	suitable, next := SuitableDiscountByQuantity(quantity, discounts, pack)
	tiered := decimal.Zero
	if suitable != nil {
		tiered = suitable.Value
		item.CantCombineWithOtherDisCounts = suitable.CantCombineWithOtherDisCounts
	}
	item.NextSuitableDiscount = next

	if item.IsOveridePricelist {
		item.UnitListPrice = unitPrice
		item.Discount = tiered
		item.DiscountedPrice = ApplyDiscount(unitPrice, tiered)
	} else {
		item.UnitListPrice = valueOr(master, unitPrice)
		item.Discount = item.OverrideDiscount.Add(tiered)
		item.DiscountedPrice = unitPrice
	}
	item.DiscountPercentage = item.Discount
	item.TotalLP = item.UnitListPrice.Mul(quantity)

	details := &DiscountDetails{
		BasePrice:            unitPrice,
		PriceListCode:        item.PriceListCode,
		PlnErpCode:           item.PlnErpCode,
		PricingConditionCode: item.PricingConditionCode,
	}
	if suitable != nil {
		if suitable.PricingConditionCode != "" {
			details.PricingConditionCode = suitable.PricingConditionCode
		}
		details.DiscountID = suitable.DiscountID
	}
	item.DiscountDetails = details

	item.PriceNotAvailable = shouldUpdateDiscounts && (master == nil || base == nil || !available)
	return item, nil
}

func decodeWithExtra(data []byte, dst any) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPricingPayload, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPricingPayload, err)
	}
	known := jsonFieldNames(reflect.TypeOf(dst).Elem())
	var extra map[string]json.RawMessage
	for k, v := range all {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[k] = v
	}
	return extra, nil
}

func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return body, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

func jsonFieldNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names[name] = true
	}
	return names
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneExtra(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

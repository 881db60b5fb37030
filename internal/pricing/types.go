package pricing

import (
	"github.com/shopspring/decimal"
)

// TaxRate is one applicable tax line on an HSN schedule.
type TaxRate struct {
	TaxName  string          `json:"taxName"`
	Rate     decimal.Decimal `json:"rate"`
	Compound bool            `json:"compound"`
}

// TaxBreakupEntry describes one tax line in the canonical cart breakup.
type TaxBreakupEntry struct {
	TaxName  string `json:"taxName"`
	Compound bool   `json:"compound"`
}

// HSNDetails holds the inter-state and intra-state tax schedules for a product.
type HSNDetails struct {
	HSNCode  string    `json:"hsnCode,omitempty"`
	InterTax []TaxRate `json:"interTax,omitempty"`
	IntraTax []TaxRate `json:"intraTax,omitempty"`
}

// Schedule returns the tax rates applicable to the requested regime.
func (h *HSNDetails) Schedule(isInter bool) []TaxRate {
	if h == nil {
		return nil
	}
	if isInter {
		return h.InterTax
	}
	return h.IntraTax
}

// DiscountRange is one tier of a quantity based discount schedule. A zero
// MaxQuantity means the tier has no upper bound.
type DiscountRange struct {
	MinQuantity                   decimal.Decimal `json:"min_qty"`
	MaxQuantity                   decimal.Decimal `json:"max_qty"`
	Value                         decimal.Decimal `json:"Value"`
	CantCombineWithOtherDisCounts bool            `json:"CantCombineWithOtherDisCounts"`
	PricingConditionCode          string          `json:"pricingConditionCode,omitempty"`
	DiscountID                    string          `json:"discountId,omitempty"`
}

// DiscountDetails snapshots the price-list data an item was priced with.
type DiscountDetails struct {
	BasePrice            decimal.Decimal `json:"BasePrice"`
	PriceListCode        string          `json:"priceListCode,omitempty"`
	PlnErpCode           string          `json:"plnErpCode,omitempty"`
	PricingConditionCode string          `json:"pricingConditionCode,omitempty"`
	DiscountID           string          `json:"discountId,omitempty"`
}

// InventoryResponse is the availability snapshot attached to a cart line.
type InventoryResponse struct {
	InStock           bool            `json:"inStock"`
	AvailableQuantity decimal.Decimal `json:"availableQuantity"`
}

// CartItem is one product line of a cart, quote or order.
type CartItem struct {
	ProductID string `json:"productId"`
	ItemNo    string `json:"itemNo,omitempty"`
	ItemName  string `json:"itemName,omitempty"`

	Quantity          decimal.Decimal  `json:"quantity"`
	AskedQuantity     decimal.Decimal  `json:"askedQuantity"`
	PackagingQuantity decimal.Decimal  `json:"packagingQuantity"`
	MinOrderQuantity  decimal.Decimal  `json:"minOrderQuantity"`
	UnitPrice         decimal.Decimal  `json:"unitPrice"`
	OriginalUnitPrice *decimal.Decimal `json:"originalUnitPrice,omitempty"`
	UnitListPrice     decimal.Decimal  `json:"unitListPrice"`
	TotalPrice        decimal.Decimal  `json:"totalPrice"`
	TotalLP           decimal.Decimal  `json:"totalLP"`

	Discount                      decimal.Decimal  `json:"discount"`
	DiscountedPrice               decimal.Decimal  `json:"discountedPrice"`
	DiscountPercentage            decimal.Decimal  `json:"discountPercentage"`
	OverrideDiscount              decimal.Decimal  `json:"overrideDiscount"`
	CashDiscountValue             decimal.Decimal  `json:"cashdiscountValue"`
	CashDiscountedPrice           decimal.Decimal  `json:"cashDiscountedPrice"`
	BasicDiscountedPrice          decimal.Decimal  `json:"basicDiscountedPrice"`
	DiscountsList                 []DiscountRange  `json:"discountsList,omitempty"`
	NextSuitableDiscount          *DiscountRange   `json:"nextSuitableDiscount,omitempty"`
	CantCombineWithOtherDisCounts bool             `json:"CantCombineWithOtherDisCounts"`
	DiscountDetails               *DiscountDetails `json:"discountDetails,omitempty"`
	VolumeDiscountApplied         bool             `json:"volumeDiscountApplied"`

	MasterPrice                   *decimal.Decimal   `json:"MasterPrice"`
	BasePrice                     *decimal.Decimal   `json:"BasePrice"`
	PriceListCode                 string             `json:"priceListCode,omitempty"`
	PlnErpCode                    string             `json:"plnErpCode,omitempty"`
	PricingConditionCode          string             `json:"pricingConditionCode,omitempty"`
	IsProductAvailableInPriceList bool               `json:"isProductAvailableInPriceList"`
	IsOveridePricelist            bool               `json:"isOveridePricelist"`
	IsApprovalRequired            bool               `json:"isApprovalRequired"`
	PriceList                     *PriceListResponse `json:"disc_prd_related_obj,omitempty"`

	HSNCode           string                     `json:"hsnCode,omitempty"`
	HSNDetails        *HSNDetails                `json:"hsnDetails,omitempty"`
	TaxValues         map[string]decimal.Decimal `json:"taxValues,omitempty"`
	TotalTax          decimal.Decimal            `json:"totalTax"`
	TotalInterTax     decimal.Decimal            `json:"totalInterTax"`
	TotalIntraTax     decimal.Decimal            `json:"totalIntraTax"`
	InterTaxBreakup   []TaxRate                  `json:"interTaxBreakup,omitempty"`
	IntraTaxBreakup   []TaxRate                  `json:"intraTaxBreakup,omitempty"`
	ItemTaxableAmount decimal.Decimal            `json:"itemTaxableAmount"`

	ShippingCharges decimal.Decimal `json:"shippingCharges"`
	ShippingTax     decimal.Decimal `json:"shippingTax"`
	PfItemValue     decimal.Decimal `json:"pfItemValue"`
	PfRate          decimal.Decimal `json:"pfRate"`

	ShowPrice         *bool              `json:"showPrice,omitempty"`
	PriceNotAvailable bool               `json:"priceNotAvailable"`
	Replacement       bool               `json:"replacement"`
	InventoryResponse *InventoryResponse `json:"inventoryResponse,omitempty"`
}

// PriceVisible reports whether the item price may be shown. An unset flag counts as visible.
func (it *CartItem) PriceVisible() bool {
	return it.ShowPrice == nil || *it.ShowPrice
}

// CashDiscountApplied reports whether a cash discount has touched the unit price.
func (it *CartItem) CashDiscountApplied() bool {
	return it.OriginalUnitPrice != nil && it.CashDiscountValue.IsPositive()
}

// Clone returns a copy of the item that shares no mutable state with the receiver.
func (it CartItem) Clone() CartItem {
	out := it
	if it.OriginalUnitPrice != nil {
		v := *it.OriginalUnitPrice
		out.OriginalUnitPrice = &v
	}
	if it.MasterPrice != nil {
		v := *it.MasterPrice
		out.MasterPrice = &v
	}
	if it.BasePrice != nil {
		v := *it.BasePrice
		out.BasePrice = &v
	}
	if it.ShowPrice != nil {
		v := *it.ShowPrice
		out.ShowPrice = &v
	}
	if it.NextSuitableDiscount != nil {
		v := *it.NextSuitableDiscount
		out.NextSuitableDiscount = &v
	}
	if it.DiscountDetails != nil {
		v := *it.DiscountDetails
		out.DiscountDetails = &v
	}
	if it.InventoryResponse != nil {
		v := *it.InventoryResponse
		out.InventoryResponse = &v
	}
	if it.HSNDetails != nil {
		v := HSNDetails{
			HSNCode:  it.HSNDetails.HSNCode,
			InterTax: cloneRates(it.HSNDetails.InterTax),
			IntraTax: cloneRates(it.HSNDetails.IntraTax),
		}
		out.HSNDetails = &v
	}
	if it.PriceList != nil {
		v := it.PriceList.clone()
		out.PriceList = &v
	}
	out.DiscountsList = append([]DiscountRange(nil), it.DiscountsList...)
	out.InterTaxBreakup = cloneRates(it.InterTaxBreakup)
	out.IntraTaxBreakup = cloneRates(it.IntraTaxBreakup)
	out.TaxValues = cloneAmounts(it.TaxValues)
	return out
}

// CartValue is the cart level aggregate. It is rebuilt on every calculation pass.
type CartValue struct {
	TotalItems                         int                        `json:"totalItems"`
	TotalValue                         decimal.Decimal            `json:"totalValue"`
	TotalTax                           decimal.Decimal            `json:"totalTax"`
	TotalLP                            decimal.Decimal            `json:"totalLP"`
	PfRate                             decimal.Decimal            `json:"pfRate"`
	TotalShipping                      decimal.Decimal            `json:"totalShipping"`
	ShippingTax                        decimal.Decimal            `json:"shippingTax"`
	InsuranceCharges                   decimal.Decimal            `json:"insuranceCharges"`
	TotalCashDiscount                  decimal.Decimal            `json:"totalCashDiscount"`
	TotalBasicDiscount                 decimal.Decimal            `json:"totalBasicDiscount"`
	TaxableAmount                      decimal.Decimal            `json:"taxableAmount"`
	CalculatedTotal                    decimal.Decimal            `json:"calculatedTotal"`
	GrandTotal                         decimal.Decimal            `json:"grandTotal"`
	RoundingAdjustment                 decimal.Decimal            `json:"roundingAdjustment"`
	HasProductsWithNegativeTotalPrice  bool                       `json:"hasProductsWithNegativeTotalPrice"`
	HasAllProductsAvailableInPriceList bool                       `json:"hasAllProductsAvailableInPriceList"`
	TaxTotals                          map[string]decimal.Decimal `json:"taxTotals"`
	TaxBreakup                         []TaxBreakupEntry          `json:"taxBreakup,omitempty"`
}

// Clone returns a deep copy of the cart value.
func (cv CartValue) Clone() CartValue {
	out := cv
	out.TaxTotals = cloneAmounts(cv.TaxTotals)
	out.TaxBreakup = append([]TaxBreakupEntry(nil), cv.TaxBreakup...)
	return out
}

// Settings are the tenant level calculation switches.
type Settings struct {
	// RoundingAdjustment rounds the grand total to the nearest whole unit.
	RoundingAdjustment bool `json:"roundingAdjustment"`
	// ItemWiseShippingTax allocates shipping tax per item instead of once on the total.
	ItemWiseShippingTax bool `json:"itemWiseShippingTax"`
	// ShippingBeforeTax includes shipping in the taxable base.
	ShippingBeforeTax bool `json:"shippingBeforeTax"`
}

func cloneRates(in []TaxRate) []TaxRate {
	if in == nil {
		return nil
	}
	return append([]TaxRate(nil), in...)
}

func cloneAmounts(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	if in == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

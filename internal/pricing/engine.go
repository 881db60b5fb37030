package pricing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAskedQuantity is returned when a line carries a P&F charge but
	// no positive asked quantity to spread it over.
	ErrInvalidAskedQuantity = errors.New("asked quantity must be positive when P&F applies")
	// ErrNegativePrecision is returned for a negative rounding precision.
	ErrNegativePrecision = errors.New("precision must not be negative")
)

// IDGenerator assigns item numbers to lines that arrive without one.
type IDGenerator interface {
	NextID(index int) string
}

// SequenceIDs numbers lines Base+index.
type SequenceIDs struct {
	Base int64
}

// NextID implements IDGenerator.
func (s SequenceIDs) NextID(index int) string {
	return strconv.FormatInt(s.Base+int64(index), 10)
}

// Options configure a single CalculateCart pass.
type Options struct {
	IsInter          bool
	InsuranceCharges decimal.Decimal
	// Precision is the number of decimal places money is rounded to. Zero rounds to whole units.
	Precision int32
	Settings  Settings
	IDs       IDGenerator
}

// Result is the outcome of CalculateCart.
type Result struct {
	CartValue CartValue  `json:"cartValue"`
	Items     []CartItem `json:"items"`
}

// CalculateCart prices, taxes and totals a cart. The input slice is not
// modified; Result.Items holds the processed copies in input order.
//
// Each line goes through cash discount, line totals, P&F, taxes and discount
// bookkeeping before it is folded into the cart value. Shipping tax and the
// final totals are derived once all lines are known.
func CalculateCart(items []CartItem, opts Options) (Result, error) {
	if opts.Precision < 0 {
		return Result{}, ErrNegativePrecision
	}
	ids := opts.IDs
	if ids == nil {
		ids = SequenceIDs{Base: 1}
	}
	precision := opts.Precision

	used := make(map[string]bool, len(items))
	for i := range items {
		if items[i].ItemNo != "" {
			used[items[i].ItemNo] = true
		}
	}

	cv := CartValue{
		TotalItems: len(items),
		TaxTotals:  map[string]decimal.Decimal{},
	}
	out := make([]CartItem, len(items))
	for i := range items {
		it := items[i].Clone()

		applyCashDiscount(&it)

		if !it.VolumeDiscountApplied {
			it.TotalPrice = it.Quantity.Mul(it.UnitPrice)
		}

		if it.ItemNo == "" {
			it.ItemNo = uniqueID(ids, i, len(items), used)
		}

		it.PfRate = Round(Percent(it.TotalPrice, it.PfItemValue), precision)
		it.ItemTaxableAmount = it.UnitPrice
		if !it.PfRate.IsZero() {
			if !it.AskedQuantity.IsPositive() {
				return Result{}, fmt.Errorf("item %s: %w", it.ProductID, ErrInvalidAskedQuantity)
			}
			it.ItemTaxableAmount = it.UnitPrice.Add(it.PfRate.Div(it.AskedQuantity))
		}

		resetTaxes(&it)
		var delta TaxDelta
		it, delta = CalculateItemTaxes(it, opts.IsInter, precision)
		delta.Fold(&cv)

		it.TotalLP = it.UnitListPrice.Mul(it.Quantity)

		it.CashDiscountedPrice = decimal.Zero
		if it.CashDiscountApplied() {
			it.CashDiscountedPrice = Round(it.OriginalUnitPrice.Sub(it.UnitPrice).Mul(it.Quantity), precision)
			cv.TotalCashDiscount = cv.TotalCashDiscount.Add(it.CashDiscountedPrice)
		}

		it.BasicDiscountedPrice = decimal.Zero
		if it.UnitListPrice.GreaterThan(it.UnitPrice) {
			it.BasicDiscountedPrice = Round(it.UnitListPrice.Sub(it.UnitPrice).Mul(it.Quantity), precision)
			cv.TotalBasicDiscount = cv.TotalBasicDiscount.Add(it.BasicDiscountedPrice)
		}

		cv.TotalShipping = cv.TotalShipping.Add(it.ShippingCharges.Mul(it.Quantity))
		cv.TotalLP = cv.TotalLP.Add(it.TotalLP)
		cv.TotalValue = cv.TotalValue.Add(it.TotalPrice)
		cv.PfRate = cv.PfRate.Add(it.PfRate)

		out[i] = it
	}

	cv.TaxableAmount = cv.TotalValue.Add(cv.PfRate)
	cv.InsuranceCharges = Round(opts.InsuranceCharges, precision)

	shipped := CalculateShippingTax(ShippingTaxInput{
		TotalShipping:       cv.TotalShipping,
		CartValue:           cv,
		Items:               out,
		IsBeforeTax:         opts.Settings.ShippingBeforeTax,
		IsInter:             opts.IsInter,
		Precision:           precision,
		ItemWiseShippingTax: opts.Settings.ItemWiseShippingTax,
		RoundingAdjustment:  opts.Settings.RoundingAdjustment,
	})
	cv, out = shipped.CartValue, shipped.Items

	cv.HasProductsWithNegativeTotalPrice = false
	cv.HasAllProductsAvailableInPriceList = true
	for i := range out {
		if out[i].TotalPrice.IsNegative() {
			cv.HasProductsWithNegativeTotalPrice = true
		}
		if !out[i].IsProductAvailableInPriceList {
			cv.HasAllProductsAvailableInPriceList = false
		}
	}
	return Result{CartValue: cv, Items: out}, nil
}

// applyCashDiscount snapshots the undiscounted unit price once and derives
// the unit price from it, so repeated passes never discount twice.
func applyCashDiscount(it *CartItem) {
	if it.CashDiscountValue.IsPositive() {
		if it.OriginalUnitPrice == nil {
			v := it.UnitPrice
			it.OriginalUnitPrice = &v
		}
		it.UnitPrice = ApplyDiscount(*it.OriginalUnitPrice, it.CashDiscountValue)
		return
	}
	if it.OriginalUnitPrice != nil {
		it.UnitPrice = *it.OriginalUnitPrice
	}
}

func resetTaxes(it *CartItem) {
	it.TaxValues = nil
	it.TotalTax = decimal.Zero
	it.TotalInterTax = decimal.Zero
	it.TotalIntraTax = decimal.Zero
	it.ShippingTax = decimal.Zero
}

func uniqueID(ids IDGenerator, index, n int, used map[string]bool) string {
	id := ids.NextID(index)
	for step := 1; used[id] && step <= len(used); step++ {
		id = ids.NextID(index + step*n)
	}
	if used[id] {
		id = fmt.Sprintf("%s-%d", id, index)
	}
	used[id] = true
	return id
}

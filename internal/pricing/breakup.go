package pricing

import "github.com/shopspring/decimal"

// SetTaxBreakup merges the tax lines of every item into one ordered list.
// Non-compound entries keep first-seen order; compound entries follow them so
// they are always computed after the taxes they are based on. The items are
// only read.
func SetTaxBreakup(items []CartItem, isInter bool) []TaxBreakupEntry {
	seen := map[string]bool{}
	seenCompound := map[string]bool{}
	breakup := make([]TaxBreakupEntry, 0)
	var compound []TaxBreakupEntry
	for i := range items {
		for _, rate := range items[i].HSNDetails.Schedule(isInter) {
			if rate.Compound {
				if seenCompound[rate.TaxName] {
					continue
				}
				seenCompound[rate.TaxName] = true
				compound = append(compound, TaxBreakupEntry{TaxName: rate.TaxName, Compound: true})
				continue
			}
			if seen[rate.TaxName] {
				continue
			}
			seen[rate.TaxName] = true
			breakup = append(breakup, TaxBreakupEntry{TaxName: rate.TaxName})
		}
	}
	return append(breakup, compound...)
}

// ShippingTaxInput carries everything CalculateShippingTax needs.
type ShippingTaxInput struct {
	TotalShipping       decimal.Decimal
	CartValue           CartValue
	Items               []CartItem
	IsBeforeTax         bool
	IsInter             bool
	Precision           int32
	ItemWiseShippingTax bool
	RoundingAdjustment  bool
}

// ShippingTaxResult holds fresh copies of the cart value and items with
// shipping tax folded in, plus the breakup used to compute it.
type ShippingTaxResult struct {
	CartValue CartValue
	Items     []CartItem
	Breakup   []TaxBreakupEntry
}

// CalculateShippingTax applies the cart tax breakup to the shipping charges.
//
// With ItemWiseShippingTax every visible item is taxed on its own
// shippingCharges x askedQuantity; otherwise each breakup line is applied once
// to the cart's total shipping. Shipping is only taxed when IsBeforeTax is set.
func CalculateShippingTax(in ShippingTaxInput) ShippingTaxResult {
	items := make([]CartItem, len(in.Items))
	for i := range in.Items {
		items[i] = in.Items[i].Clone()
	}
	cv := in.CartValue.Clone()
	if cv.TaxTotals == nil {
		cv.TaxTotals = map[string]decimal.Decimal{}
	}
	breakup := SetTaxBreakup(items, in.IsInter)

	shippingTax := decimal.Zero
	if in.IsBeforeTax {
		if in.ItemWiseShippingTax {
			for i := range items {
				if !items[i].PriceVisible() {
					continue
				}
				shippingTax = shippingTax.Add(itemShippingTax(&items[i], &cv, breakup, in.IsInter, in.Precision))
			}
		} else {
			shippingTax = aggregateShippingTax(items, &cv, breakup, in.TotalShipping, in.IsInter, in.Precision)
		}
	}

	cv.TotalShipping = in.TotalShipping
	cv.ShippingTax = shippingTax
	cv.TotalTax = cv.TotalTax.Add(shippingTax)
	cv.TaxBreakup = breakup
	cv.TaxableAmount = cv.TotalValue.Add(cv.PfRate)
	if in.IsBeforeTax {
		cv.TaxableAmount = cv.TaxableAmount.Add(in.TotalShipping)
	}
	finalizeTotals(&cv, in.RoundingAdjustment)

	return ShippingTaxResult{CartValue: cv, Items: items, Breakup: breakup}
}

func itemShippingTax(item *CartItem, cv *CartValue, breakup []TaxBreakupEntry, isInter bool, precision int32) decimal.Decimal {
	rates := ratesByName(item.HSNDetails.Schedule(isInter))
	if len(rates) == 0 {
		return decimal.Zero
	}
	base := item.ShippingCharges.Mul(item.AskedQuantity)
	nonCompound := decimal.Zero
	total := decimal.Zero
	for _, entry := range breakup {
		rate, ok := rates[entry.TaxName]
		if !ok {
			continue
		}
		var tax decimal.Decimal
		if entry.Compound {
			tax = Round(Percent(nonCompound, rate), precision)
		} else {
			tax = Round(Percent(base, rate), precision)
			nonCompound = nonCompound.Add(tax)
		}
		if item.TaxValues == nil {
			item.TaxValues = map[string]decimal.Decimal{}
		}
		item.TaxValues[entry.TaxName] = item.TaxValues[entry.TaxName].Add(tax)
		cv.TaxTotals[entry.TaxName] = cv.TaxTotals[entry.TaxName].Add(tax)
		total = total.Add(tax)
	}
	item.ShippingTax = total
	item.TotalTax = item.TotalTax.Add(total)
	if isInter {
		item.TotalInterTax = item.TotalInterTax.Add(total)
	} else {
		item.TotalIntraTax = item.TotalIntraTax.Add(total)
	}
	return total
}

func aggregateShippingTax(items []CartItem, cv *CartValue, breakup []TaxBreakupEntry, totalShipping decimal.Decimal, isInter bool, precision int32) decimal.Decimal {
	rates := map[string]decimal.Decimal{}
	for i := range items {
		if !items[i].PriceVisible() {
			continue
		}
		for name, rate := range ratesByName(items[i].HSNDetails.Schedule(isInter)) {
			if _, ok := rates[name]; !ok {
				rates[name] = rate
			}
		}
	}
	nonCompound := decimal.Zero
	total := decimal.Zero
	for _, entry := range breakup {
		rate, ok := rates[entry.TaxName]
		if !ok {
			continue
		}
		var tax decimal.Decimal
		if entry.Compound {
			tax = Round(Percent(nonCompound, rate), precision)
		} else {
			tax = Round(Percent(totalShipping, rate), precision)
			nonCompound = nonCompound.Add(tax)
		}
		cv.TaxTotals[entry.TaxName] = cv.TaxTotals[entry.TaxName].Add(tax)
		total = total.Add(tax)
	}
	return total
}

func ratesByName(schedule []TaxRate) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(schedule))
	for _, r := range schedule {
		if _, ok := out[r.TaxName]; !ok {
			out[r.TaxName] = r.Rate
		}
	}
	return out
}

// finalizeTotals derives calculatedTotal, grandTotal and roundingAdjustment.
func finalizeTotals(cv *CartValue, roundingAdjustment bool) {
	cv.CalculatedTotal = cv.TotalTax.
		Add(cv.TotalValue).
		Add(cv.PfRate).
		Add(cv.TotalShipping).
		Add(cv.InsuranceCharges)
	cv.GrandTotal = cv.CalculatedTotal
	if roundingAdjustment {
		cv.GrandTotal = cv.CalculatedTotal.Round(0)
	}
	cv.RoundingAdjustment = cv.GrandTotal.Sub(cv.CalculatedTotal)
}

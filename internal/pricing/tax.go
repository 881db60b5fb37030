package pricing

import "github.com/shopspring/decimal"

// TaxDelta is the cart level contribution of one item's taxes.
type TaxDelta struct {
	Totals map[string]decimal.Decimal
	Tax    decimal.Decimal
}

// CalculateItemTaxes computes the taxes of a single line from its HSN schedule.
//
// Non-compound taxes apply to the per-unit taxable amount. Compound taxes
// apply to the sum of the non-compound per-unit tax already computed for the
// item. Each per-unit value is rounded to precision and then multiplied by the
// line quantity. The returned item is a copy; item itself is not modified.
func CalculateItemTaxes(item CartItem, isInter bool, precision int32) (CartItem, TaxDelta) {
	out := item.Clone()
	delta := TaxDelta{Totals: map[string]decimal.Decimal{}}
	if out.HSNDetails == nil {
		return out, delta
	}

	schedule := out.HSNDetails.Schedule(isInter)
	values := make(map[string]decimal.Decimal, len(schedule))
	nonCompound := decimal.Zero
	for _, rate := range schedule {
		if rate.Compound {
			continue
		}
		unit := Round(Percent(out.ItemTaxableAmount, rate.Rate), precision)
		nonCompound = nonCompound.Add(unit)
		values[rate.TaxName] = values[rate.TaxName].Add(unit)
	}
	for _, rate := range schedule {
		if !rate.Compound {
			continue
		}
		unit := Round(Percent(nonCompound, rate.Rate), precision)
		values[rate.TaxName] = values[rate.TaxName].Add(unit)
	}

	out.TaxValues = make(map[string]decimal.Decimal, len(values))
	total := decimal.Zero
	for name, unit := range values {
		line := unit.Mul(out.Quantity)
		out.TaxValues[name] = line
		delta.Totals[name] = line
		total = total.Add(line)
	}

	out.TotalTax = total
	if isInter {
		out.TotalInterTax = total
		out.TotalIntraTax = decimal.Zero
		out.InterTaxBreakup = cloneRates(schedule)
	} else {
		out.TotalIntraTax = total
		out.TotalInterTax = decimal.Zero
		out.IntraTaxBreakup = cloneRates(schedule)
	}
	delta.Tax = total
	return out, delta
}

// Fold adds the delta into the running cart value.
func (d TaxDelta) Fold(cv *CartValue) {
	if cv.TaxTotals == nil {
		cv.TaxTotals = make(map[string]decimal.Decimal, len(d.Totals))
	}
	for name, v := range d.Totals {
		cv.TaxTotals[name] = cv.TaxTotals[name].Add(v)
	}
	cv.TotalTax = cv.TotalTax.Add(d.Tax)
}

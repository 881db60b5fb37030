package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SuitableDiscountByQuantity picks the highest value tier whose quantity range
// contains quantity, and the next better tier a larger order would unlock.
// Tier bounds are expressed in packs and scaled by packagingQty. Either result
// is nil when no tier applies.
func SuitableDiscountByQuantity(quantity decimal.Decimal, ranges []DiscountRange, packagingQty decimal.Decimal) (suitable, next *DiscountRange) {
	if len(ranges) == 0 {
		return nil, nil
	}
	pack := packagingQty
	if !pack.IsPositive() {
		pack = decimal.NewFromInt(1)
	}

	sorted := append([]DiscountRange(nil), ranges...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity.LessThan(sorted[j].MinQuantity)
	})

	bestIdx := -1
	for i, r := range sorted {
		if !tierContains(r, quantity, pack) {
			continue
		}
		if bestIdx == -1 || r.Value.GreaterThan(sorted[bestIdx].Value) {
			bestIdx = i
		}
	}

	floor := decimal.Zero
	if bestIdx >= 0 {
		best := sorted[bestIdx]
		suitable = &best
		floor = best.Value
	}

	for _, r := range sorted {
		lower := r.MinQuantity.Mul(pack)
		if !lower.GreaterThan(quantity) {
			continue
		}
		if suitable != nil && !r.Value.GreaterThan(floor) {
			continue
		}
		if suitable == nil && !r.Value.IsPositive() {
			continue
		}
		candidate := r
		next = &candidate
		break
	}
	return suitable, next
}

// QuantityToNextTier returns how many more units must be ordered to reach next.
func QuantityToNextTier(quantity decimal.Decimal, next *DiscountRange, packagingQty decimal.Decimal) decimal.Decimal {
	if next == nil {
		return decimal.Zero
	}
	pack := packagingQty
	if !pack.IsPositive() {
		pack = decimal.NewFromInt(1)
	}
	gap := next.MinQuantity.Mul(pack).Sub(quantity)
	if gap.IsNegative() {
		return decimal.Zero
	}
	return gap
}

func tierContains(r DiscountRange, quantity, pack decimal.Decimal) bool {
	lower := r.MinQuantity.Mul(pack)
	if quantity.LessThan(lower) {
		return false
	}
	if r.MaxQuantity.IsZero() {
		return true
	}
	return !quantity.GreaterThan(r.MaxQuantity.Mul(pack))
}

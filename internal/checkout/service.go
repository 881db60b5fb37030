package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/growmax/storefront-pricing/internal/pricing"
)

var (
	// ErrNotAuthenticated indicates the caller is not logged in.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermissionDenied indicates the caller lacks the permission for the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrBuyerInactive indicates the buyer account has been deactivated.
	ErrBuyerInactive = errors.New("buyer inactive")
	// ErrNegativeTotal indicates at least one line has a negative total.
	ErrNegativeTotal = errors.New("negative line total")
	// ErrReplacementItem indicates the cart still holds a replacement placeholder.
	ErrReplacementItem = errors.New("replacement item present")
	// ErrPriceUnavailable indicates a hidden price or a product missing from the price list.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrOutOfStock indicates a line cannot be fulfilled from stock.
	ErrOutOfStock = errors.New("out of stock")
	// ErrBelowMinimumValue indicates the grand total is under the configured minimum.
	ErrBelowMinimumValue = errors.New("below minimum value")
)

// Toast variants returned with a failed validation.
const (
	VariantError   = "error"
	VariantWarning = "warning"
)

// Result is the outcome of a validation. Err is one of the package sentinels when IsValid is false.
type Result struct {
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorVariant string `json:"errorVariant,omitempty"`
	Err          error  `json:"-"`
}

// Minimum is an optional lower bound on a cart's grand total.
type Minimum struct {
	Enabled bool
	Value   decimal.Decimal
}

// QuoteInput carries everything ValidateRequestQuote checks.
type QuoteInput struct {
	Authenticated   bool
	CanRequestQuote bool
	Items           []pricing.CartItem
	CartValue       pricing.CartValue
	MinimumQuote    Minimum
	Formatter       AmountFormatter
}

// OrderInput carries everything ValidateCreateOrder checks.
type OrderInput struct {
	Authenticated  bool
	CanCreateOrder bool
	BuyerActive    bool
	Items          []pricing.CartItem
	CartValue      pricing.CartValue
	FutureStock    bool
	MinimumOrder   Minimum
	Formatter      AmountFormatter
}

// ValidateRequestQuote checks whether a quote may be requested for the cart.
// Checks run in order and stop at the first failure.
func ValidateRequestQuote(in QuoteInput) Result {
	switch {
	case !in.Authenticated:
		return fail(ErrNotAuthenticated, VariantError, "Please log in to request a quote")
	case !in.CanRequestQuote:
		return fail(ErrPermissionDenied, VariantError, "You do not have permission to request a quote")
	case in.CartValue.HasProductsWithNegativeTotalPrice || HasNegativeTotal(in.Items):
		return fail(ErrNegativeTotal, VariantError, "Some products have a negative total price, please review your cart")
	case HasReplacement(in.Items):
		return fail(ErrReplacementItem, VariantWarning, "Replace or remove unavailable products before requesting a quote")
	case below(in.CartValue.GrandTotal, in.MinimumQuote):
		return fail(ErrBelowMinimumValue, VariantWarning,
			fmt.Sprintf("Minimum quote value is %s", formatAmount(in.Formatter, in.MinimumQuote.Value)))
	}
	return Result{IsValid: true}
}

// ValidateCreateOrder checks whether an order may be placed for the cart.
// Checks run in order and stop at the first failure.
func ValidateCreateOrder(in OrderInput) Result {
	switch {
	case !in.Authenticated:
		return fail(ErrNotAuthenticated, VariantError, "Please log in to place an order")
	case !in.CanCreateOrder:
		return fail(ErrPermissionDenied, VariantError, "You do not have permission to place an order")
	case !in.BuyerActive:
		return fail(ErrBuyerInactive, VariantError, "Your account is inactive, please contact the seller")
	case in.CartValue.HasProductsWithNegativeTotalPrice || HasNegativeTotal(in.Items):
		return fail(ErrNegativeTotal, VariantError, "Some products have a negative total price, please review your cart")
	case HasReplacement(in.Items):
		return fail(ErrReplacementItem, VariantWarning, "Replace or remove unavailable products before placing an order")
	case !AllPricesVisible(in.Items) || !in.CartValue.HasAllProductsAvailableInPriceList:
		return fail(ErrPriceUnavailable, VariantWarning, "Prices are not available for some products, request a quote instead")
	case !in.FutureStock && HasOutOfStock(in.Items):
		return fail(ErrOutOfStock, VariantWarning, "Some products are out of stock")
	case below(in.CartValue.GrandTotal, in.MinimumOrder):
		return fail(ErrBelowMinimumValue, VariantWarning,
			fmt.Sprintf("Minimum order value is %s", formatAmount(in.Formatter, in.MinimumOrder.Value)))
	}
	return Result{IsValid: true}
}

// HasNegativeTotal reports whether any line total is below zero.
func HasNegativeTotal(items []pricing.CartItem) bool {
	for i := range items {
		if items[i].TotalPrice.IsNegative() {
			return true
		}
	}
	return false
}

// HasReplacement reports whether any line is a replacement placeholder.
func HasReplacement(items []pricing.CartItem) bool {
	for i := range items {
		if items[i].Replacement {
			return true
		}
	}
	return false
}

// HasOutOfStock reports whether any line has an inventory snapshot saying it is not in stock.
// Lines without a snapshot count as in stock.
func HasOutOfStock(items []pricing.CartItem) bool {
	for i := range items {
		if inv := items[i].InventoryResponse; inv != nil && !inv.InStock {
			return true
		}
	}
	return false
}

// AllPricesVisible reports whether no line hides its price.
func AllPricesVisible(items []pricing.CartItem) bool {
	for i := range items {
		if !items[i].PriceVisible() {
			return false
		}
	}
	return true
}

func below(total decimal.Decimal, min Minimum) bool {
	return min.Enabled && total.LessThan(min.Value)
}

func fail(err error, variant, message string) Result {
	return Result{ErrorMessage: message, ErrorVariant: variant, Err: err}
}

func formatAmount(f AmountFormatter, v decimal.Decimal) string {
	if f == nil {
		return v.StringFixed(2)
	}
	return f.Format(v)
}

package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// AmountFormatter renders a money amount for user-facing messages.
type AmountFormatter interface {
	Format(amount decimal.Decimal) string
}

// AccountingFormatter formats amounts with the currency symbol and locale
// digit grouping. Negative amounts are wrapped in parentheses.
type AccountingFormatter struct {
	unit    currency.Unit
	printer *message.Printer
	scale   int
}

// NewAccountingFormatter builds a formatter for an ISO 4217 currency code and a BCP 47 locale.
func NewAccountingFormatter(currencyCode, locale string) (*AccountingFormatter, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	tag := language.English
	if loc := strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"); loc != "" {
		tag, err = language.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &AccountingFormatter{
		unit:    unit,
		printer: message.NewPrinter(tag),
		scale:   scale,
	}, nil
}

// Format implements AmountFormatter.
func (f *AccountingFormatter) Format(amount decimal.Decimal) string {
	rounded := amount.Round(int32(f.scale))
	symbol := f.printer.Sprint(currency.Symbol(f.unit))
	digits := f.printer.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(f.scale)))
	if rounded.IsNegative() {
		return "(" + symbol + digits + ")"
	}
	return symbol + digits
}

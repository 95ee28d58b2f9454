// Package money formats decimal amounts for display using ISO-4217 currency
// metadata. Pipeline arithmetic stays on shopspring/decimal; this package
// only renders final values for human eyes.
package money

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders an amount in the given ISO-4217 currency, honouring the
// currency's symbol, grouping and fraction digits ("$1,234.56", "¥1,235").
// Unknown codes fall back to two decimal places with the code as suffix.
func Format(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	minor := amount.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()
	return money.New(minor, code).Display()
}

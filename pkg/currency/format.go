package currency

import (
	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders amount in the currency's own notation (symbol, separators,
// minor units). Codes unknown to go-money fall back to "<amount> <code>".
func Format(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(QuotedPrecision) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

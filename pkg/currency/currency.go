// Package currency converts amounts between the base currency, in which sales are
// persisted, and the quoted currency shown to the operator.
//
// A rate is expressed as quoted units per one base unit. A zero or negative rate is
// never valid; callers must treat ErrInvalidRate as fatal to any money-moving
// operation.
package currency

import (
	"errors"

	"github.com/shopspring/decimal"
)

// BasePrecision is the number of decimal places kept on base-currency amounts.
const BasePrecision int32 = 6

// QuotedPrecision is the number of decimal places kept on quoted amounts.
const QuotedPrecision int32 = 2

// RatePrecision is the number of decimal places stored on exchange rates.
const RatePrecision int32 = 6

// ErrInvalidRate is returned when the rate is absent (zero) or negative.
var ErrInvalidRate = errors.New("currency: exchange rate must be greater than zero")

// ValidRate reports whether rate can be used for conversion.
func ValidRate(rate decimal.Decimal) bool {
	return rate.IsPositive()
}

// ToQuoted converts a base amount into the quoted currency.
func ToQuoted(base, rate decimal.Decimal) (decimal.Decimal, error) {
	if !ValidRate(rate) {
		return decimal.Zero, ErrInvalidRate
	}
	return base.Mul(rate), nil
}

// ToBase converts a quoted amount into the base currency.
func ToBase(quoted, rate decimal.Decimal) (decimal.Decimal, error) {
	if !ValidRate(rate) {
		return decimal.Zero, ErrInvalidRate
	}
	return quoted.Div(rate), nil
}

// RoundBase rounds a base amount to BasePrecision.
func RoundBase(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(BasePrecision)
}

// RoundRate rounds a rate to RatePrecision.
func RoundRate(rate decimal.Decimal) decimal.Decimal {
	return rate.Round(RatePrecision)
}

// RoundQuoted rounds a quoted amount to QuotedPrecision.
func RoundQuoted(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(QuotedPrecision)
}

// LineTotal returns quantity x unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

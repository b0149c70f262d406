// Package money converts between the decimal amounts used by the ledger
// core and the integer cents persisted in SQLite. Storing cents keeps
// server-side arithmetic increments exact; decimals exist only at the
// API and calculation boundary.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPrecision is returned when an amount carries more than two decimal
// places and cannot be represented as whole cents.
var ErrPrecision = errors.New("amount has sub-cent precision")

// ToCents converts a decimal amount to integer cents.
func ToCents(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, ErrPrecision
	}
	return shifted.IntPart(), nil
}

// FromCents converts integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

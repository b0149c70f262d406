package models

import "github.com/shopspring/decimal"

// PairBalance is one directed entry of the who-owes-whom table.
// Balance > 0 means UserB owes UserA. For every stored pair the mirror
// row exists with the negated balance; both directions are always
// written together.
type PairBalance struct {
	GroupID string
	UserA   int
	UserB   int
	Balance decimal.Decimal
}

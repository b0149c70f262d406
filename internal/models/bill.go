package models

import "github.com/shopspring/decimal"

// Share is one member's amount on one side of a bill: either what they
// consumed (drawee) or what they contributed (payee).
type Share struct {
	// UserIndex is the member slot this share belongs to.
	UserIndex int

	// Amount is the share amount; always positive as stored.
	Amount decimal.Decimal
}

// Bill represents a shared expense or a settle-up payment.
// Bills are immutable once created and are deleted as a unit together
// with their drawee/payee shares.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// GroupID is the group this bill belongs to.
	GroupID string

	// Name is the human-readable name for the bill.
	Name string

	// Amount is the bill total: sum of drawee shares == sum of payee shares.
	Amount decimal.Decimal

	// Category is a free-form label (e.g., "food", "transport").
	Category string

	// IsPayment marks settle-up transfers. Payments move pairwise
	// balances but leave the group's total expense untouched.
	IsPayment bool

	// Notes is an optional description.
	Notes string

	// CreatedBy is the member index of whoever recorded the bill.
	CreatedBy int

	// CreatedAt is the Unix timestamp when the bill was created.
	CreatedAt int64

	// Drawees are the shares consumed, one per participating member.
	Drawees []Share

	// Payees are the shares contributed, one per participating member.
	Payees []Share
}

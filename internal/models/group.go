package models

import "github.com/shopspring/decimal"

// Group represents a set of people sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Currency is the ISO currency code for all amounts in this group.
	// The ledger does no conversion; one group, one currency.
	Currency string

	// TotalExpense is the running sum of all non-payment bill amounts.
	// Payments are balance transfers and do not count as new spend.
	TotalExpense decimal.Decimal

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

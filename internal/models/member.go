package models

import "github.com/shopspring/decimal"

// IdentityKind tags how a member slot is identified.
type IdentityKind string

const (
	// IdentityTemporary is a member known only by a display name,
	// added before (or without) a real account.
	IdentityTemporary IdentityKind = "temporary"

	// IdentityLinked is a member slot attached to a real account.
	IdentityLinked IdentityKind = "linked"
)

// Member is one participant slot in a group, keyed by (GroupID, Index).
// Index is a stable, dense, zero-based slot assigned at insertion and
// never reused or renumbered, even when the underlying identity changes
// from temporary to linked.
type Member struct {
	GroupID string

	// Index is the member's slot within the group.
	Index int

	// Kind says whether this slot is a temporary name or a linked account.
	Kind IdentityKind

	// Name is the display name of the member.
	Name string

	// AccountID is the linked account identifier; empty while temporary.
	AccountID string

	// TotalSpent is the sum of amounts this member consumed across all bills.
	TotalSpent decimal.Decimal

	// TotalPaid is the sum of amounts this member contributed across all bills.
	TotalPaid decimal.Decimal
}

// Balance is the member's net position: positive means the group owes
// this member money.
func (m *Member) Balance() decimal.Decimal {
	return m.TotalPaid.Sub(m.TotalSpent)
}

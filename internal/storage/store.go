// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"splitbook/internal/ledger"
	"splitbook/internal/models"
)

// BillEffect is what a bill mutation actually changed: the member rows
// touched by the bill (sorted by index, with updated totals) and the
// group's running total expense after the mutation.
type BillEffect struct {
	Members    []*models.Member
	GroupTotal decimal.Decimal
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// ApplyBill and RemoveBill are the transactional units: every row they
// touch (bill, shares, member totals, pairwise balances, group total)
// commits or rolls back as a whole, and all shared counters are updated
// with in-place server-side arithmetic so concurrent bills on the same
// group compose in either commit order.
type Store interface {
	// CreateGroup persists a group together with its initial members.
	// Group ID and member indices are assigned by the store.
	CreateGroup(ctx context.Context, group *models.Group, members []*models.Member) error

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// DeleteGroup removes a group and cascades to members, bills,
	// shares and pairwise balances.
	DeleteGroup(ctx context.Context, groupID string) error

	// GetMembers returns all members of a group ordered by index.
	GetMembers(ctx context.Context, groupID string) ([]*models.Member, error)

	// AddMember appends a member at the next free index and returns it.
	AddMember(ctx context.Context, groupID, name string) (*models.Member, error)

	// LinkMember attaches an account ID to an existing member slot.
	LinkMember(ctx context.Context, groupID string, index int, accountID string) error

	// ApplyBill atomically inserts the bill with its shares and applies
	// the member deltas, pairwise transfers and (for non-payments) the
	// group total increment.
	ApplyBill(ctx context.Context, bill *models.Bill, deltas []ledger.MemberDelta, transfers []ledger.Transfer) (*BillEffect, error)

	// RemoveBill atomically applies the (already negated) reversal
	// deltas and transfers, then deletes the bill and its shares.
	RemoveBill(ctx context.Context, bill *models.Bill, deltas []ledger.MemberDelta, transfers []ledger.Transfer) (*BillEffect, error)

	// GetBill retrieves a bill with its drawee and payee shares.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBills returns all bills of a group, newest first, without shares.
	ListBills(ctx context.Context, groupID string) ([]*models.Bill, error)

	// ListBalances returns every pairwise balance row of a group,
	// ordered by (UserA, UserB). Both directions are present.
	ListBalances(ctx context.Context, groupID string) ([]*models.PairBalance, error)

	// MemberBalances returns one member's row of the pairwise table,
	// ordered by counterparty index.
	MemberBalances(ctx context.Context, groupID string, index int) ([]*models.PairBalance, error)

	// Close releases any resources held by the store.
	Close() error
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"splitbook/internal/apperr"
	"splitbook/internal/ledger"
	"splitbook/internal/models"
	"splitbook/internal/money"
	"splitbook/internal/storage"
)

// ApplyBill inserts the bill and its shares and merges the computed
// deltas into member totals, the pairwise table and the group total,
// all in one transaction. Every shared counter is changed with an
// in-place SQL increment so concurrent bills compose in any commit order.
func (s *SQLiteStore) ApplyBill(ctx context.Context, bill *models.Bill, deltas []ledger.MemberDelta, transfers []ledger.Transfer) (*storage.BillEffect, error) {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}

	amountCents, err := money.ToCents(bill.Amount)
	if err != nil {
		return nil, fmt.Errorf("bill amount: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, group_id, name, amount, category, is_payment, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.GroupID, bill.Name, amountCents, bill.Category,
		boolToInt(bill.IsPayment), bill.Notes, bill.CreatedBy, bill.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertShares(ctx, tx, "bill_drawees", bill.ID, bill.Drawees); err != nil {
		return nil, err
	}
	if err := insertShares(ctx, tx, "bill_payees", bill.ID, bill.Payees); err != nil {
		return nil, err
	}

	if err := applyDeltas(ctx, tx, bill.GroupID, deltas); err != nil {
		return nil, err
	}
	if err := applyTransfers(ctx, tx, bill.GroupID, transfers); err != nil {
		return nil, err
	}

	totalCents, err := adjustGroupTotal(ctx, tx, bill, amountCents)
	if err != nil {
		return nil, err
	}

	members, err := touchedMembers(ctx, tx, bill.GroupID, deltas)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &storage.BillEffect{Members: members, GroupTotal: money.FromCents(totalCents)}, nil
}

// RemoveBill applies the reversal deltas and deletes the bill with its
// shares in one transaction. The deltas and transfers must come from
// the bill's own negated shares; the existence check inside the
// transaction guards against a concurrent delete of the same bill.
func (s *SQLiteStore) RemoveBill(ctx context.Context, bill *models.Bill, deltas []ledger.MemberDelta, transfers []ledger.Transfer) (*storage.BillEffect, error) {
	amountCents, err := money.ToCents(bill.Amount)
	if err != nil {
		return nil, fmt.Errorf("bill amount: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM bills WHERE id = ?", bill.ID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeInvalidBill, "bill not found: %s", bill.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check bill existence: %w", err)
	}

	if err := applyDeltas(ctx, tx, bill.GroupID, deltas); err != nil {
		return nil, err
	}
	if err := applyTransfers(ctx, tx, bill.GroupID, transfers); err != nil {
		return nil, err
	}

	totalCents, err := adjustGroupTotal(ctx, tx, bill, -amountCents)
	if err != nil {
		return nil, err
	}

	// Share rows go with the bill via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", bill.ID); err != nil {
		return nil, fmt.Errorf("failed to delete bill: %w", err)
	}

	members, err := touchedMembers(ctx, tx, bill.GroupID, deltas)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &storage.BillEffect{Members: members, GroupTotal: money.FromCents(totalCents)}, nil
}

// GetBill retrieves a bill with its drawee and payee shares.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill := &models.Bill{}
	var amountCents int64
	var isPayment int

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, amount, category, is_payment, notes, created_by, created_at
		 FROM bills WHERE id = ?`,
		billID,
	).Scan(&bill.ID, &bill.GroupID, &bill.Name, &amountCents, &bill.Category,
		&isPayment, &bill.Notes, &bill.CreatedBy, &bill.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeInvalidBill, "bill not found: %s", billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	bill.Amount = money.FromCents(amountCents)
	bill.IsPayment = isPayment != 0

	if bill.Drawees, err = s.loadShares(ctx, "bill_drawees", billID); err != nil {
		return nil, err
	}
	if bill.Payees, err = s.loadShares(ctx, "bill_payees", billID); err != nil {
		return nil, err
	}
	return bill, nil
}

// ListBills returns all bills of a group, newest first, without shares.
func (s *SQLiteStore) ListBills(ctx context.Context, groupID string) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, name, amount, category, is_payment, notes, created_by, created_at
		 FROM bills WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill := &models.Bill{}
		var amountCents int64
		var isPayment int
		if err := rows.Scan(&bill.ID, &bill.GroupID, &bill.Name, &amountCents, &bill.Category,
			&isPayment, &bill.Notes, &bill.CreatedBy, &bill.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bill.Amount = money.FromCents(amountCents)
		bill.IsPayment = isPayment != 0
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

func (s *SQLiteStore) loadShares(ctx context.Context, table, billID string) ([]models.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_index, amount FROM "+table+" WHERE bill_id = ? ORDER BY user_index",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", table, err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var idx int
		var cents int64
		if err := rows.Scan(&idx, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		shares = append(shares, models.Share{UserIndex: idx, Amount: money.FromCents(cents)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return shares, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, table, billID string, shares []models.Share) error {
	for _, share := range shares {
		cents, err := money.ToCents(share.Amount)
		if err != nil {
			return fmt.Errorf("share for member %d: %w", share.UserIndex, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO "+table+" (bill_id, user_index, amount) VALUES (?, ?, ?)",
			billID, share.UserIndex, cents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// applyDeltas adds each member's spent and paid movement with a single
// in-place UPDATE. Never read-modify-write: two bills touching the same
// member must compose regardless of commit order.
func applyDeltas(ctx context.Context, tx *sql.Tx, groupID string, deltas []ledger.MemberDelta) error {
	for _, d := range deltas {
		spentCents, err := money.ToCents(d.Spent)
		if err != nil {
			return fmt.Errorf("spent delta for member %d: %w", d.Index, err)
		}
		paidCents, err := money.ToCents(d.Paid)
		if err != nil {
			return fmt.Errorf("paid delta for member %d: %w", d.Index, err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE members SET total_spent = total_spent + ?, total_paid = total_paid + ?
			 WHERE group_id = ? AND user_index = ?`,
			spentCents, paidCents, groupID, d.Index,
		)
		if err != nil {
			return fmt.Errorf("failed to update member %d totals: %w", d.Index, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check member update: %w", err)
		}
		if n == 0 {
			return apperr.Newf(apperr.CodeInvalidMember, "member %d not found in group %s", d.Index, groupID)
		}
	}
	return nil
}

// applyTransfers upserts both directions of every transfer so the
// pairwise table stays antisymmetric. Existing rows are incremented in
// place; rows are never deleted even when they reach zero.
func applyTransfers(ctx context.Context, tx *sql.Tx, groupID string, transfers []ledger.Transfer) error {
	const upsert = `
		INSERT INTO pair_balances (group_id, user_a, user_b, balance) VALUES (?, ?, ?, ?)
		ON CONFLICT(group_id, user_a, user_b) DO UPDATE SET balance = balance + excluded.balance`

	for _, t := range transfers {
		cents, err := money.ToCents(t.Amount)
		if err != nil {
			return fmt.Errorf("transfer %d->%d: %w", t.Debtor, t.Creditor, err)
		}

		// balance(creditor, debtor) > 0: the debtor owes the creditor.
		if _, err := tx.ExecContext(ctx, upsert, groupID, t.Creditor, t.Debtor, cents); err != nil {
			return fmt.Errorf("failed to upsert balance (%d,%d): %w", t.Creditor, t.Debtor, err)
		}
		if _, err := tx.ExecContext(ctx, upsert, groupID, t.Debtor, t.Creditor, -cents); err != nil {
			return fmt.Errorf("failed to upsert balance (%d,%d): %w", t.Debtor, t.Creditor, err)
		}
	}
	return nil
}

// adjustGroupTotal applies the expense increment for non-payment bills
// and returns the group's total expense after the mutation.
func adjustGroupTotal(ctx context.Context, tx *sql.Tx, bill *models.Bill, deltaCents int64) (int64, error) {
	if !bill.IsPayment {
		_, err := tx.ExecContext(ctx,
			"UPDATE groups SET total_expense = total_expense + ? WHERE id = ?",
			deltaCents, bill.GroupID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to adjust group total: %w", err)
		}
	}

	var totalCents int64
	err := tx.QueryRowContext(ctx,
		"SELECT total_expense FROM groups WHERE id = ?", bill.GroupID,
	).Scan(&totalCents)
	if err == sql.ErrNoRows {
		return 0, apperr.Newf(apperr.CodeInvalidGroup, "group not found: %s", bill.GroupID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read group total: %w", err)
	}
	return totalCents, nil
}

// touchedMembers reloads the member rows changed by this bill, sorted
// by slot index, so callers can hand fresh totals back to API consumers.
func touchedMembers(ctx context.Context, tx *sql.Tx, groupID string, deltas []ledger.MemberDelta) ([]*models.Member, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(deltas)), ", ")
	args := make([]any, 0, len(deltas)+1)
	args = append(args, groupID)
	for _, d := range deltas {
		args = append(args, d.Index)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE group_id = ? AND user_index IN ("+placeholders+") ORDER BY user_index",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get touched members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate touched members: %w", err)
	}
	return members, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

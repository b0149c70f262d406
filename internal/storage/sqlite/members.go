package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"splitbook/internal/apperr"
	"splitbook/internal/models"
	"splitbook/internal/money"
)

const memberColumns = "group_id, user_index, kind, name, account_id, total_spent, total_paid"

// GetMembers returns all members of a group ordered by slot index.
func (s *SQLiteStore) GetMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE group_id = ? ORDER BY user_index",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
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
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// AddMember appends a member at the next free slot index. Indices are
// dense and never reused; members only disappear via group deletion.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, name string) (*models.Member, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeInvalidGroup, "group not found: %s", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check group: %w", err)
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(user_index) + 1, 0) FROM members WHERE group_id = ?",
		groupID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next member index: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO members (group_id, user_index, kind, name) VALUES (?, ?, ?, ?)",
		groupID, next, string(models.IdentityTemporary), name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Member{
		GroupID: groupID,
		Index:   next,
		Kind:    models.IdentityTemporary,
		Name:    name,
	}, nil
}

// LinkMember attaches an account ID to a member slot, switching its
// identity from temporary to linked. The slot index is untouched.
func (s *SQLiteStore) LinkMember(ctx context.Context, groupID string, index int, accountID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET kind = ?, account_id = ? WHERE group_id = ? AND user_index = ?",
		string(models.IdentityLinked), accountID, groupID, index,
	)
	if err != nil {
		return fmt.Errorf("failed to link member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check link result: %w", err)
	}
	if n == 0 {
		return apperr.Newf(apperr.CodeInvalidMember, "member %d not found in group %s", index, groupID)
	}
	return nil
}

func scanMember(rows *sql.Rows) (*models.Member, error) {
	m := &models.Member{}
	var kind string
	var accountID sql.NullString
	var spentCents, paidCents int64

	if err := rows.Scan(&m.GroupID, &m.Index, &kind, &m.Name, &accountID, &spentCents, &paidCents); err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	m.Kind = models.IdentityKind(kind)
	if accountID.Valid {
		m.AccountID = accountID.String
	}
	m.TotalSpent = money.FromCents(spentCents)
	m.TotalPaid = money.FromCents(paidCents)
	return m, nil
}

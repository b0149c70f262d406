package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"splitbook/internal/apperr"
	"splitbook/internal/models"
	"splitbook/internal/money"
)

// CreateGroup persists a group and its initial members in one transaction.
// Member indices are assigned densely from zero in slice order.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, members []*models.Member) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = "USD"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, total_expense, created_at) VALUES (?, ?, ?, 0, ?)",
		group.ID, group.Name, group.Currency, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i, m := range members {
		m.GroupID = group.ID
		m.Index = i
		if m.Kind == "" {
			m.Kind = models.IdentityTemporary
		}

		var accountID any
		if m.AccountID != "" {
			accountID = m.AccountID
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO members (group_id, user_index, kind, name, account_id) VALUES (?, ?, ?, ?, ?)",
			group.ID, m.Index, string(m.Kind), m.Name, accountID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var totalCents int64

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, total_expense, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &totalCents, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeInvalidGroup, "group not found: %s", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.TotalExpense = money.FromCents(totalCents)
	return group, nil
}

// DeleteGroup removes a group; foreign keys cascade to every dependent row.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return apperr.Newf(apperr.CodeInvalidGroup, "group not found: %s", groupID)
	}
	return nil
}

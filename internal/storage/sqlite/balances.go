package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"splitbook/internal/models"
	"splitbook/internal/money"
)

// ListBalances returns every pairwise balance row of a group, both
// directions included, ordered by (user_a, user_b).
func (s *SQLiteStore) ListBalances(ctx context.Context, groupID string) ([]*models.PairBalance, error) {
	return s.queryBalances(ctx,
		"SELECT group_id, user_a, user_b, balance FROM pair_balances WHERE group_id = ? ORDER BY user_a, user_b",
		groupID,
	)
}

// MemberBalances returns one member's row of the pairwise table,
// ordered by counterparty index.
func (s *SQLiteStore) MemberBalances(ctx context.Context, groupID string, index int) ([]*models.PairBalance, error) {
	return s.queryBalances(ctx,
		"SELECT group_id, user_a, user_b, balance FROM pair_balances WHERE group_id = ? AND user_a = ? ORDER BY user_b",
		groupID, index,
	)
}

func (s *SQLiteStore) queryBalances(ctx context.Context, query string, args ...any) ([]*models.PairBalance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.PairBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

func scanBalance(rows *sql.Rows) (*models.PairBalance, error) {
	b := &models.PairBalance{}
	var cents int64
	if err := rows.Scan(&b.GroupID, &b.UserA, &b.UserB, &cents); err != nil {
		return nil, fmt.Errorf("failed to scan balance: %w", err)
	}
	b.Balance = money.FromCents(cents)
	return b, nil
}

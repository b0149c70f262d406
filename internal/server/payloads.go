package server

import (
	"strconv"

	"github.com/shopspring/decimal"

	"splitbook/internal/apperr"
	"splitbook/internal/models"
)

// Amounts travel as decimal strings keyed by member index, never as
// JSON numbers, so no precision is lost at the boundary.

type createGroupRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Members  []string `json:"members"`
}

type addMemberRequest struct {
	Name string `json:"name"`
}

type linkMemberRequest struct {
	AccountID string `json:"account_id"`
}

type createBillRequest struct {
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	Notes     string            `json:"notes"`
	IsPayment bool              `json:"is_payment"`
	CreatedBy int               `json:"created_by"`
	CreatedAt int64             `json:"created_at"`
	Drawees   map[string]string `json:"drawees"`
	Payees    map[string]string `json:"payees"`
}

type memberResponse struct {
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	AccountID  string `json:"account_id,omitempty"`
	TotalSpent string `json:"total_spent"`
	TotalPaid  string `json:"total_paid"`
	Balance    string `json:"balance"`
}

type groupResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Currency     string           `json:"currency"`
	TotalExpense string           `json:"total_expense"`
	CreatedAt    int64            `json:"created_at"`
	Members      []memberResponse `json:"members,omitempty"`
}

type billResponse struct {
	ID        string            `json:"id"`
	GroupID   string            `json:"group_id"`
	Name      string            `json:"name"`
	Amount    string            `json:"amount"`
	Category  string            `json:"category"`
	IsPayment bool              `json:"is_payment"`
	Notes     string            `json:"notes,omitempty"`
	CreatedBy int               `json:"created_by"`
	CreatedAt int64             `json:"created_at"`
	Drawees   map[string]string `json:"drawees,omitempty"`
	Payees    map[string]string `json:"payees,omitempty"`
}

type billMutationResponse struct {
	BillID            string            `json:"bill_id"`
	Members           []memberResponse  `json:"members"`
	Drawees           map[string]string `json:"drawees,omitempty"`
	Payees            map[string]string `json:"payees,omitempty"`
	TotalGroupExpense *string           `json:"total_group_expense,omitempty"`
}

type balanceResponse struct {
	Creditor int    `json:"creditor"`
	Debtor   int    `json:"debtor"`
	Amount   string `json:"amount"`
}

type memberBalanceResponse struct {
	Counterparty int    `json:"counterparty"`
	Balance      string `json:"balance"`
}

// parseShares converts {"0": "30.00", ...} into the index->decimal map
// the service consumes.
func parseShares(side string, raw map[string]string) (map[int]decimal.Decimal, error) {
	shares := make(map[int]decimal.Decimal, len(raw))
	for key, value := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, apperr.Newf(apperr.CodeInvalidArgument, "%s: invalid member index %q", side, key)
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, apperr.Newf(apperr.CodeInvalidAmount, "%s: invalid amount %q for member %d", side, value, idx)
		}
		shares[idx] = amount
	}
	return shares, nil
}

func sharesToPayload(shares []models.Share) map[string]string {
	out := make(map[string]string, len(shares))
	for _, s := range shares {
		out[strconv.Itoa(s.UserIndex)] = s.Amount.StringFixed(2)
	}
	return out
}

func toMemberResponse(m *models.Member) memberResponse {
	return memberResponse{
		Index:      m.Index,
		Kind:       string(m.Kind),
		Name:       m.Name,
		AccountID:  m.AccountID,
		TotalSpent: m.TotalSpent.StringFixed(2),
		TotalPaid:  m.TotalPaid.StringFixed(2),
		Balance:    m.Balance().StringFixed(2),
	}
}

func toMemberResponses(members []*models.Member) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = toMemberResponse(m)
	}
	return out
}

func toGroupResponse(g *models.Group, members []*models.Member) groupResponse {
	return groupResponse{
		ID:           g.ID,
		Name:         g.Name,
		Currency:     g.Currency,
		TotalExpense: g.TotalExpense.StringFixed(2),
		CreatedAt:    g.CreatedAt,
		Members:      toMemberResponses(members),
	}
}

func toBillResponse(b *models.Bill) billResponse {
	return billResponse{
		ID:        b.ID,
		GroupID:   b.GroupID,
		Name:      b.Name,
		Amount:    b.Amount.StringFixed(2),
		Category:  b.Category,
		IsPayment: b.IsPayment,
		Notes:     b.Notes,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt,
		Drawees:   sharesToPayload(b.Drawees),
		Payees:    sharesToPayload(b.Payees),
	}
}

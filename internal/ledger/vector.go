package ledger

import "github.com/shopspring/decimal"

// MemberDelta is one member's movement from a single bill: Spent is the
// drawee side (consumed), Paid is the payee side (contributed). For a
// reversal both carry negated amounts.
type MemberDelta struct {
	Index int
	Spent decimal.Decimal
	Paid  decimal.Decimal
}

// Net is the member's signed net expense for this bill: negative means
// the member consumed more than they contributed (debtor), positive
// means the opposite (creditor).
func (d MemberDelta) Net() decimal.Decimal {
	return d.Paid.Sub(d.Spent)
}

// MemberDeltas merges a drawee and a payee contribution into one delta
// per touched member, ordered by member index. The nets of the result
// sum to zero whenever the inputs passed Validate. Pure function.
func MemberDeltas(drawees, payees Contribution) []MemberDelta {
	deltas := make([]MemberDelta, 0, len(drawees)+len(payees))

	i, j := 0, 0
	for i < len(drawees) || j < len(payees) {
		switch {
		case j >= len(payees) || (i < len(drawees) && drawees[i].Index < payees[j].Index):
			deltas = append(deltas, MemberDelta{Index: drawees[i].Index, Spent: drawees[i].Amount})
			i++
		case i >= len(drawees) || payees[j].Index < drawees[i].Index:
			deltas = append(deltas, MemberDelta{Index: payees[j].Index, Paid: payees[j].Amount})
			j++
		default: // same member on both sides
			deltas = append(deltas, MemberDelta{
				Index: drawees[i].Index,
				Spent: drawees[i].Amount,
				Paid:  payees[j].Amount,
			})
			i++
			j++
		}
	}
	return deltas
}

package ledger

import "github.com/shopspring/decimal"

// Transfer is one directed settlement between two members of a single
// bill: Debtor's balance toward Creditor increases by Amount (always
// positive). When the input deltas are negated for a reversal, debtor
// and creditor roles swap and the same positive-amount shape holds.
type Transfer struct {
	Debtor   int
	Creditor int
	Amount   decimal.Decimal
}

// NetTransfers expresses a zero-sum net-expense vector as pairwise
// transfers by greedily matching creditors against debtors with two
// pointers, in the vector's own order (ascending member index).
//
// The result has at most (#creditors + #debtors - 1) transfers and
// accounts for the whole vector exactly. It is not the globally minimal
// transfer set; order-preserving greed is a deliberate trade of
// optimality for simplicity and determinism, and changing it changes
// the exact pairwise rows produced for a given bill sequence.
func NetTransfers(deltas []MemberDelta) []Transfer {
	var creditors, debtors []Share
	for _, d := range deltas {
		net := d.Net()
		switch net.Sign() {
		case 1:
			creditors = append(creditors, Share{Index: d.Index, Amount: net})
		case -1:
			debtors = append(debtors, Share{Index: d.Index, Amount: net.Neg()})
		}
	}

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owed := debtors[i].Amount
		due := creditors[j].Amount

		m := owed
		if due.LessThan(m) {
			m = due
		}

		transfers = append(transfers, Transfer{
			Debtor:   debtors[i].Index,
			Creditor: creditors[j].Index,
			Amount:   m,
		})

		debtors[i].Amount = owed.Sub(m)
		creditors[j].Amount = due.Sub(m)

		if debtors[i].Amount.IsZero() {
			i++
		}
		if creditors[j].Amount.IsZero() {
			j++
		}
	}
	return transfers
}

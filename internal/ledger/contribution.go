// Package ledger implements the settlement core: validating a bill's
// contribution and consumption shares, merging them into a signed
// per-member net-expense vector, and netting that vector into pairwise
// transfers. Everything here is a pure function of its numeric inputs;
// the same code path that applies a bill also reverses it when called
// with negated shares.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"splitbook/internal/apperr"
)

// Share is one member's amount on one side of a bill.
type Share struct {
	Index  int
	Amount decimal.Decimal
}

// Contribution is an ordered list of shares, ascending by member index.
// The explicit ordering makes the netting engine's iteration order a
// tested design choice instead of a map-iteration accident.
type Contribution []Share

// ContributionFromMap materializes a sparse index->amount map into an
// ordered contribution.
func ContributionFromMap(m map[int]decimal.Decimal) Contribution {
	indices := make([]int, 0, len(m))
	for idx := range m {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	c := make(Contribution, 0, len(m))
	for _, idx := range indices {
		c = append(c, Share{Index: idx, Amount: m[idx]})
	}
	return c
}

// Total sums all share amounts.
func (c Contribution) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range c {
		total = total.Add(s.Amount)
	}
	return total
}

// Negated returns a copy with every amount negated. Used by the
// reversal path so bill deletion runs the exact same pipeline as
// creation.
func (c Contribution) Negated() Contribution {
	out := make(Contribution, len(c))
	for i, s := range c {
		out[i] = Share{Index: s.Index, Amount: s.Amount.Neg()}
	}
	return out
}

// Validate checks a bill's drawee and payee contributions against the
// group's member count and returns the common total amount. It has no
// side effects; on error nothing downstream may run.
func Validate(drawees, payees Contribution, memberCount int) (decimal.Decimal, error) {
	if len(drawees) == 0 {
		return decimal.Zero, apperr.New(apperr.CodeEmptyContribution, "bill has no drawees")
	}
	if len(payees) == 0 {
		return decimal.Zero, apperr.New(apperr.CodeEmptyContribution, "bill has no payees")
	}

	if err := checkShares(drawees, memberCount); err != nil {
		return decimal.Zero, err
	}
	if err := checkShares(payees, memberCount); err != nil {
		return decimal.Zero, err
	}

	drawn := drawees.Total()
	paid := payees.Total()
	if !drawn.Equal(paid) {
		return decimal.Zero, apperr.Newf(apperr.CodeAmountMismatch,
			"total drawn %s does not equal total paid %s", drawn, paid)
	}
	return drawn, nil
}

func checkShares(c Contribution, memberCount int) error {
	for _, s := range c {
		if s.Index < 0 || s.Index >= memberCount {
			return apperr.Newf(apperr.CodeIndexOutOfRange,
				"member index %d out of range (group has %d members)", s.Index, memberCount)
		}
		if s.Amount.Sign() <= 0 {
			return apperr.Newf(apperr.CodeInvalidAmount,
				"share for member %d must be positive, got %s", s.Index, s.Amount)
		}
		if !s.Amount.Shift(2).IsInteger() {
			return apperr.Newf(apperr.CodeInvalidAmount,
				"share for member %d has sub-cent precision: %s", s.Index, s.Amount)
		}
	}
	return nil
}

package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMemberDeltas(t *testing.T) {
	drawees := shares(0, "30", 1, "70")
	payees := shares(1, "20", 2, "80")

	deltas := MemberDeltas(drawees, payees)

	want := []struct {
		index int
		net   string
	}{
		{0, "-30"},
		{1, "-50"},
		{2, "80"},
	}

	if len(deltas) != len(want) {
		t.Fatalf("expected %d deltas, got %d", len(want), len(deltas))
	}
	sum := decimal.Zero
	for i, w := range want {
		if deltas[i].Index != w.index {
			t.Errorf("delta %d: expected index %d, got %d", i, w.index, deltas[i].Index)
		}
		if !deltas[i].Net().Equal(dec(w.net)) {
			t.Errorf("delta %d: expected net %s, got %s", i, w.net, deltas[i].Net())
		}
		sum = sum.Add(deltas[i].Net())
	}
	if !sum.IsZero() {
		t.Errorf("net-expense vector must sum to zero, got %s", sum)
	}
}

func TestMemberDeltas_SidesTracked(t *testing.T) {
	// Member 1 appears on both sides; spent and paid must be kept
	// separate, not collapsed into the net.
	drawees := shares(1, "40")
	payees := shares(1, "40")

	deltas := MemberDeltas(drawees, payees)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	d := deltas[0]
	if !d.Spent.Equal(dec("40")) || !d.Paid.Equal(dec("40")) {
		t.Errorf("expected spent=40 paid=40, got spent=%s paid=%s", d.Spent, d.Paid)
	}
	if !d.Net().IsZero() {
		t.Errorf("expected zero net, got %s", d.Net())
	}
}

func TestNetTransfers(t *testing.T) {
	tests := []struct {
		name    string
		drawees Contribution
		payees  Contribution
		want    []Transfer
	}{
		{
			name:    "single creditor",
			drawees: shares(0, "30", 1, "70"),
			payees:  shares(2, "100"),
			want: []Transfer{
				{Debtor: 0, Creditor: 2, Amount: dec("30")},
				{Debtor: 1, Creditor: 2, Amount: dec("70")},
			},
		},
		{
			name:    "creditor split across debtors",
			drawees: shares(0, "60", 1, "40"),
			payees:  shares(2, "50", 3, "50"),
			want: []Transfer{
				{Debtor: 0, Creditor: 2, Amount: dec("50")},
				{Debtor: 0, Creditor: 3, Amount: dec("10")},
				{Debtor: 1, Creditor: 3, Amount: dec("40")},
			},
		},
		{
			name:    "payer consumed part of own bill",
			drawees: shares(0, "25", 1, "75"),
			payees:  shares(0, "100"),
			want: []Transfer{
				{Debtor: 1, Creditor: 0, Amount: dec("75")},
			},
		},
		{
			name:    "fully self-paid bill nets nothing",
			drawees: shares(0, "100"),
			payees:  shares(0, "100"),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NetTransfers(MemberDeltas(tt.drawees, tt.payees))
			assertTransfers(t, got, tt.want)
		})
	}
}

func TestNetTransfers_TransferBound(t *testing.T) {
	drawees := shares(0, "10", 1, "20", 2, "30")
	payees := shares(3, "15", 4, "45")

	got := NetTransfers(MemberDeltas(drawees, payees))

	// At most #creditors + #debtors - 1 transfers.
	if max := 3 + 2 - 1; len(got) > max {
		t.Errorf("expected at most %d transfers, got %d", max, len(got))
	}

	// Transfers must account for the whole vector.
	perMember := make(map[int]decimal.Decimal)
	for _, tr := range got {
		perMember[tr.Debtor] = perMember[tr.Debtor].Sub(tr.Amount)
		perMember[tr.Creditor] = perMember[tr.Creditor].Add(tr.Amount)
	}
	for _, d := range MemberDeltas(drawees, payees) {
		if !perMember[d.Index].Equal(d.Net()) {
			t.Errorf("member %d: transfers sum to %s, net is %s", d.Index, perMember[d.Index], d.Net())
		}
	}
}

func TestNetTransfers_Deterministic(t *testing.T) {
	drawees := shares(0, "12.50", 1, "37.50", 2, "50")
	payees := shares(3, "100")

	first := NetTransfers(MemberDeltas(drawees, payees))
	for run := 0; run < 10; run++ {
		again := NetTransfers(MemberDeltas(drawees, payees))
		assertTransfers(t, again, first)
	}
}

func TestNetTransfers_ReversalSwapsRoles(t *testing.T) {
	drawees := shares(0, "30", 1, "70")
	payees := shares(2, "100")

	forward := NetTransfers(MemberDeltas(drawees, payees))
	reverse := NetTransfers(MemberDeltas(drawees.Negated(), payees.Negated()))

	if len(forward) != len(reverse) {
		t.Fatalf("expected %d reverse transfers, got %d", len(forward), len(reverse))
	}
	for i, f := range forward {
		r := reverse[i]
		if r.Debtor != f.Creditor || r.Creditor != f.Debtor || !r.Amount.Equal(f.Amount) {
			t.Errorf("transfer %d: forward %+v not mirrored by reverse %+v", i, f, r)
		}
	}
}

func assertTransfers(t *testing.T, got, want []Transfer) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d transfers, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Debtor != w.Debtor || g.Creditor != w.Creditor || !g.Amount.Equal(w.Amount) {
			t.Errorf("transfer %d: expected %d->%d %s, got %d->%d %s",
				i, w.Debtor, w.Creditor, w.Amount, g.Debtor, g.Creditor, g.Amount)
		}
	}
}

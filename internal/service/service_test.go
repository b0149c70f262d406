package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"splitbook/internal/apperr"
	"splitbook/internal/events"
	"splitbook/internal/models"
	"splitbook/internal/storage"
	"splitbook/internal/storage/sqlite"
)

func newTestServices(t *testing.T) (*GroupService, *BillService, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewGroupService(store), NewBillService(store, events.NoopPublisher{}), store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func amounts(pairs ...any) map[int]decimal.Decimal {
	m := make(map[int]decimal.Decimal)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(int)] = dec(pairs[i+1].(string))
	}
	return m
}

func mustCreateGroup(t *testing.T, groups *GroupService, names ...string) *models.Group {
	t.Helper()
	group, _, err := groups.Create(context.Background(), "Flat", "EUR", names)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

// assertLedgerInvariants checks the global invariants that must hold
// after every committed operation: the group is zero-sum, the pairwise
// table is antisymmetric, and each member's net reconciles with their
// row of the pairwise table.
func assertLedgerInvariants(t *testing.T, store storage.Store, groupID string) {
	t.Helper()
	ctx := context.Background()

	members, err := store.GetMembers(ctx, groupID)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	balances, err := store.ListBalances(ctx, groupID)
	if err != nil {
		t.Fatalf("ListBalances failed: %v", err)
	}

	sum := decimal.Zero
	rowSums := make(map[int]decimal.Decimal)
	byPair := make(map[[2]int]decimal.Decimal)
	for _, b := range balances {
		rowSums[b.UserA] = rowSums[b.UserA].Add(b.Balance)
		byPair[[2]int{b.UserA, b.UserB}] = b.Balance
	}

	for _, m := range members {
		net := m.Balance()
		sum = sum.Add(net)
		if !rowSums[m.Index].Equal(net) {
			t.Errorf("member %d: net %s does not reconcile with pairwise row sum %s",
				m.Index, net, rowSums[m.Index])
		}
	}
	if !sum.IsZero() {
		t.Errorf("ledger is not zero-sum: %s", sum)
	}

	for pair, bal := range byPair {
		mirror, ok := byPair[[2]int{pair[1], pair[0]}]
		if !ok {
			t.Errorf("balance(%d,%d) has no mirror row", pair[0], pair[1])
			continue
		}
		if !bal.Equal(mirror.Neg()) {
			t.Errorf("antisymmetry violated: balance(%d,%d)=%s, balance(%d,%d)=%s",
				pair[0], pair[1], bal, pair[1], pair[0], mirror)
		}
	}
}

func TestCreateBill_Conservation(t *testing.T) {
	groups, bills, store := newTestServices(t)
	ctx := context.Background()
	group := mustCreateGroup(t, groups, "Alice", "Bob", "Carol")

	res, err := bills.Create(ctx, CreateBillInput{
		GroupID:   group.ID,
		Name:      "Dinner",
		Category:  "food",
		CreatedBy: 2,
		Drawees:   amounts(0, "30", 1, "70"),
		Payees:    amounts(2, "100"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if res.Bill.ID == "" {
		t.Error("expected bill ID")
	}
	if res.GroupTotal == nil || !res.GroupTotal.Equal(dec("100")) {
		t.Errorf("expected group total 100, got %v", res.GroupTotal)
	}
	if len(res.Members) != 3 {
		t.Fatalf("expected 3 touched members, got %d", len(res.Members))
	}

	byIndex := make(map[int]*models.Member)
	for _, m := range res.Members {
		byIndex[m.Index] = m
	}
	if !byIndex[0].TotalSpent.Equal(dec("30")) {
		t.Errorf("member 0 spent: expected 30, got %s", byIndex[0].TotalSpent)
	}
	if !byIndex[1].TotalSpent.Equal(dec("70")) {
		t.Errorf("member 1 spent: expected 70, got %s", byIndex[1].TotalSpent)
	}
	if !byIndex[2].TotalPaid.Equal(dec("100")) {
		t.Errorf("member 2 paid: expected 100, got %s", byIndex[2].TotalPaid)
	}

	positive, err := groups.Balances(ctx, group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	want := map[[2]int]string{{2, 0}: "30", {2, 1}: "70"}
	if len(positive) != len(want) {
		t.Fatalf("expected %d positive balances, got %d", len(want), len(positive))
	}
	for _, b := range positive {
		if w, ok := want[[2]int{b.UserA, b.UserB}]; !ok || !b.Balance.Equal(dec(w)) {
			t.Errorf("unexpected balance (%d,%d)=%s", b.UserA, b.UserB, b.Balance)
		}
	}

	assertLedgerInvariants(t, store, group.ID)
}

func TestCreateBill_MismatchLeavesStateUntouched(t *testing.T) {
	groups, bills, store := newTestServices(t)
	ctx := context.Background()
	group := mustCreateGroup(t, groups, "Alice", "Bob", "Carol")

	_, err := bills.Create(ctx, CreateBillInput{
		GroupID: group.ID,
		Name:    "Broken",
		Drawees: amounts(0, "30", 1, "70"),
		Payees:  amounts(2, "90"),
	})
	if apperr.CodeOf(err) != apperr.CodeAmountMismatch {
		t.Fatalf("expected AmountMismatch, got %v", err)
	}

	stored, err := bills.List(ctx, group.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected no bills after rejection, got %d", len(stored))
	}
	g, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !g.TotalExpense.IsZero() {
		t.Errorf("group total changed after rejection: %s", g.TotalExpense)
	}
	members, err := store.GetMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	for _, m := range members {
		if !m.TotalSpent.IsZero() || !m.TotalPaid.IsZero() {
			t.Errorf("member %d totals changed after rejection", m.Index)
		}
	}
}

func TestCreateBill_IndexBound(t *testing.T) {
	groups, bills, _ := newTestServices(t)
	group := mustCreateGroup(t, groups, "Alice", "Bob")

	_, err := bills.Create(context.Background(), CreateBillInput{
		GroupID: group.ID,
		Name:    "Out of range",
		Drawees: amounts(5, "10"),
		Payees:  amounts(0, "10"),
	})
	if apperr.CodeOf(err) != apperr.CodeIndexOutOfRange {
		t.Errorf("expected IndexOutOfRange, got %v", err)
	}
}

func TestCreateBill_CreatedByBound(t *testing.T) {
	groups, bills, _ := newTestServices(t)
	group := mustCreateGroup(t, groups, "Alice", "Bob")

	_, err := bills.Create(context.Background(), CreateBillInput{
		GroupID:   group.ID,
		Name:      "Bad recorder",
		CreatedBy: 9,
		Drawees:   amounts(0, "10"),
		Payees:    amounts(1, "10"),
	})
	if apperr.CodeOf(err) != apperr.CodeIndexOutOfRange {
		t.Errorf("expected IndexOutOfRange, got %v", err)
	}
}

func TestCreateBill_UnknownGroup(t *testing.T) {
	_, bills, _ := newTestServices(t)

	_, err := bills.Create(context.Background(), CreateBillInput{
		GroupID: "nope",
		Drawees: amounts(0, "10"),
		Payees:  amounts(1, "10"),
	})
	if apperr.CodeOf(err) != apperr.CodeInvalidGroup {
		t.Errorf("expected InvalidGroup, got %v", err)
	}
}

func TestDeleteBill_RoundTrip(t *testing.T) {
	groups, bills, store := newTestServices(t)
	ctx := context.Background()
	group := mustCreateGroup(t, groups, "Alice", "Bob", "Carol")

	// Establish non-trivial prior state.
	if _, err := bills.Create(ctx, CreateBillInput{
		GroupID: group.ID,
		Name:    "Groceries",
		Drawees: amounts(0, "20", 1, "20", 2, "20"),
		Payees:  amounts(0, "60"),
	}); err != nil {
		t.Fatalf("setup bill failed: %v", err)
	}

	snapshot := func() (map[int][2]string, map[[2]int]string, string) {
		members, err := store.GetMembers(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetMembers failed: %v", err)
		}
		totals := make(map[int][2]string)
		for _, m := range members {
			totals[m.Index] = [2]string{m.TotalSpent.String(), m.TotalPaid.String()}
		}
		balances, err := store.ListBalances(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListBalances failed: %v", err)
		}
		pairs := make(map[[2]int]string)
		for _, b := range balances {
			pairs[[2]int{b.UserA, b.UserB}] = b.Balance.String()
		}
		g, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		return totals, pairs, g.TotalExpense.String()
	}

	beforeTotals, beforePairs, beforeExpense := snapshot()

	res, err := bills.Create(ctx, CreateBillInput{
		GroupID: group.ID,
		Name:    "Taxi",
		Drawees: amounts(1, "12.50", 2, "37.50"),
		Payees:  amounts(0, "50"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := bills.Delete(ctx, res.Bill.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	afterTotals, afterPairs, afterExpense := snapshot()

	if len(afterTotals) != len(beforeTotals) {
		t.Fatalf("member count changed: %d -> %d", len(beforeTotals), len(afterTotals))
	}
	for idx, before := range beforeTotals {
		if afterTotals[idx] != before {
			t.Errorf("member %d totals not restored: %v -> %v", idx, before, afterTotals[idx])
		}
	}
	// Pair rows are never deleted, so the delete may leave zero-valued
	// rows behind; every surviving value must match the pre-create one.
	for pair, after := range afterPairs {
		before, existed := beforePairs[pair]
		if !existed {
			before = "0"
		}
		if dAfter, dBefore := dec(after), dec(before); !dAfter.Equal(dBefore) {
			t.Errorf("balance(%d,%d) not restored: %s -> %s", pair[0], pair[1], before, after)
		}
	}
	if beforeExpense != afterExpense {
		t.Errorf("group total not restored: %s -> %s", beforeExpense, afterExpense)
	}

	assertLedgerInvariants(t, store, group.ID)
}

func TestDeleteBill_Unknown(t *testing.T) {
	_, bills, _ := newTestServices(t)

	_, err := bills.Delete(context.Background(), "ghost")
	if apperr.CodeOf(err) != apperr.CodeInvalidBill {
		t.Errorf("expected InvalidBill, got %v", err)
	}
}

func TestPaymentNeutrality(t *testing.T) {
	groups, bills, store := newTestServices(t)
	ctx := context.Background()
	group := mustCreateGroup(t, groups, "Alice", "Bob")

	if _, err := bills.Create(ctx, CreateBillInput{
		GroupID: group.ID,
		Name:    "Rent",
		Drawees: amounts(0, "50", 1, "50"),
		Payees:  amounts(0, "100"),
	}); err != nil {
		t.Fatalf("setup bill failed: %v", err)
	}

	// Bob settles up with Alice.
	res, err := bills.Create(ctx, CreateBillInput{
		GroupID:   group.ID,
		Name:      "Settle up",
		IsPayment: true,
		Drawees:   amounts(0, "50"),
		Payees:    amounts(1, "50"),
	})
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	if res.GroupTotal != nil {
		t.Errorf("payment response carries a group total: %s", *res.GroupTotal)
	}
	g, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !g.TotalExpense.Equal(dec("100")) {
		t.Errorf("payment changed group total: %s", g.TotalExpense)
	}

	// The payment must still clear the pairwise debt.
	positive, err := groups.Balances(ctx, group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if len(positive) != 0 {
		t.Errorf("expected cleared balances, got %d rows", len(positive))
	}

	assertLedgerInvariants(t, store, group.ID)
}

func TestInvariantsAcrossManyBills(t *testing.T) {
	groups, bills, store := newTestServices(t)
	ctx := context.Background()
	group := mustCreateGroup(t, groups, "Alice", "Bob", "Carol", "Dan")

	fixtures := []struct {
		drawees map[int]decimal.Decimal
		payees  map[int]decimal.Decimal
		payment bool
	}{
		{amounts(0, "25", 1, "25", 2, "25", 3, "25"), amounts(0, "100"), false},
		{amounts(1, "12.50", 2, "7.50"), amounts(3, "20"), false},
		{amounts(0, "33.34", 1, "33.33", 2, "33.33"), amounts(1, "50", 2, "50"), false},
		{amounts(1, "25"), amounts(0, "25"), true},
	}

	var created []string
	for i, f := range fixtures {
		res, err := bills.Create(ctx, CreateBillInput{
			GroupID:   group.ID,
			Name:      "bill",
			IsPayment: f.payment,
			Drawees:   f.drawees,
			Payees:    f.payees,
		})
		if err != nil {
			t.Fatalf("bill %d failed: %v", i, err)
		}
		created = append(created, res.Bill.ID)
		assertLedgerInvariants(t, store, group.ID)
	}

	// Unwind everything; the ledger must return to all-zero.
	for _, id := range created {
		if _, err := bills.Delete(ctx, id); err != nil {
			t.Fatalf("delete %s failed: %v", id, err)
		}
		assertLedgerInvariants(t, store, group.ID)
	}

	members, err := store.GetMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	for _, m := range members {
		if !m.TotalSpent.IsZero() || !m.TotalPaid.IsZero() {
			t.Errorf("member %d totals not zero after full unwind", m.Index)
		}
	}
	g, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !g.TotalExpense.IsZero() {
		t.Errorf("group total not zero after full unwind: %s", g.TotalExpense)
	}
}

func TestMemberBalances(t *testing.T) {
	groups, bills, _ := newTestServices(t)
	ctx := context.Background()
	group := mustCreateGroup(t, groups, "Alice", "Bob", "Carol")

	if _, err := bills.Create(ctx, CreateBillInput{
		GroupID: group.ID,
		Name:    "Lunch",
		Drawees: amounts(1, "15", 2, "15"),
		Payees:  amounts(0, "30"),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("returns one member's row", func(t *testing.T) {
		rows, err := groups.MemberBalances(ctx, group.ID, 0)
		if err != nil {
			t.Fatalf("MemberBalances failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 counterparties, got %d", len(rows))
		}
		for _, b := range rows {
			if b.UserA != 0 {
				t.Errorf("row belongs to member %d", b.UserA)
			}
			if !b.Balance.Equal(dec("15")) {
				t.Errorf("balance(0,%d): expected 15, got %s", b.UserB, b.Balance)
			}
		}
	})

	t.Run("rejects out-of-range index", func(t *testing.T) {
		_, err := groups.MemberBalances(ctx, group.ID, 9)
		if apperr.CodeOf(err) != apperr.CodeIndexOutOfRange {
			t.Errorf("expected IndexOutOfRange, got %v", err)
		}
	})
}

func TestGroupService_Validation(t *testing.T) {
	groups, _, _ := newTestServices(t)
	ctx := context.Background()

	t.Run("empty name rejected", func(t *testing.T) {
		_, _, err := groups.Create(ctx, " ", "EUR", []string{"Alice"})
		if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
			t.Errorf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("no members rejected", func(t *testing.T) {
		_, _, err := groups.Create(ctx, "Flat", "EUR", nil)
		if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
			t.Errorf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("link requires account id", func(t *testing.T) {
		group := mustCreateGroup(t, groups, "Alice")
		err := groups.LinkMember(ctx, group.ID, 0, "")
		if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
			t.Errorf("expected InvalidArgument, got %v", err)
		}
	})
}

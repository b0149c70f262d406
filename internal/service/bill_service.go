// Package service orchestrates the ledger pipeline on top of storage:
// validation, vectorizing, netting, and the atomic persistence of each
// bill's effects.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"splitbook/internal/apperr"
	"splitbook/internal/events"
	"splitbook/internal/ledger"
	"splitbook/internal/metrics"
	"splitbook/internal/models"
	"splitbook/internal/storage"
)

// BillService runs the create/delete pipeline for bills.
type BillService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewBillService creates a BillService with the given storage backend
// and event publisher.
func NewBillService(store storage.Store, publisher events.Publisher) *BillService {
	return &BillService{store: store, publisher: publisher}
}

// CreateBillInput is the boundary payload for posting a bill.
// Drawees maps member index to the amount consumed, Payees to the
// amount contributed; both sides must sum to the same total.
type CreateBillInput struct {
	GroupID   string
	Name      string
	Category  string
	Notes     string
	IsPayment bool
	CreatedBy int
	CreatedAt int64
	Drawees   map[int]decimal.Decimal
	Payees    map[int]decimal.Decimal
}

// BillResult reports what a bill mutation changed. GroupTotal is nil
// for payments, which leave the group's total expense untouched.
type BillResult struct {
	Bill       *models.Bill
	Members    []*models.Member
	GroupTotal *decimal.Decimal
}

// Create validates the contributions, nets them into pairwise transfers
// and applies everything in one storage transaction.
func (s *BillService) Create(ctx context.Context, in CreateBillInput) (*BillResult, error) {
	start := time.Now()

	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		slog.Error("CreateBill: group lookup failed", "group_id", in.GroupID, "error", err)
		return nil, err
	}
	members, err := s.store.GetMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	memberCount := len(members)

	drawees := ledger.ContributionFromMap(in.Drawees)
	payees := ledger.ContributionFromMap(in.Payees)

	total, err := ledger.Validate(drawees, payees, memberCount)
	if err != nil {
		metrics.ValidationRejected.WithLabelValues(string(apperr.CodeOf(err))).Inc()
		slog.Warn("CreateBill rejected", "group_id", group.ID, "error", err)
		return nil, err
	}
	if in.CreatedBy < 0 || in.CreatedBy >= memberCount {
		err := apperr.Newf(apperr.CodeIndexOutOfRange,
			"created_by index %d out of range (group has %d members)", in.CreatedBy, memberCount)
		metrics.ValidationRejected.WithLabelValues(string(apperr.CodeIndexOutOfRange)).Inc()
		return nil, err
	}

	deltas := ledger.MemberDeltas(drawees, payees)
	transfers := ledger.NetTransfers(deltas)

	bill := &models.Bill{
		GroupID:   group.ID,
		Name:      in.Name,
		Amount:    total,
		Category:  in.Category,
		IsPayment: in.IsPayment,
		Notes:     in.Notes,
		CreatedBy: in.CreatedBy,
		CreatedAt: in.CreatedAt,
		Drawees:   toModelShares(drawees),
		Payees:    toModelShares(payees),
	}

	effect, err := s.store.ApplyBill(ctx, bill, deltas, transfers)
	if err != nil {
		slog.Error("CreateBill failed", "group_id", group.ID, "error", err)
		return nil, err
	}

	metrics.BillsCreated.Inc()
	metrics.TransfersPerBill.Observe(float64(len(transfers)))
	metrics.PipelineDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())

	slog.Info("Bill created",
		"bill_id", bill.ID,
		"group_id", group.ID,
		"amount", total,
		"is_payment", bill.IsPayment,
		"transfers", len(transfers),
	)

	s.publish(ctx, events.KindBillCreated, bill)
	return result(bill, effect), nil
}

// Delete reverses a bill by rerunning the same pipeline over its
// negated shares, then removes the bill record. Round-trip property:
// create followed by delete restores all totals and pairwise balances
// cent for cent.
func (s *BillService) Delete(ctx context.Context, billID string) (*BillResult, error) {
	start := time.Now()

	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		slog.Error("DeleteBill: bill lookup failed", "bill_id", billID, "error", err)
		return nil, err
	}

	drawees := fromModelShares(bill.Drawees).Negated()
	payees := fromModelShares(bill.Payees).Negated()

	deltas := ledger.MemberDeltas(drawees, payees)
	transfers := ledger.NetTransfers(deltas)

	effect, err := s.store.RemoveBill(ctx, bill, deltas, transfers)
	if err != nil {
		slog.Error("DeleteBill failed", "bill_id", billID, "error", err)
		return nil, err
	}

	metrics.BillsDeleted.Inc()
	metrics.PipelineDuration.WithLabelValues("delete").Observe(time.Since(start).Seconds())

	slog.Info("Bill deleted", "bill_id", bill.ID, "group_id", bill.GroupID)

	s.publish(ctx, events.KindBillDeleted, bill)
	return result(bill, effect), nil
}

// Get retrieves a bill with its shares.
func (s *BillService) Get(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		slog.Error("GetBill failed", "bill_id", billID, "error", err)
		return nil, err
	}
	return bill, nil
}

// List returns the group's bills, newest first.
func (s *BillService) List(ctx context.Context, groupID string) ([]*models.Bill, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListBills(ctx, groupID)
}

// publish is best effort: a broker outage never fails a committed bill.
func (s *BillService) publish(ctx context.Context, kind string, bill *models.Bill) {
	ev := &events.BillEvent{
		Kind:      kind,
		BillID:    bill.ID,
		GroupID:   bill.GroupID,
		Amount:    bill.Amount.String(),
		IsPayment: bill.IsPayment,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to publish bill event", "kind", kind, "bill_id", bill.ID, "error", err)
	}
}

func result(bill *models.Bill, effect *storage.BillEffect) *BillResult {
	res := &BillResult{Bill: bill, Members: effect.Members}
	if !bill.IsPayment {
		total := effect.GroupTotal
		res.GroupTotal = &total
	}
	return res
}

func toModelShares(c ledger.Contribution) []models.Share {
	shares := make([]models.Share, len(c))
	for i, s := range c {
		shares[i] = models.Share{UserIndex: s.Index, Amount: s.Amount}
	}
	return shares
}

func fromModelShares(shares []models.Share) ledger.Contribution {
	c := make(ledger.Contribution, len(shares))
	for i, s := range shares {
		c[i] = ledger.Share{Index: s.UserIndex, Amount: s.Amount}
	}
	return c
}

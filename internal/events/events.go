// Package events publishes ledger lifecycle events to AMQP so external
// consumers (notification workers, sync jobs) can react to committed
// bills without polling.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	KindBillCreated = "bill.created"
	KindBillDeleted = "bill.deleted"
)

// BillEvent describes a committed bill mutation. Amount is a decimal
// string so consumers never touch binary floats.
type BillEvent struct {
	Kind      string    `json:"kind"`
	BillID    string    `json:"bill_id"`
	GroupID   string    `json:"group_id"`
	Amount    string    `json:"amount"`
	IsPayment bool      `json:"is_payment"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes.
func (e *BillEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BillEventFromJSON decodes an event from JSON bytes.
func BillEventFromJSON(data []byte) (*BillEvent, error) {
	var ev BillEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Publisher delivers bill events. Publishing happens after commit and
// is best effort: a failed publish never rolls back the ledger.
type Publisher interface {
	Publish(ctx context.Context, ev *BillEvent) error
	Close() error
}

// NoopPublisher drops all events. Used when AMQP is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *BillEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }

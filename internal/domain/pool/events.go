package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventDeposited        = "deposited"
	EventWithdrawn        = "withdrawn"
	EventLoanRequested    = "loan_requested"
	EventLoanRepaid       = "loan_repaid"
	EventLoanDefaulted    = "loan_defaulted"
	EventRewardMinted     = "reward_minted"
	EventRewardMintFailed = "reward_mint_failed"
)

type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Account string    `json:"account,omitempty"`
	LoanID  uint64    `json:"loan_id,omitempty"`
	Amount  int64     `json:"amount"`
	Price   int64     `json:"price,omitempty"`
	Stats   Stats     `json:"stats"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// EventSink receives an event after the operation that produced it has
// committed. Publish must not block the engine for long.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}

type discardSink struct{}

func (discardSink) Publish(context.Context, Event) {}

// MultiSink fans one event out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ctx, ev)
		}
	}
}

func newEvent(kind string, now time.Time) Event {
	return Event{ID: uuid.NewString(), Type: kind, At: now.UTC()}
}

package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lumilend/backend/internal/domain/pool"
)

const ChannelPoolActivity = "pool:activity"

// Notifier fans committed pool events out to websocket subscribers: every
// event on pool:activity, plus the account and loan channels it concerns.
type Notifier struct {
	hub    *Hub
	logger *slog.Logger
}

func NewNotifier(hub *Hub, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{hub: hub, logger: logger}
}

func (n *Notifier) Publish(_ context.Context, ev pool.Event) {
	payload, err := json.Marshal(map[string]any{
		"event": ev.Type,
		"data":  ev,
	})
	if err != nil {
		n.logger.Error("encode realtime event", "event_id", ev.ID, "err", err)
		return
	}

	n.hub.Publish(ChannelPoolActivity, payload)
	if ev.Account != "" {
		n.hub.Publish(accountChannel(ev.Account), payload)
	}
	if ev.LoanID != 0 {
		n.hub.Publish(loanChannel(ev.LoanID), payload)
	}
}

var _ pool.EventSink = (*Notifier)(nil)

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/viewstate"
)

type UpdateSource interface {
	Subscribe(fn func(viewstate.Update)) func()
}

// Notifier fans view-state updates and settled transactions out to
// websocket subscribers. Updates are buffered so the adapter never waits on
// the network.
type Notifier struct {
	hub     *Hub
	logger  *slog.Logger
	updates chan viewstate.Update
	settled chan history.Record
	onDrop  func()
}

func NewNotifier(hub *Hub, buffer int, logger *slog.Logger) *Notifier {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		hub:     hub,
		logger:  logger,
		updates: make(chan viewstate.Update, buffer),
		settled: make(chan history.Record, buffer),
	}
}

// OnDrop registers a callback for updates dropped on a full buffer.
func (n *Notifier) OnDrop(fn func()) { n.onDrop = fn }

// Attach subscribes to src and returns the unsubscribe func.
func (n *Notifier) Attach(src UpdateSource) func() {
	return src.Subscribe(func(u viewstate.Update) {
		select {
		case n.updates <- u:
		default:
			n.dropped("state_changed")
		}
	})
}

// TransactionSettled queues a history change for the record's account.
func (n *Notifier) TransactionSettled(rec history.Record) {
	select {
	case n.settled <- rec:
	default:
		n.dropped("transaction_settled")
	}
}

func (n *Notifier) dropped(event string) {
	n.logger.Warn("notifier buffer full; dropping event", "event", event)
	if n.onDrop != nil {
		n.onDrop()
	}
}

func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-n.updates:
			n.publishUpdate(u)
		case rec := <-n.settled:
			n.publishSettled(rec)
		}
	}
}

func (n *Notifier) publishUpdate(u viewstate.Update) {
	if u.Address == "" {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"event": "state_changed",
		"data":  u,
	})
	n.hub.Publish(accountTopic(ChannelAccountState, u.Address), payload)
	if u.Slot == viewstate.SlotPool {
		n.hub.Publish(ChannelPoolInfo, payload)
	}
}

func (n *Notifier) publishSettled(rec history.Record) {
	payload, _ := json.Marshal(map[string]any{
		"event": "transaction_settled",
		"data": map[string]any{
			"id":         rec.ID,
			"txid":       rec.TxID,
			"action":     rec.Action,
			"status":     rec.Status,
			"reason":     rec.Reason,
			"settled_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	n.hub.Publish(accountTopic(ChannelAccountHistory, rec.Address), payload)
}

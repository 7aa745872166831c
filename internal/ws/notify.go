package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// maxNotifyPayload stays under Postgres' 8000 byte NOTIFY limit.
const maxNotifyPayload = 7900

// ──────────────────────────────────────────────────────────────────────────────
// Notifier: back-office side
// ──────────────────────────────────────────────────────────────────────────────

// Notifier implements service.Broadcaster for the back-office process, which
// has no WebSocket clients of its own. Each event is encoded exactly as the
// Hub would encode it and published with pg_notify; the API process relays
// it to its members.
type Notifier struct {
	db      *sqlx.DB
	channel string
	log     *slog.Logger
	timeout time.Duration
}

// NewNotifier creates a Notifier publishing on channel.
func NewNotifier(db *sqlx.DB, channel string, log *slog.Logger) *Notifier {
	return &Notifier{db: db, channel: channel, log: log, timeout: 5 * time.Second}
}

// BroadcastParlayUpdated publishes a parlay_updated message.
func (n *Notifier) BroadcastParlayUpdated(p *domain.Parlay) {
	if n.notify(NewParlayUpdated(p)) {
		return
	}
	// Very large groups overflow NOTIFY; clients refetch on a bare event.
	bare := *p
	bare.SummaryJSON = nil
	if !n.notify(NewParlayUpdated(&bare)) {
		n.log.Warn("ws.Notifier: parlay event too large, dropped", "week_id", p.WeekID)
	}
}

// BroadcastLegStatusChanged publishes a leg_status_changed message.
func (n *Notifier) BroadcastLegStatusChanged(l *domain.Leg) {
	n.notify(NewLegStatusChanged(l))
}

// BroadcastWeekStatusChanged publishes a week_status_changed message.
func (n *Notifier) BroadcastWeekStatusChanged(w *domain.Week) {
	n.notify(NewWeekStatusChanged(w))
}

// notify reports false only when the payload was too large to send.
func (n *Notifier) notify(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		n.log.Error("ws.Notifier: marshal failed", "err", err)
		return true
	}
	if len(data) > maxNotifyPayload {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if _, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.channel, string(data)); err != nil {
		n.log.Error("ws.Notifier: pg_notify failed", "channel", n.channel, "err", err)
	}
	return true
}

var _ service.Broadcaster = (*Notifier)(nil)

// ──────────────────────────────────────────────────────────────────────────────
// Relay: API side
// ──────────────────────────────────────────────────────────────────────────────

// Relay listens on the notify channel and forwards every payload to the Hub.
type Relay struct {
	dsn     string
	channel string
	hub     *Hub
	log     *slog.Logger
}

// NewRelay creates a Relay for hub.
func NewRelay(dsn, channel string, hub *Hub, log *slog.Logger) *Relay {
	return &Relay{dsn: dsn, channel: channel, hub: hub, log: log}
}

// Run blocks until ctx is cancelled. pq.Listener reconnects on its own;
// events raised while it is disconnected are lost.
func (r *Relay) Run(ctx context.Context) error {
	listener := pq.NewListener(r.dsn, time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventDisconnected:
				r.log.Warn("ws.Relay: listener disconnected", "err", err)
			case pq.ListenerEventReconnected:
				r.log.Info("ws.Relay: listener reconnected")
			case pq.ListenerEventConnectionAttemptFailed:
				r.log.Warn("ws.Relay: reconnect failed", "err", err)
			}
		})
	defer listener.Close()

	if err := listener.Listen(r.channel); err != nil {
		return err
	}
	r.log.Info("ws.Relay: listening", "channel", r.channel)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				continue
			}
			r.hub.Publish([]byte(n.Extra))
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					r.log.Warn("ws.Relay: ping failed", "err", err)
				}
			}()
		}
	}
}

package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"hushnet/internal/observability/metrics"
	"hushnet/internal/store"
)

const reconnectBackoff = 3 * time.Second

// Listener holds the one LISTEN connection for the process lifetime and
// republishes parsed notifications onto the bus.
type Listener struct {
	dsn string
	bus *Bus
	log *slog.Logger
}

func NewListener(dsn string, bus *Bus, log *slog.Logger) *Listener {
	return &Listener{dsn: dsn, bus: bus, log: log}
}

// Run blocks until ctx is canceled, reconnecting with backoff whenever
// the LISTEN connection drops. Invalid payloads are dropped, never
// fatal.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			l.log.Error("realtime: listener connection lost", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	for _, channel := range []string{store.MessagesChannel, store.SessionsChannel, store.DevicesChannel} {
		if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
			return err
		}
	}
	l.log.Info("realtime: listening on store channels")

	for {
		notif, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, ok := Parse([]byte(notif.Payload))
		if !ok {
			l.log.Debug("realtime: dropping unrecognized notification", "channel", notif.Channel)
			continue
		}
		metrics.RealtimeEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
		l.bus.Publish(ev)
	}
}

package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PostgresChannel is the NOTIFY channel fed by the kv_store trigger.
const PostgresChannel = "kv_changes"

var _ Listener = (*PostgresListener)(nil)

// PostgresListener handles PostgreSQL LISTEN/NOTIFY for kv_store changes
type PostgresListener struct {
	hub

	connStr  string
	listener *pq.Listener
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewPostgresListener creates a listener for the database at connStr
func NewPostgresListener(connStr string) *PostgresListener {
	ctx, cancel := context.WithCancel(context.Background())

	return &PostgresListener{
		connStr: connStr,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins listening for notifications
func (ps *PostgresListener) Start() error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("PubSub listener error", slog.Any("error", err))
		}
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Warn("PubSub connection attempt failed, will retry")
		case pq.ListenerEventDisconnected:
			slog.Warn("PubSub disconnected, will attempt reconnect")
		case pq.ListenerEventReconnected:
			slog.Info("PubSub reconnected, triggering full reload")
			ps.notifyHandlers(ChangeEvent{Operation: OperationReload})
		}
	}

	ps.listener = pq.NewListener(ps.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := ps.listener.Listen(PostgresChannel); err != nil {
		ps.listener.Close()
		return fmt.Errorf("failed to listen on %s channel: %w", PostgresChannel, err)
	}

	slog.Info("PubSub started listening for storage changes", slog.String("channel", PostgresChannel))

	go ps.processNotifications()

	return nil
}

// Stop closes the listener
func (ps *PostgresListener) Stop() {
	ps.cancel()
	if ps.listener != nil {
		ps.listener.Close()
	}
	slog.Info("PubSub stopped")
}

func (ps *PostgresListener) processNotifications() {
	for {
		select {
		case <-ps.ctx.Done():
			return
		case notification, ok := <-ps.listener.Notify:
			if !ok {
				return
			}
			if notification == nil {
				// Connection lost, will be handled by reportProblem callback
				continue
			}
			ps.dispatch(notification.Extra)
		case <-time.After(90 * time.Second):
			// Check the connection is still alive
			go func() {
				if err := ps.listener.Ping(); err != nil {
					slog.Warn("PubSub ping failed", slog.Any("error", err))
				}
			}()
		}
	}
}

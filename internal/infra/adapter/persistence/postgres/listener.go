package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Notifier is the part of *pq.Listener the ChangeListener uses.
type Notifier interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// ChangeListener follows ChangesChannel so a process sees the writes made by
// other processes sharing the database.
type ChangeListener struct {
	conn         Notifier
	logger       *slog.Logger
	pingInterval time.Duration
}

// DialChangeListener opens a dedicated LISTEN connection for dsn. It
// reconnects on its own; connection events are logged.
func DialChangeListener(dsn string, logger *slog.Logger) *ChangeListener {
	conn := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			logger.Info("change listener connected", slog.String("channel", ChangesChannel))
		case pq.ListenerEventDisconnected:
			logger.Warn("change listener disconnected", slog.Any("error", err))
		case pq.ListenerEventReconnected:
			logger.Info("change listener reconnected", slog.String("channel", ChangesChannel))
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("change listener connection attempt failed", slog.Any("error", err))
		}
	})
	return NewChangeListener(conn, logger)
}

// NewChangeListener wraps an existing notifier.
func NewChangeListener(conn Notifier, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{conn: conn, logger: logger, pingInterval: 90 * time.Second}
}

// Run listens until ctx ends and calls onChange for every notification with
// the changed source. A nil slice means any source may have changed: the
// payload was empty or the connection was re-established and notifications
// may have been missed. The notifier is closed when Run returns.
func (l *ChangeListener) Run(ctx context.Context, onChange func(sources []string)) error {
	defer func() {
		if err := l.conn.Close(); err != nil {
			l.logger.Warn("failed to close change listener", slog.Any("error", err))
		}
	}()
	if err := l.conn.Listen(ChangesChannel); err != nil {
		return fmt.Errorf("ChangeListener.Run: listen: %w", err)
	}

	ping := time.NewTicker(l.pingInterval)
	defer ping.Stop()
	notifications := l.conn.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return errors.New("ChangeListener.Run: notification channel closed")
			}
			if n == nil || n.Extra == "" {
				onChange(nil)
				continue
			}
			onChange([]string{n.Extra})
		case <-ping.C:
			if err := l.conn.Ping(); err != nil {
				l.logger.Warn("change listener ping failed", slog.Any("error", err))
			}
		}
	}
}

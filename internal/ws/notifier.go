package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

type NotificationEvent struct {
	ID          int64
	RecipientID string
	Event       string
	Payload     []byte
	CreatedAt   time.Time
}

type NotificationRepository interface {
	ListEventsSince(ctx context.Context, lastID int64, limit int32) ([]NotificationEvent, error)
}

// Notifier polls the notification table and pushes each event to its
// recipient's channel. It keeps a high-water mark in memory; a restart
// replays nothing older than the first poll.
type Notifier struct {
	repo         NotificationRepository
	hub          *Hub
	logger       *slog.Logger
	pollInterval time.Duration
	lastID       int64
}

func NewNotifier(repo NotificationRepository, hub *Hub, logger *slog.Logger, pollInterval time.Duration) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Notifier{repo: repo, hub: hub, logger: logger, pollInterval: pollInterval}
}

// Run polls until the context ends. A failed poll is logged and retried on
// the next tick; transient database errors must not stop push delivery for
// the whole process.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.tick(ctx); err != nil {
				n.logger.Error("notification poll failed", "err", err)
			}
		}
	}
}

func (n *Notifier) tick(ctx context.Context) error {
	events, err := n.repo.ListEventsSince(ctx, n.lastID, 100)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.ID > n.lastID {
			n.lastID = ev.ID
		}
		payload, _ := json.Marshal(map[string]any{
			"event": ev.Event,
			"data":  json.RawMessage(ev.Payload),
			"at":    ev.CreatedAt.UTC().Format(time.RFC3339),
		})
		n.hub.Publish(UserChannel(ev.RecipientID), payload)
	}
	return nil
}

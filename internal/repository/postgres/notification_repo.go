package postgres

import (
	"context"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Insert(ctx context.Context, recipientID, event string, payload []byte) error {
	q := `INSERT INTO notification_events (recipient_id, event, payload) VALUES ($1, $2, $3::jsonb)`
	_, err := r.pool.Exec(ctx, q, recipientID, event, payload)
	return err
}

func (r *NotificationRepository) ListEventsSince(ctx context.Context, lastID int64, limit int32) ([]ws.NotificationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
SELECT id, recipient_id, event, payload, created_at
FROM notification_events
WHERE id > $1
ORDER BY id
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ws.NotificationEvent, 0)
	for rows.Next() {
		var ev ws.NotificationEvent
		if err := rows.Scan(&ev.ID, &ev.RecipientID, &ev.Event, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

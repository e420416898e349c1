package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-escrow/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	eventStatusPending    = "pending"
	eventStatusProcessing = "processing"
	eventStatusFailed     = "failed"
)

// EventStore is the durable notification outbox. Rows stay pending until a
// dispatcher claims, delivers, and acks them inside the same process that
// committed the settlement.
type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*escrowEventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*escrowEventRecord](db, eventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid event repository wiring: %w", err)
		}
	}
	return &EventStore{db: db, repo: repo}, nil
}

func (s *EventStore) Append(ctx context.Context, notification core.Notification) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	if strings.TrimSpace(notification.Name) == "" {
		return fmt.Errorf("sqlstore: notification name is required")
	}

	id := strings.TrimSpace(notification.ID)
	if id == "" {
		id = uuid.NewString()
	}
	occurredAt := notification.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	now := time.Now().UTC()
	record := &escrowEventRecord{
		ID:         id,
		Name:       strings.TrimSpace(notification.Name),
		OrderID:    notification.OrderID,
		Payload:    copyAnyMap(notification.Payload),
		Metadata:   copyAnyMap(notification.Metadata),
		Status:     eventStatusPending,
		Attempts:   0,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if record.Payload == nil {
		record.Payload = map[string]any{}
	}
	if record.Metadata == nil {
		record.Metadata = map[string]any{}
	}

	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *EventStore) ClaimBatch(ctx context.Context, limit int) ([]core.Notification, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := time.Now().UTC()
	var records []escrowEventRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT id
	FROM escrow_events
	WHERE status = ?
	  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
	ORDER BY occurred_at ASC
	LIMIT ?
)
UPDATE escrow_events
SET status = ?, updated_at = ?
WHERE id IN (SELECT id FROM claimed)
  AND status = ?
RETURNING
	id,
	name,
	order_id,
	payload,
	metadata,
	status,
	attempts,
	next_attempt_at,
	last_error,
	occurred_at,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			eventStatusPending,
			now,
			limit,
			eventStatusProcessing,
			now,
			eventStatusPending,
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	notifications := make([]core.Notification, 0, len(records))
	for _, record := range records {
		notifications = append(notifications, record.toDomain())
	}
	return notifications, nil
}

func (s *EventStore) Ack(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: notification id is required")
	}
	_, err := s.db.NewDelete().
		Model((*escrowEventRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *EventStore) Retry(ctx context.Context, id string, nextAttemptAt time.Time, attempts int, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: notification id is required")
	}

	status := eventStatusPending
	var next *time.Time
	if !nextAttemptAt.IsZero() {
		nextValue := nextAttemptAt.UTC()
		next = &nextValue
	} else {
		status = eventStatusFailed
	}

	_, err := s.db.NewUpdate().
		Model((*escrowEventRecord)(nil)).
		Set("status = ?", status).
		Set("attempts = ?", attempts).
		Set("next_attempt_at = ?", next).
		Set("last_error = ?", strings.TrimSpace(reason)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

package sqlstore

import (
	"time"

	"github.com/goliatone/go-escrow/core"
	"github.com/goliatone/go-escrow/identity"
	"github.com/uptrace/bun"
)

type orderRecord struct {
	bun.BaseModel `bun:"table:escrow_orders,alias:eo"`

	ID           uint64    `bun:"id,pk,autoincrement"`
	Asset        string    `bun:"asset,notnull"`
	Amount       uint64    `bun:"amount,notnull"`
	TargetRate   uint64    `bun:"target_rate,notnull"`
	Depositor    string    `bun:"depositor,notnull"`
	RefundTarget string    `bun:"refund_target,notnull"`
	Status       string    `bun:"status,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newOrderRecord(order core.Order, now time.Time) *orderRecord {
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := order.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return &orderRecord{
		ID:           order.ID,
		Asset:        order.Asset,
		Amount:       order.Amount,
		TargetRate:   order.TargetRate,
		Depositor:    string(order.Depositor),
		RefundTarget: string(order.RefundTarget),
		Status:       string(order.Status),
		CreatedAt:    createdAt.UTC(),
		UpdatedAt:    updatedAt.UTC(),
	}
}

func (r *orderRecord) toDomain() core.Order {
	if r == nil {
		return core.Order{}
	}
	return core.Order{
		ID:           r.ID,
		Asset:        r.Asset,
		Amount:       r.Amount,
		TargetRate:   r.TargetRate,
		Depositor:    identity.ID(r.Depositor),
		RefundTarget: identity.ID(r.RefundTarget),
		Status:       core.OrderStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type escrowEventRecord struct {
	bun.BaseModel `bun:"table:escrow_events,alias:ee"`

	ID            string         `bun:"id,pk"`
	Name          string         `bun:"name,notnull"`
	OrderID       uint64         `bun:"order_id,notnull"`
	Payload       map[string]any `bun:"payload,type:jsonb,notnull"`
	Metadata      map[string]any `bun:"metadata,type:jsonb,notnull"`
	Status        string         `bun:"status,notnull"`
	Attempts      int            `bun:"attempts,notnull"`
	NextAttemptAt *time.Time     `bun:"next_attempt_at,nullzero"`
	LastError     string         `bun:"last_error"`
	OccurredAt    time.Time      `bun:"occurred_at,nullzero,notnull"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r escrowEventRecord) toDomain() core.Notification {
	notification := core.Notification{
		ID:         r.ID,
		Name:       r.Name,
		OrderID:    r.OrderID,
		Payload:    copyAnyMap(r.Payload),
		Metadata:   copyAnyMap(r.Metadata),
		OccurredAt: r.OccurredAt,
	}
	if notification.Metadata == nil {
		notification.Metadata = map[string]any{}
	}
	notification.Metadata[core.MetadataKeyOutboxAttempts] = r.Attempts
	return notification
}

func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-escrow/core"
	"github.com/uptrace/bun"
)

// OrderStore persists escrow orders on bun. The integer primary key doubles
// as the public order id, so insert order defines the monotonic sequence.
type OrderStore struct {
	db *bun.DB
}

func NewOrderStore(db *bun.DB) (*OrderStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &OrderStore{db: db}, nil
}

func (s *OrderStore) Create(ctx context.Context, order core.Order) (core.Order, error) {
	if s == nil || s.db == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	if strings.TrimSpace(order.Asset) == "" {
		return core.Order{}, fmt.Errorf("sqlstore: order asset is required")
	}
	if order.Depositor.IsZero() || order.RefundTarget.IsZero() {
		return core.Order{}, fmt.Errorf("sqlstore: order depositor and refund target are required")
	}
	if strings.TrimSpace(string(order.Status)) == "" {
		order.Status = core.OrderStatusPending
	}

	record := newOrderRecord(order, time.Now().UTC())
	record.ID = 0
	if _, err := s.db.NewInsert().
		Model(record).
		Returning("id").
		Exec(ctx); err != nil {
		return core.Order{}, fmt.Errorf("sqlstore: insert order: %w", err)
	}
	return record.toDomain(), nil
}

func (s *OrderStore) Get(ctx context.Context, id uint64) (core.Order, error) {
	if s == nil || s.db == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	record := new(orderRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Order{}, fmt.Errorf("%w: order %d", core.ErrOrderNotFound, id)
		}
		return core.Order{}, fmt.Errorf("sqlstore: load order %d: %w", id, err)
	}
	return record.toDomain(), nil
}

// UpdateStatus is a compare-and-set on the status column. The WHERE clause
// carries both the id and the expected status, so two concurrent settlements
// of the same order resolve to exactly one winner.
func (s *OrderStore) UpdateStatus(ctx context.Context, id uint64, from, to core.OrderStatus) (core.Order, error) {
	if s == nil || s.db == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*orderRecord)(nil)).
		Set("status = ?", string(to)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return core.Order{}, fmt.Errorf("sqlstore: update order %d status: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.Order{}, fmt.Errorf("sqlstore: update order %d status: %w", id, err)
	}
	if affected == 0 {
		// disambiguate a missing order from a lost race
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return core.Order{}, getErr
		}
		return core.Order{}, fmt.Errorf("%w: order %d is not %s", core.ErrOrderAlreadyProcessed, id, from)
	}
	return s.Get(ctx, id)
}

func (s *OrderStore) List(ctx context.Context, input core.ListOrdersInput) ([]core.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: order store is not configured")
	}
	var records []orderRecord
	query := s.db.NewSelect().
		Model(&records).
		Order("id ASC")
	if strings.TrimSpace(string(input.Status)) != "" {
		query = query.Where("?TableAlias.status = ?", string(input.Status))
	}
	if !input.Depositor.IsZero() {
		query = query.Where("?TableAlias.depositor = ?", string(input.Depositor.Normalize()))
	}
	if input.AfterID > 0 {
		query = query.Where("?TableAlias.id > ?", input.AfterID)
	}
	if input.Limit > 0 {
		query = query.Limit(input.Limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}

	out := make([]core.Order, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

package query

import (
	"context"

	"github.com/goliatone/go-escrow/core"
)

// OrderReader is the read-only ledger surface the queries consume.
// *core.Ledger satisfies it.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID uint64) (core.Order, error)
	ListOrders(ctx context.Context, input core.ListOrdersInput) ([]core.Order, error)
}

type ConfigReader interface {
	Config() core.LedgerConfig
}

type GetOrderQuery struct {
	reader OrderReader
}

func NewGetOrderQuery(reader OrderReader) *GetOrderQuery {
	return &GetOrderQuery{reader: reader}
}

func (q *GetOrderQuery) Query(ctx context.Context, msg GetOrderMessage) (core.Order, error) {
	if q == nil || q.reader == nil {
		return core.Order{}, queryDependencyError("query: order reader is required")
	}
	return q.reader.GetOrder(ctx, msg.OrderID)
}

type ListOrdersQuery struct {
	reader OrderReader
}

func NewListOrdersQuery(reader OrderReader) *ListOrdersQuery {
	return &ListOrdersQuery{reader: reader}
}

func (q *ListOrdersQuery) Query(ctx context.Context, msg ListOrdersMessage) ([]core.Order, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: order reader is required")
	}
	return q.reader.ListOrders(ctx, msg.Input)
}

type GetLedgerConfigQuery struct {
	reader ConfigReader
}

func NewGetLedgerConfigQuery(reader ConfigReader) *GetLedgerConfigQuery {
	return &GetLedgerConfigQuery{reader: reader}
}

func (q *GetLedgerConfigQuery) Query(_ context.Context, _ GetLedgerConfigMessage) (core.LedgerConfig, error) {
	if q == nil || q.reader == nil {
		return core.LedgerConfig{}, queryDependencyError("query: config reader is required")
	}
	return q.reader.Config(), nil
}

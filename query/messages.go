package query

import (
	"github.com/goliatone/go-escrow/core"
)

const (
	TypeGetOrder        = "escrow.query.order.get"
	TypeListOrders      = "escrow.query.order.list"
	TypeGetLedgerConfig = "escrow.query.config.get"
)

type GetOrderMessage struct {
	OrderID uint64
}

func (GetOrderMessage) Type() string { return TypeGetOrder }

func (m GetOrderMessage) Validate() error {
	if m.OrderID == 0 {
		return queryValidationError("order_id", "order id is required")
	}
	return nil
}

type ListOrdersMessage struct {
	Input core.ListOrdersInput
}

func (ListOrdersMessage) Type() string { return TypeListOrders }

func (m ListOrdersMessage) Validate() error {
	if m.Input.Limit < 0 {
		return queryValidationError("limit", "limit must not be negative")
	}
	return nil
}

type GetLedgerConfigMessage struct{}

func (GetLedgerConfigMessage) Type() string { return TypeGetLedgerConfig }

func (GetLedgerConfigMessage) Validate() error { return nil }

package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-escrow/core"
)

var (
	_ gocmd.Querier[GetOrderMessage, core.Order]               = (*GetOrderQuery)(nil)
	_ gocmd.Querier[ListOrdersMessage, []core.Order]           = (*ListOrdersQuery)(nil)
	_ gocmd.Querier[GetLedgerConfigMessage, core.LedgerConfig] = (*GetLedgerConfigQuery)(nil)

	_ OrderReader  = (*core.Ledger)(nil)
	_ ConfigReader = (*core.Ledger)(nil)
)

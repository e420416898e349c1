package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-escrow/core"
)

var (
	_ gocmd.Commander[CreateOrderMessage]              = (*CreateOrderCommand)(nil)
	_ gocmd.Commander[CreateOrderViaConversionMessage] = (*CreateOrderViaConversionCommand)(nil)
	_ gocmd.Commander[FulfillOrderMessage]             = (*FulfillOrderCommand)(nil)
	_ gocmd.Commander[RefundOrderMessage]              = (*RefundOrderCommand)(nil)
	_ gocmd.Commander[ProcessOrderMessage]             = (*ProcessOrderCommand)(nil)
	_ gocmd.Commander[SetFeeMessage]                   = (*SetFeeCommand)(nil)
	_ gocmd.Commander[SetTreasuryMessage]              = (*SetTreasuryCommand)(nil)
	_ gocmd.Commander[SetAuthorityMessage]             = (*SetAuthorityCommand)(nil)
	_ gocmd.Commander[SetSettlementAssetMessage]       = (*SetSettlementAssetCommand)(nil)
	_ gocmd.Commander[SetAssetSupportMessage]          = (*SetAssetSupportCommand)(nil)
	_ gocmd.Commander[SetToleranceMessage]             = (*SetToleranceCommand)(nil)

	_ MutatingLedger  = (*core.Ledger)(nil)
	_ DecidingService = (*core.Decider)(nil)
)

package escrow

import (
	"fmt"

	escrowcommand "github.com/goliatone/go-escrow/command"
	escrowquery "github.com/goliatone/go-escrow/query"
)

// LedgerSurface is the full command/query surface of a ledger.
// *core.Ledger satisfies it.
type LedgerSurface interface {
	escrowcommand.MutatingLedger
	escrowquery.OrderReader
	escrowquery.ConfigReader
}

// DeciderSurface is the settlement decision surface. *core.Decider
// satisfies it.
type DeciderSurface = escrowcommand.DecidingService

type Commands struct {
	CreateOrder              *escrowcommand.CreateOrderCommand
	CreateOrderViaConversion *escrowcommand.CreateOrderViaConversionCommand
	FulfillOrder             *escrowcommand.FulfillOrderCommand
	RefundOrder              *escrowcommand.RefundOrderCommand
	ProcessOrder             *escrowcommand.ProcessOrderCommand
	SetFee                   *escrowcommand.SetFeeCommand
	SetTreasury              *escrowcommand.SetTreasuryCommand
	SetAuthority             *escrowcommand.SetAuthorityCommand
	SetSettlementAsset       *escrowcommand.SetSettlementAssetCommand
	SetAssetSupport          *escrowcommand.SetAssetSupportCommand
	SetTolerance             *escrowcommand.SetToleranceCommand
}

type Queries struct {
	GetOrder        *escrowquery.GetOrderQuery
	ListOrders      *escrowquery.ListOrdersQuery
	GetLedgerConfig *escrowquery.GetLedgerConfigQuery
}

// Facade bundles the command and query wrappers for one ledger/decider
// pair so callers wire a single value into their dispatcher.
type Facade struct {
	ledger   LedgerSurface
	decider  DeciderSurface
	commands Commands
	queries  Queries
}

func NewFacade(ledger LedgerSurface, decider DeciderSurface) (*Facade, error) {
	if ledger == nil {
		return nil, fmt.Errorf("escrow: ledger surface is required")
	}
	if decider == nil {
		return nil, fmt.Errorf("escrow: decider surface is required")
	}

	facade := &Facade{ledger: ledger, decider: decider}
	facade.commands = Commands{
		CreateOrder:              escrowcommand.NewCreateOrderCommand(ledger),
		CreateOrderViaConversion: escrowcommand.NewCreateOrderViaConversionCommand(ledger),
		FulfillOrder:             escrowcommand.NewFulfillOrderCommand(ledger),
		RefundOrder:              escrowcommand.NewRefundOrderCommand(ledger),
		ProcessOrder:             escrowcommand.NewProcessOrderCommand(decider),
		SetFee:                   escrowcommand.NewSetFeeCommand(ledger),
		SetTreasury:              escrowcommand.NewSetTreasuryCommand(ledger),
		SetAuthority:             escrowcommand.NewSetAuthorityCommand(ledger),
		SetSettlementAsset:       escrowcommand.NewSetSettlementAssetCommand(ledger),
		SetAssetSupport:          escrowcommand.NewSetAssetSupportCommand(ledger),
		SetTolerance:             escrowcommand.NewSetToleranceCommand(decider),
	}
	facade.queries = Queries{
		GetOrder:        escrowquery.NewGetOrderQuery(ledger),
		ListOrders:      escrowquery.NewListOrdersQuery(ledger),
		GetLedgerConfig: escrowquery.NewGetLedgerConfigQuery(ledger),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Ledger() LedgerSurface {
	if f == nil {
		return nil
	}
	return f.ledger
}

func (f *Facade) Decider() DeciderSurface {
	if f == nil {
		return nil
	}
	return f.decider
}

package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-escrow/core"
	"github.com/goliatone/go-escrow/identity"
)

// MutatingLedger is the slice of the ledger surface the command handlers
// drive. *core.Ledger satisfies it.
type MutatingLedger interface {
	CreateOrder(ctx context.Context, req core.CreateOrderRequest) (core.Order, error)
	CreateOrderViaConversion(ctx context.Context, req core.ConvertAndCreateRequest) (core.Order, error)
	Fulfill(ctx context.Context, req core.FulfillRequest) (core.SettlementResult, error)
	Refund(ctx context.Context, req core.RefundRequest) (core.SettlementResult, error)
	SetFeeBasisPoints(ctx context.Context, caller identity.ID, feeBasisPoints uint32) error
	SetTreasury(ctx context.Context, caller, treasury identity.ID) error
	SetSettlementAuthority(ctx context.Context, caller, authority identity.ID) error
	SetSettlementAsset(ctx context.Context, caller identity.ID, asset string) error
	SetAssetSupport(ctx context.Context, caller identity.ID, asset string, supported bool) error
}

// DecidingService is the decider surface the command handlers drive.
// *core.Decider satisfies it.
type DecidingService interface {
	ProcessOrder(ctx context.Context, req core.ProcessOrderRequest) (core.ProcessResult, error)
	SetToleranceBasisPoints(ctx context.Context, caller identity.ID, toleranceBasisPoints uint32) error
}

type CreateOrderCommand struct {
	ledger MutatingLedger
}

func NewCreateOrderCommand(ledger MutatingLedger) *CreateOrderCommand {
	return &CreateOrderCommand{ledger: ledger}
}

func (c *CreateOrderCommand) Execute(ctx context.Context, msg CreateOrderMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	out, err := c.ledger.CreateOrder(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateOrderViaConversionCommand struct {
	ledger MutatingLedger
}

func NewCreateOrderViaConversionCommand(ledger MutatingLedger) *CreateOrderViaConversionCommand {
	return &CreateOrderViaConversionCommand{ledger: ledger}
}

func (c *CreateOrderViaConversionCommand) Execute(ctx context.Context, msg CreateOrderViaConversionMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	out, err := c.ledger.CreateOrderViaConversion(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type FulfillOrderCommand struct {
	ledger MutatingLedger
}

func NewFulfillOrderCommand(ledger MutatingLedger) *FulfillOrderCommand {
	return &FulfillOrderCommand{ledger: ledger}
}

func (c *FulfillOrderCommand) Execute(ctx context.Context, msg FulfillOrderMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	out, err := c.ledger.Fulfill(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefundOrderCommand struct {
	ledger MutatingLedger
}

func NewRefundOrderCommand(ledger MutatingLedger) *RefundOrderCommand {
	return &RefundOrderCommand{ledger: ledger}
}

func (c *RefundOrderCommand) Execute(ctx context.Context, msg RefundOrderMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	out, err := c.ledger.Refund(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ProcessOrderCommand struct {
	decider DecidingService
}

func NewProcessOrderCommand(decider DecidingService) *ProcessOrderCommand {
	return &ProcessOrderCommand{decider: decider}
}

func (c *ProcessOrderCommand) Execute(ctx context.Context, msg ProcessOrderMessage) error {
	if c == nil || c.decider == nil {
		return commandDependencyError("command: decider is required")
	}
	out, err := c.decider.ProcessOrder(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetFeeCommand struct {
	ledger MutatingLedger
}

func NewSetFeeCommand(ledger MutatingLedger) *SetFeeCommand {
	return &SetFeeCommand{ledger: ledger}
}

func (c *SetFeeCommand) Execute(ctx context.Context, msg SetFeeMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	return c.ledger.SetFeeBasisPoints(ctx, msg.Caller, msg.FeeBasisPoints)
}

type SetTreasuryCommand struct {
	ledger MutatingLedger
}

func NewSetTreasuryCommand(ledger MutatingLedger) *SetTreasuryCommand {
	return &SetTreasuryCommand{ledger: ledger}
}

func (c *SetTreasuryCommand) Execute(ctx context.Context, msg SetTreasuryMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	return c.ledger.SetTreasury(ctx, msg.Caller, msg.Treasury)
}

type SetAuthorityCommand struct {
	ledger MutatingLedger
}

func NewSetAuthorityCommand(ledger MutatingLedger) *SetAuthorityCommand {
	return &SetAuthorityCommand{ledger: ledger}
}

func (c *SetAuthorityCommand) Execute(ctx context.Context, msg SetAuthorityMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	return c.ledger.SetSettlementAuthority(ctx, msg.Caller, msg.Authority)
}

type SetSettlementAssetCommand struct {
	ledger MutatingLedger
}

func NewSetSettlementAssetCommand(ledger MutatingLedger) *SetSettlementAssetCommand {
	return &SetSettlementAssetCommand{ledger: ledger}
}

func (c *SetSettlementAssetCommand) Execute(ctx context.Context, msg SetSettlementAssetMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	return c.ledger.SetSettlementAsset(ctx, msg.Caller, msg.Asset)
}

type SetAssetSupportCommand struct {
	ledger MutatingLedger
}

func NewSetAssetSupportCommand(ledger MutatingLedger) *SetAssetSupportCommand {
	return &SetAssetSupportCommand{ledger: ledger}
}

func (c *SetAssetSupportCommand) Execute(ctx context.Context, msg SetAssetSupportMessage) error {
	if c == nil || c.ledger == nil {
		return commandDependencyError("command: ledger is required")
	}
	return c.ledger.SetAssetSupport(ctx, msg.Caller, msg.Asset, msg.Supported)
}

type SetToleranceCommand struct {
	decider DecidingService
}

func NewSetToleranceCommand(decider DecidingService) *SetToleranceCommand {
	return &SetToleranceCommand{decider: decider}
}

func (c *SetToleranceCommand) Execute(ctx context.Context, msg SetToleranceMessage) error {
	if c == nil || c.decider == nil {
		return commandDependencyError("command: decider is required")
	}
	return c.decider.SetToleranceBasisPoints(ctx, msg.Caller, msg.ToleranceBasisPoints)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

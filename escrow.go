package escrow

import (
	"github.com/goliatone/go-escrow/core"
	"github.com/goliatone/go-escrow/identity"
)

type Config = core.Config

type Option = core.Option

type Ledger = core.Ledger

type Decider = core.Decider

type Order = core.Order
type OrderStatus = core.OrderStatus
type LedgerConfig = core.LedgerConfig
type Notification = core.Notification

type OrderStore = core.OrderStore
type NotificationStore = core.NotificationStore
type NotificationHandler = core.NotificationHandler
type AssetTransfer = core.AssetTransfer
type Converter = core.Converter
type AuthorizationPolicy = core.AuthorizationPolicy

type CreateOrderRequest = core.CreateOrderRequest
type ConvertAndCreateRequest = core.ConvertAndCreateRequest
type FulfillRequest = core.FulfillRequest
type RefundRequest = core.RefundRequest
type ProcessOrderRequest = core.ProcessOrderRequest
type SettlementResult = core.SettlementResult
type ProcessResult = core.ProcessResult
type ListOrdersInput = core.ListOrdersInput

type ID = identity.ID

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorFactory        = core.WithErrorFactory
	WithErrorMapper         = core.WithErrorMapper
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithPersistenceClient   = core.WithPersistenceClient
	WithRepositoryFactory   = core.WithRepositoryFactory
	WithOrderStore          = core.WithOrderStore
	WithNotificationStore   = core.WithNotificationStore
	WithAssetTransfer       = core.WithAssetTransfer
	WithConverter           = core.WithConverter
	WithAuthorizationPolicy = core.WithAuthorizationPolicy
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewLedger(cfg Config, opts ...Option) (*Ledger, error) {
	return core.NewLedger(cfg, opts...)
}

func NewDecider(ledger core.SettlementLedger, authority identity.ID, toleranceBasisPoints uint32, opts ...core.DeciderOption) (*Decider, error) {
	return core.NewDecider(ledger, authority, toleranceBasisPoints, opts...)
}

// Setup builds a ledger/decider pair from one config. The decider authority
// comes from cfg.SettlementAuthority and both halves share the ledger's
// notification outbox.
func Setup(cfg Config, opts ...Option) (*Ledger, *Decider, error) {
	ledger, err := core.NewLedger(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	resolved := ledger.ServiceConfig()
	decider, err := core.NewDecider(
		ledger,
		identity.ID(resolved.SettlementAuthority),
		resolved.ToleranceBasisPoints,
		core.WithDeciderNotificationStore(ledger.Notifications()),
	)
	if err != nil {
		return nil, nil, err
	}
	return ledger, decider, nil
}

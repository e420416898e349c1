package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-escrow/identity"
	glog "github.com/goliatone/go-logger/glog"
)

// Ledger owns all escrowed balances, the order registry, the fee and
// treasury configuration, and the asset allow-list. It is the only writer
// of order state.
type Ledger struct {
	observer

	config            Config
	loggerProvider    LoggerProvider
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	persistenceClient any
	repositoryFactory any

	orders        OrderStore
	notifications NotificationStore
	transfer      AssetTransfer
	converter     Converter
	policy        AuthorizationPolicy

	guard *entryGuard

	runtimeMu sync.RWMutex
	runtime   LedgerConfig

	now func() time.Time
}

func NewLedger(cfg Config, options ...Option) (*Ledger, error) {
	builder := defaultLedgerBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("escrow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("escrow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if (builder.orderStore == nil || builder.notificationStore == nil) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				if builder.orderStore == nil {
					builder.orderStore = storeProvider.OrderStore()
				}
				if builder.notificationStore == nil {
					builder.notificationStore = storeProvider.NotificationStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.orderStore == nil {
				builder.orderStore = storeProvider.OrderStore()
			}
			if builder.notificationStore == nil {
				builder.notificationStore = storeProvider.NotificationStore()
			}
		}
	}
	if builder.orderStore == nil {
		builder.orderStore = NewMemoryOrderStore()
	}
	if builder.notificationStore == nil {
		builder.notificationStore = NewMemoryNotificationStore()
	}
	if builder.assetTransfer == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: asset transfer collaborator is required"))
	}

	ledger := &Ledger{
		observer: observer{
			logger:          logger,
			metricsRecorder: builder.metricsRecorder,
		},
		config:            finalConfig,
		loggerProvider:    provider,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		orders:            builder.orderStore,
		notifications:     builder.notificationStore,
		transfer:          builder.assetTransfer,
		converter:         builder.converter,
		policy:            builder.policy,
		guard:             newEntryGuard(),
		runtime:           finalConfig.ledgerConfig(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	if ledger.runtime.Owner.IsZero() {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: ledger owner is required"))
	}
	if ledger.policy == nil {
		ledger.policy = identity.NewBindingPolicy(ledger.roleBinding)
	}
	return ledger, nil
}

func (l *Ledger) roleBinding(role identity.Role) identity.ID {
	cfg := l.configSnapshot()
	switch role {
	case identity.RoleOwner:
		return cfg.Owner
	case identity.RoleSettlementAuthority:
		return cfg.SettlementAuthority
	}
	return ""
}

func (l *Ledger) configSnapshot() LedgerConfig {
	l.runtimeMu.RLock()
	defer l.runtimeMu.RUnlock()
	return l.runtime.clone()
}

// Config returns the ledger's current runtime configuration.
func (l *Ledger) Config() LedgerConfig {
	if l == nil {
		return LedgerConfig{}
	}
	return l.configSnapshot()
}

func (l *Ledger) authorize(ctx context.Context, actor identity.ID, role identity.Role) error {
	if l.policy == nil {
		return fmt.Errorf("core: authorization policy is not configured")
	}
	return l.policy.Authorize(ctx, actor, role)
}

// AuthorizeOwner reports whether the actor holds the ledger's owner role.
// The decider consults it for its own owner-gated configuration.
func (l *Ledger) AuthorizeOwner(ctx context.Context, actor identity.ID) error {
	if l == nil {
		return fmt.Errorf("core: ledger is not configured")
	}
	if err := l.authorize(ctx, actor, identity.RoleOwner); err != nil {
		return l.mapError(err)
	}
	return nil
}

func (l *Ledger) mapError(err error) error {
	if err == nil {
		return nil
	}
	if l != nil && l.errorMapper != nil {
		if mapped := l.errorMapper(err); mapped != nil {
			return mapped
		}
	}
	return err
}

func (l *Ledger) appendNotification(ctx context.Context, name string, orderID uint64, payload map[string]any) {
	if l.notifications == nil {
		return
	}
	notification := Notification{
		Name:       name,
		OrderID:    orderID,
		Payload:    payload,
		OccurredAt: l.now(),
	}
	if err := l.notifications.Append(ctx, notification); err != nil {
		l.logError(ctx, "notification append failed", map[string]any{
			"notification": name,
			"order_id":     orderID,
			"error":        err.Error(),
		})
	}
}

// SetSettlementAuthority assigns the single identity permitted to resolve
// pending orders.
func (l *Ledger) SetSettlementAuthority(ctx context.Context, caller, authority identity.ID) error {
	return l.setConfigField(ctx, caller, "settlement_authority", func(cfg *LedgerConfig) (any, error) {
		if authority.IsZero() {
			return nil, fmt.Errorf("core: settlement authority identity is required")
		}
		cfg.SettlementAuthority = authority.Normalize()
		return cfg.SettlementAuthority.String(), nil
	})
}

// SetTreasury assigns the protocol fee recipient.
func (l *Ledger) SetTreasury(ctx context.Context, caller, treasury identity.ID) error {
	return l.setConfigField(ctx, caller, "treasury", func(cfg *LedgerConfig) (any, error) {
		if treasury.IsZero() {
			return nil, fmt.Errorf("core: treasury identity is required")
		}
		cfg.Treasury = treasury.Normalize()
		return cfg.Treasury.String(), nil
	})
}

// SetFeeBasisPoints adjusts the protocol fee. Values above MaxBasisPoints
// are rejected.
func (l *Ledger) SetFeeBasisPoints(ctx context.Context, caller identity.ID, feeBasisPoints uint32) error {
	return l.setConfigField(ctx, caller, "fee_basis_points", func(cfg *LedgerConfig) (any, error) {
		if feeBasisPoints > MaxBasisPoints {
			return nil, fmt.Errorf("core: fee basis points must be <= %d", MaxBasisPoints)
		}
		cfg.FeeBasisPoints = feeBasisPoints
		return feeBasisPoints, nil
	})
}

// SetSettlementAsset designates the asset conversion orders settle in.
func (l *Ledger) SetSettlementAsset(ctx context.Context, caller identity.ID, asset string) error {
	return l.setConfigField(ctx, caller, "settlement_asset", func(cfg *LedgerConfig) (any, error) {
		normalized := normalizeAsset(asset)
		if normalized == "" {
			return nil, fmt.Errorf("core: settlement asset identifier is required")
		}
		cfg.SettlementAsset = normalized
		return normalized, nil
	})
}

// SetAssetSupport adds or removes an asset from the allow-list.
func (l *Ledger) SetAssetSupport(ctx context.Context, caller identity.ID, asset string, supported bool) error {
	return l.setConfigField(ctx, caller, "asset_support", func(cfg *LedgerConfig) (any, error) {
		normalized := normalizeAsset(asset)
		if normalized == "" {
			return nil, fmt.Errorf("core: asset identifier is required")
		}
		if supported {
			cfg.SupportedAssets[normalized] = struct{}{}
		} else {
			delete(cfg.SupportedAssets, normalized)
		}
		return map[string]any{"asset": normalized, "supported": supported}, nil
	})
}

func (l *Ledger) setConfigField(
	ctx context.Context,
	caller identity.ID,
	field string,
	apply func(cfg *LedgerConfig) (any, error),
) error {
	if l == nil {
		return fmt.Errorf("core: ledger is not configured")
	}
	startedAt := l.now()
	err := l.doSetConfigField(ctx, caller, field, apply)
	l.observeOperation(ctx, startedAt, "config_set", err, map[string]any{
		"field": field,
	})
	return l.mapError(err)
}

func (l *Ledger) doSetConfigField(
	ctx context.Context,
	caller identity.ID,
	field string,
	apply func(cfg *LedgerConfig) (any, error),
) error {
	if err := l.authorize(ctx, caller, identity.RoleOwner); err != nil {
		return err
	}

	l.runtimeMu.Lock()
	next := l.runtime.clone()
	newValue, err := apply(&next)
	if err != nil {
		l.runtimeMu.Unlock()
		return err
	}
	l.runtime = next
	l.runtimeMu.Unlock()

	l.appendNotification(ctx, NotificationConfigChanged, 0, map[string]any{
		"field":     field,
		"new_value": newValue,
	})
	return nil
}

type CreateOrderRequest struct {
	Caller       identity.ID
	Asset        string
	Amount       uint64
	TargetRate   uint64
	RefundTarget identity.ID
}

func (r CreateOrderRequest) Validate() error {
	if r.Caller.IsZero() {
		return fmt.Errorf("core: caller identity is required")
	}
	if normalizeAsset(r.Asset) == "" {
		return fmt.Errorf("core: asset identifier is required")
	}
	if r.Amount == 0 {
		return fmt.Errorf("core: amount must be greater than zero")
	}
	if r.TargetRate == 0 {
		return fmt.Errorf("core: target rate must be greater than zero")
	}
	if r.RefundTarget.IsZero() {
		return fmt.Errorf("core: refund target identity is required")
	}
	return nil
}

// CreateOrder pulls the deposit into custody and registers a pending order.
// The pull happens before the registry write, so a failed pull aborts the
// whole operation with nothing persisted.
func (l *Ledger) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if l == nil {
		return Order{}, fmt.Errorf("core: ledger is not configured")
	}
	startedAt := l.now()
	order, err := l.createOrder(ctx, req)
	l.observeOperation(ctx, startedAt, "order_create", err, map[string]any{
		"order_id": order.ID,
		"asset":    normalizeAsset(req.Asset),
	})
	if err != nil {
		return Order{}, l.mapError(err)
	}
	return order, nil
}

func (l *Ledger) createOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if err := req.Validate(); err != nil {
		return Order{}, err
	}
	asset := normalizeAsset(req.Asset)
	cfg := l.configSnapshot()
	if !cfg.AssetSupported(asset) {
		return Order{}, fmt.Errorf("%w: %s", ErrAssetNotSupported, asset)
	}

	release, err := l.guard.Enter("create_order")
	if err != nil {
		return Order{}, err
	}
	defer release()

	if err := l.transfer.Pull(ctx, asset, req.Caller.Normalize(), req.Amount); err != nil {
		return Order{}, newEscrowError(
			fmt.Sprintf("core: deposit pull of %d %s failed: %v", req.Amount, asset, err),
			goerrors.CategoryExternal,
			EscrowErrorTransferFailed,
		)
	}

	return l.registerOrder(ctx, asset, req.Amount, req.TargetRate, req.Caller, req.RefundTarget)
}

// registerOrder persists the pending order after funds are in custody. A
// registry failure compensates by pushing the deposit back so the aborted
// call leaves no funds behind.
func (l *Ledger) registerOrder(
	ctx context.Context,
	asset string,
	amount uint64,
	targetRate uint64,
	depositor identity.ID,
	refundTarget identity.ID,
) (Order, error) {
	order, err := l.orders.Create(ctx, Order{
		Asset:        asset,
		Amount:       amount,
		TargetRate:   targetRate,
		Depositor:    depositor.Normalize(),
		RefundTarget: refundTarget.Normalize(),
		Status:       OrderStatusPending,
		CreatedAt:    l.now(),
	})
	if err != nil {
		if pushErr := l.transfer.Push(ctx, asset, depositor.Normalize(), amount); pushErr != nil {
			l.logError(ctx, "deposit return after failed registration also failed", map[string]any{
				"asset":  asset,
				"amount": amount,
				"error":  pushErr.Error(),
			})
		}
		return Order{}, err
	}

	l.appendNotification(ctx, NotificationOrderCreated, order.ID, map[string]any{
		"order_id":      order.ID,
		"asset":         order.Asset,
		"amount":        order.Amount,
		"target_rate":   order.TargetRate,
		"refund_target": order.RefundTarget.String(),
	})
	return order, nil
}

type ConvertAndCreateRequest struct {
	Caller              identity.ID
	InputAsset          string
	InputAmount         uint64
	MinSettlementAmount uint64
	TargetRate          uint64
	RefundTarget        identity.ID
	Deadline            time.Time
}

func (r ConvertAndCreateRequest) Validate() error {
	if r.Caller.IsZero() {
		return fmt.Errorf("core: caller identity is required")
	}
	if normalizeAsset(r.InputAsset) == "" {
		return fmt.Errorf("core: input asset identifier is required")
	}
	if r.InputAmount == 0 {
		return fmt.Errorf("core: input amount must be greater than zero")
	}
	if r.MinSettlementAmount == 0 {
		return fmt.Errorf("core: minimum settlement amount must be greater than zero")
	}
	if r.TargetRate == 0 {
		return fmt.Errorf("core: target rate must be greater than zero")
	}
	if r.RefundTarget.IsZero() {
		return fmt.Errorf("core: refund target identity is required")
	}
	return nil
}

// CreateOrderViaConversion pulls the input asset, swaps it through the
// external conversion collaborator, and registers an order denominated in
// the settlement asset for the amount actually received. A conversion that
// cannot meet the minimum or the deadline aborts the call and returns the
// pulled input to the caller.
func (l *Ledger) CreateOrderViaConversion(ctx context.Context, req ConvertAndCreateRequest) (Order, error) {
	if l == nil {
		return Order{}, fmt.Errorf("core: ledger is not configured")
	}
	startedAt := l.now()
	order, err := l.createOrderViaConversion(ctx, req)
	l.observeOperation(ctx, startedAt, "order_create_via_conversion", err, map[string]any{
		"order_id": order.ID,
		"asset":    normalizeAsset(req.InputAsset),
	})
	if err != nil {
		return Order{}, l.mapError(err)
	}
	return order, nil
}

func (l *Ledger) createOrderViaConversion(ctx context.Context, req ConvertAndCreateRequest) (Order, error) {
	if err := req.Validate(); err != nil {
		return Order{}, err
	}
	if l.converter == nil {
		return Order{}, fmt.Errorf("core: conversion collaborator is not configured")
	}
	cfg := l.configSnapshot()
	if cfg.SettlementAsset == "" {
		return Order{}, fmt.Errorf("core: settlement asset is not configured")
	}
	if !cfg.AssetSupported(cfg.SettlementAsset) {
		return Order{}, fmt.Errorf("%w: %s", ErrAssetNotSupported, cfg.SettlementAsset)
	}
	inputAsset := normalizeAsset(req.InputAsset)

	release, err := l.guard.Enter("create_order_via_conversion")
	if err != nil {
		return Order{}, err
	}
	defer release()

	caller := req.Caller.Normalize()
	if err := l.transfer.Pull(ctx, inputAsset, caller, req.InputAmount); err != nil {
		return Order{}, newEscrowError(
			fmt.Sprintf("core: conversion input pull of %d %s failed: %v", req.InputAmount, inputAsset, err),
			goerrors.CategoryExternal,
			EscrowErrorTransferFailed,
		)
	}

	received, err := l.converter.Convert(ctx, ConversionRequest{
		InputAsset:  inputAsset,
		InputAmount: req.InputAmount,
		OutputAsset: cfg.SettlementAsset,
		MinOutput:   req.MinSettlementAmount,
		Deadline:    req.Deadline,
	})
	if err != nil || received < req.MinSettlementAmount {
		if pushErr := l.transfer.Push(ctx, inputAsset, caller, req.InputAmount); pushErr != nil {
			l.logError(ctx, "conversion input return after failed swap also failed", map[string]any{
				"asset":  inputAsset,
				"amount": req.InputAmount,
				"error":  pushErr.Error(),
			})
		}
		if err == nil {
			err = fmt.Errorf("core: conversion returned %d, below minimum %d", received, req.MinSettlementAmount)
		}
		return Order{}, newEscrowError(
			fmt.Sprintf("core: conversion of %d %s failed: %v", req.InputAmount, inputAsset, err),
			goerrors.CategoryExternal,
			EscrowErrorConversionFailed,
		)
	}

	return l.registerOrder(ctx, cfg.SettlementAsset, received, req.TargetRate, req.Caller, req.RefundTarget)
}

type FulfillRequest struct {
	Caller       identity.ID
	OrderID      uint64
	Counterparty identity.ID
}

func (r FulfillRequest) Validate() error {
	if r.Caller.IsZero() {
		return fmt.Errorf("core: caller identity is required")
	}
	if r.OrderID == 0 {
		return fmt.Errorf("core: order id is required")
	}
	if r.Counterparty.IsZero() {
		return fmt.Errorf("core: counterparty identity is required")
	}
	return nil
}

// Fulfill resolves a pending order in the counterparty's favor. The status
// flips to fulfilled before any funds move, closing the double-settlement
// window; a failed disbursement rolls the status back so the aborted call
// is externally invisible.
func (l *Ledger) Fulfill(ctx context.Context, req FulfillRequest) (SettlementResult, error) {
	if l == nil {
		return SettlementResult{}, fmt.Errorf("core: ledger is not configured")
	}
	startedAt := l.now()
	result, err := l.fulfill(ctx, req)
	l.observeOperation(ctx, startedAt, "order_fulfill", err, map[string]any{
		"order_id": req.OrderID,
	})
	if err != nil {
		return SettlementResult{}, l.mapError(err)
	}
	return result, nil
}

func (l *Ledger) fulfill(ctx context.Context, req FulfillRequest) (SettlementResult, error) {
	if err := req.Validate(); err != nil {
		return SettlementResult{}, err
	}
	if err := l.authorize(ctx, req.Caller, identity.RoleSettlementAuthority); err != nil {
		return SettlementResult{}, err
	}

	release, err := l.guard.Enter("fulfill")
	if err != nil {
		return SettlementResult{}, err
	}
	defer release()

	order, err := l.orders.UpdateStatus(ctx, req.OrderID, OrderStatusPending, OrderStatusFulfilled)
	if err != nil {
		return SettlementResult{}, err
	}

	cfg := l.configSnapshot()
	feeAmount, netAmount := SplitFee(order.Amount, cfg.FeeBasisPoints)
	counterparty := req.Counterparty.Normalize()

	if feeAmount > 0 && cfg.Treasury.IsZero() {
		l.rollbackStatus(ctx, order.ID, OrderStatusFulfilled)
		return SettlementResult{}, newEscrowError(
			fmt.Sprintf("core: fee of %d %s is due but no treasury is configured", feeAmount, order.Asset),
			goerrors.CategoryConflict,
			EscrowErrorTreasuryNotConfigured,
		)
	}

	// Treasury first: it is the only recipient a compensating pull can
	// be relied on against if the second transfer fails.
	if feeAmount > 0 {
		if err := l.transfer.Push(ctx, order.Asset, cfg.Treasury, feeAmount); err != nil {
			l.rollbackStatus(ctx, order.ID, OrderStatusFulfilled)
			return SettlementResult{}, newEscrowError(
				fmt.Sprintf("core: fee transfer of %d %s to treasury failed: %v", feeAmount, order.Asset, err),
				goerrors.CategoryExternal,
				EscrowErrorSettlementTransferFailed,
			)
		}
	}
	if err := l.transfer.Push(ctx, order.Asset, counterparty, netAmount); err != nil {
		if feeAmount > 0 {
			if pullErr := l.transfer.Pull(ctx, order.Asset, cfg.Treasury, feeAmount); pullErr != nil {
				l.logError(ctx, "fee reversal after failed settlement also failed", map[string]any{
					"order_id": order.ID,
					"amount":   feeAmount,
					"error":    pullErr.Error(),
				})
			}
		}
		l.rollbackStatus(ctx, order.ID, OrderStatusFulfilled)
		return SettlementResult{}, newEscrowError(
			fmt.Sprintf("core: settlement transfer of %d %s failed: %v", netAmount, order.Asset, err),
			goerrors.CategoryExternal,
			EscrowErrorSettlementTransferFailed,
		)
	}

	l.appendNotification(ctx, NotificationOrderFulfilled, order.ID, map[string]any{
		"order_id":     order.ID,
		"counterparty": counterparty.String(),
		"fee_amount":   feeAmount,
		"net_amount":   netAmount,
	})
	return SettlementResult{
		Order:        order,
		FeeAmount:    feeAmount,
		NetAmount:    netAmount,
		Counterparty: counterparty,
	}, nil
}

type RefundRequest struct {
	Caller  identity.ID
	OrderID uint64
}

func (r RefundRequest) Validate() error {
	if r.Caller.IsZero() {
		return fmt.Errorf("core: caller identity is required")
	}
	if r.OrderID == 0 {
		return fmt.Errorf("core: order id is required")
	}
	return nil
}

// Refund resolves a pending order back to its refund target for the full
// escrowed amount. No fee is taken on refunds.
func (l *Ledger) Refund(ctx context.Context, req RefundRequest) (SettlementResult, error) {
	if l == nil {
		return SettlementResult{}, fmt.Errorf("core: ledger is not configured")
	}
	startedAt := l.now()
	result, err := l.refund(ctx, req)
	l.observeOperation(ctx, startedAt, "order_refund", err, map[string]any{
		"order_id": req.OrderID,
	})
	if err != nil {
		return SettlementResult{}, l.mapError(err)
	}
	return result, nil
}

func (l *Ledger) refund(ctx context.Context, req RefundRequest) (SettlementResult, error) {
	if err := req.Validate(); err != nil {
		return SettlementResult{}, err
	}
	if err := l.authorize(ctx, req.Caller, identity.RoleSettlementAuthority); err != nil {
		return SettlementResult{}, err
	}

	release, err := l.guard.Enter("refund")
	if err != nil {
		return SettlementResult{}, err
	}
	defer release()

	order, err := l.orders.UpdateStatus(ctx, req.OrderID, OrderStatusPending, OrderStatusRefunded)
	if err != nil {
		return SettlementResult{}, err
	}

	if err := l.transfer.Push(ctx, order.Asset, order.RefundTarget, order.Amount); err != nil {
		l.rollbackStatus(ctx, order.ID, OrderStatusRefunded)
		return SettlementResult{}, newEscrowError(
			fmt.Sprintf("core: refund transfer of %d %s failed: %v", order.Amount, order.Asset, err),
			goerrors.CategoryExternal,
			EscrowErrorRefundTransferFailed,
		)
	}

	l.appendNotification(ctx, NotificationOrderRefunded, order.ID, map[string]any{
		"order_id":      order.ID,
		"refund_target": order.RefundTarget.String(),
		"amount":        order.Amount,
	})
	return SettlementResult{
		Order:        order,
		NetAmount:    order.Amount,
		RefundTarget: order.RefundTarget,
	}, nil
}

func (l *Ledger) rollbackStatus(ctx context.Context, orderID uint64, from OrderStatus) {
	if _, err := l.orders.UpdateStatus(ctx, orderID, from, OrderStatusPending); err != nil {
		l.logError(ctx, "status rollback failed", map[string]any{
			"order_id": orderID,
			"from":     string(from),
			"error":    err.Error(),
		})
	}
}

// GetOrder returns the full order record.
func (l *Ledger) GetOrder(ctx context.Context, id uint64) (Order, error) {
	if l == nil {
		return Order{}, fmt.Errorf("core: ledger is not configured")
	}
	order, err := l.orders.Get(ctx, id)
	if err != nil {
		return Order{}, l.mapError(err)
	}
	return order, nil
}

// ListOrders returns settlement history matching the filter.
func (l *Ledger) ListOrders(ctx context.Context, input ListOrdersInput) ([]Order, error) {
	if l == nil {
		return nil, fmt.Errorf("core: ledger is not configured")
	}
	orders, err := l.orders.List(ctx, input)
	if err != nil {
		return nil, l.mapError(err)
	}
	return orders, nil
}

// ServiceConfig returns the layered deployment config the ledger resolved
// at construction.
func (l *Ledger) ServiceConfig() Config {
	if l == nil {
		return Config{}
	}
	return l.config
}

// Notifications exposes the outbox store so a decider or dispatcher can
// share it.
func (l *Ledger) Notifications() NotificationStore {
	if l == nil {
		return nil
	}
	return l.notifications
}

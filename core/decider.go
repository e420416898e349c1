package core

import (
	"context"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/goliatone/go-escrow/identity"
	glog "github.com/goliatone/go-logger/glog"
)

// SettlementLedger is the slice of the custody ledger the decider consumes:
// read access plus the two terminal operations. *Ledger satisfies it.
type SettlementLedger interface {
	GetOrder(ctx context.Context, id uint64) (Order, error)
	Fulfill(ctx context.Context, req FulfillRequest) (SettlementResult, error)
	Refund(ctx context.Context, req RefundRequest) (SettlementResult, error)
	AuthorizeOwner(ctx context.Context, actor identity.ID) error
}

// Decider translates a rate observation into a binary settlement decision
// and triggers exactly one terminal ledger operation. It owns no funds and
// no persistent order state.
type Decider struct {
	observer

	ledger        SettlementLedger
	authority     identity.ID
	notifications NotificationStore
	errorMapper   ErrorMapper

	toleranceMu sync.RWMutex
	tolerance   uint32

	now func() time.Time
}

type DeciderOption func(*Decider)

func WithDeciderLogger(logger Logger) DeciderOption {
	return func(d *Decider) {
		d.logger = glog.Ensure(logger)
	}
}

func WithDeciderMetricsRecorder(recorder MetricsRecorder) DeciderOption {
	return func(d *Decider) {
		if recorder != nil {
			d.metricsRecorder = recorder
		}
	}
}

func WithDeciderNotificationStore(store NotificationStore) DeciderOption {
	return func(d *Decider) {
		if store != nil {
			d.notifications = store
		}
	}
}

func WithDeciderErrorMapper(mapper ErrorMapper) DeciderOption {
	return func(d *Decider) {
		if mapper != nil {
			d.errorMapper = mapper
		}
	}
}

// NewDecider binds a decider to exactly one ledger. The authority identity
// is used as the caller on the terminal operations and must match the
// ledger's settlement authority for settlements to succeed. Processed
// notifications go to the bound ledger's outbox unless
// WithDeciderNotificationStore overrides the store.
func NewDecider(
	ledger SettlementLedger,
	authority identity.ID,
	toleranceBasisPoints uint32,
	options ...DeciderOption,
) (*Decider, error) {
	if ledger == nil {
		return nil, fmt.Errorf("core: ledger reference is required")
	}
	if authority.IsZero() {
		return nil, fmt.Errorf("core: settlement authority identity is required")
	}
	if toleranceBasisPoints > MaxBasisPoints {
		return nil, fmt.Errorf("core: tolerance basis points must be <= %d", MaxBasisPoints)
	}
	_, logger := glog.Resolve("escrow.decider", nil, nil)
	decider := &Decider{
		observer: observer{
			logger:          glog.Ensure(logger),
			metricsRecorder: NopMetricsRecorder{},
		},
		ledger:      ledger,
		authority:   authority.Normalize(),
		errorMapper: defaultErrorMapper,
		tolerance:   toleranceBasisPoints,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range options {
		if opt != nil {
			opt(decider)
		}
	}
	if decider.notifications == nil {
		if provider, ok := ledger.(interface{ Notifications() NotificationStore }); ok {
			decider.notifications = provider.Notifications()
		}
	}
	return decider, nil
}

// ToleranceBasisPoints returns the current tolerance band.
func (d *Decider) ToleranceBasisPoints() uint32 {
	if d == nil {
		return 0
	}
	d.toleranceMu.RLock()
	defer d.toleranceMu.RUnlock()
	return d.tolerance
}

// SetToleranceBasisPoints adjusts the tolerance band. Only the bound
// ledger's owner may call it.
func (d *Decider) SetToleranceBasisPoints(ctx context.Context, caller identity.ID, toleranceBasisPoints uint32) error {
	if d == nil {
		return fmt.Errorf("core: decider is not configured")
	}
	if err := d.ledger.AuthorizeOwner(ctx, caller); err != nil {
		return err
	}
	if toleranceBasisPoints > MaxBasisPoints {
		return d.mapError(fmt.Errorf("core: tolerance basis points must be <= %d", MaxBasisPoints))
	}
	d.toleranceMu.Lock()
	d.tolerance = toleranceBasisPoints
	d.toleranceMu.Unlock()

	d.appendNotification(ctx, NotificationConfigChanged, 0, map[string]any{
		"field":     "tolerance_basis_points",
		"new_value": toleranceBasisPoints,
	})
	return nil
}

type ProcessOrderRequest struct {
	Caller       identity.ID
	OrderID      uint64
	CurrentRate  uint64
	Counterparty identity.ID
}

func (r ProcessOrderRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("core: order id is required")
	}
	if r.CurrentRate == 0 {
		return fmt.Errorf("core: current rate must be greater than zero")
	}
	if r.Counterparty.IsZero() {
		return fmt.Errorf("core: counterparty identity is required")
	}
	return nil
}

// ProcessOrder reads the order, measures the observed rate against the
// target, and resolves the order: within tolerance fulfills to the
// counterparty, outside it refunds the depositor's refund target. All fund
// movement happens inside the invoked ledger operation.
func (d *Decider) ProcessOrder(ctx context.Context, req ProcessOrderRequest) (ProcessResult, error) {
	if d == nil {
		return ProcessResult{}, fmt.Errorf("core: decider is not configured")
	}
	startedAt := d.now()
	result, err := d.processOrder(ctx, req)
	d.observeOperation(ctx, startedAt, "order_process", err, map[string]any{
		"order_id":  req.OrderID,
		"fulfilled": result.Fulfilled,
	})
	if err != nil {
		return ProcessResult{}, d.mapError(err)
	}
	return result, nil
}

func (d *Decider) processOrder(ctx context.Context, req ProcessOrderRequest) (ProcessResult, error) {
	if err := req.Validate(); err != nil {
		return ProcessResult{}, err
	}

	order, err := d.ledger.GetOrder(ctx, req.OrderID)
	if err != nil {
		return ProcessResult{}, err
	}
	if order.Status.Terminal() {
		return ProcessResult{}, fmt.Errorf("%w: order %d is %s", ErrOrderAlreadyProcessed, order.ID, order.Status)
	}

	deviation := DeviationBasisPoints(order.TargetRate, req.CurrentRate)
	fulfilled := deviation <= uint64(d.ToleranceBasisPoints())

	result := ProcessResult{
		OrderID:             order.ID,
		TargetRate:          order.TargetRate,
		CurrentRate:         req.CurrentRate,
		DeviationBasisPoint: deviation,
		Fulfilled:           fulfilled,
	}
	if fulfilled {
		settlement, err := d.ledger.Fulfill(ctx, FulfillRequest{
			Caller:       d.authority,
			OrderID:      order.ID,
			Counterparty: req.Counterparty,
		})
		if err != nil {
			return ProcessResult{}, err
		}
		result.Settlement = settlement
	} else {
		settlement, err := d.ledger.Refund(ctx, RefundRequest{
			Caller:  d.authority,
			OrderID: order.ID,
		})
		if err != nil {
			return ProcessResult{}, err
		}
		result.Settlement = settlement
	}

	d.appendNotification(ctx, NotificationOrderProcessed, order.ID, map[string]any{
		"order_id":     order.ID,
		"target_rate":  order.TargetRate,
		"current_rate": req.CurrentRate,
		"fulfilled":    fulfilled,
	})
	return result, nil
}

func (d *Decider) appendNotification(ctx context.Context, name string, orderID uint64, payload map[string]any) {
	if d.notifications == nil {
		return
	}
	if err := d.notifications.Append(ctx, Notification{
		Name:       name,
		OrderID:    orderID,
		Payload:    payload,
		OccurredAt: d.now(),
	}); err != nil {
		d.logError(ctx, "notification append failed", map[string]any{
			"notification": name,
			"order_id":     orderID,
			"error":        err.Error(),
		})
	}
}

func (d *Decider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if d != nil && d.errorMapper != nil {
		if mapped := d.errorMapper(err); mapped != nil {
			return mapped
		}
	}
	return err
}

// DeviationBasisPoints computes floor(|currentRate-targetRate| * 10000 /
// targetRate). The distance is unsigned, so deviation is symmetric around
// the target. The 128-bit intermediate keeps the result exact for any
// uint64 rate pair.
func DeviationBasisPoints(targetRate, currentRate uint64) uint64 {
	if targetRate == 0 {
		return 0
	}
	var distance uint64
	if currentRate >= targetRate {
		distance = currentRate - targetRate
	} else {
		distance = targetRate - currentRate
	}
	hi, lo := bits.Mul64(distance, BasisPointDenominator)
	if hi >= targetRate {
		// Quotient would overflow uint64; any such deviation is far
		// beyond every representable tolerance band.
		return ^uint64(0)
	}
	quotient, _ := bits.Div64(hi, lo, targetRate)
	return quotient
}

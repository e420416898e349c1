package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-escrow/identity"
)

var (
	ErrInvalidOrderStatusTransition = errors.New("core: invalid order status transition")
	ErrOrderNotFound                = errors.New("core: order not found")
	ErrOrderAlreadyProcessed        = errors.New("core: order already processed")
	ErrAssetNotSupported            = errors.New("core: asset not supported")
	ErrReentrantCall                = errors.New("core: reentrant ledger call rejected")
)

// MaxBasisPoints bounds fee and tolerance configuration at 10%.
const MaxBasisPoints uint32 = 1000

// BasisPointDenominator is the fixed-point scale for fee and deviation math.
const BasisPointDenominator uint64 = 10000

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusRefunded
}

// Order is a single deposit-and-settle request. Orders are created by the
// ledger, mutated only through its fulfill/refund operations, and retained
// forever as settlement history.
type Order struct {
	ID           uint64
	Asset        string
	Amount       uint64
	TargetRate   uint64
	Depositor    identity.ID
	RefundTarget identity.ID
	Status       OrderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *Order) TransitionTo(status OrderStatus, now time.Time) error {
	if o == nil {
		return nil
	}
	if !orderTransitionAllowed(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidOrderStatusTransition, o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

// Terminal statuses have no outgoing transitions, so fulfilled-and-refunded
// is unrepresentable.
func orderTransitionAllowed(current, next OrderStatus) bool {
	allowed := map[OrderStatus]map[OrderStatus]struct{}{
		OrderStatusPending: {
			OrderStatusFulfilled: {},
			OrderStatusRefunded:  {},
		},
		OrderStatusFulfilled: {},
		OrderStatusRefunded:  {},
	}
	_, ok := allowed[current][next]
	return ok
}

// LedgerConfig is the runtime configuration owned by a ledger instance.
// It is mutated only through the ledger's owner-gated setters.
type LedgerConfig struct {
	Owner               identity.ID
	SettlementAuthority identity.ID
	Treasury            identity.ID
	SettlementAsset     string
	FeeBasisPoints      uint32
	SupportedAssets     map[string]struct{}
}

func (c LedgerConfig) AssetSupported(asset string) bool {
	if len(c.SupportedAssets) == 0 {
		return false
	}
	_, ok := c.SupportedAssets[normalizeAsset(asset)]
	return ok
}

func (c LedgerConfig) clone() LedgerConfig {
	out := c
	out.SupportedAssets = make(map[string]struct{}, len(c.SupportedAssets))
	for asset := range c.SupportedAssets {
		out.SupportedAssets[asset] = struct{}{}
	}
	return out
}

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

func normalizeIdentity(raw string) identity.ID {
	return identity.ID(raw).Normalize()
}

// SplitFee computes the protocol fee take for a fulfilled order as
// floor(amount * feeBasisPoints / 10000) plus the net remainder. The
// quotient/remainder decomposition keeps the product inside uint64 range
// for any amount.
func SplitFee(amount uint64, feeBasisPoints uint32) (fee uint64, net uint64) {
	bps := uint64(feeBasisPoints)
	fee = (amount/BasisPointDenominator)*bps + (amount%BasisPointDenominator)*bps/BasisPointDenominator
	return fee, amount - fee
}

// Notification is an append-only observable record of a ledger or decider
// side effect. The core emits notifications and never consumes them.
type Notification struct {
	ID         string
	Name       string
	OrderID    uint64
	Payload    map[string]any
	Metadata   map[string]any
	OccurredAt time.Time
}

const (
	NotificationOrderCreated   = "escrow.order.created"
	NotificationOrderProcessed = "escrow.order.processed"
	NotificationOrderFulfilled = "escrow.order.fulfilled"
	NotificationOrderRefunded  = "escrow.order.refunded"
	NotificationConfigChanged  = "escrow.config.changed"
)

// SettlementResult reports the fund movement performed by a terminal
// ledger operation.
type SettlementResult struct {
	Order        Order
	FeeAmount    uint64
	NetAmount    uint64
	Counterparty identity.ID
	RefundTarget identity.ID
}

// ProcessResult reports a decider decision together with the settlement it
// triggered.
type ProcessResult struct {
	OrderID             uint64
	TargetRate          uint64
	CurrentRate         uint64
	DeviationBasisPoint uint64
	Fulfilled           bool
	Settlement          SettlementResult
}

package core

import (
	"context"
	"testing"

	"github.com/goliatone/go-escrow/identity"
)

const (
	testOwner        = identity.ID("0xowner")
	testAuthority    = identity.ID("0xauthority")
	testDepositor    = identity.ID("0xdepositor")
	testRefundTarget = identity.ID("0xrefund")
	testCounterparty = identity.ID("0xcounterparty")
	testTreasury     = identity.ID("0xtreasury")
)

func testConfig() Config {
	return Config{
		ServiceName:         "escrow-test",
		Owner:               string(testOwner),
		SettlementAuthority: string(testAuthority),
		Treasury:            string(testTreasury),
		SettlementAsset:     "USDC",
		FeeBasisPoints:      250,
		SupportedAssets:     []string{"USDC", "WETH"},
	}
}

func newTestLedger(t *testing.T, options ...Option) (*Ledger, *fakeTransfer, *MemoryNotificationStore) {
	t.Helper()
	transfer := &fakeTransfer{}
	notifications := NewMemoryNotificationStore()
	opts := append([]Option{
		WithAssetTransfer(transfer),
		WithNotificationStore(notifications),
	}, options...)
	ledger, err := NewLedger(testConfig(), opts...)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger, transfer, notifications
}

func createPendingOrder(t *testing.T, ledger *Ledger, amount, targetRate uint64) Order {
	t.Helper()
	order, err := ledger.CreateOrder(context.Background(), CreateOrderRequest{
		Caller:       testDepositor,
		Asset:        "USDC",
		Amount:       amount,
		TargetRate:   targetRate,
		RefundTarget: testRefundTarget,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func findNotification(notifications []Notification, name string) (Notification, bool) {
	for _, notification := range notifications {
		if notification.Name == name {
			return notification, true
		}
	}
	return Notification{}, false
}

type transferCall struct {
	kind   string
	asset  string
	party  identity.ID
	amount uint64
	failed bool
}

// fakeTransfer records every balance movement the ledger requests. The err
// hooks decide per-call outcomes; the on hooks observe calls mid-flight so
// tests can reenter the ledger from inside a transfer.
type fakeTransfer struct {
	calls   []transferCall
	pullErr func(asset string, from identity.ID) error
	pushErr func(asset string, to identity.ID) error
	onPull  func(ctx context.Context, asset string, from identity.ID, amount uint64)
	onPush  func(ctx context.Context, asset string, to identity.ID, amount uint64)
}

func (f *fakeTransfer) Pull(ctx context.Context, asset string, from identity.ID, amount uint64) error {
	var err error
	if f.pullErr != nil {
		err = f.pullErr(asset, from)
	}
	f.calls = append(f.calls, transferCall{
		kind:   "pull",
		asset:  asset,
		party:  from,
		amount: amount,
		failed: err != nil,
	})
	if f.onPull != nil {
		f.onPull(ctx, asset, from, amount)
	}
	return err
}

func (f *fakeTransfer) Push(ctx context.Context, asset string, to identity.ID, amount uint64) error {
	var err error
	if f.pushErr != nil {
		err = f.pushErr(asset, to)
	}
	f.calls = append(f.calls, transferCall{
		kind:   "push",
		asset:  asset,
		party:  to,
		amount: amount,
		failed: err != nil,
	})
	if f.onPush != nil {
		f.onPush(ctx, asset, to, amount)
	}
	return err
}

func (f *fakeTransfer) callCount(kind string) int {
	count := 0
	for _, call := range f.calls {
		if call.kind == kind {
			count++
		}
	}
	return count
}

// pushed sums the amounts successfully delivered to the identity.
func (f *fakeTransfer) pushed(to identity.ID) uint64 {
	var total uint64
	for _, call := range f.calls {
		if call.kind == "push" && !call.failed && call.party.Equal(to) {
			total += call.amount
		}
	}
	return total
}

type fakeConverter struct {
	received uint64
	err      error
	lastReq  ConversionRequest
}

func (c *fakeConverter) Convert(_ context.Context, req ConversionRequest) (uint64, error) {
	c.lastReq = req
	if c.err != nil {
		return 0, c.err
	}
	return c.received, nil
}

var (
	_ AssetTransfer = (*fakeTransfer)(nil)
	_ Converter     = (*fakeConverter)(nil)
)

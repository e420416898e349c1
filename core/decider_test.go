package core

import (
	"context"
	"testing"
)

func newTestDecider(t *testing.T, toleranceBasisPoints uint32) (*Decider, *Ledger, *fakeTransfer) {
	t.Helper()
	ledger, transfer, _ := newTestLedger(t)
	decider, err := NewDecider(ledger, testAuthority, toleranceBasisPoints)
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	return decider, ledger, transfer
}

func TestNewDeciderValidation(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	if _, err := NewDecider(nil, testAuthority, 100); err == nil {
		t.Fatalf("expected error without a ledger")
	}
	if _, err := NewDecider(ledger, "", 100); err == nil {
		t.Fatalf("expected error without an authority")
	}
	if _, err := NewDecider(ledger, testAuthority, 1001); err == nil {
		t.Fatalf("expected error for tolerance above 1000 bps")
	}
}

func TestProcessOrder_WithinToleranceFulfills(t *testing.T) {
	decider, ledger, transfer := newTestDecider(t, 100)
	order := createPendingOrder(t, ledger, 1_000_000, 100)

	// |101-100|*10000/100 = 100 bps, exactly at the band edge
	result, err := decider.ProcessOrder(context.Background(), ProcessOrderRequest{
		OrderID:      order.ID,
		CurrentRate:  101,
		Counterparty: testCounterparty,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Fulfilled {
		t.Fatalf("expected fulfillment at the tolerance edge")
	}
	if result.DeviationBasisPoint != 100 {
		t.Fatalf("expected 100 bps deviation, got %d", result.DeviationBasisPoint)
	}
	if got := transfer.pushed(testCounterparty); got != 975_000 {
		t.Fatalf("counterparty received %d, want net amount", got)
	}

	stored, _ := ledger.GetOrder(context.Background(), order.ID)
	if stored.Status != OrderStatusFulfilled {
		t.Fatalf("expected fulfilled, got %q", stored.Status)
	}
}

func TestProcessOrder_OutsideToleranceRefunds(t *testing.T) {
	decider, ledger, transfer := newTestDecider(t, 100)
	order := createPendingOrder(t, ledger, 1_000_000, 100)

	// |102-100|*10000/100 = 200 bps, one tick over the band
	result, err := decider.ProcessOrder(context.Background(), ProcessOrderRequest{
		OrderID:      order.ID,
		CurrentRate:  102,
		Counterparty: testCounterparty,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Fulfilled {
		t.Fatalf("expected refund outside the tolerance band")
	}
	if got := transfer.pushed(testRefundTarget); got != 1_000_000 {
		t.Fatalf("refund target received %d, want full amount", got)
	}
	if got := transfer.pushed(testTreasury); got != 0 {
		t.Fatalf("no fee on refunds, treasury received %d", got)
	}

	stored, _ := ledger.GetOrder(context.Background(), order.ID)
	if stored.Status != OrderStatusRefunded {
		t.Fatalf("expected refunded, got %q", stored.Status)
	}
}

func TestProcessOrder_ProcessedNotificationSharesLedgerOutbox(t *testing.T) {
	ledger, _, notifications := newTestLedger(t)
	decider, err := NewDecider(ledger, testAuthority, 100)
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	order := createPendingOrder(t, ledger, 1_000, 100)

	if _, err := decider.ProcessOrder(context.Background(), ProcessOrderRequest{
		OrderID: order.ID, CurrentRate: 100, Counterparty: testCounterparty,
	}); err != nil {
		t.Fatalf("process: %v", err)
	}

	processed, ok := findNotification(notifications.Pending(), NotificationOrderProcessed)
	if !ok {
		t.Fatalf("expected processed notification in the ledger outbox")
	}
	if processed.OrderID != order.ID {
		t.Fatalf("expected notification for order %d, got %d", order.ID, processed.OrderID)
	}
}

func TestProcessOrder_NotificationStoreOptionOverridesLedgerOutbox(t *testing.T) {
	ledger, _, notifications := newTestLedger(t)
	override := NewMemoryNotificationStore()
	decider, err := NewDecider(ledger, testAuthority, 100, WithDeciderNotificationStore(override))
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	order := createPendingOrder(t, ledger, 1_000, 100)

	if _, err := decider.ProcessOrder(context.Background(), ProcessOrderRequest{
		OrderID: order.ID, CurrentRate: 100, Counterparty: testCounterparty,
	}); err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, ok := findNotification(override.Pending(), NotificationOrderProcessed); !ok {
		t.Fatalf("expected processed notification in the override store")
	}
	if _, ok := findNotification(notifications.Pending(), NotificationOrderProcessed); ok {
		t.Fatalf("processed notification must not also land in the ledger outbox")
	}
}

func TestProcessOrder_TerminalOrderAlreadyProcessed(t *testing.T) {
	decider, ledger, _ := newTestDecider(t, 100)
	order := createPendingOrder(t, ledger, 1_000, 100)
	ctx := context.Background()

	if _, err := decider.ProcessOrder(ctx, ProcessOrderRequest{
		OrderID: order.ID, CurrentRate: 100, Counterparty: testCounterparty,
	}); err != nil {
		t.Fatalf("first process: %v", err)
	}

	_, err := decider.ProcessOrder(ctx, ProcessOrderRequest{
		OrderID: order.ID, CurrentRate: 100, Counterparty: testCounterparty,
	})
	assertTextCode(t, err, EscrowErrorAlreadyProcessed)
}

func TestProcessOrder_UnknownOrder(t *testing.T) {
	decider, _, _ := newTestDecider(t, 100)
	_, err := decider.ProcessOrder(context.Background(), ProcessOrderRequest{
		OrderID: 9999, CurrentRate: 100, Counterparty: testCounterparty,
	})
	assertTextCode(t, err, EscrowErrorNotFound)
}

func TestProcessOrder_ValidatesRequest(t *testing.T) {
	decider, _, _ := newTestDecider(t, 100)
	ctx := context.Background()

	cases := []ProcessOrderRequest{
		{OrderID: 0, CurrentRate: 100, Counterparty: testCounterparty},
		{OrderID: 1, CurrentRate: 0, Counterparty: testCounterparty},
		{OrderID: 1, CurrentRate: 100},
	}
	for i, req := range cases {
		if _, err := decider.ProcessOrder(ctx, req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestSetToleranceBasisPoints(t *testing.T) {
	decider, _, _ := newTestDecider(t, 100)
	ctx := context.Background()

	if err := decider.SetToleranceBasisPoints(ctx, testDepositor, 50); err == nil {
		t.Fatalf("non-owner must not change the tolerance")
	}
	if err := decider.SetToleranceBasisPoints(ctx, testOwner, 1001); err == nil {
		t.Fatalf("tolerance above 1000 bps must be rejected")
	}
	if err := decider.SetToleranceBasisPoints(ctx, testOwner, 0); err != nil {
		t.Fatalf("set tolerance: %v", err)
	}
	if got := decider.ToleranceBasisPoints(); got != 0 {
		t.Fatalf("tolerance not persisted, got %d", got)
	}
}

func TestProcessOrder_ZeroToleranceRequiresExactRate(t *testing.T) {
	decider, ledger, _ := newTestDecider(t, 0)
	first := createPendingOrder(t, ledger, 1_000, 100)
	second := createPendingOrder(t, ledger, 1_000, 100)
	ctx := context.Background()

	exact, err := decider.ProcessOrder(ctx, ProcessOrderRequest{
		OrderID: first.ID, CurrentRate: 100, Counterparty: testCounterparty,
	})
	if err != nil {
		t.Fatalf("process exact: %v", err)
	}
	if !exact.Fulfilled {
		t.Fatalf("exact rate must fulfill under zero tolerance")
	}

	off, err := decider.ProcessOrder(ctx, ProcessOrderRequest{
		OrderID: second.ID, CurrentRate: 101, Counterparty: testCounterparty,
	})
	if err != nil {
		t.Fatalf("process off-rate: %v", err)
	}
	if off.Fulfilled {
		t.Fatalf("any deviation must refund under zero tolerance")
	}
}

func TestDeviationBasisPoints(t *testing.T) {
	cases := []struct {
		target, current, want uint64
	}{
		{100, 100, 0},
		{100, 101, 100},
		{100, 99, 100},
		{100, 102, 200},
		{100, 200, 10_000},
		{1_000_000, 1_000_001, 0}, // floor division truncates sub-bps deviation
		{3, 4, 3333},
		{3, 2, 3333},
	}
	for _, tc := range cases {
		if got := DeviationBasisPoints(tc.target, tc.current); got != tc.want {
			t.Fatalf("deviation(%d, %d) = %d, want %d", tc.target, tc.current, got, tc.want)
		}
	}
}

func TestDeviationBasisPointsSymmetry(t *testing.T) {
	targets := []uint64{1, 3, 100, 777, 1 << 40}
	deltas := []uint64{0, 1, 2, 50}
	for _, target := range targets {
		for _, delta := range deltas {
			if delta >= target && delta != 0 {
				continue
			}
			up := DeviationBasisPoints(target, target+delta)
			down := DeviationBasisPoints(target, target-delta)
			if up != down {
				t.Fatalf("deviation asymmetric at target %d delta %d: up %d down %d", target, delta, up, down)
			}
		}
	}
}

func TestDeviationBasisPointsSaturatesOnOverflow(t *testing.T) {
	// distance*10000 quotient exceeds uint64 when the target is tiny and
	// the distance huge
	if got := DeviationBasisPoints(1, ^uint64(0)); got != ^uint64(0) {
		t.Fatalf("expected saturation, got %d", got)
	}
}

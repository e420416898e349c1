package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/goliatone/go-escrow/core"
	"github.com/goliatone/go-escrow/identity"
	escrowmigrations "github.com/goliatone/go-escrow/migrations"
	sqlstore "github.com/goliatone/go-escrow/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-escrow-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:escrow-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = escrowmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != escrowmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, escrowmigrations.WithValidationTargets(escrowmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"escrow_orders", "escrow_events"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestOrderStore_CreateAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.OrderStore()

	first, err := store.Create(ctx, core.Order{
		Asset:        "USDC",
		Amount:       1_000_000,
		TargetRate:   100,
		Depositor:    "0xdepositor",
		RefundTarget: "0xrefund",
	})
	if err != nil {
		t.Fatalf("create first order: %v", err)
	}
	second, err := store.Create(ctx, core.Order{
		Asset:        "WETH",
		Amount:       5,
		TargetRate:   3000,
		Depositor:    "0xother",
		RefundTarget: "0xother",
	})
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}

	if first.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if second.ID <= first.ID {
		t.Fatalf("expected monotonic ids: %d then %d", first.ID, second.ID)
	}
	if first.Status != core.OrderStatusPending {
		t.Fatalf("new orders default to pending, got %q", first.Status)
	}

	loaded, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if loaded.Asset != "USDC" || loaded.Amount != 1_000_000 {
		t.Fatalf("unexpected order round-trip: %+v", loaded)
	}
}

func TestOrderStore_GetUnknownReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}

	if _, err := factory.OrderStore().Get(ctx, 4242); !errors.Is(err, core.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderStore_UpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.OrderStore()

	order, err := store.Create(ctx, core.Order{
		Asset:        "USDC",
		Amount:       100,
		TargetRate:   10,
		Depositor:    "0xdepositor",
		RefundTarget: "0xrefund",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	fulfilled, err := store.UpdateStatus(ctx, order.ID, core.OrderStatusPending, core.OrderStatusFulfilled)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if fulfilled.Status != core.OrderStatusFulfilled {
		t.Fatalf("expected fulfilled, got %q", fulfilled.Status)
	}

	if _, err := store.UpdateStatus(ctx, order.ID, core.OrderStatusPending, core.OrderStatusRefunded); !errors.Is(err, core.ErrOrderAlreadyProcessed) {
		t.Fatalf("stale expected-status must fail with ErrOrderAlreadyProcessed, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, 4242, core.OrderStatusPending, core.OrderStatusFulfilled); !errors.Is(err, core.ErrOrderNotFound) {
		t.Fatalf("unknown order must fail with ErrOrderNotFound, got %v", err)
	}

	// the settlement abort path restores a terminal status back to pending
	restored, err := store.UpdateStatus(ctx, order.ID, core.OrderStatusFulfilled, core.OrderStatusPending)
	if err != nil {
		t.Fatalf("restore status: %v", err)
	}
	if restored.Status != core.OrderStatusPending {
		t.Fatalf("expected pending after restore, got %q", restored.Status)
	}
}

func TestOrderStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.OrderStore()

	for i := 0; i < 3; i++ {
		depositor := identity.ID("0xalice")
		if i == 2 {
			depositor = "0xbob"
		}
		if _, err := store.Create(ctx, core.Order{
			Asset:        "USDC",
			Amount:       uint64(100 * (i + 1)),
			TargetRate:   10,
			Depositor:    depositor,
			RefundTarget: "0xrefund",
		}); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	alice, err := store.List(ctx, core.ListOrdersInput{Depositor: "0xalice"})
	if err != nil {
		t.Fatalf("list by depositor: %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("expected 2 orders for depositor, got %d", len(alice))
	}

	all, err := store.List(ctx, core.ListOrdersInput{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}

	after, err := store.List(ctx, core.ListOrdersInput{AfterID: all[0].ID})
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(after) != 2 {
		t.Fatalf("expected 2 orders after id %d, got %d", all[0].ID, len(after))
	}

	limited, err := store.List(ctx, core.ListOrdersInput{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != all[0].ID {
		t.Fatalf("expected the first order only, got %+v", limited)
	}
}

func TestEventStore_AppendClaimAckRetry(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.NotificationStore()

	if err := store.Append(ctx, core.Notification{
		Name:    core.NotificationOrderCreated,
		OrderID: 1,
		Payload: map[string]any{"asset": "USDC"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, core.Notification{
		Name:    core.NotificationOrderFulfilled,
		OrderID: 1,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	batch, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 claimed events, got %d", len(batch))
	}
	if batch[0].ID == "" {
		t.Fatalf("append must assign an id")
	}

	again, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("claim again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("claimed events must not be re-claimed, got %d", len(again))
	}

	if err := store.Ack(ctx, batch[0].ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := store.Retry(ctx, batch[1].ID, time.Now().UTC().Add(-time.Second), 1, "handler unavailable"); err != nil {
		t.Fatalf("retry: %v", err)
	}

	retried, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("claim retried: %v", err)
	}
	if len(retried) != 1 {
		t.Fatalf("expected 1 retried event, got %d", len(retried))
	}
	if retried[0].ID != batch[1].ID {
		t.Fatalf("expected the retried event back, got %q", retried[0].ID)
	}
}

func TestEventStore_TerminalRetryStopsClaiming(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.NotificationStore()

	if err := store.Append(ctx, core.Notification{
		ID:      "11111111-1111-1111-1111-111111111111",
		Name:    core.NotificationOrderRefunded,
		OrderID: 9,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if batch, _ := store.ClaimBatch(ctx, 10); len(batch) != 1 {
		t.Fatalf("expected 1 claimed event")
	}
	if err := store.Retry(ctx, "11111111-1111-1111-1111-111111111111", time.Time{}, 5, "exhausted"); err != nil {
		t.Fatalf("terminal retry: %v", err)
	}
	if batch, _ := store.ClaimBatch(ctx, 10); len(batch) != 0 {
		t.Fatalf("failed events must never be re-claimed")
	}
}

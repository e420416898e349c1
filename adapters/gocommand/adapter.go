package gocommand

import (
	"context"
	"fmt"
	"strings"

	escrowcommand "github.com/goliatone/go-escrow/command"
	escrowquery "github.com/goliatone/go-escrow/query"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry so
// settlement work can also run through the background queue.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// RegisterLedgerCommands subscribes every ledger mutation to the dispatcher
// and registers it with the adapter. On any failure the already-created
// subscriptions are released so registration is all-or-nothing.
func RegisterLedgerCommands(
	adapter *RegistryAdapter,
	ledger escrowcommand.MutatingLedger,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if ledger == nil {
		return nil, fmt.Errorf("gocommand: ledger is required")
	}
	var subs []commanddispatcher.Subscription
	keep := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			UnsubscribeAll(subs)
			return err
		}
		subs = append(subs, sub)
		return nil
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewCreateOrderCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewCreateOrderViaConversionCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewFulfillOrderCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewRefundOrderCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewSetFeeCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewSetTreasuryCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewSetAuthorityCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewSetSettlementAssetCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribe(adapter, escrowcommand.NewSetAssetSupportCommand(ledger), runnerOpts...)); err != nil {
		return nil, err
	}
	return subs, nil
}

// RegisterDeciderCommands subscribes the settlement decider operations.
func RegisterDeciderCommands(
	adapter *RegistryAdapter,
	decider escrowcommand.DecidingService,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if decider == nil {
		return nil, fmt.Errorf("gocommand: decider is required")
	}
	var subs []commanddispatcher.Subscription
	processSub, err := RegisterAndSubscribe(adapter, escrowcommand.NewProcessOrderCommand(decider), runnerOpts...)
	if err != nil {
		return nil, err
	}
	subs = append(subs, processSub)
	toleranceSub, err := RegisterAndSubscribe(adapter, escrowcommand.NewSetToleranceCommand(decider), runnerOpts...)
	if err != nil {
		UnsubscribeAll(subs)
		return nil, err
	}
	subs = append(subs, toleranceSub)
	return subs, nil
}

// RegisterOrderQueries subscribes the read side. The two readers usually are
// the same ledger value; they stay separate parameters so callers can split
// reads across replicas.
func RegisterOrderQueries(
	adapter *RegistryAdapter,
	orders escrowquery.OrderReader,
	config escrowquery.ConfigReader,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if orders == nil {
		return nil, fmt.Errorf("gocommand: order reader is required")
	}
	if config == nil {
		return nil, fmt.Errorf("gocommand: config reader is required")
	}
	var subs []commanddispatcher.Subscription
	keep := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			UnsubscribeAll(subs)
			return err
		}
		subs = append(subs, sub)
		return nil
	}
	if err := keep(RegisterAndSubscribeQuery(adapter, escrowquery.NewGetOrderQuery(orders), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribeQuery(adapter, escrowquery.NewListOrdersQuery(orders), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := keep(RegisterAndSubscribeQuery(adapter, escrowquery.NewGetLedgerConfigQuery(config), runnerOpts...)); err != nil {
		return nil, err
	}
	return subs, nil
}

// UnsubscribeAll releases every subscription, tolerating nil entries.
func UnsubscribeAll(subs []commanddispatcher.Subscription) {
	for _, sub := range subs {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

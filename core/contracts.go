package core

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-escrow/identity"
	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

// AssetTransfer is the external fungible-asset movement primitive. Calls can
// fail and the ledger always checks the result before committing state; it
// never assumes success.
type AssetTransfer interface {
	Pull(ctx context.Context, asset string, from identity.ID, amount uint64) error
	Push(ctx context.Context, asset string, to identity.ID, amount uint64) error
}

// ConversionRequest asks the external swap collaborator to convert an input
// asset into the settlement asset before the deadline.
type ConversionRequest struct {
	InputAsset  string
	InputAmount uint64
	OutputAsset string
	MinOutput   uint64
	Deadline    time.Time
}

// Converter is the external price-swap collaborator. It must fail the call
// when the amount received is below MinOutput or the deadline has elapsed.
type Converter interface {
	Convert(ctx context.Context, req ConversionRequest) (uint64, error)
}

// OrderStore owns the persisted order registry. Create assigns a monotonic,
// never-reused id. UpdateStatus performs a compare-and-set on the order
// status and returns ErrOrderNotFound for unknown ids and
// ErrOrderAlreadyProcessed when the order is not in the expected status.
type OrderStore interface {
	Create(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, id uint64) (Order, error)
	UpdateStatus(ctx context.Context, id uint64, from, to OrderStatus) (Order, error)
	List(ctx context.Context, input ListOrdersInput) ([]Order, error)
}

type ListOrdersInput struct {
	Status    OrderStatus
	Depositor identity.ID
	AfterID   uint64
	Limit     int
}

// NotificationStore is the append-only outbox for observable side effects.
// ClaimBatch/Ack/Retry serve the dispatcher; the escrow core itself only
// appends.
type NotificationStore interface {
	Append(ctx context.Context, notification Notification) error
	ClaimBatch(ctx context.Context, limit int) ([]Notification, error)
	Ack(ctx context.Context, id string) error
	Retry(ctx context.Context, id string, nextAttemptAt time.Time, attempts int, reason string) error
}

// NotificationHandler consumes dispatched notifications outside the core.
type NotificationHandler interface {
	Handle(ctx context.Context, notification Notification) error
}

type NotificationHandlerRegistry interface {
	Handlers() []NotificationHandler
}

// AuthorizationPolicy gates privileged ledger and decider operations.
type AuthorizationPolicy interface {
	Authorize(ctx context.Context, actor identity.ID, role identity.Role) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// StoreProvider exposes the persistence-backed stores a repository factory
// builds for the ledger.
type StoreProvider interface {
	OrderStore() OrderStore
	NotificationStore() NotificationStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// JobExecutionMessage is the queue-agnostic shape of a background job
// request, mapped to go-job by the adapters/gojob package.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	JobID    string
	Attempt  int
	Duration time.Duration
	Err      error
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
}

var _ MetricsRecorder = NopMetricsRecorder{}

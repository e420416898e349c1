package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-escrow/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          JobIDOutboxDispatch,
		Parameters:     map[string]any{"batch_size": 50},
		IdempotencyKey: "idem-1",
		DedupPolicy:    "drop",
	}

	converted := ToExecutionMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	roundTrip := FromExecutionMessage(converted)
	if roundTrip.JobID != original.JobID {
		t.Fatalf("expected job id %q, got %q", original.JobID, roundTrip.JobID)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}
	if roundTrip.DedupPolicy != original.DedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", original.DedupPolicy, roundTrip.DedupPolicy)
	}
	if roundTrip.Parameters["batch_size"] != 50 {
		t.Fatalf("expected parameters to survive mapping")
	}
}

func TestOutboxDispatchMessageShape(t *testing.T) {
	msg := OutboxDispatchMessage("ledger-1", 25)
	if msg.JobID != JobIDOutboxDispatch {
		t.Fatalf("unexpected job id %q", msg.JobID)
	}
	if msg.IdempotencyKey != "escrow.outbox.dispatch::ledger-1" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}
	if msg.Parameters["batch_size"] != 25 {
		t.Fatalf("unexpected batch size parameter: %v", msg.Parameters["batch_size"])
	}
}

func TestProcessOrderMessageShape(t *testing.T) {
	msg := ProcessOrderMessage(42, 101, "0xcounterparty")
	if msg.JobID != JobIDProcessOrder {
		t.Fatalf("unexpected job id %q", msg.JobID)
	}
	if msg.IdempotencyKey != "escrow.order.process::42" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}
	if msg.Parameters["order_id"] != uint64(42) || msg.Parameters["current_rate"] != uint64(101) {
		t.Fatalf("unexpected parameters: %v", msg.Parameters)
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(enqueuer)

	if err := enqueueAdapter.Enqueue(ctx, OutboxDispatchMessage("ledger-1", 50)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDOutboxDispatch {
		t.Fatalf("expected mapped go-job message")
	}

	dequeuer := &stubQueueDequeuer{delivery: &stubQueueDelivery{msg: enqueuer.last}}
	dequeueAdapter := NewDequeuerAdapter(dequeuer, RetryPolicy{})
	delivery, err := dequeueAdapter.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != JobIDOutboxDispatch {
		t.Fatalf("expected mapped core message")
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !dequeuer.delivery.(*stubQueueDelivery).acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID: JobIDProcessOrder,
		},
	}
	adapter := NewDeliveryAdapter(rawDelivery, RetryPolicy{
		MaxAttempts:     3,
		MaxDelay:        10 * time.Second,
		DeadLetterOnMax: true,
	})

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   30 * time.Second,
		Requeue: true,
		Reason:  "transient",
	}, 1); err != nil {
		t.Fatalf("nack attempt 1: %v", err)
	}
	if rawDelivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", rawDelivery.nackOpts.Delay)
	}
	if rawDelivery.nackOpts.Disposition != queue.NackDispositionRetry {
		t.Fatalf("expected retry disposition before max attempts, got %q", rawDelivery.nackOpts.Disposition)
	}

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Second,
		Requeue: true,
		Reason:  "still failing",
	}, 3); err != nil {
		t.Fatalf("nack max attempt: %v", err)
	}
	if rawDelivery.nackOpts.Disposition != queue.NackDispositionDeadLetter {
		t.Fatalf("expected dead letter disposition on max attempts, got %q", rawDelivery.nackOpts.Disposition)
	}
}

func TestNackOptionsDispositionMapping(t *testing.T) {
	mapped := ToNackOptions(core.JobNackOptions{Requeue: true, Delay: time.Second, Reason: "again"})
	if mapped.Disposition != queue.NackDispositionRetry {
		t.Fatalf("expected retry disposition, got %q", mapped.Disposition)
	}
	mapped = ToNackOptions(core.JobNackOptions{DeadLetter: true, Requeue: true})
	if mapped.Disposition != queue.NackDispositionDeadLetter {
		t.Fatalf("expected dead letter to win over requeue, got %q", mapped.Disposition)
	}
	mapped = ToNackOptions(core.JobNackOptions{})
	if mapped.Disposition != queue.NackDispositionFailed {
		t.Fatalf("expected failed disposition by default, got %q", mapped.Disposition)
	}

	back := FromNackOptions(queue.NackOptions{Disposition: queue.NackDispositionRetry, Delay: time.Second})
	if !back.Requeue || back.DeadLetter {
		t.Fatalf("expected retry to map to requeue, got %#v", back)
	}
	back = FromNackOptions(queue.NackOptions{Disposition: queue.NackDispositionDeadLetter})
	if back.Requeue || !back.DeadLetter {
		t.Fatalf("expected dead letter mapping, got %#v", back)
	}
	back = FromNackOptions(queue.NackOptions{Disposition: queue.NackDispositionFailed})
	if back.Requeue || back.DeadLetter {
		t.Fatalf("expected terminal failure to map to neither flag, got %#v", back)
	}
}

func TestWorkerHookAdapterEventMapping(t *testing.T) {
	coreHook := &capturingHook{}
	adapter := NewWorkerHookAdapter(coreHook)

	evt := worker.Event{
		Message: &job.ExecutionMessage{
			JobID:          JobIDOutboxDispatch,
			IdempotencyKey: "idem-outbox",
		},
		Attempt:  2,
		Err:      errors.New("retry"),
		Duration: 250 * time.Millisecond,
	}

	adapter.OnRetry(context.Background(), evt)
	if coreHook.lastFailure.JobID != JobIDOutboxDispatch {
		t.Fatalf("expected job id mapping, got %q", coreHook.lastFailure.JobID)
	}
	if coreHook.lastFailure.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", coreHook.lastFailure.Attempt)
	}
	if coreHook.lastFailure.Duration != 250*time.Millisecond {
		t.Fatalf("expected duration mapping")
	}
	if coreHook.lastFailure.Err == nil || coreHook.lastFailure.Err.Error() != "retry" {
		t.Fatalf("expected error mapping")
	}

	adapter.OnSuccess(context.Background(), worker.Event{Message: evt.Message})
	if coreHook.lastSuccess.JobID != JobIDOutboxDispatch {
		t.Fatalf("expected success hook invocation")
	}
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	s.last = msg
	return queue.EnqueueReceipt{DispatchID: msg.IdempotencyKey}, nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type capturingHook struct {
	lastStart   core.JobWorkerEvent
	lastSuccess core.JobWorkerEvent
	lastFailure core.JobWorkerEvent
}

func (h *capturingHook) OnStart(_ context.Context, event core.JobWorkerEvent) {
	h.lastStart = event
}

func (h *capturingHook) OnSuccess(_ context.Context, event core.JobWorkerEvent) {
	h.lastSuccess = event
}

func (h *capturingHook) OnFailure(_ context.Context, event core.JobWorkerEvent) {
	h.lastFailure = event
}

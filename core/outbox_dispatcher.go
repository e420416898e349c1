package core

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const MetadataKeyOutboxAttempts = "_outbox_attempts"

type OutboxDispatcherConfig struct {
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultOutboxDispatcherConfig() OutboxDispatcherConfig {
	return OutboxDispatcherConfig{
		BatchSize:      50,
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     5 * time.Minute,
	}
}

type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

// OutboxDispatcher drains appended notifications to registered handlers
// with bounded retry. The escrow core never consumes its own
// notifications; dispatch is strictly an outbound concern.
type OutboxDispatcher struct {
	store    NotificationStore
	registry NotificationHandlerRegistry
	config   OutboxDispatcherConfig
	now      func() time.Time
}

func NewOutboxDispatcher(
	store NotificationStore,
	registry NotificationHandlerRegistry,
	config OutboxDispatcherConfig,
) (*OutboxDispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("core: notification store is required")
	}
	defaults := DefaultOutboxDispatcherConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	return &OutboxDispatcher{
		store:    store,
		registry: registry,
		config:   config,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (d *OutboxDispatcher) DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error) {
	if d == nil || d.store == nil {
		return DispatchStats{}, fmt.Errorf("core: outbox dispatcher is not configured")
	}
	limit := batchSize
	if limit <= 0 {
		limit = d.config.BatchSize
	}
	notifications, err := d.store.ClaimBatch(ctx, limit)
	if err != nil {
		return DispatchStats{}, err
	}

	stats := DispatchStats{Claimed: len(notifications)}
	var dispatchErr error
	for _, notification := range notifications {
		if err := d.dispatchOne(ctx, notification); err != nil {
			if retryErr := d.retryNotification(ctx, notification, err); retryErr != nil {
				dispatchErr = joinErrors(dispatchErr, retryErr)
			}
			if nextAttemptIndex(notification)+1 >= d.config.MaxAttempts {
				stats.Failed++
			} else {
				stats.Retried++
			}
			dispatchErr = joinErrors(dispatchErr, err)
			continue
		}
		if err := d.store.Ack(ctx, strings.TrimSpace(notification.ID)); err != nil {
			dispatchErr = joinErrors(dispatchErr, err)
			continue
		}
		stats.Delivered++
	}

	return stats, dispatchErr
}

func (d *OutboxDispatcher) dispatchOne(ctx context.Context, notification Notification) error {
	if d == nil || d.registry == nil {
		return nil
	}
	handlers := d.registry.Handlers()
	for i, handler := range handlers {
		if handler == nil {
			continue
		}
		if err := handler.Handle(ctx, notification); err != nil {
			return fmt.Errorf("core: notification handler %d failed for %q: %w", i, notification.ID, err)
		}
	}
	return nil
}

func (d *OutboxDispatcher) retryNotification(ctx context.Context, notification Notification, cause error) error {
	attempt := nextAttemptIndex(notification)
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	if attempt+1 >= d.config.MaxAttempts {
		return d.store.Retry(ctx, strings.TrimSpace(notification.ID), time.Time{}, attempt+1, reason)
	}
	nextAttemptAt := d.now().Add(d.nextBackoffDelay(attempt + 1))
	return d.store.Retry(ctx, strings.TrimSpace(notification.ID), nextAttemptAt, attempt+1, reason)
}

func (d *OutboxDispatcher) nextBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(d.config.InitialBackoff)
	multiplier := math.Pow(2, float64(attempt-1))
	next := time.Duration(base * multiplier)
	if next < 0 {
		return d.config.MaxBackoff
	}
	if next > d.config.MaxBackoff {
		return d.config.MaxBackoff
	}
	return next
}

func nextAttemptIndex(notification Notification) int {
	if len(notification.Metadata) == 0 {
		return 0
	}
	raw, ok := notification.Metadata[MetadataKeyOutboxAttempts]
	if !ok {
		return 0
	}
	switch typed := raw.(type) {
	case int:
		if typed < 0 {
			return 0
		}
		return typed
	case int64:
		if typed < 0 {
			return 0
		}
		return int(typed)
	case float64:
		if typed < 0 {
			return 0
		}
		return int(typed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err == nil && parsed >= 0 {
			return parsed
		}
	}
	return 0
}

// HandlerFunc adapts a func to NotificationHandler.
type HandlerFunc func(ctx context.Context, notification Notification) error

func (f HandlerFunc) Handle(ctx context.Context, notification Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, notification)
}

// StaticHandlerRegistry is a fixed handler list.
type StaticHandlerRegistry struct {
	handlers []NotificationHandler
}

func NewStaticHandlerRegistry(handlers ...NotificationHandler) *StaticHandlerRegistry {
	return &StaticHandlerRegistry{handlers: handlers}
}

func (r *StaticHandlerRegistry) Handlers() []NotificationHandler {
	if r == nil {
		return nil
	}
	return r.handlers
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}

var (
	_ NotificationHandler         = HandlerFunc(nil)
	_ NotificationHandlerRegistry = (*StaticHandlerRegistry)(nil)
)

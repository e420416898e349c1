package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryOrderStore is the embedded order registry used when no repository
// factory is wired. Ids are assigned from a process-wide monotonic counter
// and never reused.
type MemoryOrderStore struct {
	mu     sync.Mutex
	nextID uint64
	orders map[uint64]Order
	Now    func() time.Time
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		nextID: 1,
		orders: map[uint64]Order{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryOrderStore) Create(_ context.Context, order Order) (Order, error) {
	if s == nil {
		return Order{}, fmt.Errorf("core: order store is not configured")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = s.nextID
	s.nextID++
	if order.Status == "" {
		order.Status = OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	s.orders[order.ID] = order
	return order, nil
}

func (s *MemoryOrderStore) Get(_ context.Context, id uint64) (Order, error) {
	if s == nil {
		return Order{}, fmt.Errorf("core: order store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return order, nil
}

func (s *MemoryOrderStore) UpdateStatus(_ context.Context, id uint64, from, to OrderStatus) (Order, error) {
	if s == nil {
		return Order{}, fmt.Errorf("core: order store is not configured")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	if order.Status != from {
		return Order{}, fmt.Errorf("%w: order %d is %s", ErrOrderAlreadyProcessed, id, order.Status)
	}
	// Plain compare-and-set: the ledger requests pending->terminal moves
	// and, on an aborted settlement, the terminal->pending restore that
	// makes the failed call externally invisible.
	order.Status = to
	order.UpdatedAt = now
	s.orders[id] = order
	return order, nil
}

func (s *MemoryOrderStore) List(_ context.Context, input ListOrdersInput) ([]Order, error) {
	if s == nil {
		return nil, fmt.Errorf("core: order store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		if input.Status != "" && order.Status != input.Status {
			continue
		}
		if !input.Depositor.IsZero() && !order.Depositor.Equal(input.Depositor) {
			continue
		}
		if input.AfterID > 0 && order.ID <= input.AfterID {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if input.Limit > 0 && len(out) > input.Limit {
		out = out[:input.Limit]
	}
	return out, nil
}

func (s *MemoryOrderStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type memoryOutboxEntry struct {
	notification  Notification
	claimed       bool
	attempts      int
	nextAttemptAt time.Time
	lastError     string
}

// MemoryNotificationStore is an in-process notification outbox. Entries are
// retained until acked by a dispatcher; the core only ever appends.
type MemoryNotificationStore struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*memoryOutboxEntry
	Now     func() time.Time
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{
		entries: map[string]*memoryOutboxEntry{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryNotificationStore) Append(_ context.Context, notification Notification) error {
	if s == nil {
		return fmt.Errorf("core: notification store is not configured")
	}
	if strings.TrimSpace(notification.Name) == "" {
		return fmt.Errorf("core: notification name is required")
	}
	if strings.TrimSpace(notification.ID) == "" {
		notification.ID = uuid.NewString()
	}
	if notification.OccurredAt.IsZero() {
		notification.OccurredAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[notification.ID]; exists {
		return fmt.Errorf("core: notification %q already appended", notification.ID)
	}
	s.entries[notification.ID] = &memoryOutboxEntry{notification: notification}
	s.order = append(s.order, notification.ID)
	return nil
}

func (s *MemoryNotificationStore) ClaimBatch(_ context.Context, limit int) ([]Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("core: notification store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0, limit)
	for _, id := range s.order {
		if len(out) >= limit {
			break
		}
		entry, ok := s.entries[id]
		if !ok || entry.claimed {
			continue
		}
		if !entry.nextAttemptAt.IsZero() && now.Before(entry.nextAttemptAt) {
			continue
		}
		entry.claimed = true
		notification := entry.notification
		notification.Metadata = cloneFields(notification.Metadata)
		notification.Metadata[MetadataKeyOutboxAttempts] = entry.attempts
		out = append(out, notification)
	}
	return out, nil
}

func (s *MemoryNotificationStore) Ack(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("core: notification store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("core: notification %q not found", id)
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryNotificationStore) Retry(_ context.Context, id string, nextAttemptAt time.Time, attempts int, reason string) error {
	if s == nil {
		return fmt.Errorf("core: notification store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("core: notification %q not found", id)
	}
	// a zero next-attempt time dead-letters the entry: it stays for
	// inspection but is never claimed again
	entry.claimed = nextAttemptAt.IsZero()
	entry.attempts = attempts
	entry.nextAttemptAt = nextAttemptAt
	entry.lastError = strings.TrimSpace(reason)
	return nil
}

// Pending reports every un-acked notification in append order. Test helper and
// embedder inspection surface, not part of the NotificationStore contract.
func (s *MemoryNotificationStore) Pending() []Notification {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, 0, len(s.entries))
	for _, id := range s.order {
		if entry, ok := s.entries[id]; ok {
			out = append(out, entry.notification)
		}
	}
	return out
}

func (s *MemoryNotificationStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	_ OrderStore        = (*MemoryOrderStore)(nil)
	_ NotificationStore = (*MemoryNotificationStore)(nil)
)

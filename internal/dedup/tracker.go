package dedup

import (
	"context"
	"sync"
)

// Tracker records message identifiers that have already been replied to.
// Implementations must be safe for concurrent use: the messaging platform
// delivers webhooks at-least-once and may call the endpoint in parallel.
type Tracker interface {
	// AlreadyProcessed checks if we've seen this message id.
	AlreadyProcessed(ctx context.Context, messageID string) (bool, error)
	// MarkProcessed records a message id, returning false if it was
	// already present.
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
}

const defaultCapacity = 1000

// MemoryTracker is a bounded, volatile Tracker. It keeps the most recent
// ids in insertion order and evicts the oldest entry once the capacity is
// reached, so duplicate suppression is best-effort over a sliding window
// rather than a durability guarantee.
type MemoryTracker struct {
	mu       sync.Mutex
	capacity int
	ring     []string
	next     int
	size     int
	seen     map[string]struct{}
}

// NewMemoryTracker creates a MemoryTracker holding up to capacity ids.
func NewMemoryTracker(capacity int) *MemoryTracker {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryTracker{
		capacity: capacity,
		ring:     make([]string, capacity),
		seen:     make(map[string]struct{}, capacity),
	}
}

// AlreadyProcessed reports whether messageID is still inside the window.
func (t *MemoryTracker) AlreadyProcessed(_ context.Context, messageID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[messageID]
	return ok, nil
}

// MarkProcessed inserts messageID, evicting the oldest entry when full.
func (t *MemoryTracker) MarkProcessed(_ context.Context, messageID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[messageID]; ok {
		return false, nil
	}
	if t.size == t.capacity {
		delete(t.seen, t.ring[t.next])
		t.size--
	}
	t.ring[t.next] = messageID
	t.next = (t.next + 1) % t.capacity
	t.size++
	t.seen[messageID] = struct{}{}
	return true, nil
}

// Len returns the number of ids currently tracked.
func (t *MemoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

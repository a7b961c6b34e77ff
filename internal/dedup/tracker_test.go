package dedup

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryTrackerMarkAndCheck(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker(10)

	processed, err := tracker.AlreadyProcessed(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Error("expected fresh id to be unprocessed")
	}

	inserted, err := tracker.MarkProcessed(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected first mark to insert")
	}

	processed, _ = tracker.AlreadyProcessed(ctx, "wamid.1")
	if !processed {
		t.Error("expected marked id to be reported as processed")
	}

	inserted, _ = tracker.MarkProcessed(ctx, "wamid.1")
	if inserted {
		t.Error("expected second mark to report already present")
	}
}

func TestMemoryTrackerFIFOEviction(t *testing.T) {
	ctx := context.Background()
	const capacity = 5
	tracker := NewMemoryTracker(capacity)

	for i := 0; i < capacity+1; i++ {
		if _, err := tracker.MarkProcessed(ctx, fmt.Sprintf("wamid.%d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// The earliest id must have been evicted, everything newer retained.
	if processed, _ := tracker.AlreadyProcessed(ctx, "wamid.0"); processed {
		t.Error("expected oldest id to be evicted after capacity overflow")
	}
	for i := 1; i <= capacity; i++ {
		id := fmt.Sprintf("wamid.%d", i)
		if processed, _ := tracker.AlreadyProcessed(ctx, id); !processed {
			t.Errorf("expected %s to still be tracked", id)
		}
	}
	if tracker.Len() != capacity {
		t.Errorf("expected size %d, got %d", capacity, tracker.Len())
	}
}

func TestMemoryTrackerEvictionReusesSlots(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker(3)

	for i := 0; i < 9; i++ {
		tracker.MarkProcessed(ctx, fmt.Sprintf("wamid.%d", i))
	}

	if tracker.Len() != 3 {
		t.Fatalf("expected size to stay at capacity, got %d", tracker.Len())
	}
	for i := 6; i < 9; i++ {
		if processed, _ := tracker.AlreadyProcessed(ctx, fmt.Sprintf("wamid.%d", i)); !processed {
			t.Errorf("expected wamid.%d in window", i)
		}
	}
}

func TestMemoryTrackerConcurrentMarks(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertions := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := tracker.MarkProcessed(ctx, "wamid.same")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if inserted {
				mu.Lock()
				insertions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if insertions != 1 {
		t.Errorf("expected exactly one goroutine to insert, got %d", insertions)
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string]()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	store.Put(ctx, "s1", "first")
	store.Put(ctx, "s2", "second")
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	v, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "first" {
		t.Errorf("expected first, got %s", v)
	}

	store.Put(ctx, "s1", "replaced")
	if v, _ := store.Get(ctx, "s1"); v != "replaced" {
		t.Errorf("expected replaced, got %s", v)
	}

	removed, err := store.Delete(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != "replaced" {
		t.Errorf("expected replaced, got %s", removed)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Delete(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_Expire(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore[string](WithClock(clock.Now))

	store.Put(ctx, "old", "old")
	clock.Advance(time.Minute)
	store.Put(ctx, "mid", "mid")
	clock.Advance(time.Minute)
	store.Put(ctx, "new", "new")

	// Reading refreshes the idle timer.
	clock.Advance(time.Minute)
	if _, err := store.Get(ctx, "old"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expired := store.Expire(ctx, clock.Now(), time.Minute)
	if len(expired) != 2 || expired[0] != "mid" || expired[1] != "new" {
		t.Errorf("expected [mid new], got %v", expired)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	if got := store.Expire(ctx, clock.Now(), 0); got != nil {
		t.Errorf("expected no expiry with zero ttl, got %v", got)
	}

	if got := store.Clear(ctx); len(got) != 1 || got[0] != "old" {
		t.Errorf("expected [old] cleared, got %v", got)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected empty store after clear, got %d", count)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("s-%d-%d", g, i)
				store.Put(ctx, id, i)
				if _, err := store.Get(ctx, id); err != nil {
					t.Errorf("get %s: %v", id, err)
				}
				if i%2 == 0 {
					_, _ = store.Delete(ctx, id)
				}
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 400 {
		t.Errorf("expected count 400, got %d", count)
	}
}

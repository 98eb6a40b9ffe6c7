package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memoryStore mirrors the database counter semantics: fresh window on
// first use or expiry, saturating increment at limit+1.
type memoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      time.Time
}

type memoryCounter struct {
	count   int
	resetAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		counters: make(map[string]*memoryCounter),
		now:      time.Now(),
	}
}

func (s *memoryStore) Increment(_ context.Context, key string, limit int, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !s.now.Before(c.resetAt) {
		c = &memoryCounter{count: 1, resetAt: s.now.Add(window)}
		s.counters[key] = c
		return c.count, c.resetAt, nil
	}

	if c.count <= limit {
		c.count++
	}
	return c.count, c.resetAt, nil
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, int, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("connection refused")
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	store := newMemoryStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	key := Key("/api/tripay/callback", "103.117.57.10")

	const limit = 10
	for i := 1; i <= limit; i++ {
		res, err := limiter.CheckAndIncrement(ctx, key, limit, time.Minute)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d within limit was blocked", i)
		}
		if want := limit - i; res.Remaining != want {
			t.Errorf("request %d: Remaining = %d, want %d", i, res.Remaining, want)
		}
	}

	res, err := limiter.CheckAndIncrement(ctx, key, limit, time.Minute)
	if err != nil {
		t.Fatalf("request %d: %v", limit+1, err)
	}
	if res.Allowed {
		t.Error("request past the limit must be blocked")
	}
	if res.Remaining != 0 {
		t.Errorf("blocked request: Remaining = %d, want 0", res.Remaining)
	}
}

func TestLimiterCounterSaturates(t *testing.T) {
	store := newMemoryStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	key := Key("/api/tripay/callback", "103.117.57.10")

	const limit = 3
	for i := 0; i < limit+50; i++ {
		if _, err := limiter.CheckAndIncrement(ctx, key, limit, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if got := store.counters[key].count; got != limit+1 {
		t.Errorf("counter = %d, want saturation at %d", got, limit+1)
	}
}

func TestLimiterWindowReset(t *testing.T) {
	store := newMemoryStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	key := Key("/api/tripay/callback", "103.117.57.10")

	const limit = 2
	for i := 0; i < limit+1; i++ {
		limiter.CheckAndIncrement(ctx, key, limit, time.Minute)
	}
	res, _ := limiter.CheckAndIncrement(ctx, key, limit, time.Minute)
	if res.Allowed {
		t.Fatal("expected exhausted window")
	}

	store.now = store.now.Add(time.Minute + time.Second)

	res, err := limiter.CheckAndIncrement(ctx, key, limit, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Error("expired window must reset the counter")
	}
	if res.Total != 1 {
		t.Errorf("Total after reset = %d, want 1", res.Total)
	}
}

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(failingStore{})

	res, err := limiter.CheckAndIncrement(context.Background(), Key("ep", "ip"), 5, time.Minute)
	if err == nil {
		t.Fatal("expected the store error to be surfaced")
	}
	if !res.Allowed {
		t.Error("storage failure must not block callbacks")
	}
	if res.Remaining != 5 {
		t.Errorf("Remaining on fail-open = %d, want full limit", res.Remaining)
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	store := newMemoryStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	const limit = 1
	limiter.CheckAndIncrement(ctx, Key("cb", "1.1.1.1"), limit, time.Minute)
	res, _ := limiter.CheckAndIncrement(ctx, Key("cb", "1.1.1.1"), limit, time.Minute)
	if res.Allowed {
		t.Fatal("second request from the same sender must be blocked")
	}

	res, _ = limiter.CheckAndIncrement(ctx, Key("cb", "2.2.2.2"), limit, time.Minute)
	if !res.Allowed {
		t.Error("a different sender must have its own window")
	}
}

func TestKey(t *testing.T) {
	if got := Key("/api/tripay/callback", "103.117.57.10"); got != "/api/tripay/callback:103.117.57.10" {
		t.Errorf("Key() = %q", got)
	}
}

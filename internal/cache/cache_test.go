package cache_test

import (
	"errors"
	"testing"
	"time"

	"user-analytics-service/internal/cache"
)

type snapshot struct {
	Total int
}

func clockAt(t *time.Time) cache.Clock {
	return func() time.Time { return *t }
}

// ------------------------------------------------------------
// Hit, miss and expiry against an injected clock
// ------------------------------------------------------------

func TestGetOrCompute_HitWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(clockAt(&now))

	calls := 0
	compute := func() (snapshot, error) {
		calls++
		return snapshot{Total: calls}, nil
	}

	first, res, err := cache.GetOrCompute(c, "dashboard", 5*time.Minute, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cached {
		t.Error("first call reported as cached")
	}
	if !res.ComputedAt.Equal(now) {
		t.Errorf("ComputedAt = %v, want %v", res.ComputedAt, now)
	}

	now = now.Add(4 * time.Minute)

	second, res, err := cache.GetOrCompute(c, "dashboard", 5*time.Minute, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Cached {
		t.Error("second call within TTL not served from cache")
	}
	if second != first {
		t.Errorf("cached payload %+v differs from original %+v", second, first)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrCompute_RecomputesAfterTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(clockAt(&now))

	calls := 0
	compute := func() (snapshot, error) {
		calls++
		return snapshot{Total: calls}, nil
	}

	if _, _, err := cache.GetOrCompute(c, "dashboard", 5*time.Minute, compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(5 * time.Minute) // exactly at TTL: stale

	got, res, err := cache.GetOrCompute(c, "dashboard", 5*time.Minute, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cached {
		t.Error("expired entry served from cache")
	}
	if got.Total != 2 || calls != 2 {
		t.Errorf("recompute not triggered: payload %+v, calls %d", got, calls)
	}
	if !res.ComputedAt.Equal(now) {
		t.Errorf("ComputedAt = %v, want refresh time %v", res.ComputedAt, now)
	}
}

func TestGetOrCompute_ErrorNotStored(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(clockAt(&now))

	boom := errors.New("store unavailable")
	_, _, err := cache.GetOrCompute(c, "alerts", time.Minute, func() (snapshot, error) {
		return snapshot{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Errorf("failed computation left %d entries in cache", c.Len())
	}

	got, res, err := cache.GetOrCompute(c, "alerts", time.Minute, func() (snapshot, error) {
		return snapshot{Total: 9}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cached || got.Total != 9 {
		t.Errorf("retry after error: cached=%v payload=%+v", res.Cached, got)
	}
}

func TestGetOrCompute_KeysAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(clockAt(&now))

	mk := func(v int) func() (snapshot, error) {
		return func() (snapshot, error) { return snapshot{Total: v}, nil }
	}

	a, _, _ := cache.GetOrCompute(c, "funnel", time.Minute, mk(1))
	b, _, _ := cache.GetOrCompute(c, "retention", time.Minute, mk(2))

	if a.Total != 1 || b.Total != 2 {
		t.Errorf("payloads crossed keys: %+v, %+v", a, b)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

// ------------------------------------------------------------
// Key construction
// ------------------------------------------------------------

func TestKey_OrderIndependent(t *testing.T) {
	a := cache.Key("users", map[string]string{"page": "1", "segment": "power", "sort": "messages"})
	b := cache.Key("users", map[string]string{"sort": "messages", "page": "1", "segment": "power"})
	if a != b {
		t.Errorf("keys differ for same params: %q vs %q", a, b)
	}
}

func TestKey_DistinguishesParams(t *testing.T) {
	a := cache.Key("users", map[string]string{"page": "1"})
	b := cache.Key("users", map[string]string{"page": "2"})
	if a == b {
		t.Error("different params produced identical keys")
	}
	if cache.Key("users", nil) != "users" {
		t.Errorf("bare kind key = %q, want %q", cache.Key("users", nil), "users")
	}
}

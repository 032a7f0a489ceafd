package admission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"saharasprout/aigate/pkg/policy"
	"saharasprout/aigate/pkg/store"
)

func testPolicies(t *testing.T) *policy.Table {
	t.Helper()

	table, err := policy.NewTable(
		[]policy.CapabilityPolicy{
			{ID: "image_generation", Window: time.Hour, MaxRequests: 10, CostPerRequest: 0.50},
			{ID: "translation", Window: 50 * time.Millisecond, MaxRequests: 2, CostPerRequest: 0.01},
		},
		policy.DefaultTiers(),
	)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func newController(t *testing.T, s store.Store, mode store.FailMode) *Controller {
	t.Helper()

	c, err := New(Config{
		Policies: testPolicies(t),
		Store:    s,
		FailMode: mode,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestCheckAndConsume_CeilingEnforced(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	c := newController(t, s, store.FailClosed)
	ctx := context.Background()

	// Exactly 10 calls succeed for tier free (multiplier 1.0).
	for i := 1; i <= 10; i++ {
		res, err := c.CheckAndConsume(ctx, "image_generation", "user-1", policy.TierFree)
		if err != nil {
			t.Fatalf("Call %d failed: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("Call %d rejected, want allowed", i)
		}
		if res.Remaining != 10-i {
			t.Errorf("Call %d: remaining = %d, want %d", i, res.Remaining, 10-i)
		}
	}

	// The 11th call within the window is rejected.
	res, err := c.CheckAndConsume(ctx, "image_generation", "user-1", policy.TierFree)
	if err != nil {
		t.Fatalf("11th call failed: %v", err)
	}
	if res.Allowed {
		t.Fatal("11th call allowed, want rejected")
	}
	if res.Reason != ReasonQuotaExceeded {
		t.Errorf("Reason = %q, want %q", res.Reason, ReasonQuotaExceeded)
	}
	if res.Ceiling != 10 {
		t.Errorf("Ceiling = %d, want 10", res.Ceiling)
	}
	if res.Capability != "image_generation" {
		t.Errorf("Capability = %q", res.Capability)
	}
	if res.Tier != policy.TierFree {
		t.Errorf("Tier = %q", res.Tier)
	}
	if res.RetryAfter != time.Hour {
		t.Errorf("RetryAfter = %v, want 1h", res.RetryAfter)
	}
}

func TestCheckAndConsume_TierMultiplier(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	c := newController(t, s, store.FailClosed)
	ctx := context.Background()

	// Basic tier doubles the ceiling: 20 calls succeed, the 21st fails.
	for i := 1; i <= 20; i++ {
		res, err := c.CheckAndConsume(ctx, "image_generation", "user-2", policy.TierBasic)
		if err != nil {
			t.Fatalf("Call %d failed: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("Call %d rejected under basic tier", i)
		}
	}

	res, _ := c.CheckAndConsume(ctx, "image_generation", "user-2", policy.TierBasic)
	if res.Allowed {
		t.Error("21st call allowed under basic tier, want rejected")
	}
	if res.Ceiling != 20 {
		t.Errorf("Ceiling = %d, want 20", res.Ceiling)
	}
}

func TestCheckAndConsume_UsersIndependent(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	c := newController(t, s, store.FailClosed)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := c.CheckAndConsume(ctx, "image_generation", "heavy", policy.TierFree); err != nil {
			t.Fatalf("CheckAndConsume failed: %v", err)
		}
	}

	res, err := c.CheckAndConsume(ctx, "image_generation", "light", policy.TierFree)
	if err != nil {
		t.Fatalf("CheckAndConsume failed: %v", err)
	}
	if !res.Allowed {
		t.Error("Other user's quota exhaustion leaked across users")
	}
}

func TestCheckAndConsume_WindowExpires(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	c := newController(t, s, store.FailClosed)
	ctx := context.Background()

	// translation: ceiling 2, window 50ms.
	for i := 0; i < 2; i++ {
		if res, _ := c.CheckAndConsume(ctx, "translation", "user-3", policy.TierFree); !res.Allowed {
			t.Fatalf("Call %d rejected", i+1)
		}
	}
	if res, _ := c.CheckAndConsume(ctx, "translation", "user-3", policy.TierFree); res.Allowed {
		t.Fatal("3rd call in window allowed")
	}

	time.Sleep(80 * time.Millisecond)

	res, err := c.CheckAndConsume(ctx, "translation", "user-3", policy.TierFree)
	if err != nil {
		t.Fatalf("CheckAndConsume failed: %v", err)
	}
	if !res.Allowed {
		t.Error("Call after window expiry rejected, want allowed")
	}
}

// countingStore records store calls so tests can assert that
// configuration errors never reach the store.
type countingStore struct {
	store.Store
	calls int
}

func (c *countingStore) Incr(ctx context.Context, key string) (int64, error) {
	c.calls++
	return c.Store.Incr(ctx, key)
}

func TestCheckAndConsume_ConfigurationErrors(t *testing.T) {
	mem := store.NewMemoryStore()
	defer mem.Close()
	cs := &countingStore{Store: mem}
	c := newController(t, cs, store.FailClosed)
	ctx := context.Background()

	_, err := c.CheckAndConsume(ctx, "nonexistent", "user-4", policy.TierFree)
	if !errors.Is(err, policy.ErrUnknownCapability) {
		t.Errorf("Expected ErrUnknownCapability, got %v", err)
	}

	_, err = c.CheckAndConsume(ctx, "translation", "user-4", policy.Tier("platinum"))
	if !errors.Is(err, policy.ErrUnknownTier) {
		t.Errorf("Expected ErrUnknownTier, got %v", err)
	}

	if cs.calls != 0 {
		t.Errorf("Configuration errors reached the store: %d calls", cs.calls)
	}
}

// brokenStore fails every operation, simulating an unreachable store.
type brokenStore struct {
	store.Store
}

var errStoreDown = errors.New("store unreachable")

func (b *brokenStore) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errStoreDown
}

func TestCheckAndConsume_FailModes(t *testing.T) {
	mem := store.NewMemoryStore()
	defer mem.Close()
	broken := &brokenStore{Store: mem}
	ctx := context.Background()

	// FailClosed: store outage denies the call.
	closed := newController(t, broken, store.FailClosed)
	res, err := closed.CheckAndConsume(ctx, "image_generation", "user-5", policy.TierFree)
	if err != nil {
		t.Fatalf("CheckAndConsume failed: %v", err)
	}
	if res.Allowed {
		t.Error("FailClosed allowed a call during store outage")
	}
	if res.Reason != ReasonStoreUnavailable {
		t.Errorf("Reason = %q, want %q", res.Reason, ReasonStoreUnavailable)
	}

	// FailOpen: store outage allows the call.
	open := newController(t, broken, store.FailOpen)
	res, err = open.CheckAndConsume(ctx, "image_generation", "user-5", policy.TierFree)
	if err != nil {
		t.Fatalf("CheckAndConsume failed: %v", err)
	}
	if !res.Allowed {
		t.Error("FailOpen denied a call during store outage")
	}
}

func TestNew_Validation(t *testing.T) {
	mem := store.NewMemoryStore()
	defer mem.Close()

	if _, err := New(Config{Store: mem}); err == nil {
		t.Error("Expected error for nil policies")
	}
	if _, err := New(Config{Policies: testPolicies(t)}); err == nil {
		t.Error("Expected error for nil store")
	}
}

package cacheguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"saharasprout/aigate/pkg/store"
)

func newGuard(t *testing.T) (*Guard, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })

	g, err := New(Config{
		Store:  mem,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g, mem
}

func TestSetGet_RoundTrip(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	payload := map[string]any{"trends": "maize prices rising steadily"}
	if !g.Set(ctx, "market:kenya:maize", payload, time.Hour, ContentTypeMarketAnalysis) {
		t.Fatal("Set refused a valid payload")
	}

	got, ok := g.Get(ctx, "market:kenya:maize")
	if !ok {
		t.Fatal("Get missed a freshly written entry")
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("Get returned %T, want map", got)
	}
	if m["trends"] != "maize prices rising steadily" {
		t.Errorf("trends = %v", m["trends"])
	}
}

func TestSet_RefusesInvalid(t *testing.T) {
	g, mem := newGuard(t)
	ctx := context.Background()

	// All three meaningful-content fields empty.
	payload := map[string]any{"trends": "", "analysis": map[string]any{}, "insights": []any{}}
	if g.Set(ctx, "market:empty", payload, time.Hour, ContentTypeMarketAnalysis) {
		t.Error("Set accepted a semantically empty market payload")
	}

	// Nothing was written.
	if _, ok, _ := mem.Get(ctx, "market:empty"); ok {
		t.Error("Refused payload reached the store")
	}
	if _, ok := g.Get(ctx, "market:empty"); ok {
		t.Error("Get returned a refused payload")
	}
}

func TestGet_SelfHealing(t *testing.T) {
	g, mem := newGuard(t)
	ctx := context.Background()

	// Simulate an entry cached before a rule change: syntactically fine
	// JSON that fails current validation.
	if err := mem.Set(ctx, "market:stale", []byte(`{"trends":""}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := g.Get(ctx, "market:stale"); ok {
		t.Error("Get returned an invalid entry")
	}
	// The read deleted the poisoned entry.
	if _, ok, _ := mem.Get(ctx, "market:stale"); ok {
		t.Error("Invalid entry survived the read")
	}
}

func TestGet_UndecodableEntry(t *testing.T) {
	g, mem := newGuard(t)
	ctx := context.Background()

	if err := mem.Set(ctx, "ai:corrupt", []byte(`{not json`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := g.Get(ctx, "ai:corrupt"); ok {
		t.Error("Get returned an undecodable entry")
	}
	if _, ok, _ := mem.Get(ctx, "ai:corrupt"); ok {
		t.Error("Undecodable entry survived the read")
	}
}

func TestSetBatch(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	items := []Item{
		{Key: "market:a", Value: map[string]any{"trends": "prices up across the region"}},
		{Key: "market:b", Value: map[string]any{"trends": ""}},
		{Key: "market:c", Value: map[string]any{"insights": []any{"sell now"}}},
	}

	if n := g.SetBatch(ctx, items, time.Hour, ContentTypeMarketAnalysis); n != 2 {
		t.Errorf("SetBatch wrote %d, want 2", n)
	}

	if _, ok := g.Get(ctx, "market:a"); !ok {
		t.Error("Valid batch item missing")
	}
	if _, ok := g.Get(ctx, "market:b"); ok {
		t.Error("Invalid batch item was written")
	}
	if _, ok := g.Get(ctx, "market:c"); !ok {
		t.Error("Valid batch item missing")
	}
}

func TestSetBatch_AllInvalid(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	var items []Item
	for i := 0; i < 10; i++ {
		items = append(items, Item{
			Key:   fmt.Sprintf("market:empty-%d", i),
			Value: map[string]any{"trends": "", "analysis": map[string]any{}, "insights": []any{}},
		})
	}

	if n := g.SetBatch(ctx, items, time.Hour, ContentTypeMarketAnalysis); n != 0 {
		t.Errorf("SetBatch wrote %d, want 0", n)
	}
}

func TestInvalidatePattern(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	g.Set(ctx, "market:xyz", map[string]any{"trends": "stable prices this season"}, time.Hour, ContentTypeMarketAnalysis)
	g.Set(ctx, "market:abc", map[string]any{"trends": "stable prices this season"}, time.Hour, ContentTypeMarketAnalysis)
	g.Set(ctx, "ai:keep", map[string]any{"content": "generated description"}, time.Hour, ContentTypeAIContent)

	removed, err := g.InvalidatePattern(ctx, "market:*")
	if err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Removed %d, want 2", removed)
	}

	if _, ok := g.Get(ctx, "market:xyz"); ok {
		t.Error("Invalidated entry still readable")
	}
	if _, ok := g.Get(ctx, "ai:keep"); !ok {
		t.Error("Invalidation leaked outside its pattern")
	}
}

func TestTypedHelpers(t *testing.T) {
	g, mem := newGuard(t)
	ctx := context.Background()

	if !g.SetAIContent(ctx, "desc:prod-1", map[string]any{"description": "fresh organic tomatoes"}) {
		t.Fatal("SetAIContent refused a valid payload")
	}
	if _, ok := g.GetAIContent(ctx, "desc:prod-1"); !ok {
		t.Error("GetAIContent missed")
	}
	// The helper owns the key prefix.
	if _, ok, _ := mem.Get(ctx, "ai:desc:prod-1"); !ok {
		t.Error("Helper did not apply the ai: prefix")
	}

	if !g.SetMarketAnalysis(ctx, "kenya:beans", map[string]any{"insights": []any{"plant early"}}) {
		t.Fatal("SetMarketAnalysis refused a valid payload")
	}
	if !g.SetImageAnalysis(ctx, "field-7", map[string]any{"analysis": "healthy canopy, no visible stress"}) {
		t.Fatal("SetImageAnalysis refused a valid payload")
	}
	if _, ok := g.GetMarketAnalysis(ctx, "kenya:beans"); !ok {
		t.Error("GetMarketAnalysis missed")
	}
	if _, ok := g.GetImageAnalysis(ctx, "field-7"); !ok {
		t.Error("GetImageAnalysis missed")
	}
}

func TestSweep(t *testing.T) {
	g, mem := newGuard(t)
	ctx := context.Background()

	// Entries that pass current rules.
	g.Set(ctx, "market:good", map[string]any{"trends": "steady upward trend"}, 0, ContentTypeMarketAnalysis)
	g.Set(ctx, "ai:good", map[string]any{"content": "a generated paragraph"}, 0, ContentTypeAIContent)

	// Entries written before the rules tightened, plus one corrupt blob.
	mem.Set(ctx, "market:stale", []byte(`{"trends":""}`), 0)
	mem.Set(ctx, "image:stale", []byte(`{"results":[]}`), 0)
	mem.Set(ctx, "ai:corrupt", []byte(`!!`), 0)

	report, err := g.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if report.Scanned != 5 {
		t.Errorf("Scanned = %d, want 5", report.Scanned)
	}
	if report.Removed != 3 {
		t.Errorf("Removed = %d, want 3", report.Removed)
	}

	if _, ok := g.Get(ctx, "market:good"); !ok {
		t.Error("Sweep removed a valid entry")
	}
	if _, ok, _ := mem.Get(ctx, "market:stale"); ok {
		t.Error("Sweep kept an invalid entry")
	}
	if _, ok, _ := mem.Get(ctx, "ai:corrupt"); ok {
		t.Error("Sweep kept a corrupt entry")
	}
}

func TestStats(t *testing.T) {
	g, mem := newGuard(t)
	ctx := context.Background()

	g.Set(ctx, "market:good", map[string]any{"trends": "steady upward trend"}, 0, ContentTypeMarketAnalysis)
	mem.Set(ctx, "market:stale", []byte(`{"trends":""}`), 0)

	stats, err := g.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	ms := stats["market:"]
	if ms.Total != 2 || ms.Valid != 1 || ms.Invalid != 1 {
		t.Errorf("market stats = %+v, want total 2 valid 1 invalid 1", ms)
	}
	if ai := stats["ai:"]; ai.Total != 0 {
		t.Errorf("ai stats = %+v, want empty", ai)
	}

	// Stats is read-only.
	if _, ok, _ := mem.Get(ctx, "market:stale"); !ok {
		t.Error("Stats deleted an entry")
	}
}

// failingStore breaks reads and writes.
type failingStore struct {
	store.Store
}

var errStoreDown = errors.New("store unreachable")

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errStoreDown
}

func TestStoreOutage(t *testing.T) {
	mem := store.NewMemoryStore()
	defer mem.Close()

	g, err := New(Config{
		Store:  &failingStore{Store: mem},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	// Reads fail open: an outage is a miss, not an error.
	if _, ok := g.Get(ctx, "market:x"); ok {
		t.Error("Get returned a hit during store outage")
	}

	// Writes fail silent: dropped, reported as not written.
	if g.Set(ctx, "market:x", map[string]any{"trends": "steady upward trend"}, time.Hour, ContentTypeMarketAnalysis) {
		t.Error("Set reported success during store outage")
	}
}

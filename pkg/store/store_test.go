package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

// backends returns a constructor per Store implementation so the
// contract suite runs identically against each.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			s := NewMemoryStore()
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite": func(t *testing.T) Store {
			path := filepath.Join(t.TempDir(), "store.db")
			s, err := NewSQLiteStore(path)
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_Incr(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			for want := int64(1); want <= 5; want++ {
				got, err := s.Incr(ctx, "counter")
				if err != nil {
					t.Fatalf("Incr failed: %v", err)
				}
				if got != want {
					t.Errorf("Incr = %d, want %d", got, want)
				}
			}

			// Counter is readable as its decimal representation.
			val, ok, err := s.Get(ctx, "counter")
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if string(val) != "5" {
				t.Errorf("Get = %q, want \"5\"", val)
			}
		})
	}
}

func TestStore_IncrByFloat(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			got, err := s.IncrByFloat(ctx, "cost", 0.25)
			if err != nil {
				t.Fatalf("IncrByFloat failed: %v", err)
			}
			if got != 0.25 {
				t.Errorf("IncrByFloat = %f, want 0.25", got)
			}

			got, err = s.IncrByFloat(ctx, "cost", 0.50)
			if err != nil {
				t.Fatalf("IncrByFloat failed: %v", err)
			}
			if got != 0.75 {
				t.Errorf("IncrByFloat = %f, want 0.75", got)
			}
		})
	}
}

func TestStore_IncrConcurrent(t *testing.T) {
	const (
		goroutines = 10
		increments = 50
	)

	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < increments; j++ {
						if _, err := s.Incr(ctx, "hot"); err != nil {
							t.Errorf("Incr failed: %v", err)
							return
						}
						if _, err := s.IncrByFloat(ctx, "hot_cost", 0.01); err != nil {
							t.Errorf("IncrByFloat failed: %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()

			val, _, err := s.Get(ctx, "hot")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			count, _ := strconv.ParseInt(string(val), 10, 64)
			if count != goroutines*increments {
				t.Errorf("Lost updates: counter = %d, want %d", count, goroutines*increments)
			}

			val, _, err = s.Get(ctx, "hot_cost")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			total, _ := strconv.ParseFloat(string(val), 64)
			want := float64(goroutines*increments) * 0.01
			if total < want-0.001 || total > want+0.001 {
				t.Errorf("Lost updates: accumulator = %f, want %f", total, want)
			}
		})
	}
}

func TestStore_Expire(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			if _, err := s.Incr(ctx, "window"); err != nil {
				t.Fatalf("Incr failed: %v", err)
			}
			if err := s.Expire(ctx, "window", 50*time.Millisecond); err != nil {
				t.Fatalf("Expire failed: %v", err)
			}

			if _, ok, _ := s.Get(ctx, "window"); !ok {
				t.Fatal("Expected key to exist before expiry")
			}

			time.Sleep(80 * time.Millisecond)

			if _, ok, _ := s.Get(ctx, "window"); ok {
				t.Error("Expected key to be gone after expiry")
			}

			// Incrementing after expiry counts from zero again.
			count, err := s.Incr(ctx, "window")
			if err != nil {
				t.Fatalf("Incr failed: %v", err)
			}
			if count != 1 {
				t.Errorf("Incr after expiry = %d, want 1", count)
			}

			// Expire on a missing key is a no-op.
			if err := s.Expire(ctx, "missing", time.Minute); err != nil {
				t.Errorf("Expire on missing key failed: %v", err)
			}
		})
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, "absent"); ok || err != nil {
				t.Errorf("Get absent: ok=%v err=%v, want miss", ok, err)
			}

			if err := s.Set(ctx, "k", []byte(`{"a":1}`), 0); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			val, ok, err := s.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if string(val) != `{"a":1}` {
				t.Errorf("Get = %q", val)
			}

			if err := s.Delete(ctx, "k", "absent"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "k"); ok {
				t.Error("Expected key to be deleted")
			}
		})
	}
}

func TestStore_SetTTL(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			if err := s.Set(ctx, "short", []byte("v"), 50*time.Millisecond); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			time.Sleep(80 * time.Millisecond)
			if _, ok, _ := s.Get(ctx, "short"); ok {
				t.Error("Expected key to expire")
			}
		})
	}
}

func TestStore_SetBatch(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			entries := make([]Entry, 5)
			for i := range entries {
				entries[i] = Entry{
					Key:   fmt.Sprintf("batch:%d", i),
					Value: []byte(fmt.Sprintf("v%d", i)),
				}
			}

			if err := s.SetBatch(ctx, entries, time.Minute); err != nil {
				t.Fatalf("SetBatch failed: %v", err)
			}

			for _, e := range entries {
				val, ok, err := s.Get(ctx, e.Key)
				if err != nil || !ok {
					t.Fatalf("Get %q failed: ok=%v err=%v", e.Key, ok, err)
				}
				if string(val) != string(e.Value) {
					t.Errorf("Get %q = %q, want %q", e.Key, val, e.Value)
				}
			}

			// Empty batch is a no-op.
			if err := s.SetBatch(ctx, nil, time.Minute); err != nil {
				t.Errorf("Empty SetBatch failed: %v", err)
			}
		})
	}
}

func TestStore_Keys(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			// Keys routinely embed '/' and ':' inside the segment a '*'
			// must span, as Redis KEYS and SQLite GLOB allow.
			for _, k := range []string{"market:a", "market:b", "market:kenya/maize", "ai:x", "image:y"} {
				if err := s.Set(ctx, k, []byte("v"), 0); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
			}

			keys, err := s.Keys(ctx, "market:*")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 3 {
				t.Fatalf("Keys = %v, want 3 market keys", keys)
			}
			if keys[0] != "market:a" || keys[1] != "market:b" || keys[2] != "market:kenya/maize" {
				t.Errorf("Keys = %v, want [market:a market:b market:kenya/maize]", keys)
			}

			keys, err = s.Keys(ctx, "market:?")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 2 {
				t.Errorf("Keys = %v, want the single-character market keys", keys)
			}

			keys, err = s.Keys(ctx, "none:*")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 0 {
				t.Errorf("Keys = %v, want none", keys)
			}
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			if err := s.Ping(context.Background()); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}

func TestMemoryStore_JanitorPurges(t *testing.T) {
	s := NewMemoryStoreWithConfig(MemoryStoreConfig{JanitorInterval: 20 * time.Millisecond})
	defer s.Close()

	ctx := context.Background()
	if err := s.Set(ctx, "ephemeral", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if s.Size() != 0 {
		t.Errorf("Expected janitor to purge expired key, size = %d", s.Size())
	}
}

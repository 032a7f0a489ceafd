package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-process map.
//
// TTLs are enforced lazily on access and by a background janitor, so an
// expired key is never observable through the Store interface even if
// the janitor has not run yet. All data is lost when the process exits.
type MemoryStore struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex

	janitorInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

type memoryEntry struct {
	value []byte
	// expiresAt is zero for keys without expiry.
	expiresAt time.Time
}

// MemoryStoreConfig configures the memory backend.
type MemoryStoreConfig struct {
	// JanitorInterval is how often expired keys are purged.
	// Default: 1 minute
	JanitorInterval time.Duration
}

// NewMemoryStore creates an in-process store with default settings.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates an in-process store with custom configuration.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.JanitorInterval == 0 {
		cfg.JanitorInterval = time.Minute
	}

	s := &MemoryStore{
		entries:         make(map[string]memoryEntry),
		janitorInterval: cfg.JanitorInterval,
		done:            make(chan struct{}),
	}

	go s.janitorLoop()

	return s
}

// Incr atomically increments the integer counter at key.
func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(key)
	var current int64
	if ok {
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not an integer", key)
		}
		current = parsed
	}

	current++
	e.value = []byte(strconv.FormatInt(current, 10))
	s.entries[key] = e

	return current, nil
}

// IncrByFloat atomically adds delta to the float accumulator at key.
func (s *MemoryStore) IncrByFloat(ctx context.Context, key string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(key)
	var current float64
	if ok {
		parsed, err := strconv.ParseFloat(string(e.value), 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not a float", key)
		}
		current = parsed
	}

	current += delta
	e.value = []byte(strconv.FormatFloat(current, 'f', -1, 64))
	s.entries[key] = e

	return current, nil
}

// Expire sets the TTL for an existing key.
func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(key)
	if !ok {
		return nil
	}

	e.expiresAt = time.Now().Add(ttl)
	s.entries[key] = e
	return nil
}

// Get returns the value at key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(key)
	if !ok {
		return nil, false, nil
	}

	// Copy so callers cannot mutate stored data.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set writes value at key with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(key, value, ttl)
	return nil
}

// SetBatch writes all entries under one lock acquisition.
func (s *MemoryStore) SetBatch(ctx context.Context, entries []Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.setLocked(e.Key, e.Value, ttl)
	}
	return nil
}

// Delete removes the given keys.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Keys enumerates live keys matching a glob pattern.
func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	re, err := compileGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var keys []string
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			continue
		}
		if re.MatchString(k) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// compileGlob translates a Redis KEYS style glob into a regexp: '*'
// matches any sequence, '?' any single character, '[...]' a character
// set. No character is a separator; '*' crosses '/' and ':' alike, so
// the memory backend enumerates exactly what Redis KEYS and SQLite GLOB
// would.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated character set")
			}
			set := pattern[i+1 : i+1+end]
			b.WriteString("[")
			for j := 0; j < len(set); j++ {
				switch set[j] {
				case '\\', '^':
					b.WriteString(regexp.QuoteMeta(string(set[j])))
				default:
					b.WriteByte(set[j])
				}
			}
			b.WriteString("]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Ping always succeeds for the memory backend.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close stops the janitor. Close is idempotent.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Size returns the number of live keys. Useful for tests and stats.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, e := range s.entries {
		if e.expiresAt.IsZero() || e.expiresAt.After(now) {
			n++
		}
	}
	return n
}

// liveLocked returns the entry at key if it exists and is not expired,
// deleting it if expired. Caller must hold the write lock.
func (s *MemoryStore) liveLocked(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(time.Now()) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// setLocked stores a copy of value. Caller must hold the write lock.
func (s *MemoryStore) setLocked(key string, value []byte, ttl time.Duration) {
	v := make([]byte, len(value))
	copy(v, value)

	e := memoryEntry{value: v}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
}

// janitorLoop purges expired keys periodically.
func (s *MemoryStore) janitorLoop() {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeExpired()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			delete(s.entries, k)
		}
	}
}

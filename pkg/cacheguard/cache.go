package cacheguard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"saharasprout/aigate/pkg/store"
)

// Guard is the validity-checking cache front. Payloads are stored as
// JSON; keys carry the content type in their prefix.
type Guard struct {
	store   store.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Config configures the cache guard.
type Config struct {
	// Store is the shared counter store.
	Store store.Store

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional; nil disables metrics.
	Metrics *Metrics
}

// New creates a cache guard.
func New(cfg Config) (*Guard, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Guard{
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Get reads and re-validates a cache entry. An entry that fails
// validation under current rules is deleted and reported as a miss, so
// poisoned data is never returned. A store error is a miss.
func (g *Guard) Get(ctx context.Context, key string) (any, bool) {
	raw, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		g.heal(ctx, key)
		return nil, false
	}

	contentType := ContentTypeForKey(key)
	if !IsValid(payload, contentType) {
		g.metrics.observeValidation(contentType, false)
		g.logger.Info("dropping invalid cache entry",
			"key", key, "content_type", string(contentType))
		g.heal(ctx, key)
		return nil, false
	}

	g.metrics.observeValidation(contentType, true)
	return payload, true
}

// Set validates value and writes it with the given TTL. An invalid
// value is refused outright and false is returned; the cache is never
// left holding data that failed classification. A store error is
// logged and dropped.
func (g *Guard) Set(ctx context.Context, key string, value any, ttl time.Duration, contentType ContentType) bool {
	if !IsValid(value, contentType) {
		g.metrics.observeValidation(contentType, false)
		g.logger.Info("refusing to cache invalid payload",
			"key", key, "content_type", string(contentType))
		return false
	}
	g.metrics.observeValidation(contentType, true)

	raw, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn("failed to encode cache payload", "key", key, "error", err)
		return false
	}

	if err := g.store.Set(ctx, key, raw, ttl); err != nil {
		g.logger.Warn("cache write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Item is one key-value pair in a batched write.
type Item struct {
	Key   string
	Value any
}

// SetBatch validates every item independently and writes the valid
// subset in one batched operation. The returned count is how many items
// were written, so callers detect partial rejection without per-item
// error handling.
func (g *Guard) SetBatch(ctx context.Context, items []Item, ttl time.Duration, contentType ContentType) int {
	entries := make([]store.Entry, 0, len(items))
	for _, item := range items {
		if !IsValid(item.Value, contentType) {
			g.metrics.observeValidation(contentType, false)
			continue
		}
		g.metrics.observeValidation(contentType, true)

		raw, err := json.Marshal(item.Value)
		if err != nil {
			g.logger.Warn("failed to encode cache payload", "key", item.Key, "error", err)
			continue
		}
		entries = append(entries, store.Entry{Key: item.Key, Value: raw})
	}

	if len(entries) == 0 {
		return 0
	}

	if err := g.store.SetBatch(ctx, entries, ttl); err != nil {
		g.logger.Warn("batched cache write failed",
			"entries", len(entries), "error", err)
		return 0
	}
	return len(entries)
}

// Delete removes entries without validation.
func (g *Guard) Delete(ctx context.Context, keys ...string) error {
	return g.store.Delete(ctx, keys...)
}

// InvalidatePattern deletes every key matching a glob pattern, e.g.
// "market:*" after an upstream data refresh. The delete set is computed
// from one enumeration snapshot. Returns how many keys were removed.
func (g *Guard) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := g.store.Keys(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := g.store.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to invalidate %q: %w", pattern, err)
	}

	g.logger.Info("cache pattern invalidated", "pattern", pattern, "removed", len(keys))
	return len(keys), nil
}

// heal drops an entry that failed read-path validation.
func (g *Guard) heal(ctx context.Context, key string) {
	if err := g.store.Delete(ctx, key); err != nil {
		g.logger.Warn("failed to drop cache entry", "key", key, "error", err)
		return
	}
	g.metrics.observeSelfHeal()
}

// Typed helpers pairing each content type's key prefix with its default
// TTL. The key argument is the logical key without the prefix.

// SetMarketAnalysis caches a market analysis payload for one hour.
func (g *Guard) SetMarketAnalysis(ctx context.Context, key string, value any) bool {
	return g.Set(ctx, marketPrefix+key, value, MarketAnalysisTTL, ContentTypeMarketAnalysis)
}

// GetMarketAnalysis reads a market analysis payload.
func (g *Guard) GetMarketAnalysis(ctx context.Context, key string) (any, bool) {
	return g.Get(ctx, marketPrefix+key)
}

// SetAIContent caches a generated content payload for 24 hours.
func (g *Guard) SetAIContent(ctx context.Context, key string, value any) bool {
	return g.Set(ctx, aiPrefix+key, value, AIContentTTL, ContentTypeAIContent)
}

// GetAIContent reads a generated content payload.
func (g *Guard) GetAIContent(ctx context.Context, key string) (any, bool) {
	return g.Get(ctx, aiPrefix+key)
}

// SetImageAnalysis caches an image analysis payload for two hours.
func (g *Guard) SetImageAnalysis(ctx context.Context, key string, value any) bool {
	return g.Set(ctx, imagePrefix+key, value, ImageAnalysisTTL, ContentTypeImageAnalysis)
}

// GetImageAnalysis reads an image analysis payload.
func (g *Guard) GetImageAnalysis(ctx context.Context, key string) (any, bool) {
	return g.Get(ctx, imagePrefix+key)
}

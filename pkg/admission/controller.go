package admission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saharasprout/aigate/pkg/policy"
	"saharasprout/aigate/pkg/store"
)

// rateKeyFormat is ai_limit:<capability>:<user>. The layout matches what
// operators see in a live store, so keep it stable.
const rateKeyFormat = "ai_limit:%s:%s"

// Controller performs admission checks against the shared counter store.
//
// The check is check-and-consume: every call increments the window
// counter via the store's atomic increment, then compares the
// post-increment count to the effective ceiling. The controller never
// reads the counter first and writes it back; all coordination between
// concurrent callers is the store's atomic increment.
type Controller struct {
	policies *policy.Table
	store    store.Store
	failMode store.FailMode
	logger   *slog.Logger
}

// Config configures the admission controller.
type Config struct {
	// Policies is the immutable policy table.
	Policies *policy.Table

	// Store is the shared counter store.
	Store store.Store

	// FailMode controls behavior when the store is unreachable.
	// Default: FailClosed (deny) - quota is a hard safety property.
	FailMode store.FailMode

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates an admission controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Policies == nil {
		return nil, fmt.Errorf("policies cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.FailMode == "" {
		cfg.FailMode = store.FailClosed
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Controller{
		policies: cfg.Policies,
		store:    cfg.Store,
		failMode: cfg.FailMode,
		logger:   cfg.Logger,
	}, nil
}

// CheckAndConsume checks whether userID may invoke capabilityID under
// tier, consuming one unit of window quota in the process.
//
// An unknown capability or tier is a configuration error, returned
// before any store access: the caller gets policy.ErrUnknownCapability or
// policy.ErrUnknownTier, never a quota rejection.
//
// A rejected call is terminal for this attempt. The returned Result
// carries the effective ceiling and remaining window duration so the
// rejection is self-explanatory.
func (c *Controller) CheckAndConsume(ctx context.Context, capabilityID, userID string, tier policy.Tier) (*Result, error) {
	capPolicy, ok := c.policies.Capability(capabilityID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", policy.ErrUnknownCapability, capabilityID)
	}

	ceiling, ok := c.policies.EffectiveCeiling(capabilityID, tier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", policy.ErrUnknownTier, tier)
	}

	key := fmt.Sprintf(rateKeyFormat, capabilityID, userID)

	count, err := c.store.Incr(ctx, key)
	if err != nil {
		c.logger.Warn("admission store unavailable",
			"capability", capabilityID,
			"user", userID,
			"fail_mode", string(c.failMode),
			"error", err)
		return c.storeFailureResult(capPolicy, tier, ceiling), nil
	}

	// First call in a window starts the window's clock.
	if count == 1 {
		if err := c.store.Expire(ctx, key, capPolicy.Window); err != nil {
			c.logger.Error("failed to set window expiry",
				"capability", capabilityID,
				"user", userID,
				"error", err)
		}
	}

	// WindowEnds is an upper bound: the window began at the first call,
	// which is at most one window ago.
	windowEnds := time.Now().Add(capPolicy.Window)

	if count > int64(ceiling) {
		c.logger.Info("quota exceeded",
			"capability", capabilityID,
			"user", userID,
			"tier", string(tier),
			"ceiling", ceiling,
			"count", count)

		return &Result{
			Allowed:        false,
			Capability:     capabilityID,
			Tier:           tier,
			Ceiling:        ceiling,
			Remaining:      0,
			WindowEnds:     windowEnds,
			RetryAfter:     capPolicy.Window,
			Reason:         ReasonQuotaExceeded,
			CostPerRequest: capPolicy.CostPerRequest,
		}, nil
	}

	return &Result{
		Allowed:        true,
		Capability:     capabilityID,
		Tier:           tier,
		Ceiling:        ceiling,
		Remaining:      ceiling - int(count),
		WindowEnds:     windowEnds,
		CostPerRequest: capPolicy.CostPerRequest,
	}, nil
}

// storeFailureResult builds the decision for an unreachable store
// according to the configured fail mode.
func (c *Controller) storeFailureResult(capPolicy policy.CapabilityPolicy, tier policy.Tier, ceiling int) *Result {
	r := &Result{
		Capability:     capPolicy.ID,
		Tier:           tier,
		Ceiling:        ceiling,
		WindowEnds:     time.Now().Add(capPolicy.Window),
		CostPerRequest: capPolicy.CostPerRequest,
	}

	if c.failMode == store.FailOpen {
		r.Allowed = true
		r.Remaining = ceiling
		return r
	}

	r.Allowed = false
	r.RetryAfter = capPolicy.Window
	r.Reason = ReasonStoreUnavailable
	return r
}

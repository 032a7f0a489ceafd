package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"saharasprout/aigate/pkg/admission"
	"saharasprout/aigate/pkg/cacheguard"
	"saharasprout/aigate/pkg/ledger"
	"saharasprout/aigate/pkg/policy"
	"saharasprout/aigate/pkg/store"
)

// recordTimeout bounds one asynchronous usage recording.
const recordTimeout = 10 * time.Second

// Manager wires the admission controller, cost ledger and cache guard
// over one shared store and one policy table.
type Manager struct {
	policies  *policy.Table
	admission *admission.Controller
	ledger    *ledger.Ledger
	cache     *cacheguard.Guard
	logger    *slog.Logger
	metrics   *Metrics

	// wg tracks in-flight asynchronous recorders so Close can drain
	// them.
	wg sync.WaitGroup
}

// Config configures the manager.
type Config struct {
	// Policies is the immutable policy table.
	Policies *policy.Table

	// Store is the shared counter store.
	Store store.Store

	// AdmissionFailMode overrides the admission controller's fail mode
	// (default fail-closed).
	AdmissionFailMode store.FailMode

	// LedgerFailMode overrides the ledger's fail mode (default
	// fail-open).
	LedgerFailMode store.FailMode

	// CostThreshold and UsageThreshold override the warning thresholds.
	CostThreshold  float64
	UsageThreshold float64

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional; nil disables pipeline metrics.
	Metrics *Metrics

	// CacheMetrics is optional; nil disables cache guard metrics.
	CacheMetrics *cacheguard.Metrics
}

// New creates a manager and its three components.
func New(cfg Config) (*Manager, error) {
	if cfg.Policies == nil {
		return nil, fmt.Errorf("policies cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	admissionCtrl, err := admission.New(admission.Config{
		Policies: cfg.Policies,
		Store:    cfg.Store,
		FailMode: cfg.AdmissionFailMode,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admission controller: %w", err)
	}

	costLedger, err := ledger.New(ledger.Config{
		Policies:       cfg.Policies,
		Store:          cfg.Store,
		FailMode:       cfg.LedgerFailMode,
		CostThreshold:  cfg.CostThreshold,
		UsageThreshold: cfg.UsageThreshold,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cost ledger: %w", err)
	}

	cache, err := cacheguard.New(cacheguard.Config{
		Store:   cfg.Store,
		Logger:  cfg.Logger,
		Metrics: cfg.CacheMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache guard: %w", err)
	}

	return &Manager{
		policies:  cfg.Policies,
		admission: admissionCtrl,
		ledger:    costLedger,
		cache:     cache,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Authorize runs the synchronous pre-call pipeline: admission first,
// then budget. A quota rejection is returned without consulting the
// budget, so an over-quota call never shows up in budget reporting.
func (m *Manager) Authorize(ctx context.Context, userID, capabilityID string, tier policy.Tier) (*Decision, error) {
	start := time.Now()

	res, err := m.admission.CheckAndConsume(ctx, capabilityID, userID, tier)
	if err != nil {
		return nil, err
	}

	decision := &Decision{
		Allowed:        res.Allowed,
		Capability:     res.Capability,
		Tier:           res.Tier,
		Ceiling:        res.Ceiling,
		Remaining:      res.Remaining,
		WindowEnds:     res.WindowEnds,
		RetryAfter:     res.RetryAfter,
		Reason:         res.Reason,
		CostPerRequest: res.CostPerRequest,
	}

	if !res.Allowed {
		m.metrics.observeCheck(capabilityID, false, time.Since(start))
		m.metrics.observeRejection(capabilityID, res.Reason)
		return decision, nil
	}

	budget, err := m.ledger.CheckBudget(ctx, userID, tier)
	if err != nil {
		return nil, err
	}
	decision.Budget = budget

	if budget.Ceiling > 0 {
		m.metrics.observeBudgetUsage(string(tier), budget.Current/budget.Ceiling)
	}

	if !budget.WithinBudget {
		decision.Allowed = false
		decision.Reason = ledger.ReasonCostLimitExceeded
		m.metrics.observeCheck(capabilityID, false, time.Since(start))
		m.metrics.observeRejection(capabilityID, decision.Reason)

		m.logger.Info("daily cost limit exceeded",
			"user", userID,
			"capability", capabilityID,
			"tier", string(tier),
			"current", budget.Current,
			"ceiling", budget.Ceiling)
		return decision, nil
	}

	m.metrics.observeCheck(capabilityID, true, time.Since(start))
	return decision, nil
}

// RecordUsage charges the capability's static per-call cost and bumps
// its usage counter from a goroutine, so the caller's response is never
// delayed. An unknown capability is a configuration error, returned
// synchronously; recording failures are logged by the ledger, not
// escalated.
func (m *Manager) RecordUsage(userID, capabilityID string) error {
	capPolicy, ok := m.policies.Capability(capabilityID)
	if !ok {
		return fmt.Errorf("%w: %q", policy.ErrUnknownCapability, capabilityID)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		_ = m.ledger.Record(ctx, userID, capabilityID, capPolicy.CostPerRequest)
	}()

	return nil
}

// Warnings reports the user's proximity-to-limit warnings.
func (m *Manager) Warnings(ctx context.Context, userID string, tier policy.Tier) ([]ledger.Warning, error) {
	return m.ledger.Warnings(ctx, userID, tier)
}

// UsageStats reports today's spend and per-capability call counts.
func (m *Manager) UsageStats(ctx context.Context, userID string) (*ledger.UsageStats, error) {
	return m.ledger.UsageStats(ctx, userID)
}

// Cache exposes the cache guard for the caller's read and write paths.
func (m *Manager) Cache() *cacheguard.Guard {
	return m.cache
}

// Sweep runs one cache sweep pass.
func (m *Manager) Sweep(ctx context.Context) (*cacheguard.SweepReport, error) {
	return m.cache.Sweep(ctx)
}

// Close waits for in-flight usage recorders to drain. The store is
// owned by the caller and not closed here.
func (m *Manager) Close() error {
	m.wg.Wait()
	return nil
}

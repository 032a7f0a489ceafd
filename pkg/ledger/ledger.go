package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"saharasprout/aigate/pkg/policy"
	"saharasprout/aigate/pkg/store"
)

// Key layouts match the live store:
//
//	daily_ai_cost:<user>:<date>
//	daily_ai_usage:<user>:<date>:<capability>
const (
	costKeyFormat  = "daily_ai_cost:%s:%s"
	usageKeyFormat = "daily_ai_usage:%s:%s:%s"

	// dateLayout is the UTC calendar date embedded in daily keys.
	dateLayout = "2006-01-02"

	// dailyTTL is applied on the first write of a day's record. The
	// record outlives the day it describes by at most this long; the
	// day boundary itself comes from the date in the key.
	dailyTTL = 24 * time.Hour
)

// Ledger tracks per-user daily spend and usage in the shared store.
type Ledger struct {
	policies       *policy.Table
	store          store.Store
	failMode       store.FailMode
	costThreshold  float64
	usageThreshold float64
	logger         *slog.Logger

	// now is injectable for day-boundary tests.
	now func() time.Time
}

// Config configures the cost ledger.
type Config struct {
	// Policies is the immutable policy table.
	Policies *policy.Table

	// Store is the shared counter store.
	Store store.Store

	// FailMode controls the budget check when the store is unreachable.
	// Default: FailOpen (allow) - cost accounting is advisory.
	FailMode store.FailMode

	// CostThreshold is the warning threshold for daily spend as a
	// fraction of the ceiling. Default: 0.8
	CostThreshold float64

	// UsageThreshold is the warning threshold for per-capability usage
	// as a fraction of the effective ceiling. Default: 0.9
	UsageThreshold float64

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a cost ledger.
func New(cfg Config) (*Ledger, error) {
	if cfg.Policies == nil {
		return nil, fmt.Errorf("policies cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.FailMode == "" {
		cfg.FailMode = store.FailOpen
	}
	if cfg.CostThreshold == 0 {
		cfg.CostThreshold = DefaultCostThreshold
	}
	if cfg.UsageThreshold == 0 {
		cfg.UsageThreshold = DefaultUsageThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Ledger{
		policies:       cfg.Policies,
		store:          cfg.Store,
		failMode:       cfg.FailMode,
		costThreshold:  cfg.CostThreshold,
		usageThreshold: cfg.UsageThreshold,
		logger:         cfg.Logger,
		now:            time.Now,
	}, nil
}

// CheckBudget reports whether userID is under their tier's daily cost
// ceiling. This is a synchronous pre-call check.
//
// If the store is unreachable the check follows the configured fail
// mode; the default is fail-open, treating today's spend as zero, so a
// ledger outage cannot take every AI capability down with it.
func (l *Ledger) CheckBudget(ctx context.Context, userID string, tier policy.Tier) (*BudgetStatus, error) {
	tierPolicy, ok := l.policies.TierPolicy(tier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", policy.ErrUnknownTier, tier)
	}

	current, err := l.dailyCost(ctx, userID)
	if err != nil {
		l.logger.Warn("ledger store unavailable",
			"user", userID,
			"fail_mode", string(l.failMode),
			"error", err)

		if l.failMode == store.FailClosed {
			return &BudgetStatus{
				WithinBudget: false,
				Ceiling:      tierPolicy.DailyCostCeiling,
				Tier:         tier,
			}, nil
		}
		current = 0
	}

	status := &BudgetStatus{
		WithinBudget: current < tierPolicy.DailyCostCeiling,
		Current:      current,
		Ceiling:      tierPolicy.DailyCostCeiling,
		Tier:         tier,
	}
	if status.WithinBudget {
		status.Remaining = tierPolicy.DailyCostCeiling - current
	}
	return status, nil
}

// Record adds cost to today's cost accumulator and bumps today's usage
// counter for the capability, setting the 24-hour TTL only on the first
// write of the day.
//
// Record is meant to run after the business response has been produced;
// callers invoke it from a goroutine so it never delays the response.
// Failures are logged and returned, never escalated to the end user.
func (l *Ledger) Record(ctx context.Context, userID, capabilityID string, cost float64) error {
	today := l.today()
	eventID := uuid.NewString()

	costKey := fmt.Sprintf(costKeyFormat, userID, today)
	total, err := l.store.IncrByFloat(ctx, costKey, cost)
	if err != nil {
		l.logger.Error("failed to record cost",
			"event_id", eventID,
			"user", userID,
			"capability", capabilityID,
			"error", err)
		return fmt.Errorf("failed to record cost: %w", err)
	}
	// The accumulator equals this write's delta only on the first write
	// of the day; that write owns setting the TTL.
	if total == cost {
		if err := l.store.Expire(ctx, costKey, dailyTTL); err != nil {
			l.logger.Error("failed to set cost record expiry",
				"event_id", eventID, "user", userID, "error", err)
		}
	}

	usageKey := fmt.Sprintf(usageKeyFormat, userID, today, capabilityID)
	count, err := l.store.Incr(ctx, usageKey)
	if err != nil {
		l.logger.Error("failed to record usage",
			"event_id", eventID,
			"user", userID,
			"capability", capabilityID,
			"error", err)
		return fmt.Errorf("failed to record usage: %w", err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, usageKey, dailyTTL); err != nil {
			l.logger.Error("failed to set usage record expiry",
				"event_id", eventID, "user", userID, "error", err)
		}
	}

	l.logger.Info("ai usage recorded",
		"event_id", eventID,
		"user", userID,
		"capability", capabilityID,
		"cost", cost,
		"daily_total", total,
		"date", today)

	return nil
}

// Warnings recomputes the user's proximity to their limits and returns
// a warning per threshold crossed: one for daily cost at or above the
// cost threshold, and one per capability at or above the usage
// threshold of its effective ceiling.
//
// This is an on-demand report, not a push notification; callers poll it.
func (l *Ledger) Warnings(ctx context.Context, userID string, tier policy.Tier) ([]Warning, error) {
	tierPolicy, ok := l.policies.TierPolicy(tier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", policy.ErrUnknownTier, tier)
	}

	stats, err := l.UsageStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	var warnings []Warning

	costRatio := stats.DailyCost / tierPolicy.DailyCostCeiling
	if costRatio >= l.costThreshold {
		warnings = append(warnings, Warning{
			Type:    WarningCost,
			Message: fmt.Sprintf("You've used %.1f%% of your daily AI budget", costRatio*100),
			Current: stats.DailyCost,
			Limit:   tierPolicy.DailyCostCeiling,
			Ratio:   costRatio,
		})
	}

	for _, capabilityID := range l.policies.Capabilities() {
		usage := stats.UsageByCapability[capabilityID]
		if usage == 0 {
			continue
		}

		ceiling, ok := l.policies.EffectiveCeiling(capabilityID, tier)
		if !ok || ceiling == 0 {
			continue
		}

		ratio := float64(usage) / float64(ceiling)
		if ratio >= l.usageThreshold {
			warnings = append(warnings, Warning{
				Type:       WarningUsage,
				Capability: capabilityID,
				Message: fmt.Sprintf("You've used %d/%d %s requests today",
					usage, ceiling, strings.ReplaceAll(capabilityID, "_", " ")),
				Current: float64(usage),
				Limit:   float64(ceiling),
				Ratio:   ratio,
			})
		}
	}

	return warnings, nil
}

// UsageStats reports today's spend and per-capability call counts for a
// user. Capabilities without calls today appear with a zero count.
func (l *Ledger) UsageStats(ctx context.Context, userID string) (*UsageStats, error) {
	today := l.today()

	cost, err := l.dailyCost(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily cost: %w", err)
	}

	usage := make(map[string]int, len(l.policies.Capabilities()))
	for _, capabilityID := range l.policies.Capabilities() {
		key := fmt.Sprintf(usageKeyFormat, userID, today, capabilityID)
		val, ok, err := l.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read usage for %q: %w", capabilityID, err)
		}

		count := 0
		if ok {
			count, err = strconv.Atoi(string(val))
			if err != nil {
				return nil, fmt.Errorf("corrupt usage counter for %q: %w", capabilityID, err)
			}
		}
		usage[capabilityID] = count
	}

	return &UsageStats{
		Date:              today,
		DailyCost:         cost,
		UsageByCapability: usage,
	}, nil
}

// dailyCost reads today's cost accumulator, defaulting to zero when the
// record is absent.
func (l *Ledger) dailyCost(ctx context.Context, userID string) (float64, error) {
	key := fmt.Sprintf(costKeyFormat, userID, l.today())

	val, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	cost, err := strconv.ParseFloat(string(val), 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cost record: %w", err)
	}
	return cost, nil
}

// today returns the current UTC calendar date.
func (l *Ledger) today() string {
	return l.now().UTC().Format(dateLayout)
}

package policy

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Tier is a subscription level. Tiers multiply per-capability request
// ceilings and set the daily cost ceiling.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Tiers lists all known tiers in ascending order of entitlement.
var Tiers = []Tier{TierFree, TierBasic, TierPremium, TierEnterprise}

// CapabilityPolicy is the quota policy for one AI capability.
type CapabilityPolicy struct {
	// ID is the capability identifier (e.g. "image_generation").
	ID string

	// Window is the rolling quota window. The window starts on first
	// use and expires via store TTL; it is not calendar-aligned.
	Window time.Duration

	// MaxRequests is the base request ceiling per window, before the
	// tier multiplier is applied.
	MaxRequests int

	// CostPerRequest is the estimated cost in USD charged for every
	// call to this capability. Cost is a static estimate, not metered
	// from actual backend usage.
	CostPerRequest float64
}

// TierPolicy is the quota policy for one subscription tier.
type TierPolicy struct {
	// Tier is the tier identifier.
	Tier Tier

	// RequestMultiplier scales every capability's request ceiling.
	RequestMultiplier float64

	// DailyCostCeiling is the maximum estimated spend per user per
	// calendar day, in USD, across all capabilities.
	DailyCostCeiling float64
}

// Table holds the full policy configuration. A Table is immutable after
// construction: lookups return copies and there are no mutating methods.
type Table struct {
	capabilities map[string]CapabilityPolicy
	tiers        map[Tier]TierPolicy
}

// NewTable builds a policy table from capability and tier policies.
//
// Returns an error if a capability has a non-positive window, ceiling,
// or cost, or if any of the four known tiers is missing or has a
// non-positive multiplier or ceiling.
func NewTable(capabilities []CapabilityPolicy, tiers []TierPolicy) (*Table, error) {
	caps := make(map[string]CapabilityPolicy, len(capabilities))
	for _, c := range capabilities {
		if c.ID == "" {
			return nil, fmt.Errorf("capability with empty identifier")
		}
		if c.Window <= 0 {
			return nil, fmt.Errorf("capability %q: window must be positive, got %v", c.ID, c.Window)
		}
		if c.MaxRequests <= 0 {
			return nil, fmt.Errorf("capability %q: max requests must be positive, got %d", c.ID, c.MaxRequests)
		}
		if c.CostPerRequest < 0 {
			return nil, fmt.Errorf("capability %q: cost per request cannot be negative, got %f", c.ID, c.CostPerRequest)
		}
		if _, dup := caps[c.ID]; dup {
			return nil, fmt.Errorf("capability %q: duplicate entry", c.ID)
		}
		caps[c.ID] = c
	}

	ts := make(map[Tier]TierPolicy, len(tiers))
	for _, t := range tiers {
		if t.RequestMultiplier <= 0 {
			return nil, fmt.Errorf("tier %q: request multiplier must be positive, got %f", t.Tier, t.RequestMultiplier)
		}
		if t.DailyCostCeiling <= 0 {
			return nil, fmt.Errorf("tier %q: daily cost ceiling must be positive, got %f", t.Tier, t.DailyCostCeiling)
		}
		if _, dup := ts[t.Tier]; dup {
			return nil, fmt.Errorf("tier %q: duplicate entry", t.Tier)
		}
		ts[t.Tier] = t
	}

	for _, known := range Tiers {
		if _, ok := ts[known]; !ok {
			return nil, fmt.Errorf("tier %q: missing policy", known)
		}
	}

	// Entitlements must grow with the tier: a cheaper tier granting more
	// than a pricier one is a misconfiguration.
	for i := 1; i < len(Tiers); i++ {
		lower, higher := ts[Tiers[i-1]], ts[Tiers[i]]
		if higher.RequestMultiplier <= lower.RequestMultiplier {
			return nil, fmt.Errorf("tier %q: request multiplier %g must exceed tier %q's %g",
				higher.Tier, higher.RequestMultiplier, lower.Tier, lower.RequestMultiplier)
		}
		if higher.DailyCostCeiling <= lower.DailyCostCeiling {
			return nil, fmt.Errorf("tier %q: daily cost ceiling %g must exceed tier %q's %g",
				higher.Tier, higher.DailyCostCeiling, lower.Tier, lower.DailyCostCeiling)
		}
	}

	return &Table{capabilities: caps, tiers: ts}, nil
}

// Capability returns the policy for a capability identifier.
func (t *Table) Capability(id string) (CapabilityPolicy, bool) {
	c, ok := t.capabilities[id]
	return c, ok
}

// TierPolicy returns the policy for a tier.
func (t *Table) TierPolicy(tier Tier) (TierPolicy, bool) {
	p, ok := t.tiers[tier]
	return p, ok
}

// Capabilities returns all capability identifiers in sorted order.
func (t *Table) Capabilities() []string {
	ids := make([]string, 0, len(t.capabilities))
	for id := range t.capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EffectiveCeiling computes the request ceiling for a capability under a
// tier: floor(base ceiling x tier multiplier).
//
// Returns false if the capability or tier is unknown.
func (t *Table) EffectiveCeiling(capabilityID string, tier Tier) (int, bool) {
	c, ok := t.capabilities[capabilityID]
	if !ok {
		return 0, false
	}
	p, ok := t.tiers[tier]
	if !ok {
		return 0, false
	}
	return int(math.Floor(float64(c.MaxRequests) * p.RequestMultiplier)), true
}

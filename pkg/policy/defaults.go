package policy

import "time"

// DefaultCapabilities returns the built-in capability policies.
//
// Limits reflect the relative cost and complexity of each capability:
// text generation is cheap and permissive, image generation is expensive
// and tight, sensor analysis is high-frequency and near-free.
func DefaultCapabilities() []CapabilityPolicy {
	return []CapabilityPolicy{
		// Text generation
		{ID: "description_generation", Window: time.Hour, MaxRequests: 50, CostPerRequest: 0.01},
		{ID: "marketing_copy", Window: time.Hour, MaxRequests: 30, CostPerRequest: 0.02},

		// Image generation
		{ID: "image_generation", Window: time.Hour, MaxRequests: 10, CostPerRequest: 0.50},

		// Image analysis
		{ID: "crop_analysis", Window: time.Hour, MaxRequests: 25, CostPerRequest: 0.05},

		// Market analysis
		{ID: "market_analysis", Window: time.Hour, MaxRequests: 20, CostPerRequest: 0.03},

		// Irrigation
		{ID: "water_prediction", Window: time.Hour, MaxRequests: 30, CostPerRequest: 0.04},
		{ID: "irrigation_optimization", Window: time.Hour, MaxRequests: 25, CostPerRequest: 0.06},

		// Crop management
		{ID: "crop_recommendations", Window: time.Hour, MaxRequests: 40, CostPerRequest: 0.03},
		{ID: "pest_analysis", Window: time.Hour, MaxRequests: 20, CostPerRequest: 0.08},
		{ID: "harvest_optimization", Window: time.Hour, MaxRequests: 25, CostPerRequest: 0.05},
		{ID: "yield_prediction", Window: time.Hour, MaxRequests: 20, CostPerRequest: 0.10},

		// Weather
		{ID: "weather_analysis", Window: time.Hour, MaxRequests: 50, CostPerRequest: 0.02},
		{ID: "climate_analysis", Window: time.Hour, MaxRequests: 15, CostPerRequest: 0.12},
		{ID: "disaster_assessment", Window: time.Hour, MaxRequests: 10, CostPerRequest: 0.15},
		{ID: "stress_prediction", Window: time.Hour, MaxRequests: 30, CostPerRequest: 0.06},
		{ID: "seasonal_planning", Window: time.Hour, MaxRequests: 20, CostPerRequest: 0.08},

		// Farm management
		{ID: "financial_analysis", Window: time.Hour, MaxRequests: 25, CostPerRequest: 0.07},
		{ID: "zone_optimization", Window: time.Hour, MaxRequests: 20, CostPerRequest: 0.09},
		{ID: "supply_analysis", Window: time.Hour, MaxRequests: 30, CostPerRequest: 0.05},
		{ID: "benchmarking", Window: time.Hour, MaxRequests: 15, CostPerRequest: 0.08},
		{ID: "sustainability_analysis", Window: time.Hour, MaxRequests: 20, CostPerRequest: 0.07},

		// Language
		{ID: "translation", Window: time.Hour, MaxRequests: 100, CostPerRequest: 0.01},
		{ID: "localized_content", Window: time.Hour, MaxRequests: 50, CostPerRequest: 0.03},
		{ID: "voice_processing", Window: time.Hour, MaxRequests: 30, CostPerRequest: 0.05},
		{ID: "cultural_adaptation", Window: time.Hour, MaxRequests: 25, CostPerRequest: 0.04},

		// Sensor data processing
		{ID: "sensor_analysis", Window: time.Hour, MaxRequests: 200, CostPerRequest: 0.005},
		{ID: "batch_processing", Window: time.Hour, MaxRequests: 50, CostPerRequest: 0.02},
	}
}

// DefaultTiers returns the built-in tier policies.
func DefaultTiers() []TierPolicy {
	return []TierPolicy{
		{Tier: TierFree, RequestMultiplier: 1.0, DailyCostCeiling: 2.00},
		{Tier: TierBasic, RequestMultiplier: 2.0, DailyCostCeiling: 10.00},
		{Tier: TierPremium, RequestMultiplier: 5.0, DailyCostCeiling: 50.00},
		{Tier: TierEnterprise, RequestMultiplier: 10.0, DailyCostCeiling: 200.00},
	}
}

// DefaultTable builds a Table from the built-in policies.
func DefaultTable() *Table {
	table, err := NewTable(DefaultCapabilities(), DefaultTiers())
	if err != nil {
		// Built-in policies are validated by tests; this cannot fail.
		panic(err)
	}
	return table
}

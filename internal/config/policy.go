package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApproachPolicy defines how aggressively a budget approach trims
// discretionary spending.
type ApproachPolicy struct {
	TrimPct float64 `yaml:"trim_pct"`
}

// Policy holds the tunable analytical constants. Every threshold here is a
// default, not an invariant: deployments override them via POLICY_FILE.
type Policy struct {
	MinHistoryDays      int `yaml:"min_history_days"`
	MinTransactions     int `yaml:"min_transactions"`
	MinExpenses         int `yaml:"min_expenses"`
	HistoryWindowDays   int `yaml:"history_window_days"`
	ForecastHorizonDays int `yaml:"forecast_horizon_days"`

	SeverityHighZ   float64 `yaml:"severity_high_z"`
	SeverityMediumZ float64 `yaml:"severity_medium_z"`
	SeverityLowZ    float64 `yaml:"severity_low_z"`

	TrendSlopePct      float64 `yaml:"trend_slope_pct"`
	SharpTrendSlopePct float64 `yaml:"sharp_trend_slope_pct"`
	VariabilityLowCV   float64 `yaml:"variability_low_cv"`
	VariabilityHighCV  float64 `yaml:"variability_high_cv"`

	Approaches          map[string]ApproachPolicy `yaml:"approaches"`
	DefaultApproach     string                    `yaml:"default_approach"`
	EssentialCategories []string                  `yaml:"essential_categories"`

	GoalPossibleRatio  float64 `yaml:"goal_possible_ratio"`
	SavingsWindowMonth int     `yaml:"savings_window_months"`
}

// DefaultPolicy returns the built-in analytical constants.
func DefaultPolicy() *Policy {
	return &Policy{
		MinHistoryDays:      30,
		MinTransactions:     30,
		MinExpenses:         20,
		HistoryWindowDays:   365,
		ForecastHorizonDays: 30,
		SeverityHighZ:       3.0,
		SeverityMediumZ:     2.0,
		SeverityLowZ:        1.5,
		TrendSlopePct:       5.0,
		SharpTrendSlopePct:  15.0,
		VariabilityLowCV:    0.3,
		VariabilityHighCV:   0.7,
		Approaches: map[string]ApproachPolicy{
			"conservative": {TrimPct: 5},
			"moderate":     {TrimPct: 10},
			"aggressive":   {TrimPct: 20},
		},
		DefaultApproach: "moderate",
		EssentialCategories: []string{
			"housing", "rent", "mortgage", "utilities", "bills",
			"insurance", "healthcare", "groceries",
		},
		GoalPossibleRatio:  1.5,
		SavingsWindowMonth: 6,
	}
}

// LoadPolicy reads analytical constants from a YAML file, falling back to
// defaults for any field left unset. An empty path returns the defaults.
func LoadPolicy(path string) (*Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return policy, nil
}

// IsEssential reports whether a category is treated as essential spending.
func (p *Policy) IsEssential(category string) bool {
	for _, c := range p.EssentialCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Approach resolves a requested budget approach, falling back to the
// configured default when the name is unknown or empty.
func (p *Policy) Approach(name string) (string, ApproachPolicy) {
	if a, ok := p.Approaches[name]; ok {
		return name, a
	}
	return p.DefaultApproach, p.Approaches[p.DefaultApproach]
}

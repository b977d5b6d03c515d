package models

// Spending trends for a budget category.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

// Variability levels derived from the coefficient of variation.
const (
	VariabilityLow    = "low"
	VariabilityMedium = "medium"
	VariabilityHigh   = "high"
)

// Budget priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// CategoryRecommendation is the recommended budget for one category.
type CategoryRecommendation struct {
	Category          string  `json:"category"`
	RecommendedAmount float64 `json:"recommended_amount"`
	CurrentMonthlyAvg float64 `json:"current_monthly_avg"`
	Trend             string  `json:"trend"`
	Variability       string  `json:"variability"`
	Priority          string  `json:"priority"`
	Justification     string  `json:"justification"`
}

// BudgetRecommendation is the full output of the budget recommender.
// TotalRecommendedBudget always equals the sum of RecommendedAmount
// across Recommendations.
type BudgetRecommendation struct {
	TotalRecommendedBudget float64                  `json:"total_recommended_budget"`
	Approach               string                   `json:"approach"`
	Recommendations        []CategoryRecommendation `json:"recommendations"`
}

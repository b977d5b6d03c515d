package models

import "time"

// ContextUsed records which analytical artifacts contributed to a
// generated narrative.
type ContextUsed struct {
	SpendingForecast  bool `json:"spending_forecast"`
	AnomaliesDetected int  `json:"anomalies_detected"`
	BudgetsAnalyzed   bool `json:"budgets_analyzed"`
	GoalsAnalyzed     int  `json:"goals_analyzed"`
}

// InsightsBundle is the composed advisory result returned to clients.
type InsightsBundle struct {
	Insights    string      `json:"insights"`
	ContextUsed ContextUsed `json:"context_used"`
	ComputedAt  time.Time   `json:"computed_at"`
}

// InsightsContext carries whichever analytical artifacts were available for
// narrative synthesis. Any pointer may be nil: partial input is expected,
// not an error.
type InsightsContext struct {
	Summary   *FinancialSummary     `json:"summary,omitempty"`
	Forecast  *ForecastResult       `json:"forecast,omitempty"`
	Anomalies *AnomalyResult        `json:"anomalies,omitempty"`
	Budget    *BudgetRecommendation `json:"budget,omitempty"`
	Goals     *GoalsAnalysis        `json:"goals,omitempty"`
}

// Empty reports whether no analytical input is available at all.
func (ic *InsightsContext) Empty() bool {
	return ic.Summary == nil && ic.Forecast == nil && ic.Anomalies == nil &&
		ic.Budget == nil && ic.Goals == nil
}

// ComprehensiveInsights is the full per-user result set computed in one
// pass: the four analytical artifacts plus the synthesized bundle. It is
// computed atomically as a whole and cached as one unit.
type ComprehensiveInsights struct {
	Context InsightsContext `json:"context"`
	Bundle  InsightsBundle  `json:"bundle"`
}

// FinancialSummary holds 30-day aggregate figures used as narrative context.
type FinancialSummary struct {
	TotalIncome        float64            `json:"total_income"`
	TotalExpenses      float64            `json:"total_expenses"`
	NetBalance         float64            `json:"net_balance"`
	TransactionCount   int                `json:"transaction_count"`
	AvgDailySpending   float64            `json:"avg_daily_spending"`
	SpendingByCategory map[string]float64 `json:"spending_by_category"`
}

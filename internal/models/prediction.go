package models

// Goal achievement statuses.
const (
	StatusHighlyLikely = "highly_likely"
	StatusPossible     = "possible"
	StatusUnlikely     = "unlikely"
)

// Overall assessments across all goals.
const (
	AssessmentOnTrack  = "on_track"
	AssessmentAtRisk   = "at_risk"
	AssessmentOffTrack = "off_track"
)

// Prediction describes the estimated outcome for a single goal.
// MonthsRequired and EstimatedCompletionDate are nil when the goal is
// already met or no feasible contribution exists.
type Prediction struct {
	Status                    string   `json:"status"`
	AchievementProbability    float64  `json:"achievement_probability"`
	CurrentProgressPercentage float64  `json:"current_progress_percentage"`
	MonthsRequired            *float64 `json:"months_required"`
	EstimatedCompletionDate   *string  `json:"estimated_completion_date"` // Format: YYYY-MM-DD
	Recommendations           []string `json:"recommendations"`
}

// GoalPrediction pairs a goal snapshot with its prediction.
type GoalPrediction struct {
	GoalID        string     `json:"goal_id"`
	GoalName      string     `json:"goal_name"`
	CurrentAmount float64    `json:"current_amount"`
	TargetAmount  float64    `json:"target_amount"`
	Prediction    Prediction `json:"prediction"`
}

// GoalsAnalysis aggregates predictions across every active goal.
type GoalsAnalysis struct {
	TotalGoals             int              `json:"total_goals"`
	TotalMonthlyCommitment float64          `json:"total_monthly_commitment"`
	AvgMonthlySavings      float64          `json:"avg_monthly_savings"`
	OverallAssessment      string           `json:"overall_assessment"`
	Goals                  []GoalPrediction `json:"goals"`
}

// SavingsStats summarizes a user's monthly savings behaviour over the
// trailing analysis window.
type SavingsStats struct {
	AvgMonthlyIncome   float64 `json:"avg_monthly_income"`
	AvgMonthlyExpenses float64 `json:"avg_monthly_expenses"`
	AvgMonthlySavings  float64 `json:"avg_monthly_savings"`
	SavingsRatePct     float64 `json:"savings_rate_percentage"`
	MonthsAnalyzed     int     `json:"months_analyzed"`
}

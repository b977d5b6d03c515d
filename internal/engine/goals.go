package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/finsight/insights-service/internal/models"
)

const monthDays = 30.0

// affordabilityFactor is the slack allowed between an explicit contribution
// and the user's observed savings capacity before the contribution is
// treated as over-committed.
const affordabilityFactor = 1.2

// SavingsStats computes the user's average monthly net savings over the
// trailing analysis window. At least one month of history is required.
func (e *Engine) SavingsStats(ctx context.Context, userID string) (*models.SavingsStats, error) {
	filter := TransactionFilter{
		From: time.Now().UTC().AddDate(0, -e.policy.SavingsWindowMonth, 0),
	}
	txns, err := e.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if err := checkSufficiency(txns, e.policy.MinHistoryDays, 0, 0); err != nil {
		return nil, err
	}

	type monthAgg struct{ income, expenses float64 }
	byMonth := make(map[time.Time]*monthAgg)
	for _, t := range txns {
		d := t.Date.UTC()
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		agg := byMonth[month]
		if agg == nil {
			agg = &monthAgg{}
			byMonth[month] = agg
		}
		if t.IsIncome() {
			agg.income += t.Amount
		} else if t.IsExpense() {
			agg.expenses += t.Amount
		}
	}

	months := len(byMonth)
	var totalIncome, totalExpenses float64
	for _, agg := range byMonth {
		totalIncome += agg.income
		totalExpenses += agg.expenses
	}

	avgIncome := totalIncome / float64(months)
	avgExpenses := totalExpenses / float64(months)
	avgSavings := avgIncome - avgExpenses

	result := &models.SavingsStats{
		AvgMonthlyIncome:   round2(avgIncome),
		AvgMonthlyExpenses: round2(avgExpenses),
		AvgMonthlySavings:  round2(avgSavings),
		MonthsAnalyzed:     months,
	}
	if avgIncome > 0 {
		result.SavingsRatePct = round2(avgSavings / avgIncome * 100)
	}
	return result, nil
}

// PredictGoal estimates the probability and timeline of a single goal.
func (e *Engine) PredictGoal(ctx context.Context, userID, goalID string) (*models.GoalPrediction, error) {
	goal, err := e.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	savings, err := e.SavingsStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.predictGoal(*goal, savings)
}

// AnalyzeGoals predicts every active goal and aggregates an overall
// assessment.
func (e *Engine) AnalyzeGoals(ctx context.Context, userID string) (*models.GoalsAnalysis, error) {
	goals, err := e.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	if len(goals) == 0 {
		return &models.GoalsAnalysis{
			TotalGoals:        0,
			OverallAssessment: models.AssessmentOnTrack,
			Goals:             []models.GoalPrediction{},
		}, nil
	}

	savings, err := e.SavingsStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis := &models.GoalsAnalysis{
		TotalGoals:        len(goals),
		AvgMonthlySavings: savings.AvgMonthlySavings,
		Goals:             make([]models.GoalPrediction, 0, len(goals)),
	}

	anyUnlikely, allHighlyLikely := false, true
	var commitment float64
	for _, goal := range goals {
		prediction, err := e.predictGoal(goal, savings)
		if err != nil {
			return nil, err
		}
		analysis.Goals = append(analysis.Goals, *prediction)
		commitment += e.effectiveContribution(goal, savings)

		switch prediction.Prediction.Status {
		case models.StatusUnlikely:
			anyUnlikely = true
			allHighlyLikely = false
		case models.StatusPossible:
			allHighlyLikely = false
		}
	}
	analysis.TotalMonthlyCommitment = round2(commitment)

	switch {
	case anyUnlikely:
		analysis.OverallAssessment = models.AssessmentOffTrack
	case allHighlyLikely:
		analysis.OverallAssessment = models.AssessmentOnTrack
	default:
		analysis.OverallAssessment = models.AssessmentAtRisk
	}
	return analysis, nil
}

// effectiveContribution is the goal's explicit monthly contribution, or the
// user's observed average monthly savings when none is set.
func (e *Engine) effectiveContribution(goal models.Goal, savings *models.SavingsStats) float64 {
	if goal.MonthlyContribution > 0 {
		return goal.MonthlyContribution
	}
	if savings.AvgMonthlySavings > 0 {
		return savings.AvgMonthlySavings
	}
	return 0
}

func (e *Engine) predictGoal(goal models.Goal, savings *models.SavingsStats) (*models.GoalPrediction, error) {
	if goal.TargetAmount <= 0 || goal.CurrentAmount < 0 || goal.MonthlyContribution < 0 {
		return nil, fmt.Errorf("%w: goal %q has inconsistent amounts", ErrInvalidGoal, goal.Name)
	}

	result := &models.GoalPrediction{
		GoalID:        goal.ID,
		GoalName:      goal.Name,
		CurrentAmount: round2(goal.CurrentAmount),
		TargetAmount:  round2(goal.TargetAmount),
	}
	progress := math.Min(100, goal.CurrentAmount/goal.TargetAmount*100)
	result.Prediction.CurrentProgressPercentage = round2(progress)
	result.Prediction.Recommendations = []string{}

	remaining := goal.TargetAmount - goal.CurrentAmount
	if remaining <= 0 {
		result.Prediction.Status = models.StatusHighlyLikely
		result.Prediction.AchievementProbability = 100
		return result, nil
	}

	contribution := e.effectiveContribution(goal, savings)
	if contribution <= 0 {
		result.Prediction.Status = models.StatusUnlikely
		result.Prediction.AchievementProbability = 10
		result.Prediction.Recommendations = goalRecommendations(goal, savings, remaining, 0, 0)
		return result, nil
	}

	monthsRequired := remaining / contribution
	mr := round2(monthsRequired)
	result.Prediction.MonthsRequired = &mr

	completion := time.Now().UTC().AddDate(0, 0, int(monthsRequired*monthDays)).Format("2006-01-02")
	result.Prediction.EstimatedCompletionDate = &completion

	monthsAvailable := 0.0
	if goal.TargetDate != nil {
		monthsAvailable = time.Until(*goal.TargetDate).Hours() / 24 / monthDays
	}
	probability := e.achievementProbability(monthsRequired, monthsAvailable, goal.TargetDate != nil)
	// An explicit contribution beyond the user's observed savings capacity is
	// unlikely to be sustained, whatever the timeline says.
	if goal.MonthlyContribution > 0 && goal.MonthlyContribution > savings.AvgMonthlySavings*affordabilityFactor {
		probability = math.Min(probability, 60)
	}
	result.Prediction.AchievementProbability = round2(probability)

	switch {
	case probability >= 80:
		result.Prediction.Status = models.StatusHighlyLikely
	case probability >= 40:
		result.Prediction.Status = models.StatusPossible
	default:
		result.Prediction.Status = models.StatusUnlikely
	}

	if result.Prediction.Status != models.StatusHighlyLikely {
		result.Prediction.Recommendations = goalRecommendations(goal, savings, remaining, monthsRequired, monthsAvailable)
	}
	return result, nil
}

// achievementProbability maps required time against available time onto a
// probability. Within the available window the probability decays from 100
// toward 80; overshooting decays through the possible band down to the
// unlikely floor.
func (e *Engine) achievementProbability(monthsRequired, monthsAvailable float64, hasDeadline bool) float64 {
	if !hasDeadline {
		return 90
	}
	if monthsAvailable <= 0 {
		return 5
	}
	ratio := monthsRequired / monthsAvailable
	switch {
	case ratio <= 1:
		return 100 - 20*ratio
	case ratio <= e.policy.GoalPossibleRatio:
		return 80 - 80*(ratio-1)
	default:
		return math.Max(5, 40-10*(ratio-e.policy.GoalPossibleRatio))
	}
}

func goalRecommendations(goal models.Goal, savings *models.SavingsStats, remaining, monthsRequired, monthsAvailable float64) []string {
	var recs []string

	if monthsAvailable > 0 && monthsRequired > monthsAvailable {
		needed := remaining / monthsAvailable
		recs = append(recs, fmt.Sprintf(
			"To meet the target date, increase your monthly contribution to $%.2f", needed))
		extension := math.Ceil(monthsRequired - monthsAvailable)
		recs = append(recs, fmt.Sprintf(
			"Alternatively, extend the target date by %.0f months", extension))
	}
	if goal.MonthlyContribution <= 0 && savings.AvgMonthlySavings <= 0 {
		recs = append(recs,
			"No contribution rate could be derived; set a monthly contribution for this goal")
	}
	if goal.MonthlyContribution > 0 && goal.MonthlyContribution > savings.AvgMonthlySavings*affordabilityFactor {
		recs = append(recs,
			"Your monthly contribution exceeds your observed savings capacity; make sure it doesn't crowd out essential expenses")
	}
	if savings.AvgMonthlySavings > goal.MonthlyContribution && goal.MonthlyContribution > 0 {
		recs = append(recs, fmt.Sprintf(
			"You have $%.2f/month in unused savings capacity",
			savings.AvgMonthlySavings-goal.MonthlyContribution))
	}
	if monthsRequired > 24 {
		recs = append(recs,
			"Consider setting intermediate milestones to track progress on this long-term goal")
	}
	return recs
}

package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/narrative"
	"github.com/finsight/insights-service/internal/repository"
)

// staticSummarizer stands in for the external narrative collaborator.
type staticSummarizer struct {
	text string
	err  error
}

func (s *staticSummarizer) Summarize(context.Context, *models.InsightsContext) (string, error) {
	return s.text, s.err
}

func seedInsightsHistory(store *repository.MemoryStore) {
	seedDailyExpenses(store, testUser, 60, 25, "Groceries")
	seedDailyExpenses(store, testUser, 60, 10, "Entertainment")
	seedMonthlyIncome(store, testUser, 3, 3000)
	store.AddGoals(models.Goal{
		ID: "g1", UserID: testUser, Name: "Emergency Fund",
		TargetAmount: 10000, CurrentAmount: 2000, MonthlyContribution: 400,
	})
}

func TestComputeInsightsInsufficient(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDailyExpenses(store, testUser, 10, 20, "Dining")
	eng := newTestEngine(store)

	_, err := eng.ComputeInsights(context.Background(), testUser)
	assert.True(t, engine.IsInsufficient(err))
}

func TestComputeInsightsBundle(t *testing.T) {
	store := repository.NewMemoryStore()
	seedInsightsHistory(store)
	eng := newTestEngine(store)

	result, err := eng.ComputeInsights(context.Background(), testUser)
	require.NoError(t, err)

	assert.Contains(t, result.Bundle.Insights, "Overall Financial Health Assessment")
	assert.True(t, result.Bundle.ContextUsed.SpendingForecast)
	assert.True(t, result.Bundle.ContextUsed.BudgetsAnalyzed)
	assert.Equal(t, 1, result.Bundle.ContextUsed.GoalsAnalyzed)
	assert.False(t, result.Bundle.ComputedAt.IsZero())

	require.NotNil(t, result.Context.Summary)
	assert.NotNil(t, result.Context.Forecast)
	assert.NotNil(t, result.Context.Budget)
	assert.NotNil(t, result.Context.Goals)
}

func TestComputeInsightsUsesSummarizer(t *testing.T) {
	store := repository.NewMemoryStore()
	seedInsightsHistory(store)
	summarizer := &staticSummarizer{text: "tailored advice"}
	eng := engine.New(store, config.DefaultPolicy(), summarizer,
		narrative.NewTemplateRenderer(), time.Second, quietLogger())

	result, err := eng.ComputeInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "tailored advice", result.Bundle.Insights)
}

func TestComputeInsightsFallsBackOnSummarizerFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	seedInsightsHistory(store)
	summarizer := &staticSummarizer{err: errors.New("upstream down")}
	eng := engine.New(store, config.DefaultPolicy(), summarizer,
		narrative.NewTemplateRenderer(), time.Second, quietLogger())

	result, err := eng.ComputeInsights(context.Background(), testUser)
	require.NoError(t, err, "summarizer failure must not fail the computation")
	assert.Contains(t, result.Bundle.Insights, "Top 3 Recommendations")
}

func TestComputeInsightsToleratesModuleInsufficiency(t *testing.T) {
	store := repository.NewMemoryStore()
	// Dense income history keeps the global gate open while the expense set
	// is too thin for forecast and budget analysis.
	now := time.Now().UTC()
	for i := 0; i < 40; i++ {
		store.AddTransactions(models.Transaction{
			UserID: testUser, Date: now.AddDate(0, 0, -i),
			Amount: 100, Type: models.KindIncome, Category: "Salary",
		})
	}
	for i := 0; i < 10; i++ {
		store.AddTransactions(txn(testUser, now.AddDate(0, 0, -i), 20, "Dining"))
	}
	eng := newTestEngine(store)

	result, err := eng.ComputeInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.False(t, result.Bundle.ContextUsed.SpendingForecast)
	assert.False(t, result.Bundle.ContextUsed.BudgetsAnalyzed)
	assert.NotEmpty(t, result.Bundle.Insights)
}

func TestFinancialSummary(t *testing.T) {
	store := repository.NewMemoryStore()
	now := time.Now().UTC()
	store.AddTransactions(
		models.Transaction{UserID: testUser, Date: now.AddDate(0, 0, -5),
			Amount: 3000, Type: models.KindIncome, Category: "Salary"},
		txn(testUser, now.AddDate(0, 0, -3), 600, "Rent"),
		txn(testUser, now.AddDate(0, 0, -2), 150, "Groceries"),
		// Outside the 30-day window, must be excluded.
		txn(testUser, now.AddDate(0, 0, -45), 999, "Travel"),
	)
	eng := newTestEngine(store)

	summary, err := eng.FinancialSummary(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, summary.TotalIncome)
	assert.Equal(t, 750.0, summary.TotalExpenses)
	assert.Equal(t, 2250.0, summary.NetBalance)
	assert.Equal(t, 3, summary.TransactionCount)
	assert.Equal(t, 600.0, summary.SpendingByCategory["Rent"])
	assert.Equal(t, 25.0, summary.AvgDailySpending)
}

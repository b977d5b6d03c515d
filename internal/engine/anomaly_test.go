package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/repository"
)

func TestDetectAnomaliesSingleSpike(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDailyExpenses(store, testUser, 45, 20, "Dining")
	store.AddTransactions(txn(testUser, nowUTC().AddDate(0, 0, -2), 500, "Dining"))
	eng := newTestEngine(store)

	result, err := eng.DetectAnomalies(context.Background(), testUser)
	require.NoError(t, err)

	assert.Equal(t, 46, result.Statistics.TotalTransactions)
	require.Equal(t, 1, result.Statistics.AnomaliesDetected)
	require.Len(t, result.Anomalies, 1)

	spike := result.Anomalies[0]
	assert.Equal(t, 500.0, spike.Amount)
	assert.Equal(t, models.SeverityHigh, spike.Severity)
	assert.Contains(t, spike.Reason, "higher than typical spending")
	assert.Equal(t, 500.0, result.Statistics.TotalAnomalousSpending)
}

func TestAnomalyPercentageInvariant(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDailyExpenses(store, testUser, 45, 20, "Dining")
	store.AddTransactions(
		txn(testUser, nowUTC().AddDate(0, 0, -3), 400, "Dining"),
		txn(testUser, nowUTC().AddDate(0, 0, -9), 450, "Dining"),
	)
	eng := newTestEngine(store)

	result, err := eng.DetectAnomalies(context.Background(), testUser)
	require.NoError(t, err)

	expected := float64(result.Statistics.AnomaliesDetected) /
		float64(result.Statistics.TotalTransactions) * 100
	assert.InDelta(t, expected, result.Statistics.AnomalyPercentage, 0.01)
}

func TestNoVarianceNoAnomalies(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDailyExpenses(store, testUser, 35, 50, "Groceries")
	eng := newTestEngine(store)

	result, err := eng.DetectAnomalies(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Statistics.AnomaliesDetected)
	assert.Equal(t, 0.0, result.Statistics.AnomalyPercentage)
	assert.Empty(t, result.Anomalies)
}

func TestDetectAnomaliesInsufficientCount(t *testing.T) {
	store := repository.NewMemoryStore()
	// Long span but too few transactions.
	now := nowUTC()
	for i := 0; i < 10; i++ {
		store.AddTransactions(txn(testUser, now.AddDate(0, 0, -i*5), 20, "Dining"))
	}
	eng := newTestEngine(store)

	_, err := eng.DetectAnomalies(context.Background(), testUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInsufficientData)
}

func TestCategoryAnomaliesScoped(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDailyExpenses(store, testUser, 40, 20, "Dining")
	seedDailyExpenses(store, testUser, 40, 100, "Rent")
	store.AddTransactions(txn(testUser, nowUTC().AddDate(0, 0, -1), 400, "Dining"))
	eng := newTestEngine(store)

	result, err := eng.CategoryAnomalies(context.Background(), testUser, "Dining")
	require.NoError(t, err)

	assert.Equal(t, "Dining", result.Category)
	assert.Equal(t, 41, result.Statistics.TotalTransactions)
	require.Equal(t, 1, result.Statistics.AnomaliesDetected)
	assert.Contains(t, result.Anomalies[0].Reason, "in this category")
}

func TestAnomaliesSortedBySeverity(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDailyExpenses(store, testUser, 60, 20, "Dining")
	store.AddTransactions(
		txn(testUser, nowUTC().AddDate(0, 0, -5), 200, "Dining"),
		txn(testUser, nowUTC().AddDate(0, 0, -8), 600, "Dining"),
	)
	eng := newTestEngine(store)

	result, err := eng.DetectAnomalies(context.Background(), testUser)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Anomalies), 2)

	rank := map[string]int{
		models.SeverityHigh:   3,
		models.SeverityMedium: 2,
		models.SeverityLow:    1,
	}
	for i := 1; i < len(result.Anomalies); i++ {
		assert.GreaterOrEqual(t,
			rank[result.Anomalies[i-1].Severity], rank[result.Anomalies[i].Severity])
	}
}

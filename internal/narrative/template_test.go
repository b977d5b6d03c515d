package narrative_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/narrative"
)

func TestTemplateEmptyContext(t *testing.T) {
	r := narrative.NewTemplateRenderer()

	text, err := r.Summarize(context.Background(), &models.InsightsContext{})
	require.NoError(t, err)
	assert.Contains(t, text, "isn't enough financial data yet")

	text, err = r.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, text, "isn't enough financial data yet")
}

func TestTemplateSections(t *testing.T) {
	ic := &models.InsightsContext{
		Summary: &models.FinancialSummary{
			TotalIncome:      3000,
			TotalExpenses:    2000,
			NetBalance:       1000,
			AvgDailySpending: 66.67,
		},
		Forecast: &models.ForecastResult{
			Statistics: models.ForecastStatistics{
				HistoricalAvgDaily: 66,
				ForecastAvgDaily:   68,
				TrendPercentage:    3,
			},
		},
		Budget: &models.BudgetRecommendation{TotalRecommendedBudget: 1900},
	}
	r := narrative.NewTemplateRenderer()

	text, err := r.Summarize(context.Background(), ic)
	require.NoError(t, err)
	assert.Contains(t, text, "**Overall Financial Health Assessment:**")
	assert.Contains(t, text, "**Top 3 Insights:**")
	assert.Contains(t, text, "**Top 3 Recommendations:**")
	assert.Contains(t, text, "**One Caution:**")
	assert.Contains(t, text, "positive net balance of $1000.00")
	assert.Contains(t, text, "monthly budget of $1900.00")
}

func TestTemplateOverspendingCaution(t *testing.T) {
	ic := &models.InsightsContext{
		Summary: &models.FinancialSummary{
			TotalIncome:   1000,
			TotalExpenses: 1400,
			NetBalance:    -400,
		},
	}
	r := narrative.NewTemplateRenderer()

	text, err := r.Summarize(context.Background(), ic)
	require.NoError(t, err)
	assert.Contains(t, text, "expenses exceeded income by $400.00")
	assert.Contains(t, text, "spending exceeded income by $400.00")
}

func TestTemplateOffTrackGoalsCaution(t *testing.T) {
	ic := &models.InsightsContext{
		Goals: &models.GoalsAnalysis{
			TotalGoals:        2,
			OverallAssessment: models.AssessmentOffTrack,
		},
	}
	r := narrative.NewTemplateRenderer()

	text, err := r.Summarize(context.Background(), ic)
	require.NoError(t, err)
	assert.Contains(t, text, "off track")
	assert.Contains(t, text, "more in monthly savings than your typical capacity")
}

func TestTemplateAnomalyInsight(t *testing.T) {
	ic := &models.InsightsContext{
		Anomalies: &models.AnomalyResult{
			Statistics: models.AnomalyStatistics{
				AnomaliesDetected:      3,
				TotalAnomalousSpending: 750.50,
			},
		},
	}
	r := narrative.NewTemplateRenderer()

	text, err := r.Summarize(context.Background(), ic)
	require.NoError(t, err)
	assert.Contains(t, text, "Detected 3 unusual transactions totaling $750.50")
}

package engine

import (
	"context"
	"math"

	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/stats"
)

// Forecast projects the user's daily spending forward by horizonDays. A
// non-positive horizon uses the configured default.
func (e *Engine) Forecast(ctx context.Context, userID string, horizonDays int) (*models.ForecastResult, error) {
	return e.forecast(ctx, userID, "", horizonDays)
}

// CategoryForecast projects spending for a single category, gated by that
// category's own history span.
func (e *Engine) CategoryForecast(ctx context.Context, userID, category string, horizonDays int) (*models.ForecastResult, error) {
	return e.forecast(ctx, userID, category, horizonDays)
}

func (e *Engine) forecast(ctx context.Context, userID, category string, horizonDays int) (*models.ForecastResult, error) {
	if horizonDays <= 0 {
		horizonDays = e.policy.ForecastHorizonDays
	}

	txns, err := e.history(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	expenses := filterExpenses(txns)
	if err := checkSufficiency(expenses, e.policy.MinHistoryDays, 0, 0); err != nil {
		return nil, err
	}

	series := stats.DailySeries(expenses)
	values := stats.Values(series)
	n := len(values)

	histAvg, err := stats.Mean(values)
	if err != nil {
		return nil, err
	}
	trend, err := stats.LinearTrend(values)
	if err != nil {
		return nil, err
	}

	// Project forward from the day after the last observed day. Spending
	// cannot be negative, so projections are floored at zero.
	start := series[n-1].Date.AddDate(0, 0, 1)
	forecast := make([]models.ForecastPoint, horizonDays)
	var total float64
	for i := 0; i < horizonDays; i++ {
		predicted := math.Max(0, trend.Intercept+trend.Slope*float64(n+i))
		forecast[i] = models.ForecastPoint{
			Date:              start.AddDate(0, 0, i).Format("2006-01-02"),
			PredictedSpending: round2(predicted),
		}
		total += predicted
	}

	result := &models.ForecastResult{
		Category: category,
		Statistics: models.ForecastStatistics{
			HistoricalAvgDaily:     round2(histAvg),
			ForecastAvgDaily:       round2(total / float64(horizonDays)),
			TrendPercentage:        round2(stats.TrendPercentage(trend, horizonDays, histAvg)),
			DataPointsUsed:         n,
			ForecastPeriodDays:     horizonDays,
			TotalPredictedSpending: round2(total),
		},
		Forecast: forecast,
	}

	e.log.WithFields(map[string]interface{}{
		"user_id":     userID,
		"category":    category,
		"data_points": n,
		"horizon":     horizonDays,
	}).Debug("spending forecast computed")
	return result, nil
}

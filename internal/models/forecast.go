package models

// ForecastStatistics summarizes a spending forecast.
type ForecastStatistics struct {
	HistoricalAvgDaily     float64 `json:"historical_avg_daily"`
	ForecastAvgDaily       float64 `json:"forecast_avg_daily"`
	TrendPercentage        float64 `json:"trend_percentage"`
	DataPointsUsed         int     `json:"data_points_used"`
	ForecastPeriodDays     int     `json:"forecast_period_days"`
	TotalPredictedSpending float64 `json:"total_predicted_spending"`
}

// ForecastPoint is one projected day of spending.
type ForecastPoint struct {
	Date              string  `json:"date"` // Format: YYYY-MM-DD
	PredictedSpending float64 `json:"predicted_spending"`
}

// ForecastResult is the full output of the spending forecaster. The
// Forecast slice always holds exactly ForecastPeriodDays entries.
type ForecastResult struct {
	Category   string             `json:"category,omitempty"`
	Statistics ForecastStatistics `json:"statistics"`
	Forecast   []ForecastPoint    `json:"forecast"`
}

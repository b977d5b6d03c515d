package stats

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/finsight/insights-service/internal/models"
)

// ErrEmptySeries is returned when a computation receives no values.
var ErrEmptySeries = errors.New("empty series")

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySeries
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), nil
}

// StdDev returns the population standard deviation of xs around a
// precomputed mean.
func StdDev(xs []float64, mean float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySeries
	}
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs))), nil
}

// ZScore returns how many standard deviations value lies from mean. The
// second return value is false when stddev is zero (no variance), which
// callers treat as non-anomalous.
func ZScore(value, mean, stddev float64) (float64, bool) {
	if stddev <= 0 {
		return 0, false
	}
	return (value - mean) / stddev, true
}

// Trend is an ordinary least squares fit over (index, value) pairs.
type Trend struct {
	Slope     float64
	Intercept float64
}

// LinearTrend fits a least squares line over xs indexed 0..n-1.
func LinearTrend(xs []float64) (Trend, error) {
	n := float64(len(xs))
	if len(xs) == 0 {
		return Trend{}, ErrEmptySeries
	}
	if len(xs) == 1 {
		return Trend{Slope: 0, Intercept: xs[0]}, nil
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range xs {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Trend{Slope: 0, Intercept: sumY / n}, nil
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	return Trend{Slope: slope, Intercept: intercept}, nil
}

// TrendPercentage expresses a fitted slope over periodLength steps as a
// percentage of the series mean. A zero mean reports a flat trend.
func TrendPercentage(t Trend, periodLength int, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return t.Slope * float64(periodLength) / mean * 100
}

// DailyPoint is one calendar day of aggregated value.
type DailyPoint struct {
	Date  time.Time
	Value float64
}

// DailySeries groups transactions into a complete daily series keyed by UTC
// calendar day. Days with no activity contribute value 0 rather than being
// omitted, so the series is gap-free from the oldest to the newest day.
func DailySeries(txns []models.Transaction) []DailyPoint {
	if len(txns) == 0 {
		return nil
	}

	totals := make(map[time.Time]float64)
	var first, last time.Time
	for i, t := range txns {
		day := t.Date.UTC().Truncate(24 * time.Hour)
		totals[day] += t.Amount
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	var series []DailyPoint
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series = append(series, DailyPoint{Date: day, Value: totals[day]})
	}
	return series
}

// Values extracts the value column from a daily series.
func Values(series []DailyPoint) []float64 {
	vals := make([]float64, len(series))
	for i, p := range series {
		vals[i] = p.Value
	}
	return vals
}

// MonthlyPoint is one calendar month of aggregated value.
type MonthlyPoint struct {
	Month time.Time // first day of the month, UTC
	Value float64
}

// MonthlyTotals groups transactions into per-month totals, ordered
// chronologically. Unlike DailySeries, months with no activity are omitted:
// monthly aggregates feed averages over observed months, not trend gaps.
func MonthlyTotals(txns []models.Transaction) []MonthlyPoint {
	totals := make(map[time.Time]float64)
	for _, t := range txns {
		d := t.Date.UTC()
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		totals[month] += t.Amount
	}

	months := make([]time.Time, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := make([]MonthlyPoint, len(months))
	for i, m := range months {
		series[i] = MonthlyPoint{Month: m, Value: totals[m]}
	}
	return series
}

// SpanDays returns the inclusive number of calendar days between the oldest
// and newest transaction.
func SpanDays(txns []models.Transaction) int {
	if len(txns) == 0 {
		return 0
	}
	first := txns[0].Date.UTC().Truncate(24 * time.Hour)
	last := first
	for _, t := range txns[1:] {
		day := t.Date.UTC().Truncate(24 * time.Hour)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}
	return int(last.Sub(first).Hours()/24) + 1
}

package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/stats"
)

// categoryPattern is the analyzed spending behaviour of one category.
type categoryPattern struct {
	category    string
	monthlyAvg  float64
	trend       string
	sharpTrend  bool
	variability string
	essential   bool
}

// RecommendBudget derives per-category budget allocations from historical
// spend. approach selects how aggressively discretionary categories are
// trimmed; an unknown approach falls back to the configured default.
func (e *Engine) RecommendBudget(ctx context.Context, userID, approach string) (*models.BudgetRecommendation, error) {
	patterns, err := e.spendingPatterns(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, ap := e.policy.Approach(approach)
	var recs []models.CategoryRecommendation
	var total float64
	for _, p := range patterns {
		recommended := e.recommendedAmount(p, ap)
		recs = append(recs, models.CategoryRecommendation{
			Category:          p.category,
			RecommendedAmount: recommended,
			CurrentMonthlyAvg: round2(p.monthlyAvg),
			Trend:             p.trend,
			Variability:       p.variability,
			Priority:          p.priority(),
			Justification:     justification(p, recommended),
		})
		total += recommended
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecommendedAmount > recs[j].RecommendedAmount
	})

	return &models.BudgetRecommendation{
		TotalRecommendedBudget: round2(total),
		Approach:               name,
		Recommendations:        recs,
	}, nil
}

// OptimizeBudget allocates a fixed total budget across categories in
// proportion to historical spend, boosting high-priority categories and
// trimming low-priority ones, then normalizing so the allocations sum to
// the target exactly.
func (e *Engine) OptimizeBudget(ctx context.Context, userID string, totalBudget float64) (*models.BudgetRecommendation, error) {
	patterns, err := e.spendingPatterns(ctx, userID)
	if err != nil {
		return nil, err
	}

	var totalSpend float64
	for _, p := range patterns {
		totalSpend += p.monthlyAvg
	}

	var recs []models.CategoryRecommendation
	var allocated float64
	for _, p := range patterns {
		proportion := 0.0
		if totalSpend > 0 {
			proportion = p.monthlyAvg / totalSpend
		}
		amount := totalBudget * proportion
		switch p.priority() {
		case models.PriorityHigh:
			amount *= 1.1
		case models.PriorityLow:
			amount *= 0.9
		}
		recs = append(recs, models.CategoryRecommendation{
			Category:          p.category,
			RecommendedAmount: amount,
			CurrentMonthlyAvg: round2(p.monthlyAvg),
			Trend:             p.trend,
			Variability:       p.variability,
			Priority:          p.priority(),
			Justification:     fmt.Sprintf("Allocated %.1f%% of total budget based on historical share", proportion*100),
		})
		allocated += amount
	}

	// Normalize so the rounded allocations sum to the target exactly.
	var total float64
	if allocated > 0 {
		factor := totalBudget / allocated
		for i := range recs {
			recs[i].RecommendedAmount = round2(recs[i].RecommendedAmount * factor)
			total += recs[i].RecommendedAmount
		}
		if len(recs) > 0 && total != totalBudget {
			recs[0].RecommendedAmount = round2(recs[0].RecommendedAmount + totalBudget - total)
			total = totalBudget
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecommendedAmount > recs[j].RecommendedAmount
	})

	return &models.BudgetRecommendation{
		TotalRecommendedBudget: round2(total),
		Approach:               "optimized",
		Recommendations:        recs,
	}, nil
}

// spendingPatterns analyzes each category's expense history: monthly
// average, trend on monthly aggregates, and variability via coefficient
// of variation.
func (e *Engine) spendingPatterns(ctx context.Context, userID string) ([]categoryPattern, error) {
	txns, err := e.history(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if err := checkSufficiency(txns, e.policy.MinHistoryDays, 0, e.policy.MinExpenses); err != nil {
		return nil, err
	}

	expenses := filterExpenses(txns)
	byCategory := make(map[string][]models.Transaction)
	for _, t := range expenses {
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var patterns []categoryPattern
	for _, category := range categories {
		monthly := stats.MonthlyTotals(byCategory[category])
		values := make([]float64, len(monthly))
		var totalSpend float64
		for i, m := range monthly {
			values[i] = m.Value
			totalSpend += m.Value
		}

		months := len(monthly)
		if months < 1 {
			months = 1
		}
		avg := totalSpend / float64(months)

		p := categoryPattern{
			category:    category,
			monthlyAvg:  avg,
			trend:       models.TrendStable,
			variability: models.VariabilityLow,
			essential:   e.policy.IsEssential(strings.ToLower(category)),
		}

		if len(values) >= 2 && avg > 0 {
			trend, err := stats.LinearTrend(values)
			if err == nil {
				slopePct := trend.Slope / avg * 100
				switch {
				case slopePct > e.policy.TrendSlopePct:
					p.trend = models.TrendIncreasing
				case slopePct < -e.policy.TrendSlopePct:
					p.trend = models.TrendDecreasing
				}
				p.sharpTrend = slopePct > e.policy.SharpTrendSlopePct
			}

			mean, _ := stats.Mean(values)
			stddev, _ := stats.StdDev(values, mean)
			if mean > 0 {
				cv := stddev / mean
				switch {
				case cv > e.policy.VariabilityHighCV:
					p.variability = models.VariabilityHigh
				case cv >= e.policy.VariabilityLowCV:
					p.variability = models.VariabilityMedium
				}
			}
		}

		patterns = append(patterns, p)
	}
	return patterns, nil
}

// recommendedAmount applies the approach trim to a category's monthly
// average. Essential categories are never trimmed below their current
// average; the trim lands preferentially on high-variability spend.
func (e *Engine) recommendedAmount(p categoryPattern, ap config.ApproachPolicy) float64 {
	if p.essential {
		return round2(p.monthlyAvg)
	}
	trim := ap.TrimPct / 100
	switch p.variability {
	case models.VariabilityMedium:
		trim *= 0.5
	case models.VariabilityLow:
		trim *= 0.25
	}
	return round2(p.monthlyAvg * (1 - trim))
}

func (p categoryPattern) priority() string {
	switch {
	case p.essential, p.sharpTrend:
		return models.PriorityHigh
	case p.variability == models.VariabilityHigh:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

func justification(p categoryPattern, recommended float64) string {
	parts := []string{fmt.Sprintf("Spending in this category is %s", p.trend)}
	if p.variability == models.VariabilityHigh {
		parts = append(parts, "high month-to-month variability")
	}
	if p.essential {
		parts = append(parts, "essential category kept at current average")
	}
	if p.monthlyAvg > 0 {
		diffPct := (recommended - p.monthlyAvg) / p.monthlyAvg * 100
		if diffPct > 5 {
			parts = append(parts, fmt.Sprintf("%.0f%% above current average", diffPct))
		} else if diffPct < -5 {
			parts = append(parts, fmt.Sprintf("%.0f%% below current average", -diffPct))
		}
	}
	return strings.Join(parts, "; ")
}

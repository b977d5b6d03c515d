package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/stats"
)

type amountStats struct {
	mean   float64
	stddev float64
}

func newAmountStats(txns []models.Transaction) (amountStats, bool) {
	if len(txns) < 2 {
		return amountStats{}, false
	}
	amounts := make([]float64, len(txns))
	for i, t := range txns {
		amounts[i] = t.Amount
	}
	mean, err := stats.Mean(amounts)
	if err != nil {
		return amountStats{}, false
	}
	stddev, err := stats.StdDev(amounts, mean)
	if err != nil {
		return amountStats{}, false
	}
	return amountStats{mean: mean, stddev: stddev}, true
}

// DetectAnomalies flags expense transactions statistically inconsistent with
// the user's historical pattern. Each transaction is scored against both the
// global expense distribution and its own category's distribution; the
// larger absolute z-score wins.
func (e *Engine) DetectAnomalies(ctx context.Context, userID string) (*models.AnomalyResult, error) {
	return e.detectAnomalies(ctx, userID, "")
}

// CategoryAnomalies restricts detection to a single category, scoring
// against that category's own distribution.
func (e *Engine) CategoryAnomalies(ctx context.Context, userID, category string) (*models.AnomalyResult, error) {
	return e.detectAnomalies(ctx, userID, category)
}

func (e *Engine) detectAnomalies(ctx context.Context, userID, category string) (*models.AnomalyResult, error) {
	txns, err := e.history(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	if err := checkSufficiency(txns, e.policy.MinHistoryDays, e.policy.MinTransactions, 0); err != nil {
		return nil, err
	}

	expenses := filterExpenses(txns)
	global, globalOK := newAmountStats(expenses)

	byCategory := make(map[string][]models.Transaction)
	for _, t := range expenses {
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}
	catStats := make(map[string]amountStats, len(byCategory))
	for cat, catTxns := range byCategory {
		if s, ok := newAmountStats(catTxns); ok {
			catStats[cat] = s
		}
	}

	var anomalies []models.Anomaly
	var totalAnomalous float64
	for _, t := range expenses {
		z, scope, ok := e.scoreTransaction(t, global, globalOK, catStats, category != "")
		if !ok {
			continue
		}
		severity := e.severity(math.Abs(z))
		if severity == "" {
			continue
		}

		ref := global
		if scope == scopeCategory {
			ref = catStats[t.Category]
		}
		anomalies = append(anomalies, models.Anomaly{
			Date:        t.Date.UTC().Format("2006-01-02"),
			Amount:      round2(t.Amount),
			Category:    t.Category,
			Description: t.Description,
			Severity:    severity,
			Reason:      anomalyReason(t.Amount, ref.mean, z, scope == scopeCategory),
		})
		totalAnomalous += math.Abs(t.Amount)
	}

	// Descending severity, most recent first within a severity.
	sort.SliceStable(anomalies, func(i, j int) bool {
		ri, rj := severityRank(anomalies[i].Severity), severityRank(anomalies[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return anomalies[i].Date > anomalies[j].Date
	})

	result := &models.AnomalyResult{
		Category: category,
		Statistics: models.AnomalyStatistics{
			TotalTransactions:      len(expenses),
			AnomaliesDetected:      len(anomalies),
			TotalAnomalousSpending: round2(totalAnomalous),
		},
		Anomalies: anomalies,
	}
	if len(expenses) > 0 {
		result.Statistics.AnomalyPercentage = round2(float64(len(anomalies)) / float64(len(expenses)) * 100)
	}

	e.log.Debugf("anomaly detection for user %s: %d of %d expenses flagged",
		userID, len(anomalies), len(expenses))
	return result, nil
}

type scoreScope int

const (
	scopeGlobal scoreScope = iota
	scopeCategory
)

// scoreTransaction returns the transaction's z-score and which distribution
// produced it. Zero-variance distributions are treated as non-anomalous.
func (e *Engine) scoreTransaction(t models.Transaction, global amountStats, globalOK bool, catStats map[string]amountStats, categoryScoped bool) (float64, scoreScope, bool) {
	var best float64
	scope := scopeGlobal
	found := false

	if !categoryScoped && globalOK {
		if z, ok := stats.ZScore(t.Amount, global.mean, global.stddev); ok {
			best = z
			found = true
		}
	}
	if cs, ok := catStats[t.Category]; ok {
		if z, zok := stats.ZScore(t.Amount, cs.mean, cs.stddev); zok {
			if !found || math.Abs(z) > math.Abs(best) {
				best = z
				scope = scopeCategory
				found = true
			}
		}
	}
	return best, scope, found
}

// severity maps an absolute z-score onto a severity band. Scores below the
// low threshold are not reported.
func (e *Engine) severity(absZ float64) string {
	switch {
	case absZ >= e.policy.SeverityHighZ:
		return models.SeverityHigh
	case absZ >= e.policy.SeverityMediumZ:
		return models.SeverityMedium
	case absZ >= e.policy.SeverityLowZ:
		return models.SeverityLow
	default:
		return ""
	}
}

func severityRank(s string) int {
	switch s {
	case models.SeverityHigh:
		return 3
	case models.SeverityMedium:
		return 2
	case models.SeverityLow:
		return 1
	}
	return 0
}

func anomalyReason(amount, mean, z float64, categoryScoped bool) string {
	scope := "typical spending"
	if categoryScoped {
		scope = "typical spending in this category"
	}
	if z >= 0 {
		if mean > 0 {
			return fmt.Sprintf("%.1fx higher than %s", amount/mean, scope)
		}
		return fmt.Sprintf("well above %s", scope)
	}
	return fmt.Sprintf("well below %s", scope)
}

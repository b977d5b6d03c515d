package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finsight/insights-service/internal/models"
)

// FinancialSummary aggregates the trailing 30 days of activity. It feeds the
// narrative context and is cheap enough to compute inline.
func (e *Engine) FinancialSummary(ctx context.Context, userID string) (*models.FinancialSummary, error) {
	const windowDays = 30
	filter := TransactionFilter{From: time.Now().UTC().AddDate(0, 0, -windowDays)}
	txns, err := e.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	summary := &models.FinancialSummary{
		TransactionCount:   len(txns),
		SpendingByCategory: make(map[string]float64),
	}
	for _, t := range txns {
		switch {
		case t.IsIncome():
			summary.TotalIncome += t.Amount
		case t.IsExpense():
			summary.TotalExpenses += t.Amount
			summary.SpendingByCategory[t.Category] = round2(summary.SpendingByCategory[t.Category] + t.Amount)
		}
	}
	summary.TotalIncome = round2(summary.TotalIncome)
	summary.TotalExpenses = round2(summary.TotalExpenses)
	summary.NetBalance = round2(summary.TotalIncome - summary.TotalExpenses)
	summary.AvgDailySpending = round2(summary.TotalExpenses / windowDays)
	return summary, nil
}

// ComputeInsights runs the four analytical modules concurrently, joins their
// results, and synthesizes the advisory narrative. Modules that fail on data
// sufficiency are tolerated and simply omitted from the narrative context;
// any other module failure aborts the computation so a partially consistent
// result is never returned.
func (e *Engine) ComputeInsights(ctx context.Context, userID string) (*models.ComprehensiveInsights, error) {
	txns, err := e.history(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if err := checkSufficiency(txns, e.policy.MinHistoryDays, e.policy.MinTransactions, 0); err != nil {
		return nil, err
	}

	ic := models.InsightsContext{}
	errs := make([]error, 4)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		ic.Forecast, errs[0] = e.Forecast(ctx, userID, 0)
	}()
	go func() {
		defer wg.Done()
		ic.Anomalies, errs[1] = e.DetectAnomalies(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		ic.Budget, errs[2] = e.RecommendBudget(ctx, userID, "")
	}()
	go func() {
		defer wg.Done()
		ic.Goals, errs[3] = e.AnalyzeGoals(ctx, userID)
	}()
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if IsInsufficient(err) {
			e.log.Debugf("insights module %d skipped for user %s: %v", i, userID, err)
			continue
		}
		return nil, err
	}
	// Clear artifacts whose module failed the sufficiency gate.
	if errs[0] != nil {
		ic.Forecast = nil
	}
	if errs[1] != nil {
		ic.Anomalies = nil
	}
	if errs[2] != nil {
		ic.Budget = nil
	}
	if errs[3] != nil {
		ic.Goals = nil
	}

	if summary, err := e.FinancialSummary(ctx, userID); err == nil {
		ic.Summary = summary
	}

	text := e.synthesize(ctx, &ic)

	bundle := models.InsightsBundle{
		Insights:   text,
		ComputedAt: time.Now().UTC(),
		ContextUsed: models.ContextUsed{
			SpendingForecast: ic.Forecast != nil,
			BudgetsAnalyzed:  ic.Budget != nil,
		},
	}
	if ic.Anomalies != nil {
		bundle.ContextUsed.AnomaliesDetected = ic.Anomalies.Statistics.AnomaliesDetected
	}
	if ic.Goals != nil {
		bundle.ContextUsed.GoalsAnalyzed = ic.Goals.TotalGoals
	}

	return &models.ComprehensiveInsights{Context: ic, Bundle: bundle}, nil
}

// synthesize produces the narrative text. The external summarizer call is
// bounded by the configured timeout; on any failure the deterministic
// template renderer takes over.
func (e *Engine) synthesize(ctx context.Context, ic *models.InsightsContext) string {
	if e.summarizer != nil {
		narCtx, cancel := context.WithTimeout(ctx, e.narTimeout)
		defer cancel()

		text, err := e.summarizer.Summarize(narCtx, ic)
		if err == nil {
			return text
		}
		e.log.Warnf("narrative summarizer unavailable, using template fallback: %v", err)
	}

	text, err := e.fallback.Summarize(ctx, ic)
	if err != nil {
		// The template renderer cannot fail; keep a guard anyway.
		e.log.Errorf("template renderer failed: %v", err)
		return "Insights are temporarily unavailable."
	}
	return text
}

package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/stats"
)

// TransactionFilter narrows a transaction listing. Zero time values mean
// unbounded; an empty category matches all categories.
type TransactionFilter struct {
	From     time.Time
	To       time.Time
	Category string
}

// Store is the read contract consumed from the transaction store. The engine
// never writes through it.
type Store interface {
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error)
}

// Summarizer turns structured analytical results into advisory text. The
// production implementation calls an external generative service; tests and
// the fallback path use the deterministic template renderer.
type Summarizer interface {
	Summarize(ctx context.Context, ic *models.InsightsContext) (string, error)
}

// Engine runs the analytical modules over a user's transaction history.
// All computations are stateless and side-effect free: data is fetched once
// per request and nothing is mutated.
type Engine struct {
	store      Store
	policy     *config.Policy
	summarizer Summarizer
	fallback   Summarizer
	narTimeout time.Duration
	log        *logrus.Logger
}

// New creates an engine. summarizer may be nil, in which case fallback is
// used directly for narrative generation.
func New(store Store, policy *config.Policy, summarizer, fallback Summarizer, narrativeTimeout time.Duration, log *logrus.Logger) *Engine {
	return &Engine{
		store:      store,
		policy:     policy,
		summarizer: summarizer,
		fallback:   fallback,
		narTimeout: narrativeTimeout,
		log:        log,
	}
}

// history fetches the user's transactions over the trailing analysis window.
func (e *Engine) history(ctx context.Context, userID, category string) ([]models.Transaction, error) {
	filter := TransactionFilter{Category: category}
	if e.policy.HistoryWindowDays > 0 {
		filter.From = time.Now().UTC().AddDate(0, 0, -e.policy.HistoryWindowDays)
	}
	txns, err := e.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// checkSufficiency verifies that the history spans enough days and contains
// enough transactions. The span is measured oldest-to-newest, not against
// the current date, so a user who stopped tracking is not penalized.
func checkSufficiency(txns []models.Transaction, minDays, minTxns, minExpenses int) error {
	if len(txns) == 0 {
		return fmt.Errorf("%w: no transaction data found", ErrInsufficientHistory)
	}

	span := stats.SpanDays(txns)
	if span < minDays {
		return fmt.Errorf("%w: data spans only %d days (need %d+)", ErrInsufficientHistory, span, minDays)
	}
	if len(txns) < minTxns {
		return fmt.Errorf("%w: only %d transactions (need %d+)", ErrInsufficientData, len(txns), minTxns)
	}
	if minExpenses > 0 {
		expenses := 0
		for _, t := range txns {
			if t.IsExpense() {
				expenses++
			}
		}
		if expenses < minExpenses {
			return fmt.Errorf("%w: only %d expense transactions (need %d+)", ErrInsufficientData, expenses, minExpenses)
		}
	}
	return nil
}

func filterExpenses(txns []models.Transaction) []models.Transaction {
	var out []models.Transaction
	for _, t := range txns {
		if t.IsExpense() {
			out = append(out, t)
		}
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

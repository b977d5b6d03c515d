package engine_test

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/narrative"
	"github.com/finsight/insights-service/internal/repository"
)

const testUser = "user-1"

func nowUTC() time.Time {
	return time.Now().UTC()
}

func txn(userID string, date time.Time, amount float64, category string) models.Transaction {
	return models.Transaction{
		UserID:   userID,
		Date:     date,
		Amount:   amount,
		Type:     models.KindExpense,
		Category: category,
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine(store engine.Store) *engine.Engine {
	return engine.New(store, config.DefaultPolicy(), nil,
		narrative.NewTemplateRenderer(), time.Second, quietLogger())
}

// seedDailyExpenses adds one expense per day for the trailing days, newest
// today.
func seedDailyExpenses(store *repository.MemoryStore, userID string, days int, amount float64, category string) {
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		store.AddTransactions(models.Transaction{
			UserID:   userID,
			Date:     now.AddDate(0, 0, -i),
			Amount:   amount,
			Type:     models.KindExpense,
			Category: category,
		})
	}
}

// seedMonthlyIncome adds one income per trailing month, newest this month.
// Anchored mid-month so month arithmetic never normalizes across a boundary.
func seedMonthlyIncome(store *repository.MemoryStore, userID string, months int, amount float64) {
	now := time.Now().UTC()
	anchor := time.Date(now.Year(), now.Month(), 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		store.AddTransactions(models.Transaction{
			UserID:   userID,
			Date:     anchor.AddDate(0, -i, 0),
			Amount:   amount,
			Type:     models.KindIncome,
			Category: "Salary",
		})
	}
}

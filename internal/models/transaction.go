package models

import "time"

// Transaction kinds as stored by the tracker.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Transaction represents a single financial transaction. The insights
// service is a read-only consumer: transactions are never mutated here.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"` // income or expense
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == KindExpense
}

// IsIncome reports whether the transaction is an income.
func (t Transaction) IsIncome() bool {
	return t.Type == KindIncome
}

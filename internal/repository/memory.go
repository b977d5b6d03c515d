package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
)

// MemoryStore is an in-memory implementation of the engine's read contract,
// used by tests and local development.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string][]models.Transaction
	goals        map[string][]models.Goal
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string][]models.Transaction),
		goals:        make(map[string][]models.Goal),
	}
}

// AddTransactions seeds transactions for a user.
func (m *MemoryStore) AddTransactions(txns ...models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range txns {
		m.transactions[t.UserID] = append(m.transactions[t.UserID], t)
	}
}

// AddGoals seeds goals for a user.
func (m *MemoryStore) AddGoals(goals ...models.Goal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range goals {
		m.goals[g.UserID] = append(m.goals[g.UserID], g)
	}
}

// ListTransactions returns the user's transactions matching the filter,
// ordered by date.
func (m *MemoryStore) ListTransactions(_ context.Context, userID string, filter engine.TransactionFilter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Transaction
	for _, t := range m.transactions[userID] {
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.Date.After(filter.To) {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListGoals returns the user's goals.
func (m *MemoryStore) ListGoals(_ context.Context, userID string) ([]models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Goal(nil), m.goals[userID]...), nil
}

// GetGoal returns a single goal by id.
func (m *MemoryStore) GetGoal(_ context.Context, userID, goalID string) (*models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.goals[userID] {
		if g.ID == goalID {
			goal := g
			return &goal, nil
		}
	}
	return nil, fmt.Errorf("goal %s: %w", goalID, engine.ErrNotFound)
}

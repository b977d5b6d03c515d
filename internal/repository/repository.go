package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
)

// Repository provides read-only database access to the tracker's data. The
// insights service never writes: transactions and goals are owned by the
// main application.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListTransactions retrieves a user's transactions ordered by date.
func (r *Repository) ListTransactions(ctx context.Context, userID string, filter engine.TransactionFilter) ([]models.Transaction, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, user_id, date, amount, type, COALESCE(category, 'Uncategorized'), COALESCE(description, '')
		FROM finance.transactions
		WHERE user_id = $1`)
	args := []interface{}{userID}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query.WriteString(" AND date >= $" + strconv.Itoa(len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query.WriteString(" AND date <= $" + strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}
	query.WriteString(" ORDER BY date")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &t.Amount, &t.Type, &t.Category, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// ListGoals retrieves a user's active (not yet completed) goals.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	query := `
		SELECT id, user_id, name, target_amount, current_amount, target_date, monthly_contribution
		FROM finance.goals
		WHERE user_id = $1 AND completed = FALSE
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// GetGoal retrieves a single goal owned by the user.
func (r *Repository) GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	query := `
		SELECT id, user_id, name, target_amount, current_amount, target_date, monthly_contribution
		FROM finance.goals
		WHERE user_id = $1 AND id = $2`
	row := r.db.QueryRowContext(ctx, query, userID, goalID)
	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal %s: %w", goalID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	goal := &models.Goal{}
	var targetDate sql.NullTime
	err := row.Scan(&goal.ID, &goal.UserID, &goal.Name, &goal.TargetAmount,
		&goal.CurrentAmount, &targetDate, &goal.MonthlyContribution)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}
	if targetDate.Valid {
		goal.TargetDate = &targetDate.Time
	}
	return goal, nil
}

package models

import "time"

// Goal represents a savings goal owned by a user. Goals are created and
// updated elsewhere; the insights service treats them as read-only snapshots.
type Goal struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	Name                string     `json:"name"`
	TargetAmount        float64    `json:"target_amount"`
	CurrentAmount       float64    `json:"current_amount"`
	TargetDate          *time.Time `json:"target_date,omitempty"`
	MonthlyContribution float64    `json:"monthly_contribution"`
}

package models

// Anomaly severities, ordered from least to most severe.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Anomaly is a transaction flagged as statistically inconsistent with the
// user's historical spending pattern.
type Anomaly struct {
	Date        string  `json:"date"` // Format: YYYY-MM-DD
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Reason      string  `json:"reason"`
}

// AnomalyStatistics summarizes an anomaly detection pass.
type AnomalyStatistics struct {
	TotalTransactions      int     `json:"total_transactions"`
	AnomaliesDetected      int     `json:"anomalies_detected"`
	AnomalyPercentage      float64 `json:"anomaly_percentage"`
	TotalAnomalousSpending float64 `json:"total_anomalous_spending"`
}

// AnomalyResult is the full output of the anomaly detector. Anomalies are
// ordered by descending severity, then by most recent date.
type AnomalyResult struct {
	Category   string            `json:"category,omitempty"`
	Statistics AnomalyStatistics `json:"statistics"`
	Anomalies  []Anomaly         `json:"anomalies"`
}

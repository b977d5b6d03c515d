package engine

import "errors"

// Expected analytical failures. The first two are recoverable data-sufficiency
// outcomes converted to the documented non-error response shape at the API
// boundary; they are never surfaced as transport failures.
var (
	// ErrInsufficientHistory means the transaction history spans too few days.
	ErrInsufficientHistory = errors.New("insufficient transaction history")

	// ErrInsufficientData means the history span is adequate but there are
	// too few transactions for a reliable computation.
	ErrInsufficientData = errors.New("insufficient transaction data")

	// ErrInvalidGoal means a goal's amounts are inconsistent.
	ErrInvalidGoal = errors.New("invalid goal")

	// ErrUpstreamTimeout means the narrative collaborator did not respond in
	// time. Recovered locally via the template fallback.
	ErrUpstreamTimeout = errors.New("narrative service timed out")

	// ErrNotFound means the requested entity does not exist for this user.
	ErrNotFound = errors.New("not found")
)

// IsInsufficient reports whether err is one of the data-sufficiency outcomes.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientHistory) || errors.Is(err, ErrInsufficientData)
}

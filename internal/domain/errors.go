package domain

import "errors"

// Error taxonomy for the rebalancing core. Callers distinguish failure
// kinds with errors.Is; every failure path wraps exactly one of these.
var (
	// ErrInvalidModel indicates an allocation model whose percentages do
	// not sum to 100 or fall outside [0, 100].
	ErrInvalidModel = errors.New("invalid allocation model")

	// ErrInvalidHoldings indicates a holdings snapshot with negative
	// values or an inconsistent total.
	ErrInvalidHoldings = errors.New("invalid holdings")

	// ErrNotRequired indicates the planner was invoked for an analysis
	// that does not require rebalancing.
	ErrNotRequired = errors.New("rebalancing not required")

	// ErrInvalidRecommendation indicates a generator draft that failed
	// validation against the analysis.
	ErrInvalidRecommendation = errors.New("invalid recommendation")

	// ErrGeneratorUnavailable indicates a transport-level failure
	// reaching the external recommendation generator.
	ErrGeneratorUnavailable = errors.New("recommendation generator unavailable")
)

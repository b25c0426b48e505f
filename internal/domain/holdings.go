package domain

import "fmt"

// valueTolerance absorbs rounding when reconciling the per-class sum
// against the snapshot total (one cent in the base currency).
const valueTolerance = 0.01

// HoldingsSnapshot is the caller-supplied view of the portfolio:
// total value in the base currency plus the current market value of
// each asset class.
type HoldingsSnapshot struct {
	TotalValue   float64                `json:"total_value"`
	ValueByClass map[AssetClass]float64 `json:"value_by_class"`
}

// Value returns the current market value for an asset class,
// zero when the class has no position.
func (h HoldingsSnapshot) Value(class AssetClass) float64 {
	return h.ValueByClass[class]
}

// Validate checks the snapshot invariants: non-negative total,
// non-negative per-class values, no unknown classes, and the class sum
// not exceeding the total beyond rounding tolerance. Violations wrap
// ErrInvalidHoldings.
func (h HoldingsSnapshot) Validate() error {
	if h.TotalValue < 0 {
		return fmt.Errorf("%w: total value %.2f is negative", ErrInvalidHoldings, h.TotalValue)
	}

	var sum float64
	for class, value := range h.ValueByClass {
		if !class.Valid() {
			return fmt.Errorf("%w: unknown asset class %q", ErrInvalidHoldings, class)
		}
		if value < 0 {
			return fmt.Errorf("%w: %s value %.2f is negative", ErrInvalidHoldings, class, value)
		}
		sum += value
	}

	if sum > h.TotalValue+valueTolerance {
		return fmt.Errorf("%w: class values sum to %.2f, exceeding total %.2f", ErrInvalidHoldings, sum, h.TotalValue)
	}

	return nil
}

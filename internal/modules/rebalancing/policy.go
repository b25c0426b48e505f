// Package rebalancing provides portfolio allocation analysis functionality.
package rebalancing

// ThresholdPolicy defines the symmetric deviation bands used to
// classify an asset class. Deviations below Balanced are considered on
// target; deviations at or above Trigger require rebalancing.
type ThresholdPolicy struct {
	Balanced float64 // |deviation| below this is BALANCED
	Trigger  float64 // |deviation| at or above this is OVER/UNDERWEIGHT
}

// DefaultThresholdPolicy returns the standard 2% / 5% bands.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{Balanced: 2.0, Trigger: 5.0}
}

// FeeSchedule estimates the transaction cost of a single trade of the
// given absolute value in the base currency. Callers inject their
// broker's schedule; nothing in the analyzer hardcodes fees.
type FeeSchedule func(tradeValue float64) float64

// FixedPlusProportionalFee returns a fee schedule with a fixed
// component per trade plus a variable fraction of the trade value
// (e.g. €2.00 + 0.2%).
func FixedPlusProportionalFee(fixed, fraction float64) FeeSchedule {
	return func(tradeValue float64) float64 {
		if tradeValue <= 0 {
			return 0
		}
		return fixed + tradeValue*fraction
	}
}

// CalculateMinTradeAmount calculates the minimum trade amount where
// transaction costs stay acceptable.
//
// With a €2 + 0.2% fee structure:
// - €50 trade: €2.10 cost = 4.2% drag, not worthwhile
// - €200 trade: €2.40 cost = 1.2% drag, marginal
// - €400 trade: €2.80 cost = 0.7% drag, acceptable
func CalculateMinTradeAmount(
	transactionCostFixed float64,
	transactionCostPercent float64,
	maxCostRatio float64,
) float64 {
	// Solve for trade amount where: (fixed + trade * percent) / trade = max_ratio
	// fixed / trade + percent = max_ratio
	// trade = fixed / (max_ratio - percent)
	denominator := maxCostRatio - transactionCostPercent
	if denominator <= 0 {
		// If variable cost exceeds max ratio, return a high minimum
		return 1000.0
	}
	return transactionCostFixed / denominator
}

// Policy bundles everything the analyzer needs that is a matter of
// broker or owner preference rather than arithmetic: deviation bands,
// the fee schedule, and the minimum trade floor.
type Policy struct {
	Thresholds     ThresholdPolicy
	Fees           FeeSchedule
	MinTradeAmount float64 // trades below this absolute value are not worth executing
}

// DefaultPolicy returns the standard policy: 2%/5% bands, €2 + 0.2%
// fees, and a minimum trade amount derived from a 1% max cost ratio.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds:     DefaultThresholdPolicy(),
		Fees:           FixedPlusProportionalFee(2.0, 0.002),
		MinTradeAmount: CalculateMinTradeAmount(2.0, 0.002, 0.01),
	}
}

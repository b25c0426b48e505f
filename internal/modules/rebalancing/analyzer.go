package rebalancing

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

// Analyzer computes per-asset-class deviation from a target model and
// the portfolio-level rebalancing verdict. It is a pure function of its
// inputs and the injected policy; it holds no mutable state and is safe
// for concurrent use.
type Analyzer struct {
	policy Policy
	log    zerolog.Logger
}

// NewAnalyzer creates a new allocation analyzer.
func NewAnalyzer(policy Policy, log zerolog.Logger) *Analyzer {
	if policy.Fees == nil {
		policy.Fees = DefaultPolicy().Fees
	}
	return &Analyzer{
		policy: policy,
		log:    log.With().Str("service", "analyzer").Logger(),
	}
}

// Analyze computes the allocation analysis for the given holdings
// against the target model. Preconditions are validated, never
// repaired: a bad model wraps ErrInvalidModel, bad holdings wrap
// ErrInvalidHoldings.
func (a *Analyzer) Analyze(holdings domain.HoldingsSnapshot, model domain.AllocationModel) (*Analysis, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if err := holdings.Validate(); err != nil {
		return nil, err
	}

	analysis := &Analysis{
		TotalValue:  holdings.TotalValue,
		Lines:       make([]AssetAllocationLine, 0, len(domain.AssetClasses)),
		ModelName:   model.Name,
		GeneratedAt: time.Now().UTC(),
	}

	var tradeValues []float64

	for _, class := range domain.AssetClasses {
		line := a.buildLine(class, holdings, model)
		analysis.Lines = append(analysis.Lines, line)

		if line.RebalancingNeeded {
			analysis.TotalTradesNeeded++
			tradeValues = append(tradeValues, math.Abs(line.DeltaValue))
		}
	}

	analysis.RebalancingRequired = analysis.TotalTradesNeeded > 0
	analysis.EstimatedCosts = a.estimateCosts(tradeValues)
	a.aggregateDeviations(analysis)

	a.log.Debug().
		Str("model", model.Name).
		Float64("total_value", holdings.TotalValue).
		Bool("rebalancing_required", analysis.RebalancingRequired).
		Int("trades_needed", analysis.TotalTradesNeeded).
		Msg("Allocation analysis computed")

	return analysis, nil
}

// buildLine computes one analysis row for an asset class.
func (a *Analyzer) buildLine(class domain.AssetClass, holdings domain.HoldingsSnapshot, model domain.AllocationModel) AssetAllocationLine {
	currentValue := holdings.Value(class)
	targetPct := model.TargetPct(class)

	// Zero-guard: an empty portfolio has 0% in every class.
	currentPct := 0.0
	if holdings.TotalValue > 0 {
		currentPct = currentValue / holdings.TotalValue * 100
	}

	deviation := currentPct - targetPct
	deltaValue := targetPct/100*holdings.TotalValue - currentValue

	line := AssetAllocationLine{
		AssetClass:   class,
		CurrentValue: currentValue,
		CurrentPct:   currentPct,
		TargetPct:    targetPct,
		Deviation:    deviation,
		DeltaPct:     deviation,
		DeltaValue:   deltaValue,
		Status:       a.classify(deviation),
	}

	// A trade too small in currency terms is not worth executing even
	// when the percentage deviation is large on a tiny balance.
	line.RebalancingNeeded = math.Abs(deviation) >= a.policy.Thresholds.Trigger &&
		math.Abs(deltaValue) >= a.policy.MinTradeAmount

	return line
}

// classify maps a signed deviation onto a status using the policy's
// symmetric bands. The sign selects OVER vs UNDER.
func (a *Analyzer) classify(deviation float64) AllocationStatus {
	abs := math.Abs(deviation)

	switch {
	case abs < a.policy.Thresholds.Balanced:
		return StatusBalanced
	case abs < a.policy.Thresholds.Trigger:
		if deviation > 0 {
			return StatusSlightlyOverweight
		}
		return StatusSlightlyUnderweight
	default:
		if deviation > 0 {
			return StatusOverweight
		}
		return StatusUnderweight
	}
}

// estimateCosts applies the fee schedule to each trade that would be
// executed and sums the result. One fee per trade, matching how
// brokers bill.
func (a *Analyzer) estimateCosts(tradeValues []float64) float64 {
	if len(tradeValues) == 0 {
		return 0
	}

	fees := make([]float64, len(tradeValues))
	for i, value := range tradeValues {
		fees[i] = a.policy.Fees(value)
	}
	return floats.Sum(fees)
}

// aggregateDeviations fills LargestDeviation, MostOverweight and
// MostUnderweight from the computed lines.
func (a *Analyzer) aggregateDeviations(analysis *Analysis) {
	var maxPositive, minNegative float64
	var overweight, underweight *domain.AssetClass

	for i := range analysis.Lines {
		line := &analysis.Lines[i]

		if abs := math.Abs(line.Deviation); abs > analysis.LargestDeviation {
			analysis.LargestDeviation = abs
		}

		if line.Deviation > 0 && line.Deviation > maxPositive {
			maxPositive = line.Deviation
			class := line.AssetClass
			overweight = &class
		}
		if line.Deviation < 0 && line.Deviation < minNegative {
			minNegative = line.Deviation
			class := line.AssetClass
			underweight = &class
		}
	}

	analysis.MostOverweight = overweight
	analysis.MostUnderweight = underweight
}

package rebalancing

import (
	"time"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

// AllocationStatus classifies how far an asset class sits from its
// target percentage.
type AllocationStatus string

const (
	StatusBalanced            AllocationStatus = "BALANCED"
	StatusSlightlyOverweight  AllocationStatus = "SLIGHTLY_OVERWEIGHT"
	StatusSlightlyUnderweight AllocationStatus = "SLIGHTLY_UNDERWEIGHT"
	StatusOverweight          AllocationStatus = "OVERWEIGHT"
	StatusUnderweight         AllocationStatus = "UNDERWEIGHT"
)

// AssetAllocationLine is one row of analysis output per asset class.
//
// Sign conventions: Deviation and DeltaPct are positive when the class
// is overweight. DeltaValue is the base-currency amount to buy (positive,
// underweight) or sell (negative, overweight) to reach target; its sign
// is always opposite to Deviation, so callers can derive a trade
// direction from sign alone.
type AssetAllocationLine struct {
	AssetClass        domain.AssetClass `json:"asset_class"`
	CurrentValue      float64           `json:"current_value"`
	CurrentPct        float64           `json:"current_percentage"`
	TargetPct         float64           `json:"target_percentage"`
	Deviation         float64           `json:"deviation"`
	DeltaPct          float64           `json:"delta_percentage"`
	DeltaValue        float64           `json:"delta_value"`
	Status            AllocationStatus  `json:"status"`
	RebalancingNeeded bool              `json:"rebalancing_needed"`
}

// Analysis is the portfolio-level rebalancing verdict. Lines always
// appear in the fixed class order (STOCK, CRYPTO, METAL).
type Analysis struct {
	TotalValue          float64               `json:"total_value"`
	Lines               []AssetAllocationLine `json:"lines"`
	ModelName           string                `json:"model_name"`
	RebalancingRequired bool                  `json:"rebalancing_required"`
	TotalTradesNeeded   int                   `json:"total_trades_needed"`
	EstimatedCosts      float64               `json:"estimated_transaction_costs"`
	LargestDeviation    float64               `json:"largest_deviation"`
	MostOverweight      *domain.AssetClass    `json:"most_overweight,omitempty"`
	MostUnderweight     *domain.AssetClass    `json:"most_underweight,omitempty"`
	GeneratedAt         time.Time             `json:"generated_at"`
}

// Line returns the analysis line for an asset class, or nil if the
// class is unknown.
func (a *Analysis) Line(class domain.AssetClass) *AssetAllocationLine {
	for i := range a.Lines {
		if a.Lines[i].AssetClass == class {
			return &a.Lines[i]
		}
	}
	return nil
}

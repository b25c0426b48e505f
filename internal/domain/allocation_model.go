package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
)

// PercentEpsilon is the tolerance used when checking that model
// percentages sum to 100. It absorbs floating point rounding only;
// genuinely wrong models fail validation.
const PercentEpsilon = 1e-6

// AllocationModel is a named or ad-hoc target allocation: the desired
// percentage split across the three asset classes.
type AllocationModel struct {
	Name      string  `json:"name"`
	StocksPct float64 `json:"stocks_pct"`
	CryptoPct float64 `json:"crypto_pct"`
	MetalsPct float64 `json:"metals_pct"`
}

// Validate checks the model invariant: each percentage in [0, 100] and
// the three summing to 100 within PercentEpsilon. Violations wrap
// ErrInvalidModel. The core never renormalizes a bad model.
func (m AllocationModel) Validate() error {
	for _, pct := range []float64{m.StocksPct, m.CryptoPct, m.MetalsPct} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: percentage %.6f out of range [0, 100]", ErrInvalidModel, pct)
		}
	}

	sum := m.StocksPct + m.CryptoPct + m.MetalsPct
	if math.Abs(sum-100) > PercentEpsilon {
		return fmt.Errorf("%w: percentages sum to %.6f, expected 100", ErrInvalidModel, sum)
	}

	return nil
}

// TargetPct returns the model's target percentage for an asset class.
func (m AllocationModel) TargetPct(class AssetClass) float64 {
	switch class {
	case AssetClassStock:
		return m.StocksPct
	case AssetClassCrypto:
		return m.CryptoPct
	case AssetClassMetal:
		return m.MetalsPct
	}
	return 0
}

// Key returns a deterministic identity for the model, used as the plan
// cache key. Two models with the same name and percentages share a key;
// custom models with different triples never collide.
func (m AllocationModel) Key() string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%.6f", m.Name, m.StocksPct, m.CryptoPct, m.MetalsPct)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

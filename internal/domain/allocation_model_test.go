package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationModel_Validate(t *testing.T) {
	tests := []struct {
		name    string
		model   AllocationModel
		wantErr bool
	}{
		{
			name:    "exact sum",
			model:   AllocationModel{Name: "moderate", StocksPct: 60, CryptoPct: 25, MetalsPct: 15},
			wantErr: false,
		},
		{
			name:    "sum within epsilon",
			model:   AllocationModel{Name: "custom", StocksPct: 33.3333333, CryptoPct: 33.3333333, MetalsPct: 33.3333334},
			wantErr: false,
		},
		{
			name:    "sum too low",
			model:   AllocationModel{Name: "custom", StocksPct: 50, CryptoPct: 25, MetalsPct: 15},
			wantErr: true,
		},
		{
			name:    "sum too high",
			model:   AllocationModel{Name: "custom", StocksPct: 60, CryptoPct: 30, MetalsPct: 15},
			wantErr: true,
		},
		{
			name:    "negative percentage",
			model:   AllocationModel{Name: "custom", StocksPct: 110, CryptoPct: -10, MetalsPct: 0},
			wantErr: true,
		},
		{
			name:    "single class at 100",
			model:   AllocationModel{Name: "custom", StocksPct: 100, CryptoPct: 0, MetalsPct: 0},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidModel)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllocationModel_TargetPct(t *testing.T) {
	model := AllocationModel{Name: "moderate", StocksPct: 60, CryptoPct: 25, MetalsPct: 15}

	assert.Equal(t, 60.0, model.TargetPct(AssetClassStock))
	assert.Equal(t, 25.0, model.TargetPct(AssetClassCrypto))
	assert.Equal(t, 15.0, model.TargetPct(AssetClassMetal))
	assert.Equal(t, 0.0, model.TargetPct(AssetClass("BOND")))
}

func TestAllocationModel_Key(t *testing.T) {
	a := AllocationModel{Name: "custom", StocksPct: 50, CryptoPct: 30, MetalsPct: 20}
	b := AllocationModel{Name: "custom", StocksPct: 50, CryptoPct: 30, MetalsPct: 20}
	c := AllocationModel{Name: "custom", StocksPct: 50, CryptoPct: 20, MetalsPct: 30}

	assert.Equal(t, a.Key(), b.Key(), "identical models must share a cache key")
	assert.NotEqual(t, a.Key(), c.Key(), "different triples must not collide")
	assert.Len(t, a.Key(), 32)
}

func TestHoldingsSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot HoldingsSnapshot
		wantErr  bool
	}{
		{
			name: "consistent snapshot",
			snapshot: HoldingsSnapshot{
				TotalValue: 10000,
				ValueByClass: map[AssetClass]float64{
					AssetClassStock:  6000,
					AssetClassCrypto: 2500,
					AssetClassMetal:  1500,
				},
			},
			wantErr: false,
		},
		{
			name:     "zero portfolio",
			snapshot: HoldingsSnapshot{TotalValue: 0},
			wantErr:  false,
		},
		{
			name: "class values include cash remainder",
			snapshot: HoldingsSnapshot{
				TotalValue: 10000,
				ValueByClass: map[AssetClass]float64{
					AssetClassStock: 8000,
				},
			},
			wantErr: false,
		},
		{
			name:     "negative total",
			snapshot: HoldingsSnapshot{TotalValue: -1},
			wantErr:  true,
		},
		{
			name: "negative class value",
			snapshot: HoldingsSnapshot{
				TotalValue:   1000,
				ValueByClass: map[AssetClass]float64{AssetClassStock: -500},
			},
			wantErr: true,
		},
		{
			name: "class sum exceeds total",
			snapshot: HoldingsSnapshot{
				TotalValue: 1000,
				ValueByClass: map[AssetClass]float64{
					AssetClassStock:  800,
					AssetClassCrypto: 300,
				},
			},
			wantErr: true,
		},
		{
			name: "unknown class",
			snapshot: HoldingsSnapshot{
				TotalValue:   1000,
				ValueByClass: map[AssetClass]float64{AssetClass("BOND"): 100},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snapshot.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidHoldings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassOrder(t *testing.T) {
	assert.Equal(t, 0, ClassOrder(AssetClassStock))
	assert.Equal(t, 1, ClassOrder(AssetClassCrypto))
	assert.Equal(t, 2, ClassOrder(AssetClassMetal))
	assert.Equal(t, 3, ClassOrder(AssetClass("BOND")))
}

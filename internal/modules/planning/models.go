// Package planning provides rebalancing recommendation planning functionality.
package planning

import (
	"context"
	"time"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/rebalancing"
)

// TransactionDraft is the pre-filled transaction attached to an
// action, intended for downstream transaction creation by the caller.
// This core never persists or executes it.
type TransactionDraft struct {
	ID         string           `json:"id"`
	Side       domain.TradeSide `json:"side"`
	Symbol     string           `json:"symbol"`
	Quantity   float64          `json:"quantity"`
	Price      float64          `json:"price"`
	TotalValue float64          `json:"total_value"`
	Currency   domain.Currency  `json:"currency"`
	Note       string           `json:"note"`
}

// Action is one concrete trade in a recommendation plan.
// PriorityRank 1 is the most urgent.
type Action struct {
	ID             string            `json:"id"`
	Side           domain.TradeSide  `json:"side"`
	AssetClass     domain.AssetClass `json:"asset_class"`
	Symbol         string            `json:"symbol"`
	Quantity       float64           `json:"quantity"`
	Price          float64           `json:"price"`
	EstimatedValue float64           `json:"estimated_value"`
	PriorityRank   int               `json:"priority_rank"`
	Rationale      string            `json:"rationale"`
	Timing         string            `json:"timing"`
	Draft          TransactionDraft  `json:"transaction_draft"`
}

// Plan is a validated, ranked set of trade actions projected to
// restore the target allocation.
type Plan struct {
	Summary             string                         `json:"summary"`
	Priority            domain.PlanPriority            `json:"priority"`
	Actions             []Action                       `json:"actions"`
	ExpectedOutcome     map[domain.AssetClass]float64  `json:"expected_outcome"`
	TotalTrades         int                            `json:"total_trades"`
	EstimatedCost       float64                        `json:"estimated_cost"`
	Improvement         string                         `json:"improvement"`
	RiskAssessment      string                         `json:"risk_assessment"`
	ImplementationNotes string                         `json:"implementation_notes"`
	GeneratedAt         time.Time                      `json:"generated_at"`
	Cached              bool                           `json:"cached"`
	GeneratorCalls      int                            `json:"generator_calls"`
}

// GeneratorRequest is the structured request sent to the external
// recommendation generator.
type GeneratorRequest struct {
	Analysis *rebalancing.Analysis  `json:"analysis"`
	Model    domain.AllocationModel `json:"model"`
	Holdings []domain.Holding       `json:"holdings"`
}

// DraftAction is one unvalidated trade proposed by the generator.
type DraftAction struct {
	Side           domain.TradeSide  `json:"side"`
	AssetClass     domain.AssetClass `json:"asset_class"`
	Symbol         string            `json:"symbol"`
	Quantity       float64           `json:"quantity"`
	Price          float64           `json:"price"`
	EstimatedValue float64           `json:"estimated_value"`
	Rationale      string            `json:"rationale"`
	Timing         string            `json:"timing"`
}

// DraftPlan is the generator's raw output. Everything in it is
// validated before a Plan is built from it; the prose fields pass
// through untouched.
type DraftPlan struct {
	Summary             string        `json:"summary"`
	Actions             []DraftAction `json:"actions"`
	Improvement         string        `json:"improvement"`
	RiskAssessment      string        `json:"risk_assessment"`
	ImplementationNotes string        `json:"implementation_notes"`
	UsageCount          int           `json:"usage_count"`
}

// Generator is the capability interface for the external
// recommendation generator. The planner depends on it by abstraction;
// tests substitute a deterministic fake.
type Generator interface {
	Generate(ctx context.Context, req *GeneratorRequest) (*DraftPlan, error)
}

package planning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/rebalancing"
)

// valueReconcileTolerance is the relative tolerance when checking that
// quantity x price matches a draft action's estimated value.
const valueReconcileTolerance = 0.01

// PriorityPolicy maps the largest portfolio deviation onto an overall
// plan priority tier.
type PriorityPolicy struct {
	High   float64 // largest deviation at or above this is HIGH
	Medium float64 // ... at or above this is MEDIUM, below is LOW
}

// DefaultPriorityPolicy returns the standard 10% / 5% tiers.
func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{High: 10.0, Medium: 5.0}
}

// Planner turns a rebalancing analysis into a validated, ranked
// recommendation plan. Draft derivation is delegated to the external
// generator; everything the generator returns is validated and the
// expected outcome is recomputed here, never trusted verbatim.
//
// The planner owns the only mutable state in the core: the plan cache.
// A singleflight group guarantees at most one in-flight generation per
// cache key; concurrent callers for the same key share the result.
type Planner struct {
	generator  Generator
	cache      *PlanCache
	priorities PriorityPolicy
	group      singleflight.Group
	log        zerolog.Logger
}

// NewPlanner creates a new recommendation planner.
func NewPlanner(generator Generator, cache *PlanCache, priorities PriorityPolicy, log zerolog.Logger) *Planner {
	return &Planner{
		generator:  generator,
		cache:      cache,
		priorities: priorities,
		log:        log.With().Str("service", "planner").Logger(),
	}
}

// Plan produces the recommendation plan for an analysis that requires
// rebalancing. Calling it for a balanced analysis wraps ErrNotRequired.
// A fresh cached plan is returned with Cached=true unless forceRefresh
// is set; generator failures wrap ErrGeneratorUnavailable and leave the
// cache untouched.
func (p *Planner) Plan(
	ctx context.Context,
	analysis *rebalancing.Analysis,
	model domain.AllocationModel,
	holdings []domain.Holding,
	forceRefresh bool,
) (*Plan, error) {
	if analysis == nil || !analysis.RebalancingRequired {
		return nil, fmt.Errorf("%w: analysis reports no rebalancing needed", domain.ErrNotRequired)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	key := model.Key()

	if !forceRefresh {
		if plan, ok := p.cache.Get(key); ok {
			plan.Cached = true
			p.log.Debug().Str("model", model.Name).Msg("Serving cached recommendation plan")
			return plan, nil
		}
	}

	// At most one concurrent generation per key; same-key callers block
	// here and share the leader's result. Different keys proceed in
	// parallel.
	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.generate(ctx, analysis, model, holdings, key)
	})
	if err != nil {
		return nil, err
	}

	// Each caller gets its own copy; the shared result stays immutable.
	plan := *(result.(*Plan))
	return &plan, nil
}

// generate invokes the external generator, validates its draft, and
// stores the resulting plan. Nothing is written to the cache until the
// whole plan validates, so a cancelled or failed call leaves no
// partial entry.
func (p *Planner) generate(
	ctx context.Context,
	analysis *rebalancing.Analysis,
	model domain.AllocationModel,
	holdings []domain.Holding,
	key string,
) (*Plan, error) {
	req := &GeneratorRequest{
		Analysis: analysis,
		Model:    model,
		Holdings: holdings,
	}

	draft, err := p.generator.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrGeneratorUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneratorUnavailable, err)
	}

	if err := p.validateDraft(draft, analysis); err != nil {
		return nil, err
	}

	actions := p.buildActions(draft)
	plan := &Plan{
		Summary:             draft.Summary,
		Priority:            p.priorityFor(analysis.LargestDeviation),
		Actions:             actions,
		ExpectedOutcome:     p.projectOutcome(analysis, actions),
		TotalTrades:         len(actions),
		EstimatedCost:       analysis.EstimatedCosts,
		Improvement:         draft.Improvement,
		RiskAssessment:      draft.RiskAssessment,
		ImplementationNotes: draft.ImplementationNotes,
		GeneratedAt:         time.Now().UTC(),
		Cached:              false,
		GeneratorCalls:      draft.UsageCount,
	}
	if plan.Summary == "" {
		plan.Summary = fmt.Sprintf("Rebalance %d asset class(es) toward %s targets", len(actions), model.Name)
	}

	if err := p.cache.Put(key, plan); err != nil {
		// A failed persistent write is not fatal - the plan is valid.
		p.log.Warn().Err(err).Str("model", model.Name).Msg("Failed to cache recommendation plan")
	}

	p.log.Info().
		Str("model", model.Name).
		Int("actions", len(actions)).
		Str("priority", string(plan.Priority)).
		Msg("Recommendation plan generated")

	return plan, nil
}

// validateDraft checks every draft action against the analysis. Any
// violation wraps ErrInvalidRecommendation; the draft is never
// repaired.
func (p *Planner) validateDraft(draft *DraftPlan, analysis *rebalancing.Analysis) error {
	if draft == nil || len(draft.Actions) == 0 {
		return fmt.Errorf("%w: generator returned no actions", domain.ErrInvalidRecommendation)
	}

	for i, action := range draft.Actions {
		if action.Side != domain.TradeSideBuy && action.Side != domain.TradeSideSell {
			return fmt.Errorf("%w: action %d has unknown side %q", domain.ErrInvalidRecommendation, i, action.Side)
		}
		if action.Quantity < 0 || action.Price < 0 || action.EstimatedValue < 0 {
			return fmt.Errorf("%w: action %d has negative quantity, price or value", domain.ErrInvalidRecommendation, i)
		}

		line := analysis.Line(action.AssetClass)
		if line == nil {
			return fmt.Errorf("%w: action %d references unknown asset class %q", domain.ErrInvalidRecommendation, i, action.AssetClass)
		}
		if !line.RebalancingNeeded {
			return fmt.Errorf("%w: action %d targets %s, which needs no rebalancing", domain.ErrInvalidRecommendation, i, action.AssetClass)
		}

		// Direction must match the deviation sign: overweight classes
		// are sold, underweight classes are bought.
		if line.Deviation > 0 && action.Side != domain.TradeSideSell {
			return fmt.Errorf("%w: action %d is %s on overweight %s", domain.ErrInvalidRecommendation, i, action.Side, action.AssetClass)
		}
		if line.Deviation < 0 && action.Side != domain.TradeSideBuy {
			return fmt.Errorf("%w: action %d is %s on underweight %s", domain.ErrInvalidRecommendation, i, action.Side, action.AssetClass)
		}

		// Quantity x price must reconcile with the estimated value.
		expected := action.Quantity * action.Price
		tolerance := math.Max(valueReconcileTolerance*math.Abs(action.EstimatedValue), 0.01)
		if math.Abs(expected-action.EstimatedValue) > tolerance {
			return fmt.Errorf("%w: action %d value %.2f does not reconcile with %.4f x %.4f",
				domain.ErrInvalidRecommendation, i, action.EstimatedValue, action.Quantity, action.Price)
		}
	}

	return nil
}

// buildActions converts validated draft actions into ranked plan
// actions with attached transaction drafts. Larger corrective trades
// rank higher; ties break on the fixed asset-class order. Ranks are
// renumbered 1..N after sorting.
func (p *Planner) buildActions(draft *DraftPlan) []Action {
	actions := make([]Action, 0, len(draft.Actions))

	for _, da := range draft.Actions {
		timing := da.Timing
		if timing == "" {
			timing = "Execute during regular market hours"
		}

		action := Action{
			ID:             uuid.New().String(),
			Side:           da.Side,
			AssetClass:     da.AssetClass,
			Symbol:         da.Symbol,
			Quantity:       da.Quantity,
			Price:          da.Price,
			EstimatedValue: da.EstimatedValue,
			Rationale:      da.Rationale,
			Timing:         timing,
		}
		action.Draft = TransactionDraft{
			ID:         uuid.New().String(),
			Side:       da.Side,
			Symbol:     da.Symbol,
			Quantity:   da.Quantity,
			Price:      da.Price,
			TotalValue: da.EstimatedValue,
			Currency:   domain.CurrencyEUR,
			Note:       da.Rationale,
		}

		actions = append(actions, action)
	}

	sort.SliceStable(actions, func(i, j int) bool {
		vi, vj := math.Abs(actions[i].EstimatedValue), math.Abs(actions[j].EstimatedValue)
		if vi != vj {
			return vi > vj
		}
		return domain.ClassOrder(actions[i].AssetClass) < domain.ClassOrder(actions[j].AssetClass)
	})

	for i := range actions {
		actions[i].PriorityRank = i + 1
	}

	return actions
}

// projectOutcome applies the actions to the current per-class values
// and re-derives percentages. Buys move cash into a class, sells move
// value out; the portfolio total (positions plus cash) is unchanged by
// either, so percentages are taken over the analysis total.
func (p *Planner) projectOutcome(analysis *rebalancing.Analysis, actions []Action) map[domain.AssetClass]float64 {
	values := make(map[domain.AssetClass]float64, len(analysis.Lines))
	for _, line := range analysis.Lines {
		values[line.AssetClass] = line.CurrentValue
	}

	for _, action := range actions {
		switch action.Side {
		case domain.TradeSideBuy:
			values[action.AssetClass] += action.EstimatedValue
		case domain.TradeSideSell:
			values[action.AssetClass] -= action.EstimatedValue
		}
	}

	outcome := make(map[domain.AssetClass]float64, len(values))
	for class, value := range values {
		pct := 0.0
		if analysis.TotalValue > 0 {
			pct = value / analysis.TotalValue * 100
		}
		outcome[class] = pct
	}

	return outcome
}

// priorityFor maps the largest deviation onto a plan priority tier.
func (p *Planner) priorityFor(largestDeviation float64) domain.PlanPriority {
	switch {
	case largestDeviation >= p.priorities.High:
		return domain.PlanPriorityHigh
	case largestDeviation >= p.priorities.Medium:
		return domain.PlanPriorityMedium
	default:
		return domain.PlanPriorityLow
	}
}

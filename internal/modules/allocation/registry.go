// Package allocation provides target allocation models and their persistence.
package allocation

import (
	"fmt"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

// Built-in model names
const (
	ModelModerate     = "moderate"
	ModelAggressive   = "aggressive"
	ModelConservative = "conservative"
	ModelCustom       = "custom"
)

// builtinModels are the process-wide target models. They are loaded
// once and never mutated; accessors return copies.
var builtinModels = map[string]domain.AllocationModel{
	ModelModerate:     {Name: ModelModerate, StocksPct: 60, CryptoPct: 25, MetalsPct: 15},
	ModelAggressive:   {Name: ModelAggressive, StocksPct: 50, CryptoPct: 40, MetalsPct: 10},
	ModelConservative: {Name: ModelConservative, StocksPct: 70, CryptoPct: 10, MetalsPct: 20},
}

// builtinOrder fixes the listing order for API responses.
var builtinOrder = []string{ModelModerate, ModelAggressive, ModelConservative}

// Builtin returns the built-in model with the given name.
func Builtin(name string) (domain.AllocationModel, bool) {
	m, ok := builtinModels[name]
	return m, ok
}

// BuiltinModels returns all built-in models in a stable order.
func BuiltinModels() []domain.AllocationModel {
	models := make([]domain.AllocationModel, 0, len(builtinOrder))
	for _, name := range builtinOrder {
		models = append(models, builtinModels[name])
	}
	return models
}

// Custom constructs an ad-hoc model from caller-supplied percentages.
// The model must pass the same invariant as the built-ins; violation is
// a caller error.
func Custom(stocksPct, cryptoPct, metalsPct float64) (domain.AllocationModel, error) {
	model := domain.AllocationModel{
		Name:      ModelCustom,
		StocksPct: stocksPct,
		CryptoPct: cryptoPct,
		MetalsPct: metalsPct,
	}
	if err := model.Validate(); err != nil {
		return domain.AllocationModel{}, err
	}
	return model, nil
}

// Resolve maps a model name to a target model. Unknown names wrap
// ErrInvalidModel; custom models are built via Custom, not Resolve.
func Resolve(name string) (domain.AllocationModel, error) {
	if m, ok := Builtin(name); ok {
		return m, nil
	}
	return domain.AllocationModel{}, fmt.Errorf("%w: unknown model %q", domain.ErrInvalidModel, name)
}

// ResolveStored resolves a name against the built-ins first and the
// saved custom models second. repo may be nil, limiting resolution to
// the built-ins.
func ResolveStored(repo *Repository, name string) (domain.AllocationModel, error) {
	if m, ok := Builtin(name); ok {
		return m, nil
	}

	if repo != nil {
		saved, err := repo.Get(name)
		if err != nil {
			return domain.AllocationModel{}, fmt.Errorf("failed to look up model %q: %w", name, err)
		}
		if saved != nil {
			return saved.AllocationModel, nil
		}
	}

	return domain.AllocationModel{}, fmt.Errorf("%w: unknown model %q", domain.ErrInvalidModel, name)
}

// Package portfolio tracks the holdings the rebalancing engine works from.
package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

// Service aggregates stored holdings into the per-class snapshot the
// allocation analyzer consumes.
type Service struct {
	repo *HoldingRepository
	log  zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(repo *HoldingRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "portfolio").Logger(),
	}
}

// Snapshot returns the validated holdings snapshot plus the individual holdings.
func (s *Service) Snapshot() (domain.HoldingsSnapshot, []domain.Holding, error) {
	holdings, err := s.repo.GetAll()
	if err != nil {
		return domain.HoldingsSnapshot{}, nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	snapshot := domain.HoldingsSnapshot{
		ValueByClass: make(map[domain.AssetClass]float64, len(domain.AssetClasses)),
	}
	for _, h := range holdings {
		snapshot.ValueByClass[h.AssetClass] += h.MarketValue
		snapshot.TotalValue += h.MarketValue
	}

	if err := snapshot.Validate(); err != nil {
		return domain.HoldingsSnapshot{}, nil, err
	}

	return snapshot, holdings, nil
}

// Upsert stores a single holding.
func (s *Service) Upsert(h domain.Holding) error {
	if h.MarketValue == 0 && h.Quantity > 0 && h.Price > 0 {
		h.MarketValue = h.Quantity * h.Price
	}
	return s.repo.Upsert(h)
}

// Replace swaps the full holdings set.
func (s *Service) Replace(holdings []domain.Holding) error {
	for i := range holdings {
		h := &holdings[i]
		if h.MarketValue == 0 && h.Quantity > 0 && h.Price > 0 {
			h.MarketValue = h.Quantity * h.Price
		}
	}
	return s.repo.ReplaceAll(holdings)
}

// Delete removes a holding by symbol.
func (s *Service) Delete(symbol string) error {
	return s.repo.Delete(symbol)
}

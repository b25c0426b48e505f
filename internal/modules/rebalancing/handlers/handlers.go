// Package handlers provides HTTP handlers for allocation analysis and
// rebalancing recommendations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/allocation"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/planning"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/portfolio"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/rebalancing"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	portfolioService *portfolio.Service
	analyzer         *rebalancing.Analyzer
	planner          *planning.Planner
	modelRepo        *allocation.Repository
	log              zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(
	portfolioService *portfolio.Service,
	analyzer *rebalancing.Analyzer,
	planner *planning.Planner,
	modelRepo *allocation.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		portfolioService: portfolioService,
		analyzer:         analyzer,
		planner:          planner,
		modelRepo:        modelRepo,
		log:              log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleGetAnalysis computes the allocation analysis for the current
// holdings against the requested model.
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	model, err := h.resolveModel(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	snapshot, _, err := h.portfolioService.Snapshot()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	analysis, err := h.analyzer.Analyze(snapshot, model)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, analysis)
}

// HandleGetRecommendations generates (or serves the cached) trade plan
// for the current holdings against the requested model.
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	model, err := h.resolveModel(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	snapshot, holdings, err := h.portfolioService.Snapshot()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	analysis, err := h.analyzer.Analyze(snapshot, model)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	forceRefresh := false
	if raw := r.URL.Query().Get("force_refresh"); raw != "" {
		forceRefresh, _ = strconv.ParseBool(raw)
	}

	plan, err := h.planner.Plan(r.Context(), analysis, model, holdings, forceRefresh)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// resolveModel reads the model selection from query parameters. The
// custom model requires all three percentage parameters.
func (h *Handler) resolveModel(r *http.Request) (domain.AllocationModel, error) {
	query := r.URL.Query()

	name := query.Get("model")
	if name == "" {
		name = allocation.ModelModerate
	}

	if name != allocation.ModelCustom {
		return allocation.ResolveStored(h.modelRepo, name)
	}

	stocks, err := parsePct(query.Get("custom_stocks"))
	if err != nil {
		return domain.AllocationModel{}, err
	}
	crypto, err := parsePct(query.Get("custom_crypto"))
	if err != nil {
		return domain.AllocationModel{}, err
	}
	metals, err := parsePct(query.Get("custom_metals"))
	if err != nil {
		return domain.AllocationModel{}, err
	}

	return allocation.Custom(stocks, crypto, metals)
}

func parsePct(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: custom models require custom_stocks, custom_crypto and custom_metals", domain.ErrInvalidModel)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: custom percentages must be numeric", domain.ErrInvalidModel)
	}
	return value, nil
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidModel),
		errors.Is(err, domain.ErrInvalidHoldings),
		errors.Is(err, domain.ErrNotRequired):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidRecommendation):
		h.log.Error().Err(err).Msg("Generator produced an invalid plan")
		h.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		h.log.Warn().Err(err).Msg("Generator unavailable")
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Rebalancing request failed")
		h.writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

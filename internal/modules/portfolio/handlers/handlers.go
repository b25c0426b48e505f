// Package handlers provides HTTP handlers for portfolio holdings.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetHoldings returns all stored holdings plus the per-class snapshot.
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	snapshot, holdings, err := h.service.Snapshot()
	if err != nil {
		if errors.Is(err, domain.ErrInvalidHoldings) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if holdings == nil {
		holdings = []domain.Holding{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_value":    snapshot.TotalValue,
		"value_by_class": snapshot.ValueByClass,
		"holdings":       holdings,
	})
}

// HandleUpsertHolding stores a single holding.
func (h *Handler) HandleUpsertHolding(w http.ResponseWriter, r *http.Request) {
	var holding domain.Holding
	if err := json.NewDecoder(r.Body).Decode(&holding); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Upsert(holding); err != nil {
		if errors.Is(err, domain.ErrInvalidHoldings) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("symbol", holding.Symbol).Msg("Failed to upsert holding")
		h.writeError(w, http.StatusInternalServerError, "Failed to store holding")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"symbol": holding.Symbol,
	})
}

// HandleReplaceHoldings replaces the complete holdings set.
func (h *Handler) HandleReplaceHoldings(w http.ResponseWriter, r *http.Request) {
	var holdings []domain.Holding
	if err := json.NewDecoder(r.Body).Decode(&holdings); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Replace(holdings); err != nil {
		if errors.Is(err, domain.ErrInvalidHoldings) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to replace holdings")
		h.writeError(w, http.StatusInternalServerError, "Failed to replace holdings")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  len(holdings),
	})
}

// HandleDeleteHolding removes a holding by symbol.
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := h.service.Delete(symbol); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete holding")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete holding")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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

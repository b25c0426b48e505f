// Package handlers provides HTTP handlers for allocation models.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/allocation"
)

// Handler handles allocation model HTTP requests
type Handler struct {
	repo *allocation.Repository
	log  zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(repo *allocation.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "allocation").Logger(),
	}
}

// HandleGetModels returns the built-in allocation models.
func (h *Handler) HandleGetModels(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": allocation.BuiltinModels(),
	})
}

// HandleGetCustomModels returns all saved custom models.
func (h *Handler) HandleGetCustomModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load custom models")
		h.writeError(w, http.StatusInternalServerError, "Failed to load custom models")
		return
	}

	if models == nil {
		models = []allocation.SavedModel{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

type saveModelRequest struct {
	Name      string  `json:"name"`
	StocksPct float64 `json:"stocks_pct"`
	CryptoPct float64 `json:"crypto_pct"`
	MetalsPct float64 `json:"metals_pct"`
}

// HandleSaveCustomModel creates or updates a saved custom model.
func (h *Handler) HandleSaveCustomModel(w http.ResponseWriter, r *http.Request) {
	var req saveModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "Model name is required")
		return
	}
	if _, reserved := allocation.Builtin(req.Name); reserved || req.Name == allocation.ModelCustom {
		h.writeError(w, http.StatusBadRequest, "Model name is reserved")
		return
	}

	model := domain.AllocationModel{
		Name:      req.Name,
		StocksPct: req.StocksPct,
		CryptoPct: req.CryptoPct,
		MetalsPct: req.MetalsPct,
	}

	if err := h.repo.Upsert(model); err != nil {
		if errors.Is(err, domain.ErrInvalidModel) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to save custom model")
		h.writeError(w, http.StatusInternalServerError, "Failed to save custom model")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"model":  model,
	})
}

// HandleDeleteCustomModel removes a saved custom model.
func (h *Handler) HandleDeleteCustomModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "Model name is required")
		return
	}

	if err := h.repo.Delete(name); err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to delete custom model")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete custom model")
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

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocation", func(r chi.Router) {
		r.Get("/models", h.HandleGetModels)
		r.Route("/custom-models", func(r chi.Router) {
			r.Get("/", h.HandleGetCustomModels)
			r.Post("/", h.HandleSaveCustomModel)
			r.Delete("/{name}", h.HandleDeleteCustomModel)
		})
	})
}

package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the tour pages and the health probe on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.NotFound(h.NotFound)

	r.Get("/health", h.Health)

	r.Get("/", h.ListTours)

	r.Get("/add", h.AddTourForm)
	r.Post("/add", h.AddTour)

	r.Get("/update/{id:[0-9]+}", h.UpdateTourForm)
	r.Post("/update/{id:[0-9]+}", h.UpdateTour)

	r.Post("/delete/{id:[0-9]+}", h.DeleteTour)

	r.Get("/search_tours", h.SearchToursForm)
	r.Post("/search_tours", h.SearchTours)

	r.Post("/reorder_ids", h.ReorderIDs)
}

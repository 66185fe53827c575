package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Strob0t/TourAgency/internal/domain"
	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/logger"
)

const (
	msgAdded       = "Tour added successfully!"
	msgUpdated     = "Tour updated successfully!"
	msgDeleted     = "Tour deleted successfully!"
	msgNotFound    = "Tour not found!"
	msgReordered   = "IDs have been reordered."
	healthDeadline = 2 * time.Second
)

// ListTours handles GET /
func (h *Handlers) ListTours(w http.ResponseWriter, r *http.Request) {
	tours, err := h.Tours.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pageIndex, pageData{Title: "All Tours", Tours: tours})
}

// AddTourForm handles GET /add
func (h *Handlers) AddTourForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageAdd, pageData{Title: "Add Tour"})
}

// AddTour handles POST /add
func (h *Handlers) AddTour(w http.ResponseWriter, r *http.Request) {
	if !h.readForm(w, r) {
		return
	}
	f := tourForm(r)

	if _, err := h.Tours.Create(r.Context(), f); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.render(w, r, http.StatusUnprocessableEntity, pageAdd,
				pageData{Title: "Add Tour", Form: f, Error: validationMessage(err)})
			return
		}
		h.internalError(w, r, err)
		return
	}

	addFlash(w, r, flashSuccess, msgAdded)
	redirectHome(w, r)
}

// UpdateTourForm handles GET /update/{id}
func (h *Handlers) UpdateTourForm(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, pageUpdate, pageData{Title: "Update Tour", Error: msgNotFound})
		return
	}

	t, err := h.Tours.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.render(w, r, http.StatusNotFound, pageUpdate, pageData{Title: "Update Tour", Error: msgNotFound})
	case err != nil:
		h.internalError(w, r, err)
	default:
		h.render(w, r, http.StatusOK, pageUpdate, pageData{Title: "Update Tour", Tour: t, Form: tour.FormFromTour(t)})
	}
}

// UpdateTour handles POST /update/{id}
func (h *Handlers) UpdateTour(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(r)
	if !ok {
		addFlash(w, r, flashError, msgNotFound)
		redirectHome(w, r)
		return
	}
	if !h.readForm(w, r) {
		return
	}
	f := tourForm(r)

	_, err := h.Tours.Update(r.Context(), id, f)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		addFlash(w, r, flashError, msgNotFound)
		redirectHome(w, r)
	case errors.Is(err, domain.ErrValidation):
		h.render(w, r, http.StatusUnprocessableEntity, pageUpdate,
			pageData{Title: "Update Tour", Tour: &tour.Tour{ID: id}, Form: f, Error: validationMessage(err)})
	case err != nil:
		h.internalError(w, r, err)
	default:
		addFlash(w, r, flashSuccess, msgUpdated)
		redirectHome(w, r)
	}
}

// DeleteTour handles POST /delete/{id}
func (h *Handlers) DeleteTour(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(r)
	if !ok {
		addFlash(w, r, flashError, msgNotFound)
		redirectHome(w, r)
		return
	}

	err := h.Tours.Delete(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		addFlash(w, r, flashError, msgNotFound)
	case err != nil:
		h.internalError(w, r, err)
		return
	default:
		addFlash(w, r, flashSuccess, msgDeleted)
	}
	redirectHome(w, r)
}

// SearchToursForm handles GET /search_tours
func (h *Handlers) SearchToursForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageSearch, pageData{Title: "Search Tours"})
}

// SearchTours handles POST /search_tours
func (h *Handlers) SearchTours(w http.ResponseWriter, r *http.Request) {
	if !h.readForm(w, r) {
		return
	}
	filter := tour.NewFilter(r.PostFormValue("destination"), r.PostFormValue("category"))

	tours, err := h.Tours.Search(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pageResults, pageData{Title: "Search Results", Tours: tours, Filter: filter})
}

// ReorderIDs handles POST /reorder_ids
func (h *Handlers) ReorderIDs(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Tours.ReorderIDs(r.Context()); err != nil {
		h.internalError(w, r, err)
		return
	}
	addFlash(w, r, flashSuccess, msgReordered)
	redirectHome(w, r)
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthDeadline)
	defer cancel()

	if err := h.Tours.Ping(ctx); err != nil {
		logger.From(ctx).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "store": "down"})
		return
	}

	body := map[string]any{"status": "ok", "store": "up", "events": h.Tours.EventsState()}
	if st, ok := h.Tours.CacheStats(); ok {
		body["cache"] = st
	}
	writeJSON(w, http.StatusOK, body)
}

// NotFound renders the error page for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found.")
}

// readForm parses the request body, answering 413 or 400 itself on failure.
func (h *Handlers) readForm(w http.ResponseWriter, r *http.Request) bool {
	if err := parseForm(w, r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(w, r, http.StatusRequestEntityTooLarge, "The submitted form is too large.")
		} else {
			h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		}
		return false
	}
	return true
}

// Package database defines the tour store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/TourAgency/internal/domain/tour"
)

// Store is the port interface for tour persistence. Lookups and writes that
// target an absent id return an error wrapping domain.ErrNotFound.
type Store interface {
	// ListTours returns every tour in ascending id order.
	ListTours(ctx context.Context) ([]tour.Tour, error)
	GetTour(ctx context.Context, id int64) (*tour.Tour, error)
	// CreateTour inserts the input and returns the stored tour with its new id.
	CreateTour(ctx context.Context, in tour.Input) (*tour.Tour, error)
	// UpdateTour overwrites every mutable field of the tour with id t.ID.
	UpdateTour(ctx context.Context, t *tour.Tour) error
	DeleteTour(ctx context.Context, id int64) error
	// SearchTours applies the non-empty fields of f and returns matches in id order.
	SearchTours(ctx context.Context, f tour.Filter) ([]tour.Tour, error)
	// ReorderTourIDs renumbers all tours 1..N by ascending current id in one
	// transaction and returns N. Ids handed out before the call become stale.
	ReorderTourIDs(ctx context.Context) (int, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

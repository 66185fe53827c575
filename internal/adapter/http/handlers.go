package http

import (
	"github.com/Strob0t/TourAgency/internal/service"
)

// Handlers holds the service dependencies and compiled pages for the HTTP handlers.
type Handlers struct {
	Tours *service.TourService

	pages pages
}

// NewHandlers compiles the embedded templates and returns ready-to-mount handlers.
func NewHandlers(tours *service.TourService) (*Handlers, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handlers{Tours: tours, pages: p}, nil
}

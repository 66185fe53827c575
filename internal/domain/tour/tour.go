// Package tour defines the Tour domain entity.
package tour

import (
	"strings"
	"time"
)

// Tour is a bookable travel package.
type Tour struct {
	ID           int64   `json:"id"`
	Destination  string  `json:"destination"`
	Category     string  `json:"category"`
	Duration     int     `json:"duration"` // days
	Service      string  `json:"service"`
	Price        float64 `json:"price"`
	Availability string  `json:"availability"`
}

// Informal vocabularies offered by the forms. None of them is enforced.
var (
	Categories     = []string{"Relaxation", "Adventure", "Cultural"}
	Services       = []string{"First Class", "Regular"}
	Availabilities = []string{"Available", "Not Available"}
)

// Input holds the parsed, validated fields of a create or update request.
type Input struct {
	Destination  string
	Category     string
	Duration     int
	Service      string
	Price        float64
	Availability string
}

// Apply overwrites every mutable field of t with the input values.
func (in Input) Apply(t *Tour) {
	t.Destination = in.Destination
	t.Category = in.Category
	t.Duration = in.Duration
	t.Service = in.Service
	t.Price = in.Price
	t.Availability = in.Availability
}

// Tour returns a Tour carrying the input values and no ID.
func (in Input) Tour() Tour {
	var t Tour
	in.Apply(&t)
	return t
}

// Filter narrows a search. Empty fields do not filter.
type Filter struct {
	Destination string // case-insensitive substring
	Category    string // exact match
}

// NewFilter builds a Filter from raw user input, trimming surrounding whitespace.
func NewFilter(destination, category string) Filter {
	return Filter{
		Destination: strings.TrimSpace(destination),
		Category:    strings.TrimSpace(category),
	}
}

// IsEmpty reports whether the filter matches every tour.
func (f Filter) IsEmpty() bool {
	return f.Destination == "" && f.Category == ""
}

// EventType identifies a tour change event.
type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventReordered EventType = "reordered"
)

// Event describes a committed change to the tour table.
type Event struct {
	Type   EventType `json:"type"`
	TourID int64     `json:"tour_id,omitempty"`
	Tour   *Tour     `json:"tour,omitempty"`
	Count  int       `json:"count,omitempty"` // reordered: number of renumbered tours
	At     time.Time `json:"at"`
}

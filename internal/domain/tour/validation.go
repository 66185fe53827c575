package tour

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/TourAgency/internal/domain"
)

// Validation problems.
const (
	ProblemMissing    = "missing required field"
	ProblemNotNumber  = "not a number"
	ProblemTooLong    = "too long"
	ProblemOutOfRange = "out of range"
)

// Column widths of the tour table, in characters. Both stores share them.
const (
	MaxDestinationLen  = 100
	MaxCategoryLen     = 50
	MaxServiceLen      = 50
	MaxAvailabilityLen = 20
)

// ValidationError reports the first invalid field of a submitted form.
// Limit is set for ProblemTooLong.
type ValidationError struct {
	Field   string
	Problem string
	Limit   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Problem)
}

// Unwrap lets errors.Is match domain.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

// Form holds the raw values of a submitted add or update form.
type Form struct {
	Destination  string
	Category     string
	Duration     string
	Service      string
	Price        string
	Availability string
}

// FormFromTour fills a Form with the current values of t, for pre-filled edit pages.
func FormFromTour(t *Tour) Form {
	if t == nil {
		return Form{}
	}
	return Form{
		Destination:  t.Destination,
		Category:     t.Category,
		Duration:     strconv.Itoa(t.Duration),
		Service:      t.Service,
		Price:        strconv.FormatFloat(t.Price, 'f', -1, 64),
		Availability: t.Availability,
	}
}

// Parse validates the form and converts it into an Input.
// Required fields are checked before numbers are parsed. Text values are kept
// verbatim; only the presence check and number parsing ignore surrounding spaces.
func (f Form) Parse() (Input, error) {
	required := []struct{ name, value string }{
		{"destination", f.Destination},
		{"category", f.Category},
		{"service", f.Service},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Input{}, &ValidationError{Field: r.name, Problem: ProblemMissing}
		}
	}

	widths := []struct {
		name, value string
		limit       int
	}{
		{"destination", f.Destination, MaxDestinationLen},
		{"category", f.Category, MaxCategoryLen},
		{"service", f.Service, MaxServiceLen},
		{"availability", f.Availability, MaxAvailabilityLen},
	}
	for _, w := range widths {
		if utf8.RuneCountInString(w.value) > w.limit {
			return Input{}, &ValidationError{Field: w.name, Problem: ProblemTooLong, Limit: w.limit}
		}
	}

	// Durations are stored in a 32-bit INTEGER column.
	duration, err := strconv.ParseInt(strings.TrimSpace(f.Duration), 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return Input{}, &ValidationError{Field: "duration", Problem: ProblemOutOfRange}
	}
	if err != nil {
		return Input{}, &ValidationError{Field: "duration", Problem: ProblemNotNumber}
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return Input{}, &ValidationError{Field: "price", Problem: ProblemNotNumber}
	}

	return Input{
		Destination:  f.Destination,
		Category:     f.Category,
		Duration:     int(duration),
		Service:      f.Service,
		Price:        price,
		Availability: f.Availability,
	}, nil
}

package messagequeue

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/TourAgency/internal/domain/tour"
)

// subjectEvents maps each tour subject to the event type it carries.
var subjectEvents = map[string]tour.EventType{
	SubjectTourCreated:   tour.EventCreated,
	SubjectTourUpdated:   tour.EventUpdated,
	SubjectTourDeleted:   tour.EventDeleted,
	SubjectTourReordered: tour.EventReordered,
}

// SubjectFor returns the subject a tour event of the given type is published on.
func SubjectFor(t tour.EventType) (string, bool) {
	for subject, et := range subjectEvents {
		if et == t {
			return subject, true
		}
	}
	return "", false
}

// Validate checks whether data is valid JSON conforming to the tour event
// schema for the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	want, ok := subjectEvents[subject]
	if !ok {
		return nil
	}

	var ev tour.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if ev.Type != want {
		return fmt.Errorf("schema validation failed for %s: event type %q, want %q", subject, ev.Type, want)
	}
	if want != tour.EventReordered && ev.TourID <= 0 {
		return fmt.Errorf("schema validation failed for %s: tour_id is required", subject)
	}
	return nil
}

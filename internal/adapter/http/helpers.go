package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/logger"
)

const maxFormSize = 64 << 10 // 64 KB

// tourID parses the {id} route parameter. The route pattern only admits
// digits, so a failure here means the value overflows int64.
func tourID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// parseForm reads a size-limited urlencoded or multipart body.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	return r.ParseForm()
}

// tourForm collects the raw tour fields of a submitted form.
func tourForm(r *http.Request) tour.Form {
	return tour.Form{
		Destination:  r.PostFormValue("destination"),
		Category:     r.PostFormValue("category"),
		Duration:     r.PostFormValue("duration"),
		Service:      r.PostFormValue("service"),
		Price:        r.PostFormValue("price"),
		Availability: r.PostFormValue("availability"),
	}
}

// validationMessage turns a form validation error into the text shown above the form.
func validationMessage(err error) string {
	var ve *tour.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	switch {
	case ve.Problem == tour.ProblemMissing:
		return "Please enter all required fields!"
	case ve.Problem == tour.ProblemTooLong:
		return fmt.Sprintf("%s must be at most %d characters!", capitalize(ve.Field), ve.Limit)
	case ve.Problem == tour.ProblemOutOfRange:
		return "Duration is too large!"
	case ve.Field == "duration":
		return "Duration must be a whole number of days!"
	case ve.Field == "price":
		return "Price must be a number!"
	}
	return ve.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// redirectHome sends the browser back to the tour list after a write.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// internalError logs the actual error server-side and renders a generic page.
func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.From(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

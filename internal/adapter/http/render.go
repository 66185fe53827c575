package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names, one template file each.
const (
	pageIndex   = "index"
	pageAdd     = "add"
	pageUpdate  = "update"
	pageSearch  = "search"
	pageResults = "results"
	pageError   = "error"
)

// pageData is the single view model handed to every page.
type pageData struct {
	Title   string
	Flashes []flash
	Error   string

	Tours  []tour.Tour
	Tour   *tour.Tour
	Form   tour.Form
	Filter tour.Filter

	Categories     []string
	Services       []string
	Availabilities []string
}

type pages map[string]*template.Template

// parsePages compiles every page together with the shared layout.
func parsePages() (pages, error) {
	p := pages{}
	for _, name := range []string{pageIndex, pageAdd, pageUpdate, pageSearch, pageResults, pageError} {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p[name] = t
	}
	return p, nil
}

// render executes page into a buffer first so a template failure can still
// produce a clean 500. Pending flash messages are consumed here.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.Flashes = takeFlashes(w, r)
	data.Categories = tour.Categories
	data.Services = tour.Services
	data.Availabilities = tour.Availabilities

	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.From(r.Context()).Error("render page", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, pageError, pageData{Title: http.StatusText(status), Error: msg})
}

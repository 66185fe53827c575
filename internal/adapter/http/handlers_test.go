package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	cfhttp "github.com/Strob0t/TourAgency/internal/adapter/http"
	"github.com/Strob0t/TourAgency/internal/adapter/sqlite"
	"github.com/Strob0t/TourAgency/internal/config"
	"github.com/Strob0t/TourAgency/internal/domain"
	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/service"
)

// testServer wires the real service over a temp-dir SQLite store.
type testServer struct {
	router http.Handler
	store  *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, config.SQLite{Path: filepath.Join(t.TempDir(), "tours.sqlite3"), BusyTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := sqlite.NewStore(db)
	h, err := cfhttp.NewHandlers(service.NewTourService(store))
	if err != nil {
		t.Fatalf("handlers: %v", err)
	}

	r := chi.NewRouter()
	r.Use(cfhttp.SecurityHeaders)
	cfhttp.MountRoutes(r, h)
	return &testServer{router: r, store: store}
}

func (s *testServer) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// follow requests the redirect target carrying the flash cookie set by rec.
func (s *testServer) follow(t *testing.T, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	return s.do(http.MethodGet, rec.Header().Get("Location"), nil, rec.Result().Cookies()...)
}

func (s *testServer) tours(t *testing.T) []tour.Tour {
	t.Helper()
	all, err := s.store.ListTours(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return all
}

func romeValues() url.Values {
	return url.Values{
		"destination":  {"Rome Escape"},
		"category":     {"Cultural"},
		"duration":     {"5"},
		"service":      {"Regular"},
		"price":        {"499.99"},
		"availability": {"Available"},
	}
}

func seed(t *testing.T, s *testServer, destinations ...string) {
	t.Helper()
	for _, d := range destinations {
		v := romeValues()
		v.Set("destination", d)
		if rec := s.do(http.MethodPost, "/add", v); rec.Code != http.StatusSeeOther {
			t.Fatalf("seed %q: status %d", d, rec.Code)
		}
	}
}

func TestListEmpty(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No tours found.") {
		t.Error("expected empty-list message")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected security headers")
	}
}

func TestAddTourForm(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/add", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/add"`) {
		t.Fatalf("unexpected add form: %d", rec.Code)
	}
}

func TestAddTour(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/add", romeValues())
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	page := s.follow(t, rec)
	body := page.Body.String()
	for _, want := range []string{"Tour added successfully!", "Rome Escape", "499.99"} {
		if !strings.Contains(body, want) {
			t.Errorf("list page missing %q", want)
		}
	}

	want := []tour.Tour{{ID: 1, Destination: "Rome Escape", Category: "Cultural", Duration: 5, Service: "Regular", Price: 499.99, Availability: "Available"}}
	if diff := cmp.Diff(want, s.tours(t)); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestAddTourValidation(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		message string
	}{
		{"missing destination", "destination", "", "Please enter all required fields!"},
		{"missing category", "category", "", "Please enter all required fields!"},
		{"blank service", "service", "  ", "Please enter all required fields!"},
		{"duration not integer", "duration", "five", "Duration must be a whole number of days!"},
		{"price not number", "price", "cheap", "Price must be a number!"},
		{"destination too long", "destination", strings.Repeat("d", 101), "Destination must be at most 100 characters!"},
		{"duration overflows column", "duration", "4294967296", "Duration is too large!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			v := romeValues()
			v.Set(tt.field, tt.value)

			rec := s.do(http.MethodPost, "/add", v)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.message) {
				t.Errorf("expected message %q in body", tt.message)
			}
			if len(s.tours(t)) != 0 {
				t.Error("store changed by invalid add")
			}
		})
	}
}

func TestAddTourValidationKeepsSubmittedValues(t *testing.T) {
	s := newTestServer(t)
	v := romeValues()
	v.Set("service", "")

	rec := s.do(http.MethodPost, "/add", v)
	if !strings.Contains(rec.Body.String(), `value="Rome Escape"`) {
		t.Error("expected submitted destination to be re-rendered")
	}
}

func TestUpdateTourForm(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Rome Escape")

	rec := s.do(http.MethodGet, "/update/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="/update/1"`) || !strings.Contains(body, `value="499.99"`) {
		t.Error("expected form pre-filled with the stored tour")
	}
}

func TestUpdateTourFormNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/update/7", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Tour not found!") {
		t.Error("expected not-found message")
	}
}

func TestUpdateTourEndToEnd(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Rome Escape")

	v := romeValues()
	v.Set("price", "549.50")
	page := s.follow(t, s.do(http.MethodPost, "/update/1", v))

	if !strings.Contains(page.Body.String(), "Tour updated successfully!") {
		t.Error("expected update flash")
	}
	if !strings.Contains(page.Body.String(), "549.50") {
		t.Error("expected new price in list")
	}

	want := []tour.Tour{{ID: 1, Destination: "Rome Escape", Category: "Cultural", Duration: 5, Service: "Regular", Price: 549.50, Availability: "Available"}}
	if diff := cmp.Diff(want, s.tours(t)); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateTourNotFound(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Rome Escape")
	before := s.tours(t)

	page := s.follow(t, s.do(http.MethodPost, "/update/99", romeValues()))
	if !strings.Contains(page.Body.String(), "Tour not found!") {
		t.Error("expected not-found flash")
	}
	if diff := cmp.Diff(before, s.tours(t)); diff != "" {
		t.Errorf("store changed (-before +after):\n%s", diff)
	}
}

func TestUpdateTourValidation(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Rome Escape")
	before := s.tours(t)

	v := romeValues()
	v.Set("category", "")
	rec := s.do(http.MethodPost, "/update/1", v)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/update/1"`) {
		t.Error("expected the form to post back to the same tour")
	}
	if diff := cmp.Diff(before, s.tours(t)); diff != "" {
		t.Errorf("store changed (-before +after):\n%s", diff)
	}
}

func TestDeleteTour(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Paris Getaway", "London Tour")

	page := s.follow(t, s.do(http.MethodPost, "/delete/1", nil))
	if !strings.Contains(page.Body.String(), "Tour deleted successfully!") {
		t.Error("expected delete flash")
	}
	all := s.tours(t)
	if len(all) != 1 || all[0].Destination != "London Tour" {
		t.Fatalf("unexpected tours after delete: %+v", all)
	}

	page = s.follow(t, s.do(http.MethodPost, "/delete/1", nil))
	if !strings.Contains(page.Body.String(), "Tour not found!") {
		t.Error("expected not-found flash for second delete")
	}
	if len(s.tours(t)) != 1 {
		t.Error("store changed by failed delete")
	}
}

func TestDeleteRequiresPost(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Rome Escape")

	rec := s.do(http.MethodGet, "/delete/1", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if len(s.tours(t)) != 1 {
		t.Error("GET must not delete")
	}
}

func TestNonIntegerIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/update/abc"},
		{http.MethodPost, "/update/1.5"},
		{http.MethodPost, "/delete/-1"},
	} {
		if rec := s.do(tc.method, tc.path, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSearchToursForm(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/search_tours", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/search_tours"`) {
		t.Fatalf("unexpected search form: %d", rec.Code)
	}
}

func TestSearchTours(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "Paris Getaway", "London Tour")
	v := romeValues()
	v.Set("destination", "Alps Trek")
	v.Set("category", "Adventure")
	s.do(http.MethodPost, "/add", v)
	v.Set("destination", "Canyon Run")
	v.Set("category", "Adventure Plus")
	s.do(http.MethodPost, "/add", v)

	tests := []struct {
		name        string
		destination string
		category    string
		include     []string
		exclude     []string
	}{
		{"destination substring", "par", "", []string{"Paris Getaway"}, []string{"London Tour"}},
		{"category exact", "", "Adventure", []string{"Alps Trek"}, []string{"Canyon Run", "Paris Getaway"}},
		{"whitespace filters ignored", "  ", " ", []string{"Paris Getaway", "London Tour", "Alps Trek", "Canyon Run"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/search_tours", url.Values{"destination": {tt.destination}, "category": {tt.category}})
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			body := rec.Body.String()
			for _, d := range tt.include {
				if !strings.Contains(body, d) {
					t.Errorf("expected %q in results", d)
				}
			}
			for _, d := range tt.exclude {
				if strings.Contains(body, d) {
					t.Errorf("did not expect %q in results", d)
				}
			}
		})
	}
}

func TestReorderIDs(t *testing.T) {
	s := newTestServer(t)
	seed(t, s, "A", "B", "C", "D")
	s.do(http.MethodPost, "/delete/1", nil)
	s.do(http.MethodPost, "/delete/3", nil)

	page := s.follow(t, s.do(http.MethodPost, "/reorder_ids", nil))
	if !strings.Contains(page.Body.String(), "IDs have been reordered.") {
		t.Error("expected reorder flash")
	}

	all := s.tours(t)
	var got []string
	for _, tr := range all {
		got = append(got, tr.Destination)
	}
	if diff := cmp.Diff([]string{"B", "D"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if all[0].ID != 1 || all[1].ID != 2 {
		t.Errorf("expected ids 1,2, got %d,%d", all[0].ID, all[1].ID)
	}
}

func TestFlashShownOnce(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/add", romeValues())

	page := s.follow(t, rec)
	var cleared bool
	for _, c := range page.Result().Cookies() {
		if c.Name == "touragency_flash" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected flash cookie to be cleared after display")
	}

	if again := s.do(http.MethodGet, "/", nil); strings.Contains(again.Body.String(), "Tour added successfully!") {
		t.Error("flash shown without cookie")
	}
}

func TestMalformedFlashCookieIgnored(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/", nil, &http.Cookie{Name: "touragency_flash", Value: "!!not-base64"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOversizedFormRejected(t *testing.T) {
	s := newTestServer(t)
	v := romeValues()
	v.Set("destination", strings.Repeat("x", 128<<10))

	rec := s.do(http.MethodPost, "/add", v)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if len(s.tours(t)) != 0 {
		t.Error("oversized form must not be stored")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) || !strings.Contains(rec.Body.String(), `"events":"disabled"`) {
		t.Errorf("unexpected health body %s", rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Page not found.") {
		t.Fatalf("unexpected response %d", rec.Code)
	}
}

func TestStoreNotFoundIsDomainError(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.store.GetTour(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

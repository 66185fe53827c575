package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Strob0t/TourAgency/internal/adapter/postgres"
	"github.com/Strob0t/TourAgency/internal/config"
	"github.com/Strob0t/TourAgency/internal/domain"
	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/port/database"
)

var _ database.Store = (*postgres.Store)(nil)

// setupStore creates a pgxpool connection, runs migrations, empties the tour
// table and returns a ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	cfg := config.Defaults().Postgres
	cfg.DSN = dsn
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE tour RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return postgres.NewStore(pool)
}

func named(dest, category string) tour.Input {
	return tour.Input{
		Destination:  dest,
		Category:     category,
		Duration:     5,
		Service:      "Regular",
		Price:        499.99,
		Availability: "Available",
	}
}

func mustCreate(t *testing.T, s *postgres.Store, in tour.Input) *tour.Tour {
	t.Helper()
	created, err := s.CreateTour(context.Background(), in)
	if err != nil {
		t.Fatalf("create %q: %v", in.Destination, err)
	}
	return created
}

func ids(tours []tour.Tour) []int64 {
	out := make([]int64, 0, len(tours))
	for i := range tours {
		out = append(out, tours[i].ID)
	}
	return out
}

func TestCRUD(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	created := mustCreate(t, s, named("Rome Escape", "Cultural"))
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	got, err := s.GetTour(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(*created, *got); diff != "" {
		t.Errorf("stored tour mismatch (-created +got):\n%s", diff)
	}

	got.Price = 549.5
	if err := s.UpdateTour(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, _ := s.GetTour(ctx, created.ID)
	if updated.Price != 549.5 {
		t.Errorf("price = %v, want 549.5", updated.Price)
	}

	if err := s.DeleteTour(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTour(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ghost := named("Ghost", "Cultural").Tour()
	ghost.ID = 99
	if err := s.UpdateTour(ctx, &ghost); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTour(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	paris := mustCreate(t, s, named("Paris Getaway", "Relaxation"))
	alps := mustCreate(t, s, named("Alps Trek", "Adventure"))
	coast := mustCreate(t, s, named("Sparkling Coast", "Adventure Plus"))
	beach := mustCreate(t, s, named("100% Beach", "Relaxation"))

	tests := []struct {
		name   string
		filter tour.Filter
		want   []int64
	}{
		{"destination substring", tour.NewFilter("PAR", ""), []int64{paris.ID, coast.ID}},
		{"category exact", tour.NewFilter("", "Adventure"), []int64{alps.ID}},
		{"both filters", tour.NewFilter("par", "Relaxation"), []int64{paris.ID}},
		{"percent is literal", tour.NewFilter("0%", ""), []int64{beach.ID}},
		{"empty filter matches all", tour.Filter{}, []int64{paris.ID, alps.ID, coast.ID, beach.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchTours(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReorderTourIDs(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, d := range []string{"A", "B", "C", "D"} {
		mustCreate(t, s, named(d, "Cultural"))
	}
	for _, id := range []int64{1, 3} {
		if err := s.DeleteTour(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.ReorderTourIDs(ctx)
	if err != nil || n != 2 {
		t.Fatalf("reorder = %d, %v", n, err)
	}

	after, _ := s.ListTours(ctx)
	if diff := cmp.Diff([]int64{1, 2}, ids(after)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if after[0].Destination != "B" || after[1].Destination != "D" {
		t.Errorf("order not preserved: %+v", after)
	}

	next := mustCreate(t, s, named("E", "Cultural"))
	if next.ID != 3 {
		t.Errorf("expected next id 3 after reorder, got %d", next.ID)
	}
}

func TestReorderTourIDsEmptyResetsSequence(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, named("A", "Cultural"))
	if err := s.DeleteTour(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	n, err := s.ReorderTourIDs(ctx)
	if err != nil || n != 0 {
		t.Fatalf("reorder = %d, %v", n, err)
	}
	if next := mustCreate(t, s, named("B", "Cultural")); next.ID != 1 {
		t.Errorf("expected id 1 after reorder of empty table, got %d", next.ID)
	}
}

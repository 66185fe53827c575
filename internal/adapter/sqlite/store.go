package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/TourAgency/internal/adapter/sqlutil"
	"github.com/Strob0t/TourAgency/internal/domain"
	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/logger"
)

// Nullable legacy columns are read as zero values.
const tourColumns = `tour_id, COALESCE(destination, ''), COALESCE(category, ''), COALESCE(duration, 0),
	COALESCE(service, ''), COALESCE(price, 0), COALESCE(availability, '')`

// Store implements database.Store on a single SQLite file.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTour(row scannable) (tour.Tour, error) {
	var t tour.Tour
	err := row.Scan(&t.ID, &t.Destination, &t.Category, &t.Duration, &t.Service, &t.Price, &t.Availability)
	return t, err
}

func (s *Store) queryTours(ctx context.Context, op, query string, args ...any) ([]tour.Tour, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var tours []tour.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tours, nil
}

func (s *Store) ListTours(ctx context.Context) ([]tour.Tour, error) {
	return s.queryTours(ctx, "list tours", `SELECT `+tourColumns+` FROM tour ORDER BY tour_id`)
}

func (s *Store) GetTour(ctx context.Context, id int64) (*tour.Tour, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tourColumns+` FROM tour WHERE tour_id = ?`, id)
	t, err := scanTour(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get tour %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tour %d: %w", id, err)
	}
	return &t, nil
}

func (s *Store) CreateTour(ctx context.Context, in tour.Input) (*tour.Tour, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tour (destination, category, duration, service, price, availability)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Destination, in.Category, in.Duration, in.Service, in.Price, in.Availability)
	if err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create tour: last insert id: %w", err)
	}

	t := in.Tour()
	t.ID = id
	return &t, nil
}

func (s *Store) UpdateTour(ctx context.Context, t *tour.Tour) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tour SET destination = ?, category = ?, duration = ?, service = ?, price = ?, availability = ?
		 WHERE tour_id = ?`,
		t.Destination, t.Category, t.Duration, t.Service, t.Price, t.Availability, t.ID)
	return expectOne(res, err, "update tour %d", t.ID)
}

func (s *Store) DeleteTour(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tour WHERE tour_id = ?`, id)
	return expectOne(res, err, "delete tour %d", id)
}

func (s *Store) SearchTours(ctx context.Context, f tour.Filter) ([]tour.Tour, error) {
	var (
		where []string
		args  []any
	)
	if f.Destination != "" {
		where = append(where, `LOWER(destination) LIKE LOWER(?) ESCAPE '`+sqlutil.LikeEscape+`'`)
		args = append(args, sqlutil.ContainsPattern(f.Destination))
	}
	if f.Category != "" {
		where = append(where, `category = ?`)
		args = append(args, f.Category)
	}

	query := `SELECT ` + tourColumns + ` FROM tour`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY tour_id`

	return s.queryTours(ctx, "search tours", query, args...)
}

// ReorderTourIDs renumbers tours in two passes inside one transaction: first
// to the negated rank, then back to positive, so no intermediate value
// collides with an existing key.
func (s *Store) ReorderTourIDs(ctx context.Context) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("reorder tours: begin: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(ctx, tx)
		}
	}()

	ids, err := currentIDs(ctx, tx)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE tour SET tour_id = ? WHERE tour_id = ?`)
	if err != nil {
		return 0, fmt.Errorf("reorder tours: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, id := range ids {
		if _, err = stmt.ExecContext(ctx, -int64(i+1), id); err != nil {
			return 0, fmt.Errorf("reorder tours: renumber %d: %w", id, err)
		}
	}
	if _, err = tx.ExecContext(ctx, `UPDATE tour SET tour_id = -tour_id WHERE tour_id < 0`); err != nil {
		return 0, fmt.Errorf("reorder tours: flip sign: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("reorder tours: commit: %w", err)
	}
	return len(ids), nil
}

// rollback undoes tx after a failed step. A transaction that already ended,
// as after a failed Commit, is left alone.
func rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.From(ctx).Error("reorder tours: rollback failed", "error", err)
	}
}

func currentIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT tour_id FROM tour ORDER BY tour_id`)
	if err != nil {
		return nil, fmt.Errorf("reorder tours: select ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("reorder tours: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// expectOne verifies that an Exec affected exactly one row. If none was
// affected it returns domain.ErrNotFound with the given message.
func expectOne(res sql.Result, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", msg, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TourAgency/internal/adapter/sqlutil"
	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/logger"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) queryTours(ctx context.Context, op, query string, args ...any) ([]tour.Tour, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

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
	row := s.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tour WHERE tour_id = $1`, id)
	t, err := scanTour(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tour %d", id)
	}
	return &t, nil
}

func (s *Store) CreateTour(ctx context.Context, in tour.Input) (*tour.Tour, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tour (destination, category, duration, service, price, availability)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+tourColumns,
		in.Destination, in.Category, in.Duration, in.Service, in.Price, in.Availability)

	t, err := scanTour(row)
	if err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	return &t, nil
}

func (s *Store) UpdateTour(ctx context.Context, t *tour.Tour) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tour SET destination = $2, category = $3, duration = $4, service = $5, price = $6, availability = $7
		 WHERE tour_id = $1`,
		t.ID, t.Destination, t.Category, t.Duration, t.Service, t.Price, t.Availability)
	return execExpectOne(tag, err, "update tour %d", t.ID)
}

func (s *Store) DeleteTour(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tour WHERE tour_id = $1`, id)
	return execExpectOne(tag, err, "delete tour %d", id)
}

func (s *Store) SearchTours(ctx context.Context, f tour.Filter) ([]tour.Tour, error) {
	var (
		where []string
		args  []any
	)
	if f.Destination != "" {
		args = append(args, sqlutil.ContainsPattern(f.Destination))
		where = append(where, `destination ILIKE $`+strconv.Itoa(len(args))+` ESCAPE '`+sqlutil.LikeEscape+`'`)
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, `category = $`+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + tourColumns + ` FROM tour`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY tour_id`

	return s.queryTours(ctx, "search tours", query, args...)
}

// ReorderTourIDs renumbers tours in two passes inside one transaction (negated
// rank, then sign flip) and moves the identity sequence to N so the next
// insert receives N+1. The table lock holds off concurrent writers until commit.
func (s *Store) ReorderTourIDs(ctx context.Context) (n int, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("reorder tours: begin: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(ctx, tx)
		}
	}()

	if _, err = tx.Exec(ctx, `LOCK TABLE tour IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("reorder tours: lock: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT tour_id FROM tour ORDER BY tour_id`)
	if err != nil {
		return 0, fmt.Errorf("reorder tours: select ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("reorder tours: collect ids: %w", err)
	}

	batch := &pgx.Batch{}
	for i, id := range ids {
		batch.Queue(`UPDATE tour SET tour_id = $1 WHERE tour_id = $2`, -int64(i+1), id)
	}
	batch.Queue(`UPDATE tour SET tour_id = -tour_id WHERE tour_id < 0`)
	batch.Queue(`SELECT setval(pg_get_serial_sequence('tour', 'tour_id'), GREATEST($1::bigint, 1), $1::bigint > 0)`, int64(len(ids)))
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("reorder tours: renumber: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("reorder tours: commit: %w", err)
	}
	return len(ids), nil
}

// rollback undoes tx after a failed step, even when ctx is already done.
// A transaction that already ended, as after a failed Commit, is left alone.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.From(ctx).Error("reorder tours: rollback failed", "error", err)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

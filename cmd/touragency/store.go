package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/TourAgency/internal/adapter/postgres"
	"github.com/Strob0t/TourAgency/internal/adapter/sqlite"
	"github.com/Strob0t/TourAgency/internal/config"
	"github.com/Strob0t/TourAgency/internal/port/database"
)

// openStore connects the configured backend and creates the tour table if it
// is absent. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("postgres connected")
		return postgres.NewStore(pool), pool.Close, nil

	default:
		db, err := sqlite.Open(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := sqlite.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("sqlite opened", "path", cfg.SQLite.Path)
		return sqlite.NewStore(db), func() { _ = db.Close() }, nil
	}
}

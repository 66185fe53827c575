package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/TourAgency/internal/adapter/http"
	cfnats "github.com/Strob0t/TourAgency/internal/adapter/nats"
	cfotel "github.com/Strob0t/TourAgency/internal/adapter/otel"
	"github.com/Strob0t/TourAgency/internal/adapter/ristretto"
	"github.com/Strob0t/TourAgency/internal/config"
	"github.com/Strob0t/TourAgency/internal/logger"
	"github.com/Strob0t/TourAgency/internal/middleware"
	"github.com/Strob0t/TourAgency/internal/resilience"
	"github.com/Strob0t/TourAgency/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		err = runAdmin(ctx, os.Args[2:], os.Stdout)
	} else {
		err = run(ctx)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop() already called
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Enabled,
		"nats", cfg.NATS.URL != "",
		"log_level", cfg.Logging.Level,
	)

	// --- Infrastructure ---

	shutdownOtel, err := cfotel.Setup(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Services ---

	svc := service.NewTourService(store)

	if cfg.Cache.Enabled {
		c, err := ristretto.New(cfg.Cache.SizeMB << 20)
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		defer c.Close()
		svc.SetCache(c, cfg.Cache.TTL)
	}

	if cfg.NATS.URL != "" {
		queue, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		svc.SetEvents(queue, resilience.NewBreaker("nats", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	}

	metrics, err := cfotel.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	svc.SetMetrics(metrics)

	// --- HTTP ---

	handlers, err := cfhttp.NewHandlers(svc)
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	limiter := middleware.NewRateLimiter(cfg.Rate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(limiter.Handler)

	cfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		limiter.Run(gctx, time.Minute, 10*time.Minute)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

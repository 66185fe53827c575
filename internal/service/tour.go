// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	cfotel "github.com/Strob0t/TourAgency/internal/adapter/otel"
	"github.com/Strob0t/TourAgency/internal/domain/tour"
	"github.com/Strob0t/TourAgency/internal/logger"
	"github.com/Strob0t/TourAgency/internal/port/cache"
	"github.com/Strob0t/TourAgency/internal/port/database"
	"github.com/Strob0t/TourAgency/internal/port/messagequeue"
	"github.com/Strob0t/TourAgency/internal/resilience"
)

const publishTimeout = 5 * time.Second

// TourService handles tour business logic. The store is the source of truth;
// the cache and the event publisher are optional and never fail a request.
//
// The cache is only coherent while this service is the single writer of the
// store. Other processes must go through the HTTP surface (the admin CLI
// reorders via POST /reorder_ids when a server is listening).
type TourService struct {
	store    database.Store
	cache    cache.Cache
	cacheTTL time.Duration
	events   messagequeue.Publisher
	breaker  *resilience.Breaker
	metrics  *cfotel.Metrics
	now      func() time.Time

	publishTimeout time.Duration

	// cacheMu orders cache fills against invalidations. writes counts
	// invalidations so a fill based on a read that raced a write is skipped.
	cacheMu sync.Mutex
	writes  uint64
}

// NewTourService creates a TourService with no cache, no events and no metrics.
func NewTourService(store database.Store) *TourService {
	return &TourService{
		store:  store,
		events: messagequeue.Nop{},
		now:    time.Now,

		publishTimeout: publishTimeout,
	}
}

// SetCache enables read-through caching of single tours.
func (s *TourService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetEvents publishes change events through p, guarded by b when non-nil.
func (s *TourService) SetEvents(p messagequeue.Publisher, b *resilience.Breaker) {
	s.events = p
	s.breaker = b
}

// SetMetrics records operation counters on m.
func (s *TourService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// List returns every tour in ascending id order.
func (s *TourService) List(ctx context.Context) (_ []tour.Tour, err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "list", 0)
	defer func() { cfotel.EndSpan(span, err) }()

	return s.store.ListTours(ctx)
}

// Get returns the tour with the given id, consulting the cache first.
func (s *TourService) Get(ctx context.Context, id int64) (_ *tour.Tour, err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "get", id)
	defer func() { cfotel.EndSpan(span, err) }()

	if t, ok := s.cached(ctx, id); ok {
		return t, nil
	}

	gen := s.generation()
	t, err := s.store.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, t, gen)
	return t, nil
}

// Create validates the form and stores a new tour.
func (s *TourService) Create(ctx context.Context, f tour.Form) (_ *tour.Tour, err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "create", 0)
	defer func() { cfotel.EndSpan(span, err) }()

	in, err := f.Parse()
	if err != nil {
		return nil, err
	}

	gen := s.generation()
	t, err := s.store.CreateTour(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}

	logger.From(ctx).Info("tour created", "tour_id", t.ID, "destination", t.Destination)
	s.metrics.TourCreated(ctx)
	s.remember(ctx, t, gen)
	s.publish(ctx, tour.Event{Type: tour.EventCreated, TourID: t.ID, Tour: t})
	return t, nil
}

// Update replaces every mutable field of tour id with the validated form.
// An absent id is reported before the form is validated.
func (s *TourService) Update(ctx context.Context, id int64, f tour.Form) (_ *tour.Tour, err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "update", id)
	defer func() { cfotel.EndSpan(span, err) }()

	t, err := s.store.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}

	in, err := f.Parse()
	if err != nil {
		return nil, err
	}
	in.Apply(t)

	if err := s.store.UpdateTour(ctx, t); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("tour updated", "tour_id", t.ID)
	s.metrics.TourUpdated(ctx)
	s.forget(ctx, id)
	s.publish(ctx, tour.Event{Type: tour.EventUpdated, TourID: t.ID, Tour: t})
	return t, nil
}

// Delete removes the tour with the given id.
func (s *TourService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "delete", id)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := s.store.DeleteTour(ctx, id); err != nil {
		return err
	}

	logger.From(ctx).Info("tour deleted", "tour_id", id)
	s.metrics.TourDeleted(ctx)
	s.forget(ctx, id)
	s.publish(ctx, tour.Event{Type: tour.EventDeleted, TourID: id})
	return nil
}

// Search returns the tours matching the non-empty fields of f.
func (s *TourService) Search(ctx context.Context, f tour.Filter) (_ []tour.Tour, err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "search", 0)
	defer func() { cfotel.EndSpan(span, err) }()

	tours, err := s.store.SearchTours(ctx, f)
	if err != nil {
		return nil, err
	}
	s.metrics.SearchResults(ctx, len(tours))
	return tours, nil
}

// ReorderIDs renumbers all tours 1..N. Every previously issued id link becomes
// stale, so the whole cache is dropped.
func (s *TourService) ReorderIDs(ctx context.Context) (_ int, err error) {
	ctx, span := cfotel.StartTourSpan(ctx, "reorder", 0)
	defer func() { cfotel.EndSpan(span, err) }()

	n, err := s.store.ReorderTourIDs(ctx)
	if err != nil {
		return 0, err
	}

	logger.From(ctx).Warn("tour ids reordered", "count", n)
	s.metrics.ToursReordered(ctx, n)
	s.forgetAll(ctx)
	s.publish(ctx, tour.Event{Type: tour.EventReordered, Count: n})
	return n, nil
}

// Ping checks the store.
func (s *TourService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// EventsState reports "disabled" without a broker, "disconnected" while the
// broker connection is down, and the publish breaker position otherwise.
func (s *TourService) EventsState() string {
	if _, nop := s.events.(messagequeue.Nop); nop {
		return "disabled"
	}
	if c, ok := s.events.(messagequeue.ConnectionReporter); ok && !c.Connected() {
		return "disconnected"
	}
	if s.breaker == nil {
		return resilience.StateClosed.String()
	}
	return s.breaker.State().String()
}

// CacheStats returns the read cache counters when the cache reports them.
func (s *TourService) CacheStats() (cache.Stats, bool) {
	r, ok := s.cache.(cache.StatsReporter)
	if !ok {
		return cache.Stats{}, false
	}
	return r.Stats(), true
}

func cacheKey(id int64) string {
	return "tour:" + strconv.FormatInt(id, 10)
}

func (s *TourService) cached(ctx context.Context, id int64) (*tour.Tour, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		logger.From(ctx).Warn("tour cache get failed", "tour_id", id, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var t tour.Tour
	if err := json.Unmarshal(data, &t); err != nil {
		logger.From(ctx).Warn("tour cache entry corrupt", "tour_id", id, "error", err)
		s.forget(ctx, id)
		return nil, false
	}
	return &t, true
}

// generation returns the invalidation count to pass to remember.
func (s *TourService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.writes
}

// remember caches t unless an invalidation happened since gen was taken.
func (s *TourService) remember(ctx context.Context, t *tour.Tour, gen uint64) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.writes != gen {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(t.ID), data, s.cacheTTL); err != nil {
		logger.From(ctx).Warn("tour cache set failed", "tour_id", t.ID, "error", err)
	}
}

// forget drops the entry for id. Callers invoke it after the store write.
func (s *TourService) forget(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.writes++
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		logger.From(ctx).Warn("tour cache delete failed", "tour_id", id, "error", err)
	}
}

func (s *TourService) forgetAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.writes++
	if err := s.cache.Clear(ctx); err != nil {
		logger.From(ctx).Warn("tour cache clear failed", "error", err)
	}
}

// publish sends a change event after the store has committed. Failures are
// logged only.
func (s *TourService) publish(ctx context.Context, ev tour.Event) {
	subject, ok := messagequeue.SubjectFor(ev.Type)
	if !ok {
		return
	}
	ev.At = s.now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		logger.From(ctx).Error("marshal tour event", "type", ev.Type, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	send := func(ctx context.Context) error { return s.events.Publish(ctx, subject, data) }
	if s.breaker != nil {
		err = s.breaker.Execute(pubCtx, send)
	} else {
		err = send(pubCtx)
	}
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, resilience.ErrCircuitOpen) {
			level = slog.LevelDebug
		}
		logger.From(ctx).Log(ctx, level, "tour event not published", "subject", subject, "error", err)
	}
}

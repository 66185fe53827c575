package otel

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "touragency"

// Metrics holds the tour service instruments. A nil *Metrics records nothing.
type Metrics struct {
	created       metric.Int64Counter
	updated       metric.Int64Counter
	deleted       metric.Int64Counter
	reordered     metric.Int64Counter
	searchResults metric.Int64Histogram
}

// NewMetrics creates all metric instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.created, err = meter.Int64Counter("touragency.tours.created",
		metric.WithDescription("Number of tours created"))
	if err != nil {
		return nil, err
	}

	m.updated, err = meter.Int64Counter("touragency.tours.updated",
		metric.WithDescription("Number of tours updated"))
	if err != nil {
		return nil, err
	}

	m.deleted, err = meter.Int64Counter("touragency.tours.deleted",
		metric.WithDescription("Number of tours deleted"))
	if err != nil {
		return nil, err
	}

	m.reordered, err = meter.Int64Counter("touragency.tours.reordered",
		metric.WithDescription("Number of tours renumbered by id reorders"))
	if err != nil {
		return nil, err
	}

	m.searchResults, err = meter.Int64Histogram("touragency.tours.search.results",
		metric.WithDescription("Number of tours returned per search"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) TourCreated(ctx context.Context) {
	if m != nil {
		m.created.Add(ctx, 1)
	}
}

func (m *Metrics) TourUpdated(ctx context.Context) {
	if m != nil {
		m.updated.Add(ctx, 1)
	}
}

func (m *Metrics) TourDeleted(ctx context.Context) {
	if m != nil {
		m.deleted.Add(ctx, 1)
	}
}

func (m *Metrics) ToursReordered(ctx context.Context, n int) {
	if m != nil {
		m.reordered.Add(ctx, int64(n))
	}
}

func (m *Metrics) SearchResults(ctx context.Context, n int) {
	if m != nil {
		m.searchResults.Record(ctx, int64(n))
	}
}

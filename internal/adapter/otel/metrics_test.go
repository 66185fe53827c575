package otel

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	ctx := context.Background()
	m.TourCreated(ctx)
	m.TourCreated(ctx)
	m.TourDeleted(ctx)
	m.ToursReordered(ctx, 4)
	m.SearchResults(ctx, 3)

	got := collect(t, reader)

	counters := map[string]int64{
		"touragency.tours.created":   2,
		"touragency.tours.deleted":   1,
		"touragency.tours.reordered": 4,
	}
	for name, want := range counters {
		sum, ok := got[name].(metricdata.Sum[int64])
		if !ok || len(sum.DataPoints) != 1 {
			t.Fatalf("%s: unexpected data %#v", name, got[name])
		}
		if sum.DataPoints[0].Value != want {
			t.Errorf("%s = %d, want %d", name, sum.DataPoints[0].Value, want)
		}
	}

	hist, ok := got["touragency.tours.search.results"].(metricdata.Histogram[int64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Sum != 3 {
		t.Errorf("unexpected search histogram %#v", got["touragency.tours.search.results"])
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.TourCreated(ctx)
	m.TourUpdated(ctx)
	m.TourDeleted(ctx)
	m.ToursReordered(ctx, 1)
	m.SearchResults(ctx, 1)
}

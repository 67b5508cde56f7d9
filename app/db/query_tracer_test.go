package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/terramar-app/terramar-backend/app/observability/metrics"
)

func newCollectableTracer(t *testing.T) (*metricsQueryTracer, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	duration, err := meter.Float64Histogram("db_query_duration_seconds")
	require.NoError(t, err)
	errorsTotal, err := meter.Int64Counter("db_query_errors_total")
	require.NoError(t, err)

	tracer := &metricsQueryTracer{metrics: &metrics.AppMetrics{
		DbQueryDurationSeconds: duration,
		DbQueryErrorsTotal:     errorsTotal,
	}}
	return tracer, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestQueryTracer_RecordsDurationPerStatement(t *testing.T) {
	tracer, reader := newCollectableTracer(t)

	for range 3 {
		ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
		tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	}

	byName := collect(t, reader)
	hist, ok := byName["db_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok, "duration metric missing or not a histogram")
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(3), hist.DataPoints[0].Count)
}

func TestQueryTracer_CountsFailuresButNotNoRows(t *testing.T) {
	tracer, reader := newCollectableTracer(t)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("connection reset")})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: pgx.ErrNoRows})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	byName := collect(t, reader)
	sum, ok := byName["db_query_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok, "error metric missing or not a counter")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestQueryTracer_EndWithoutStartDoesNotPanic(t *testing.T) {
	tracer, reader := newCollectableTracer(t)

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	byName := collect(t, reader)
	hist, ok := byName["db_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	if ok && len(hist.DataPoints) > 0 {
		assert.Equal(t, uint64(0), hist.DataPoints[0].Count)
	}
}

package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/terramar-app/terramar-backend/app/observability/metrics"
)

// metricsQueryTracer records duration and error counts for every statement
// the pool runs. Attached at pool creation, so the repositories get query
// instrumentation without carrying the instruments themselves.
type metricsQueryTracer struct {
	metrics *metrics.AppMetrics
}

type queryStartKey struct{}

func (t *metricsQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (t *metricsQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		t.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	// ErrNoRows is an expected outcome for single-row lookups, not a failure.
	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		t.metrics.DbQueryErrorsTotal.Add(ctx, 1)
	}
}

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Overview aggregates the admin landing numbers.
type Overview struct {
	Events      int64     `json:"events"`
	Guides      int64     `json:"guides"`
	Partners    int64     `json:"partners"`
	Activities  int64     `json:"activities"`
	Services    int64     `json:"services"`
	Users       int64     `json:"users"`
	Chats       int64     `json:"chats"`
	Featured    int64     `json:"featured_items"`
	Sponsored   int64     `json:"sponsored_items"`
	GeneratedAt time.Time `json:"generated_at"`
}

var _ Repository = (*PostgresDashboardRepo)(nil)

type Repository interface {
	GetOverview(ctx context.Context) (*Overview, error)
}

type PostgresDashboardRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresDashboardRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresDashboardRepo {
	return &PostgresDashboardRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresDashboardRepo) GetOverview(ctx context.Context) (*Overview, error) {
	ctx, span := otel.Tracer("DashboardRepo").Start(ctx, "GetOverview", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
	))
	defer span.End()

	var ov Overview
	count := func(dst *int64, query string) func() error {
		return func() error {
			return r.pgpool.QueryRow(ctx, query).Scan(dst)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(count(&ov.Events, `SELECT count(*) FROM events`))
	g.Go(count(&ov.Guides, `SELECT count(*) FROM guides`))
	g.Go(count(&ov.Partners, `SELECT count(*) FROM partners`))
	g.Go(count(&ov.Activities, `SELECT count(*) FROM items WHERE item_type = 'activity'`))
	g.Go(count(&ov.Services, `SELECT count(*) FROM items WHERE item_type = 'service'`))
	g.Go(count(&ov.Users, `SELECT count(*) FROM users`))
	g.Go(count(&ov.Chats, `SELECT count(*) FROM chats`))
	g.Go(count(&ov.Featured, `SELECT count(*) FROM items WHERE featured`))
	g.Go(count(&ov.Sponsored, `SELECT count(*) FROM items WHERE sponsored`))
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to aggregate overview counts: %w", err)
	}

	ov.GeneratedAt = time.Now().UTC()
	return &ov, nil
}

package guides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/terramar-app/terramar-backend/internal/types"
)

var _ Repository = (*PostgresGuideRepo)(nil)

type Repository interface {
	GetGuide(ctx context.Context, id uuid.UUID) (*types.Guide, error)
	ListGuides(ctx context.Context, filter types.GuideFilter) ([]types.Guide, error)
	CreateGuide(ctx context.Context, params types.CreateGuideParams) (*types.Guide, error)
	UpdateGuide(ctx context.Context, id uuid.UUID, params types.UpdateGuideParams) (*types.Guide, error)
	DeleteGuide(ctx context.Context, id uuid.UUID) error
}

type PostgresGuideRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresGuideRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresGuideRepo {
	return &PostgresGuideRepo{logger: logger, pgpool: pgpool}
}

const guideColumns = `id, title, category, description, sections, contacts,
    practical_info, tags, featured, created_at, updated_at`

func scanGuide(row pgx.Row) (*types.Guide, error) {
	var g types.Guide
	err := row.Scan(&g.ID, &g.Title, &g.Category, &g.Description, &g.Sections,
		&g.Contacts, &g.PracticalInfo, &g.Tags, &g.Featured, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *PostgresGuideRepo) GetGuide(ctx context.Context, id uuid.UUID) (*types.Guide, error) {
	ctx, span := otel.Tracer("GuideRepo").Start(ctx, "GetGuide", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "guides"),
		attribute.String("guide.id", id.String()),
	))
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM guides WHERE id = $1`, guideColumns)
	guide, err := scanGuide(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query guide: %w", err)
	}
	return guide, nil
}

func (r *PostgresGuideRepo) ListGuides(ctx context.Context, filter types.GuideFilter) ([]types.Guide, error) {
	ctx, span := otel.Tracer("GuideRepo").Start(ctx, "ListGuides", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "guides"),
	))
	defer span.End()

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Title != "" {
		conditions = append(conditions, "(title ILIKE "+arg("%"+filter.Title+"%")+" OR description ILIKE "+arg("%"+filter.Title+"%")+")")
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(string(filter.Category)))
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "tags && "+arg(filter.Tags))
	}
	if filter.Featured {
		conditions = append(conditions, "featured = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM guides`, guideColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY featured DESC, title"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query guides: %w", err)
	}
	defer rows.Close()

	var guides []types.Guide
	for rows.Next() {
		guide, err := scanGuide(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan guide row: %w", err)
		}
		guides = append(guides, *guide)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading guide rows: %w", err)
	}
	return guides, nil
}

func (r *PostgresGuideRepo) CreateGuide(ctx context.Context, params types.CreateGuideParams) (*types.Guide, error) {
	ctx, span := otel.Tracer("GuideRepo").Start(ctx, "CreateGuide", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "guides"),
	))
	defer span.End()

	query := fmt.Sprintf(`
        INSERT INTO guides (title, category, description, sections, contacts,
            practical_info, tags, featured)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING %s`, guideColumns)

	guide, err := scanGuide(r.pgpool.QueryRow(ctx, query,
		params.Title, params.Category, params.Description, params.Sections,
		params.Contacts, params.PracticalInfo, params.Tags, params.Featured,
	))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert guide: %w", err)
	}
	return guide, nil
}

func (r *PostgresGuideRepo) UpdateGuide(ctx context.Context, id uuid.UUID, params types.UpdateGuideParams) (*types.Guide, error) {
	ctx, span := otel.Tracer("GuideRepo").Start(ctx, "UpdateGuide", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "guides"),
		attribute.String("guide.id", id.String()),
	))
	defer span.End()

	var sets []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Title != nil {
		sets = append(sets, "title = "+arg(*params.Title))
	}
	if params.Category != nil {
		sets = append(sets, "category = "+arg(string(*params.Category)))
	}
	if params.Description != nil {
		sets = append(sets, "description = "+arg(*params.Description))
	}
	if params.Sections != nil {
		sets = append(sets, "sections = "+arg(params.Sections))
	}
	if params.Contacts != nil {
		sets = append(sets, "contacts = "+arg(params.Contacts))
	}
	if params.PracticalInfo != nil {
		sets = append(sets, "practical_info = "+arg(params.PracticalInfo))
	}
	if params.Tags != nil {
		sets = append(sets, "tags = "+arg(params.Tags))
	}
	if params.Featured != nil {
		sets = append(sets, "featured = "+arg(*params.Featured))
	}
	if len(sets) == 0 {
		return r.GetGuide(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE guides SET %s WHERE id = %s RETURNING %s`,
		strings.Join(sets, ", "), arg(id), guideColumns)

	guide, err := scanGuide(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update guide: %w", err)
	}
	return guide, nil
}

func (r *PostgresGuideRepo) DeleteGuide(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("GuideRepo").Start(ctx, "DeleteGuide", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "guides"),
		attribute.String("guide.id", id.String()),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM guides WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete guide: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: guide %s", types.ErrNotFound, id)
	}
	return nil
}

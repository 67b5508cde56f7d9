package partners

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

var _ Repository = (*PostgresPartnerRepo)(nil)

type Repository interface {
	GetPartner(ctx context.Context, id uuid.UUID) (*types.Partner, error)
	ListPartners(ctx context.Context, filter types.PartnerFilter) ([]types.Partner, error)
	CreatePartner(ctx context.Context, params types.CreatePartnerParams) (*types.Partner, error)
	UpdatePartner(ctx context.Context, id uuid.UUID, params types.UpdatePartnerParams) (*types.Partner, error)
	DeletePartner(ctx context.Context, id uuid.UUID) error
}

type PostgresPartnerRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresPartnerRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresPartnerRepo {
	return &PostgresPartnerRepo{logger: logger, pgpool: pgpool}
}

const partnerColumns = `id, name, category, description, logo_url, website,
    contact_email, contact_phone, address, tags, sponsored, featured, created_at, updated_at`

func scanPartner(row pgx.Row) (*types.Partner, error) {
	var p types.Partner
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.LogoURL,
		&p.Website, &p.ContactEmail, &p.ContactPhone, &p.Address, &p.Tags,
		&p.Sponsored, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPartnerRepo) GetPartner(ctx context.Context, id uuid.UUID) (*types.Partner, error) {
	ctx, span := otel.Tracer("PartnerRepo").Start(ctx, "GetPartner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "partners"),
		attribute.String("partner.id", id.String()),
	))
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM partners WHERE id = $1`, partnerColumns)
	partner, err := scanPartner(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query partner: %w", err)
	}
	return partner, nil
}

func (r *PostgresPartnerRepo) ListPartners(ctx context.Context, filter types.PartnerFilter) ([]types.Partner, error) {
	ctx, span := otel.Tracer("PartnerRepo").Start(ctx, "ListPartners", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "partners"),
	))
	defer span.End()

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Name != "" {
		conditions = append(conditions, "(name ILIKE "+arg("%"+filter.Name+"%")+" OR description ILIKE "+arg("%"+filter.Name+"%")+")")
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(string(filter.Category)))
	}
	if filter.Location != "" {
		conditions = append(conditions, "address ILIKE "+arg("%"+filter.Location+"%"))
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "tags && "+arg(filter.Tags))
	}
	if filter.Featured {
		conditions = append(conditions, "featured = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM partners`, partnerColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY sponsored DESC, featured DESC, name"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query partners: %w", err)
	}
	defer rows.Close()

	var partners []types.Partner
	for rows.Next() {
		partner, err := scanPartner(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan partner row: %w", err)
		}
		partners = append(partners, *partner)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading partner rows: %w", err)
	}
	return partners, nil
}

func (r *PostgresPartnerRepo) CreatePartner(ctx context.Context, params types.CreatePartnerParams) (*types.Partner, error) {
	ctx, span := otel.Tracer("PartnerRepo").Start(ctx, "CreatePartner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "partners"),
	))
	defer span.End()

	query := fmt.Sprintf(`
        INSERT INTO partners (name, category, description, logo_url, website,
            contact_email, contact_phone, address, tags, sponsored, featured)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING %s`, partnerColumns)

	partner, err := scanPartner(r.pgpool.QueryRow(ctx, query,
		params.Name, params.Category, params.Description, params.LogoURL,
		params.Website, params.ContactEmail, params.ContactPhone, params.Address,
		params.Tags, params.Sponsored, params.Featured,
	))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert partner: %w", err)
	}
	return partner, nil
}

func (r *PostgresPartnerRepo) UpdatePartner(ctx context.Context, id uuid.UUID, params types.UpdatePartnerParams) (*types.Partner, error) {
	ctx, span := otel.Tracer("PartnerRepo").Start(ctx, "UpdatePartner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "partners"),
		attribute.String("partner.id", id.String()),
	))
	defer span.End()

	var sets []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Name != nil {
		sets = append(sets, "name = "+arg(*params.Name))
	}
	if params.Category != nil {
		sets = append(sets, "category = "+arg(string(*params.Category)))
	}
	if params.Description != nil {
		sets = append(sets, "description = "+arg(*params.Description))
	}
	if params.LogoURL != nil {
		sets = append(sets, "logo_url = "+arg(*params.LogoURL))
	}
	if params.Website != nil {
		sets = append(sets, "website = "+arg(*params.Website))
	}
	if params.ContactEmail != nil {
		sets = append(sets, "contact_email = "+arg(*params.ContactEmail))
	}
	if params.ContactPhone != nil {
		sets = append(sets, "contact_phone = "+arg(*params.ContactPhone))
	}
	if params.Address != nil {
		sets = append(sets, "address = "+arg(*params.Address))
	}
	if params.Tags != nil {
		sets = append(sets, "tags = "+arg(params.Tags))
	}
	if params.Sponsored != nil {
		sets = append(sets, "sponsored = "+arg(*params.Sponsored))
	}
	if params.Featured != nil {
		sets = append(sets, "featured = "+arg(*params.Featured))
	}
	if len(sets) == 0 {
		return r.GetPartner(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE partners SET %s WHERE id = %s RETURNING %s`,
		strings.Join(sets, ", "), arg(id), partnerColumns)

	partner, err := scanPartner(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}
	return partner, nil
}

func (r *PostgresPartnerRepo) DeletePartner(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("PartnerRepo").Start(ctx, "DeletePartner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "partners"),
		attribute.String("partner.id", id.String()),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM partners WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: partner %s", types.ErrNotFound, id)
	}
	return nil
}

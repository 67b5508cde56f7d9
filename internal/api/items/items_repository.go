package items

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

var _ Repository = (*PostgresItemRepo)(nil)

type Repository interface {
	GetItem(ctx context.Context, id uuid.UUID) (*types.Item, error)
	ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error)
	CreateItem(ctx context.Context, params types.CreateItemParams) (*types.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, params types.UpdateItemParams) (*types.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type PostgresItemRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresItemRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresItemRepo {
	return &PostgresItemRepo{logger: logger, pgpool: pgpool}
}

// The INNER JOIN is load-bearing: a base row without a detail row (or the
// reverse) is malformed data and must not surface in any result.
const itemColumns = `i.id, i.item_type, i.name, i.images, i.description, i.address,
    i.latitude, i.longitude, i.area, i.opening_hours, i.rating, i.tags,
    i.price_range, i.features, i.languages, i.payment_methods, i.accessibility,
    i.category, i.subcategory, i.sponsored, i.featured, i.created_at, i.updated_at,
    d.attributes`

const itemFrom = `FROM items i INNER JOIN item_details d ON d.item_id = i.id`

func scanItem(row pgx.Row) (*types.Item, error) {
	var it types.Item
	var rawAttrs []byte
	err := row.Scan(&it.ID, &it.Type, &it.Name, &it.Images, &it.Description,
		&it.Address, &it.Latitude, &it.Longitude, &it.Area, &it.OpeningHours,
		&it.Rating, &it.Tags, &it.PriceRange, &it.Features, &it.Languages,
		&it.PaymentMethods, &it.Accessibility, &it.Category, &it.Subcategory,
		&it.Sponsored, &it.Featured, &it.CreatedAt, &it.UpdatedAt, &rawAttrs)
	if err != nil {
		return nil, err
	}
	it.Attributes, err = types.UnmarshalAttributes(rawAttrs)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PostgresItemRepo) GetItem(ctx context.Context, id uuid.UUID) (*types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "GetItem", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
		attribute.String("item.id", id.String()),
	))
	defer span.End()

	query := fmt.Sprintf(`SELECT %s %s WHERE i.id = $1`, itemColumns, itemFrom)
	item, err := scanItem(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

func (r *PostgresItemRepo) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "ListItems", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
		attribute.String("item.type", string(filter.Type)),
	))
	defer span.End()

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Type != "" {
		conditions = append(conditions, "i.item_type = "+arg(string(filter.Type)))
	}
	if filter.Category != "" {
		conditions = append(conditions, "i.category = "+arg(string(filter.Category)))
	}
	if filter.Subcategory != "" {
		conditions = append(conditions, "i.subcategory = "+arg(filter.Subcategory))
	}
	if filter.Area != "" {
		conditions = append(conditions, "i.area ILIKE "+arg("%"+filter.Area+"%"))
	}
	if filter.Search != "" {
		p := "%" + filter.Search + "%"
		conditions = append(conditions,
			"(i.name ILIKE "+arg(p)+" OR i.description ILIKE "+arg(p)+" OR i.subcategory ILIKE "+arg(p)+")")
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "i.tags && "+arg(filter.Tags))
	}
	if filter.PriceRange != "" {
		conditions = append(conditions, "i.price_range = "+arg(filter.PriceRange))
	}
	if filter.Featured {
		conditions = append(conditions, "i.featured = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s %s`, itemColumns, itemFrom)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.sponsored DESC, i.featured DESC, i.rating DESC, i.name"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading item rows: %w", err)
	}
	return items, nil
}

func (r *PostgresItemRepo) CreateItem(ctx context.Context, params types.CreateItemParams) (*types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "CreateItem", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "items"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO items (item_type, name, images, description, address,
            latitude, longitude, area, opening_hours, tags, price_range,
            features, languages, payment_methods, accessibility, category,
            subcategory, sponsored, featured)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
            $15, $16, $17, $18, $19)
        RETURNING id`,
		params.Type, params.Name, params.Images, params.Description, params.Address,
		params.Latitude, params.Longitude, params.Area, params.OpeningHours,
		params.Tags, params.PriceRange, params.Features, params.Languages,
		params.PaymentMethods, params.Accessibility, params.Category,
		params.Subcategory, params.Sponsored, params.Featured,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}

	rawAttrs, err := types.MarshalAttributes(params.Attributes)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO item_details (item_id, category, attributes)
        VALUES ($1, $2, $3)`,
		id, params.Category, rawAttrs)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert item detail: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit item: %w", err)
	}
	return r.GetItem(ctx, id)
}

func (r *PostgresItemRepo) UpdateItem(ctx context.Context, id uuid.UUID, params types.UpdateItemParams) (*types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "UpdateItem", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "items"),
		attribute.String("item.id", id.String()),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var sets []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Name != nil {
		sets = append(sets, "name = "+arg(*params.Name))
	}
	if params.Images != nil {
		sets = append(sets, "images = "+arg(params.Images))
	}
	if params.Description != nil {
		sets = append(sets, "description = "+arg(*params.Description))
	}
	if params.Address != nil {
		sets = append(sets, "address = "+arg(*params.Address))
	}
	if params.Latitude != nil {
		sets = append(sets, "latitude = "+arg(*params.Latitude))
	}
	if params.Longitude != nil {
		sets = append(sets, "longitude = "+arg(*params.Longitude))
	}
	if params.Area != nil {
		sets = append(sets, "area = "+arg(*params.Area))
	}
	if params.OpeningHours != nil {
		sets = append(sets, "opening_hours = "+arg(*params.OpeningHours))
	}
	if params.Tags != nil {
		sets = append(sets, "tags = "+arg(params.Tags))
	}
	if params.PriceRange != nil {
		sets = append(sets, "price_range = "+arg(*params.PriceRange))
	}
	if params.Features != nil {
		sets = append(sets, "features = "+arg(params.Features))
	}
	if params.Languages != nil {
		sets = append(sets, "languages = "+arg(params.Languages))
	}
	if params.PaymentMethods != nil {
		sets = append(sets, "payment_methods = "+arg(params.PaymentMethods))
	}
	if params.Accessibility != nil {
		sets = append(sets, "accessibility = "+arg(params.Accessibility))
	}
	if params.Subcategory != nil {
		sets = append(sets, "subcategory = "+arg(*params.Subcategory))
	}
	if params.Sponsored != nil {
		sets = append(sets, "sponsored = "+arg(*params.Sponsored))
	}
	if params.Featured != nil {
		sets = append(sets, "featured = "+arg(*params.Featured))
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`UPDATE items SET %s WHERE id = %s`,
			strings.Join(sets, ", "), arg(id))
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, nil
		}
	}

	if params.Attributes != nil {
		rawAttrs, err := types.MarshalAttributes(*params.Attributes)
		if err != nil {
			return nil, err
		}
		tag, err := tx.Exec(ctx, `
            UPDATE item_details SET attributes = $1, updated_at = now()
            WHERE item_id = $2`, rawAttrs, id)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to update item detail: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, nil
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit item update: %w", err)
	}
	return r.GetItem(ctx, id)
}

func (r *PostgresItemRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "DeleteItem", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "items"),
		attribute.String("item.id", id.String()),
	))
	defer span.End()

	// item_details cascades on the FK.
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s", types.ErrNotFound, id)
	}
	return nil
}

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/terramar-app/terramar-backend/internal/types"
)

var _ Repository = (*PostgresEventRepo)(nil)

type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*types.Event, error)
	ListEvents(ctx context.Context, filter types.EventFilter) ([]types.Event, error)
	CreateEvent(ctx context.Context, params types.CreateEventParams) (*types.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, params types.UpdateEventParams) (*types.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// DB is the slice of pgxpool.Pool the repository queries through. Tests
// substitute a mock pool behind it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresEventRepo struct {
	logger *slog.Logger
	pgpool DB
}

func NewPostgresEventRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresEventRepo {
	return &PostgresEventRepo{logger: logger, pgpool: pgpool}
}

const eventColumns = `id, title, category, description, event_date, event_time,
    recurrence_pattern, weekday, location, price, rating, organizer_name,
    organizer_contact, capacity, attendance, tags, featured, created_at, updated_at`

func scanEvent(row pgx.Row) (*types.Event, error) {
	var e types.Event
	err := row.Scan(&e.ID, &e.Title, &e.Category, &e.Description, &e.Date, &e.Time,
		&e.RecurrencePattern, &e.Weekday, &e.Location, &e.Price, &e.Rating,
		&e.OrganizerName, &e.OrganizerContact, &e.Capacity, &e.Attendance,
		&e.Tags, &e.Featured, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresEventRepo) GetEvent(ctx context.Context, id uuid.UUID) (*types.Event, error) {
	ctx, span := otel.Tracer("EventRepo").Start(ctx, "GetEvent", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "events"),
		attribute.String("event.id", id.String()),
	))
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	event, err := scanEvent(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

func (r *PostgresEventRepo) ListEvents(ctx context.Context, filter types.EventFilter) ([]types.Event, error) {
	ctx, span := otel.Tracer("EventRepo").Start(ctx, "ListEvents", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "events"),
	))
	defer span.End()

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(string(filter.Category)))
	}
	if filter.Date != "" {
		conditions = append(conditions, "event_date = "+arg(filter.Date))
	}
	if len(filter.Dates) > 0 {
		conditions = append(conditions, "event_date = ANY("+arg(filter.Dates)+")")
	}
	if len(filter.Weekdays) > 0 {
		conditions = append(conditions, "recurrence_pattern IS NOT NULL AND weekday = ANY("+arg(filter.Weekdays)+")")
	}
	if filter.Search != "" {
		conditions = append(conditions, "(title ILIKE "+arg("%"+filter.Search+"%")+" OR description ILIKE "+arg("%"+filter.Search+"%")+")")
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "tags && "+arg(filter.Tags))
	}
	if filter.Featured {
		conditions = append(conditions, "featured = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM events`, eventColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY featured DESC, event_date NULLS LAST, weekday NULLS LAST, event_time"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading event rows: %w", err)
	}
	return events, nil
}

func (r *PostgresEventRepo) CreateEvent(ctx context.Context, params types.CreateEventParams) (*types.Event, error) {
	ctx, span := otel.Tracer("EventRepo").Start(ctx, "CreateEvent", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "events"),
	))
	defer span.End()

	query := fmt.Sprintf(`
        INSERT INTO events (title, category, description, event_date, event_time,
            recurrence_pattern, weekday, location, price, organizer_name,
            organizer_contact, capacity, tags, featured)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING %s`, eventColumns)

	event, err := scanEvent(r.pgpool.QueryRow(ctx, query,
		params.Title, params.Category, params.Description, params.Date, params.Time,
		params.RecurrencePattern, params.Weekday, params.Location, params.Price,
		params.OrganizerName, params.OrganizerContact, params.Capacity,
		params.Tags, params.Featured,
	))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

func (r *PostgresEventRepo) UpdateEvent(ctx context.Context, id uuid.UUID, params types.UpdateEventParams) (*types.Event, error) {
	ctx, span := otel.Tracer("EventRepo").Start(ctx, "UpdateEvent", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "events"),
		attribute.String("event.id", id.String()),
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
	if params.Date != nil {
		sets = append(sets, "event_date = "+arg(*params.Date))
	}
	if params.Time != nil {
		sets = append(sets, "event_time = "+arg(*params.Time))
	}
	if params.RecurrencePattern != nil {
		sets = append(sets, "recurrence_pattern = "+arg(*params.RecurrencePattern))
	}
	if params.Weekday != nil {
		sets = append(sets, "weekday = "+arg(*params.Weekday))
	}
	if params.Location != nil {
		sets = append(sets, "location = "+arg(*params.Location))
	}
	if params.Price != nil {
		sets = append(sets, "price = "+arg(*params.Price))
	}
	if params.OrganizerName != nil {
		sets = append(sets, "organizer_name = "+arg(*params.OrganizerName))
	}
	if params.OrganizerContact != nil {
		sets = append(sets, "organizer_contact = "+arg(*params.OrganizerContact))
	}
	if params.Capacity != nil {
		sets = append(sets, "capacity = "+arg(*params.Capacity))
	}
	if params.Attendance != nil {
		sets = append(sets, "attendance = "+arg(*params.Attendance))
	}
	if params.Tags != nil {
		sets = append(sets, "tags = "+arg(params.Tags))
	}
	if params.Featured != nil {
		sets = append(sets, "featured = "+arg(*params.Featured))
	}
	if len(sets) == 0 {
		return r.GetEvent(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = %s RETURNING %s`,
		strings.Join(sets, ", "), arg(id), eventColumns)

	event, err := scanEvent(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (r *PostgresEventRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("EventRepo").Start(ctx, "DeleteEvent", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "events"),
		attribute.String("event.id", id.String()),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s", types.ErrNotFound, id)
	}
	return nil
}

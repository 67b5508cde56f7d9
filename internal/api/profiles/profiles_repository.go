package profiles

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

var _ Repository = (*PostgresProfileRepo)(nil)

type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.Profile, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type PostgresProfileRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresProfileRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresProfileRepo {
	return &PostgresProfileRepo{logger: logger, pgpool: pgpool}
}

const profileQuery = `
    SELECT p.id, u.email, u.username, p.display_name, p.avatar_url, p.is_admin,
           p.preferences, p.created_at, p.updated_at
    FROM profiles p
    INNER JOIN users u ON u.id = p.id`

func scanProfile(row pgx.Row) (*types.Profile, error) {
	var p types.Profile
	err := row.Scan(&p.ID, &p.Email, &p.Username, &p.DisplayName, &p.AvatarURL,
		&p.IsAdmin, &p.Preferences, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	ctx, span := otel.Tracer("ProfileRepo").Start(ctx, "GetProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "profiles"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	profile, err := scanProfile(r.pgpool.QueryRow(ctx, profileQuery+` WHERE p.id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return profile, nil
}

func (r *PostgresProfileRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.Profile, error) {
	ctx, span := otel.Tracer("ProfileRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "profiles"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	var sets []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.DisplayName != nil {
		sets = append(sets, "display_name = "+arg(*params.DisplayName))
	}
	if params.AvatarURL != nil {
		sets = append(sets, "avatar_url = "+arg(*params.AvatarURL))
	}
	if params.Preferences != nil {
		sets = append(sets, "preferences = "+arg(params.Preferences))
	}
	if len(sets) == 0 {
		return r.GetProfile(ctx, userID)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = %s`,
		strings.Join(sets, ", "), arg(userID))
	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.GetProfile(ctx, userID)
}

func (r *PostgresProfileRepo) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("ProfileRepo").Start(ctx, "IsAdmin", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "profiles"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	var isAdmin bool
	err := r.pgpool.QueryRow(ctx, `SELECT is_admin FROM profiles WHERE id = $1`, userID).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		span.RecordError(err)
		return false, fmt.Errorf("failed to query admin flag: %w", err)
	}
	return isAdmin, nil
}

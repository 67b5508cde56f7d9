package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/terramar-app/terramar-backend/internal/types"
)

var _ Repository = (*PostgresAuthRepo)(nil)

type Repository interface {
	CreateUser(ctx context.Context, username, email, password string) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (*userRow, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*types.AuthUser, error)
	ValidateCredentials(ctx context.Context, email, password string) (*types.AuthUser, error)
	CreateSession(ctx context.Context, userID uuid.UUID, refreshToken, userAgent string, expiresAt time.Time) (uuid.UUID, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*types.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

type userRow struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, email, string(hashed),
	).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, fmt.Errorf("%w: email or username already registered", types.ErrConflict)
		}
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to insert user: %w", err)
	}

	// Every user gets a profile row sharing the auth id.
	_, err = tx.Exec(ctx, `INSERT INTO profiles (id) VALUES ($1)`, userID)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	return userID, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*userRow, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var u userRow
	err := r.pgpool.QueryRow(ctx, `
        SELECT u.id, u.username, u.email, u.password_hash, p.is_admin
        FROM users u
        JOIN profiles p ON p.id = u.id
        WHERE u.email = $1`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*types.AuthUser, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("user.id", id.String()),
	))
	defer span.End()

	var u types.AuthUser
	err := r.pgpool.QueryRow(ctx, `
        SELECT u.id, u.email, p.is_admin
        FROM users u
        JOIN profiles p ON p.id = u.id
        WHERE u.id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (r *PostgresAuthRepo) ValidateCredentials(ctx context.Context, email, password string) (*types.AuthUser, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown email or wrong password", types.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: unknown email or wrong password", types.ErrUnauthorized)
	}
	return &types.AuthUser{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
}

func (r *PostgresAuthRepo) CreateSession(ctx context.Context, userID uuid.UUID, refreshToken, userAgent string, expiresAt time.Time) (uuid.UUID, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "sessions"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	var sessionID uuid.UUID
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO sessions (user_id, refresh_token, user_agent, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`,
		userID, refreshToken, userAgent, expiresAt,
	).Scan(&sessionID)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sessionID, nil
}

func (r *PostgresAuthRepo) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*types.Session, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetSessionByRefreshToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	var s types.Session
	err := r.pgpool.QueryRow(ctx, `
        SELECT id, user_id, refresh_token, user_agent, expires_at, created_at
        FROM sessions
        WHERE refresh_token = $1`, refreshToken,
	).Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &s, nil
}

func (r *PostgresAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.pgpool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

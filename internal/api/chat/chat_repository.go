package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

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

var _ Repository = (*PostgresChatRepo)(nil)

type Repository interface {
	GetChat(ctx context.Context, id uuid.UUID) (*types.Chat, error)
	ListChats(ctx context.Context, userID uuid.UUID) ([]types.Chat, error)
	CreateChat(ctx context.Context, id, userID uuid.UUID, title string) (*types.Chat, error)
	DeleteChat(ctx context.Context, id uuid.UUID) error
	CreateMessage(ctx context.Context, chatID uuid.UUID, role types.MessageRole, content string) (*types.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]types.Message, error)
}

type PostgresChatRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresChatRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresChatRepo {
	return &PostgresChatRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresChatRepo) GetChat(ctx context.Context, id uuid.UUID) (*types.Chat, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "GetChat", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chats"),
		attribute.String("chat.id", id.String()),
	))
	defer span.End()

	var c types.Chat
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	return &c, nil
}

func (r *PostgresChatRepo) ListChats(ctx context.Context, userID uuid.UUID) ([]types.Chat, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "ListChats", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chats"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT id, user_id, title, created_at, updated_at
         FROM chats WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []types.Chat
	for rows.Next() {
		var c types.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading chat rows: %w", err)
	}
	return chats, nil
}

// CreateChat inserts a chat under the client-chosen id. A duplicate id maps
// to ErrConflict so the service can recover the race on first message.
func (r *PostgresChatRepo) CreateChat(ctx context.Context, id, userID uuid.UUID, title string) (*types.Chat, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "CreateChat", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "chats"),
		attribute.String("chat.id", id.String()),
	))
	defer span.End()

	var c types.Chat
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO chats (id, user_id, title)
        VALUES ($1, $2, $3)
        RETURNING id, user_id, title, created_at, updated_at`,
		id, userID, title,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: chat %s already exists", types.ErrConflict, id)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	return &c, nil
}

func (r *PostgresChatRepo) DeleteChat(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "DeleteChat", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "chats"),
		attribute.String("chat.id", id.String()),
	))
	defer span.End()

	// messages cascade on the FK.
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: chat %s", types.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresChatRepo) CreateMessage(ctx context.Context, chatID uuid.UUID, role types.MessageRole, content string) (*types.Message, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "CreateMessage", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "messages"),
		attribute.String("chat.id", chatID.String()),
		attribute.String("message.role", string(role)),
	))
	defer span.End()

	var m types.Message
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO messages (id, chat_id, role, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, chat_id, role, content, created_at`,
		uuid.New(), chatID, role, content,
	).Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &m, nil
}

func (r *PostgresChatRepo) ListMessages(ctx context.Context, chatID uuid.UUID) ([]types.Message, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "ListMessages", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "messages"),
		attribute.String("chat.id", chatID.String()),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT id, chat_id, role, content, created_at
        FROM messages WHERE chat_id = $1 ORDER BY created_at`, chatID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading message rows: %w", err)
	}
	return messages, nil
}

package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/terramar-app/terramar-backend/internal/api"
	"github.com/terramar-app/terramar-backend/internal/api/auth"
	"github.com/terramar-app/terramar-backend/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// isMobileClient detects the native app, which cannot consume a streamed
// body and gets buffered JSON instead.
func isMobileClient(r *http.Request) bool {
	ua := r.Header.Get("User-Agent")
	return strings.Contains(ua, "Expo") || strings.Contains(ua, "React Native")
}

func (h *HandlerImpl) PostChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "PostChat", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/chat"),
	))
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == uuid.Nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing chat id")
		return
	}

	params := CompleteParams{
		ChatID:   req.ID,
		UserID:   userID,
		ModelID:  req.ModelID,
		Messages: req.Messages,
	}

	if isMobileClient(r) {
		h.completeBuffered(w, r.WithContext(ctx), params)
		return
	}
	h.completeStreamed(w, r.WithContext(ctx), params)
}

// completeBuffered runs the full completion and returns one JSON body.
func (h *HandlerImpl) completeBuffered(w http.ResponseWriter, r *http.Request, params CompleteParams) {
	completion, err := h.service.Complete(r.Context(), params, nil)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	out := make([]types.OutgoingMessage, 0, len(completion.Messages))
	for _, m := range completion.Messages {
		out = append(out, types.OutgoingMessage{
			ID:      m.ID.String(),
			Role:    m.Role,
			Content: m.Content,
		})
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"messages": out})
}

// completeStreamed forwards model text deltas over SSE as they arrive, then
// closes with the persisted messages and the id annotation map. Request
// failures surface as real HTTP statuses while the status line is still
// writable; once streaming has begun, errors become in-stream events.
func (h *HandlerImpl) completeStreamed(w http.ResponseWriter, r *http.Request, params CompleteParams) {
	ctx := r.Context()

	if err := h.service.Preflight(ctx, params); err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	writeEvent := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to marshal stream event", slog.Any("error", err))
			return
		}
		fmt.Fprintf(w, "event: %s\n", event)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	completion, err := h.service.Complete(ctx, params, func(text string) {
		writeEvent("text", map[string]string{"delta": text})
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Chat completion failed", slog.Any("error", err))
		writeEvent("error", map[string]string{"error": publicErrorMessage(err)})
		return
	}

	for _, m := range completion.Messages {
		writeEvent("message", types.OutgoingMessage{
			ID:      m.ID.String(),
			Role:    m.Role,
			Content: m.Content,
		})
	}
	writeEvent("done", map[string]any{
		"chatId":      completion.Chat.ID.String(),
		"annotations": completion.Annotations,
	})
}

// publicErrorMessage keeps internal detail out of the stream.
func publicErrorMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return "Not found"
	case errors.Is(err, types.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, types.ErrValidation):
		return err.Error()
	default:
		return "Internal error"
	}
}

func (h *HandlerImpl) DeleteChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "DeleteChat")
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		api.ErrorResponse(w, r, http.StatusNotFound, "Missing chat id")
		return
	}
	chatID, err := uuid.Parse(idStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Invalid chat id")
		return
	}

	if err := h.service.DeleteChat(ctx, userID, chatID); err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Chat deleted"})
}

func (h *HandlerImpl) ListChats(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "ListChats")
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	chats, err := h.service.ListChats(ctx, userID)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *HandlerImpl) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "GetChatHistory")
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	chatID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Invalid chat id")
		return
	}

	messages, err := h.service.GetChatMessages(ctx, userID, chatID)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"messages": messages})
}

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/terramar-app/terramar-backend/app/observability/metrics"
	"github.com/terramar-app/terramar-backend/internal/api/tools"
	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

// ModelClient is the slice of the Gemini wrapper the chat service needs.
type ModelClient interface {
	GenerateText(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (iter.Seq2[*genai.GenerateContentResponse, error], error)
}

// Options carries the model configuration the service runs with.
type Options struct {
	Model        string
	TitleModel   string
	MaxToolSteps int
}

// CompleteParams is one resolved chat completion request.
type CompleteParams struct {
	ChatID   uuid.UUID
	UserID   uuid.UUID
	ModelID  string
	Messages []types.IncomingMessage
}

// Completion is the persisted outcome of a completion: the chat row, the
// response turns in order, and the client-id to server-id annotation map.
type Completion struct {
	Chat        *types.Chat
	Messages    []types.Message
	Annotations map[string]types.MessageAnnotation
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Preflight(ctx context.Context, params CompleteParams) error
	Complete(ctx context.Context, params CompleteParams, onDelta func(text string)) (*Completion, error)
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
	ListChats(ctx context.Context, userID uuid.UUID) ([]types.Chat, error)
	GetChatMessages(ctx context.Context, userID, chatID uuid.UUID) ([]types.Message, error)
}

type ServiceImpl struct {
	repo     Repository
	ai       ModelClient
	registry *tools.Registry
	cache    *cache.Layer
	logger   *slog.Logger
	metrics  *metrics.AppMetrics
	opts     Options
	models   map[string]string // allowed modelId -> provider model name
}

func NewChatService(repo Repository, ai ModelClient, registry *tools.Registry, cacheLayer *cache.Layer, logger *slog.Logger, opts Options) *ServiceImpl {
	if opts.MaxToolSteps <= 0 {
		opts.MaxToolSteps = 5
	}
	return &ServiceImpl{
		repo:     repo,
		ai:       ai,
		registry: registry,
		cache:    cacheLayer,
		logger:   logger,
		opts:     opts,
		models: map[string]string{
			"terramar-chat": opts.Model,
			opts.Model:      opts.Model,
		},
	}
}

// WithMetrics attaches the chat instruments. Optional so tests can skip the
// global meter provider.
func (s *ServiceImpl) WithMetrics(m *metrics.AppMetrics) *ServiceImpl {
	s.metrics = m
	return s
}

// responseTurn is a model response turn held in memory until the model
// signals completion; nothing is persisted mid-loop.
type responseTurn struct {
	role     types.MessageRole
	blocks   []types.ContentBlock
	clientID string
}

// Preflight runs the request checks that map to HTTP statuses, without side
// effects. Callers that commit to a streamed response body run it first, while
// the status line is still writable.
func (s *ServiceImpl) Preflight(ctx context.Context, params CompleteParams) error {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Preflight")
	defer span.End()

	if _, ok := s.models[params.ModelID]; !ok {
		return fmt.Errorf("%w: unknown model %q", types.ErrNotFound, params.ModelID)
	}
	if _, err := latestUserText(params.Messages); err != nil {
		return err
	}
	chat, err := s.repo.GetChat(ctx, params.ChatID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	// A missing chat is fine here; Complete creates it for the caller.
	if chat != nil && chat.UserID != params.UserID {
		return fmt.Errorf("%w: chat belongs to another user", types.ErrUnauthorized)
	}
	return nil
}

func (s *ServiceImpl) Complete(ctx context.Context, params CompleteParams, onDelta func(text string)) (*Completion, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("chat.id", params.ChatID.String()),
		attribute.String("chat.model_id", params.ModelID),
	))
	defer span.End()
	start := time.Now()

	// The allow-list gate runs before any database access.
	modelName, ok := s.models[params.ModelID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", types.ErrNotFound, params.ModelID)
	}

	userText, err := latestUserText(params.Messages)
	if err != nil {
		return nil, err
	}

	chat, err := s.resolveChat(ctx, params.ChatID, params.UserID, userText)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// The user turn is durable before the model is ever invoked.
	userContent, err := types.FormatMessageContent(types.RoleUser, userText, nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.CreateMessage(ctx, chat.ID, types.RoleUser, userContent); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.Invalidate(cacheTagMessages, cacheTagChats)

	history, err := s.repo.ListMessages(ctx, chat.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	contents, err := historyToContents(history)
	if err != nil {
		return nil, err
	}

	turns, steps, err := s.runModelLoop(ctx, modelName, contents, onDelta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Model loop failed")
		return nil, err
	}
	turns = stripIncompleteToolCalls(turns)

	completion := &Completion{
		Chat:        chat,
		Annotations: make(map[string]types.MessageAnnotation),
	}
	for _, t := range turns {
		content, err := types.FormatMessageContent(t.role, "", t.blocks)
		if err != nil {
			return nil, err
		}
		msg, err := s.repo.CreateMessage(ctx, chat.ID, t.role, content)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		completion.Messages = append(completion.Messages, *msg)
		if t.role == types.RoleAssistant {
			completion.Annotations[t.clientID] = types.MessageAnnotation{MessageIDFromServer: msg.ID.String()}
		}
	}
	s.cache.Invalidate(cacheTagMessages, cacheTagChats)

	if s.metrics != nil {
		s.metrics.ChatRequestsTotal.Add(ctx, 1)
		s.metrics.ChatDurationSeconds.Record(ctx, time.Since(start).Seconds())
		s.metrics.ModelToolStepsHistogram.Record(ctx, int64(steps))
	}
	span.SetStatus(codes.Ok, "Completion persisted")
	return completion, nil
}

// runModelLoop drives the tool-calling conversation until the model answers
// without requesting a tool, or the step cap is hit.
func (s *ServiceImpl) runModelLoop(ctx context.Context, modelName string, contents []*genai.Content, onDelta func(string)) ([]responseTurn, int, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.7),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Tools: []*genai.Tool{
			{FunctionDeclarations: s.registry.Declarations(tools.ChatEnabled...)},
		},
	}

	var turns []responseTurn
	steps := 0
	for {
		text, calls, err := s.modelTurn(ctx, modelName, contents, config, onDelta)
		if err != nil {
			return nil, steps, err
		}

		var blocks []types.ContentBlock
		var modelParts []*genai.Part
		if text != "" {
			blocks = append(blocks, types.ContentBlock{Type: types.BlockText, Text: text})
			modelParts = append(modelParts, &genai.Part{Text: text})
		}
		for _, call := range calls {
			if call.ID == "" {
				call.ID = uuid.NewString()
			}
			args, err := json.Marshal(call.Args)
			if err != nil {
				return nil, steps, fmt.Errorf("failed to marshal tool args: %w", err)
			}
			blocks = append(blocks, types.ContentBlock{
				Type:       types.BlockToolCall,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Args:       args,
			})
			modelParts = append(modelParts, &genai.Part{FunctionCall: call})
		}
		if len(blocks) > 0 {
			turns = append(turns, responseTurn{
				role:     types.RoleAssistant,
				blocks:   blocks,
				clientID: "msg-" + uuid.NewString(),
			})
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: modelParts})
		}

		if len(calls) == 0 {
			return turns, steps, nil
		}
		steps++
		if steps > s.opts.MaxToolSteps {
			s.logger.WarnContext(ctx, "Tool step cap reached",
				slog.Int("steps", steps), slog.Int("cap", s.opts.MaxToolSteps))
			return turns, steps, nil
		}

		var resultBlocks []types.ContentBlock
		var responseParts []*genai.Part
		for _, call := range calls {
			result, err := s.invokeTool(ctx, call)
			if err != nil {
				s.logger.WarnContext(ctx, "Tool invocation failed",
					slog.String("tool", call.Name), slog.Any("error", err))
				result = map[string]any{"error": err.Error()}
			}
			raw, err := json.Marshal(result)
			if err != nil {
				return nil, steps, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			resultBlocks = append(resultBlocks, types.ContentBlock{
				Type:       types.BlockToolResult,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Result:     raw,
			})
			responseParts = append(responseParts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: result,
			}})
		}
		turns = append(turns, responseTurn{role: types.RoleTool, blocks: resultBlocks})
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: responseParts})
	}
}

// modelTurn runs one model invocation and gathers its text and tool calls.
// With no delta consumer there is nothing to forward incrementally, so the
// buffered path takes a single response instead of a stream.
func (s *ServiceImpl) modelTurn(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig, onDelta func(string)) (string, []*genai.FunctionCall, error) {
	var text strings.Builder
	var calls []*genai.FunctionCall

	collect := func(resp *genai.GenerateContentResponse) {
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
				if onDelta != nil {
					onDelta(part.Text)
				}
			}
			if part.FunctionCall != nil {
				calls = append(calls, part.FunctionCall)
			}
		}
	}

	if onDelta == nil {
		resp, err := s.ai.GenerateContent(ctx, modelName, contents, config)
		if err != nil {
			return "", nil, fmt.Errorf("model call failed: %w", err)
		}
		collect(resp)
		return text.String(), calls, nil
	}

	stream, err := s.ai.GenerateContentStream(ctx, modelName, contents, config)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start model stream: %w", err)
	}
	for resp, streamErr := range stream {
		if streamErr != nil {
			return "", nil, fmt.Errorf("model stream failed: %w", streamErr)
		}
		collect(resp)
	}
	return text.String(), calls, nil
}

func (s *ServiceImpl) invokeTool(ctx context.Context, call *genai.FunctionCall) (map[string]any, error) {
	enabled := false
	for _, name := range tools.ChatEnabled {
		if name == call.Name {
			enabled = true
			break
		}
	}
	if !enabled {
		return nil, fmt.Errorf("tool %q is not enabled for chat", call.Name)
	}
	if s.metrics != nil {
		s.metrics.ToolInvocationsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("tool", call.Name)))
	}
	return s.registry.Invoke(ctx, call.Name, call.Args)
}

// resolveChat loads or creates the chat and enforces ownership. A duplicate
// insert from a concurrent first message is recovered by reusing the row,
// which then goes through the same ownership check.
func (s *ServiceImpl) resolveChat(ctx context.Context, chatID, userID uuid.UUID, userText string) (*types.Chat, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		chat, err = s.repo.CreateChat(ctx, chatID, userID, s.generateTitle(ctx, userText))
		if errors.Is(err, types.ErrConflict) {
			chat, err = s.repo.GetChat(ctx, chatID)
		}
		if err != nil {
			return nil, err
		}
		if chat == nil {
			return nil, fmt.Errorf("chat %s vanished during create", chatID)
		}
		s.cache.Invalidate(cacheTagChats)
	}
	if chat.UserID != userID {
		return nil, fmt.Errorf("%w: chat belongs to another user", types.ErrUnauthorized)
	}
	return chat, nil
}

func (s *ServiceImpl) generateTitle(ctx context.Context, userText string) string {
	title, err := s.ai.GenerateText(ctx, s.opts.TitleModel, titlePrompt+userText, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			s.logger.WarnContext(ctx, "Title generation failed, using fallback", slog.Any("error", err))
		}
		return fallbackTitle(userText)
	}
	return strings.TrimSpace(title)
}

func (s *ServiceImpl) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return fmt.Errorf("%w: chat %s", types.ErrNotFound, chatID)
	}
	if chat.UserID != userID {
		return fmt.Errorf("%w: chat belongs to another user", types.ErrUnauthorized)
	}
	if err := s.repo.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	s.cache.Invalidate(cacheTagChats, cacheTagMessages)
	return nil
}

func (s *ServiceImpl) ListChats(ctx context.Context, userID uuid.UUID) ([]types.Chat, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTagChats, cache.Key("chats.list", userID), cache.TTLChats,
		func(ctx context.Context) ([]types.Chat, error) {
			return s.repo.ListChats(ctx, userID)
		})
}

func (s *ServiceImpl) GetChatMessages(ctx context.Context, userID, chatID uuid.UUID) ([]types.Message, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("%w: chat %s", types.ErrNotFound, chatID)
	}
	if chat.UserID != userID {
		return nil, fmt.Errorf("%w: chat belongs to another user", types.ErrUnauthorized)
	}
	return cache.GetOrLoad(ctx, s.cache, cacheTagMessages, cache.Key("messages.list", chatID), cache.TTLMessages,
		func(ctx context.Context) ([]types.Message, error) {
			return s.repo.ListMessages(ctx, chatID)
		})
}

const (
	cacheTagChats    = "chats"
	cacheTagMessages = "messages"
)

// latestUserText walks the wire payload backwards for the newest user turn.
func latestUserText(messages []types.IncomingMessage) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != types.RoleUser {
			continue
		}
		text, err := messages[i].Text()
		if err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrValidation, err)
		}
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: user message is empty", types.ErrValidation)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: no user message in request", types.ErrValidation)
}

// historyToContents converts the persisted history into provider turns.
func historyToContents(history []types.Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range history {
		switch msg.Role {
		case types.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case types.RoleAssistant:
			blocks, err := types.ParseMessageContent(msg.Role, msg.Content)
			if err != nil {
				return nil, err
			}
			var parts []*genai.Part
			for _, b := range blocks {
				switch b.Type {
				case types.BlockText:
					parts = append(parts, &genai.Part{Text: b.Text})
				case types.BlockToolCall:
					var args map[string]any
					if len(b.Args) > 0 {
						if err := json.Unmarshal(b.Args, &args); err != nil {
							return nil, fmt.Errorf("failed to parse stored tool args: %w", err)
						}
					}
					parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
						ID:   b.ToolCallID,
						Name: b.ToolName,
						Args: args,
					}})
				}
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}
		case types.RoleTool:
			blocks, err := types.ParseMessageContent(msg.Role, msg.Content)
			if err != nil {
				return nil, err
			}
			var parts []*genai.Part
			for _, b := range blocks {
				if b.Type != types.BlockToolResult {
					continue
				}
				var result map[string]any
				if len(b.Result) > 0 {
					if err := json.Unmarshal(b.Result, &result); err != nil {
						return nil, fmt.Errorf("failed to parse stored tool result: %w", err)
					}
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       b.ToolCallID,
					Name:     b.ToolName,
					Response: result,
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
			}
		}
	}
	return contents, nil
}

// stripIncompleteToolCalls drops trailing assistant turns whose tool calls
// never received a result, so half-finished steps are not persisted.
func stripIncompleteToolCalls(turns []responseTurn) []responseTurn {
	for len(turns) > 0 {
		last := turns[len(turns)-1]
		if last.role != types.RoleAssistant {
			break
		}
		hasCall := false
		for _, b := range last.blocks {
			if b.Type == types.BlockToolCall {
				hasCall = true
				break
			}
		}
		if !hasCall {
			break
		}
		turns = turns[:len(turns)-1]
	}
	return turns
}

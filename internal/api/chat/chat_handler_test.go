package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/terramar-app/terramar-backend/internal/api/auth"
	"github.com/terramar-app/terramar-backend/internal/types"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Preflight(ctx context.Context, params CompleteParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockChatService) Complete(ctx context.Context, params CompleteParams, onDelta func(string)) (*Completion, error) {
	args := m.Called(ctx, params, onDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	completion := args.Get(0).(*Completion)
	if onDelta != nil {
		for _, msg := range completion.Messages {
			if msg.Role == types.RoleAssistant {
				onDelta("delta-for-" + msg.ID.String())
			}
		}
	}
	return completion, args.Error(1)
}

func (m *MockChatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}

func (m *MockChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]types.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Chat), args.Error(1)
}

func (m *MockChatService) GetChatMessages(ctx context.Context, userID, chatID uuid.UUID) ([]types.Message, error) {
	args := m.Called(ctx, userID, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Message), args.Error(1)
}

func authedRequest(t *testing.T, method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	return req.WithContext(ctx)
}

func chatBody(chatID uuid.UUID) string {
	return `{"id":"` + chatID.String() + `","modelId":"terramar-chat","messages":[{"id":"m1","role":"user","content":"\"hello\""}]}`
}

func sampleCompletion(chatID uuid.UUID) *Completion {
	msgID := uuid.New()
	return &Completion{
		Chat: &types.Chat{ID: chatID, Title: "Hello"},
		Messages: []types.Message{
			{ID: msgID, ChatID: chatID, Role: types.RoleAssistant, Content: `[{"type":"text","text":"Hi!"}]`},
		},
		Annotations: map[string]types.MessageAnnotation{
			"msg-client": {MessageIDFromServer: msgID.String()},
		},
	}
}

func TestPostChat_MobileClientGetsBufferedJSON(t *testing.T) {
	chatID := uuid.New()
	service := new(MockChatService)
	service.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(sampleCompletion(chatID), nil).Once()

	req := authedRequest(t, http.MethodPost, "/api/chat", chatBody(chatID), uuid.New())
	req.Header.Set("User-Agent", "Expo/52 CFNetwork Darwin")
	rec := httptest.NewRecorder()

	NewHandlerImpl(service, testLogger()).PostChat(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body struct {
		Messages []types.OutgoingMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, types.RoleAssistant, body.Messages[0].Role)
	service.AssertExpectations(t)
}

func TestPostChat_WebClientGetsSSE(t *testing.T) {
	chatID := uuid.New()
	service := new(MockChatService)
	service.On("Preflight", mock.Anything, mock.Anything).Return(nil).Once()
	service.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(sampleCompletion(chatID), nil).Once()

	req := authedRequest(t, http.MethodPost, "/api/chat", chatBody(chatID), uuid.New())
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()

	NewHandlerImpl(service, testLogger()).PostChat(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	stream := rec.Body.String()
	assert.Contains(t, stream, "event: text\n")
	assert.Contains(t, stream, "delta-for-")
	assert.Contains(t, stream, "event: message\n")
	assert.Contains(t, stream, "event: done\n")
	assert.Contains(t, stream, chatID.String())
}

func TestPostChat_StreamedErrorEvent(t *testing.T) {
	chatID := uuid.New()
	service := new(MockChatService)
	service.On("Preflight", mock.Anything, mock.Anything).Return(nil).Once()
	service.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("model stream failed: upstream reset")).Once()

	req := authedRequest(t, http.MethodPost, "/api/chat", chatBody(chatID), uuid.New())
	rec := httptest.NewRecorder()

	NewHandlerImpl(service, testLogger()).PostChat(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	stream := rec.Body.String()
	assert.Contains(t, stream, "event: error\n")
	assert.Contains(t, stream, "Internal error")
	assert.NotContains(t, stream, "upstream reset")
	assert.NotContains(t, stream, "event: done\n")
}

// Request failures known before the first byte of the stream must come back
// as real HTTP statuses, not a 200 with an error event in the body.
func TestPostChat_WebClientRequestErrorsAreHTTPStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown model", fmt.Errorf("%w: unknown model %q", types.ErrNotFound, "gpt-4"), http.StatusNotFound},
		{"no user message", fmt.Errorf("%w: no user message in request", types.ErrValidation), http.StatusBadRequest},
		{"foreign chat", fmt.Errorf("%w: chat belongs to another user", types.ErrUnauthorized), http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := new(MockChatService)
			service.On("Preflight", mock.Anything, mock.Anything).Return(tc.err).Once()

			req := authedRequest(t, http.MethodPost, "/api/chat", chatBody(uuid.New()), uuid.New())
			req.Header.Set("User-Agent", "Mozilla/5.0")
			rec := httptest.NewRecorder()

			NewHandlerImpl(service, testLogger()).PostChat(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.NotContains(t, rec.Body.String(), "event:")
			service.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPostChat_MissingChatID(t *testing.T) {
	service := new(MockChatService)
	body := `{"modelId":"terramar-chat","messages":[]}`

	req := authedRequest(t, http.MethodPost, "/api/chat", body, uuid.New())
	rec := httptest.NewRecorder()

	NewHandlerImpl(service, testLogger()).PostChat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostChat_Unauthenticated(t *testing.T) {
	service := new(MockChatService)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(chatBody(uuid.New())))
	rec := httptest.NewRecorder()

	NewHandlerImpl(service, testLogger()).PostChat(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteChatHandler(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()

	t.Run("missing id", func(t *testing.T) {
		service := new(MockChatService)
		req := authedRequest(t, http.MethodDelete, "/api/chat", "", userID)
		rec := httptest.NewRecorder()

		NewHandlerImpl(service, testLogger()).DeleteChat(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unparseable id", func(t *testing.T) {
		service := new(MockChatService)
		req := authedRequest(t, http.MethodDelete, "/api/chat?id=nope", "", userID)
		rec := httptest.NewRecorder()

		NewHandlerImpl(service, testLogger()).DeleteChat(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deletes", func(t *testing.T) {
		service := new(MockChatService)
		service.On("DeleteChat", mock.Anything, userID, chatID).Return(nil).Once()

		req := authedRequest(t, http.MethodDelete, "/api/chat?id="+chatID.String(), "", userID)
		rec := httptest.NewRecorder()

		NewHandlerImpl(service, testLogger()).DeleteChat(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})
}

func TestGetChatHistoryHandler(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()

	service := new(MockChatService)
	service.On("GetChatMessages", mock.Anything, userID, chatID).
		Return([]types.Message{{ID: uuid.New(), ChatID: chatID, Role: types.RoleUser, Content: "hi"}}, nil).Once()

	req := authedRequest(t, http.MethodGet, "/api/chat/history?id="+chatID.String(), "", userID)
	rec := httptest.NewRecorder()

	NewHandlerImpl(service, testLogger()).GetChatHistory(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []types.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	service.AssertExpectations(t)
}

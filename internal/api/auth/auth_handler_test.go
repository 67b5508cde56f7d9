package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/terramar-app/terramar-backend/internal/types"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req types.RegisterRequest) (uuid.UUID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req types.LoginRequest, userAgent string) (*types.TokenResponse, error) {
	args := m.Called(ctx, req, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newAuthTestHandler(service Service) *HandlerImpl {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandlerImpl(service, testJWTConfig(), logger)
}

func TestLogoutAll(t *testing.T) {
	userID := uuid.New()

	t.Run("revokes every session and clears the cookie", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("LogoutAll", mock.Anything, userID).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout-all", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID.String()))
		rec := httptest.NewRecorder()

		newAuthTestHandler(service).LogoutAll(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookie := rec.Header().Get("Set-Cookie")
		assert.Contains(t, cookie, testJWTConfig().SessionCookie+"=")
		assert.Contains(t, cookie, "Max-Age=0")
		service.AssertExpectations(t)
	})

	t.Run("no identity is unauthorized", func(t *testing.T) {
		service := new(MockAuthService)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout-all", nil)
		rec := httptest.NewRecorder()

		newAuthTestHandler(service).LogoutAll(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		service.AssertNotCalled(t, "LogoutAll", mock.Anything, mock.Anything)
	})
}

func TestLogout_ClearsCookieWithoutToken(t *testing.T) {
	service := new(MockAuthService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newAuthTestHandler(service).Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	service.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

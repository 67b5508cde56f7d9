package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/terramar-app/terramar-backend/config"
	"github.com/terramar-app/terramar-backend/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Register(ctx context.Context, req types.RegisterRequest) (uuid.UUID, error)
	Login(ctx context.Context, req types.LoginRequest, userAgent string) (*types.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}

type ServiceImpl struct {
	repo   Repository
	cfg    config.JWTConfig
	logger *slog.Logger
}

func NewAuthService(repo Repository, cfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cfg: cfg, logger: logger}
}

func (s *ServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (uuid.UUID, error) {
	userID, err := s.repo.CreateUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", userID.String()))
	return userID, nil
}

func (s *ServiceImpl) Login(ctx context.Context, req types.LoginRequest, userAgent string) (*types.TokenResponse, error) {
	user, err := s.repo.ValidateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()
	expiresAt := time.Now().Add(s.cfg.RefreshTokenTTL)
	if _, err := s.repo.CreateSession(ctx, user.ID, refreshToken, userAgent, expiresAt); err != nil {
		return nil, err
	}

	return &types.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *ServiceImpl) Refresh(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	session, err := s.repo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil || time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: invalid or expired refresh token", types.ErrUnauthorized)
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: session user no longer exists", types.ErrUnauthorized)
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}

	// Rotate the refresh token on every use.
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return nil, err
	}
	newRefresh := uuid.New().String()
	expiresAt := time.Now().Add(s.cfg.RefreshTokenTTL)
	if _, err := s.repo.CreateSession(ctx, session.UserID, newRefresh, session.UserAgent, expiresAt); err != nil {
		return nil, err
	}

	return &types.TokenResponse{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

func (s *ServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.DeleteSession(ctx, refreshToken)
}

func (s *ServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteUserSessions(ctx, userID)
}

func (s *ServiceImpl) issueAccessToken(user *types.AuthUser) (string, error) {
	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	now := time.Now()
	claims := types.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

package profiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const cacheTag = "profiles"

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.Profile, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type ServiceImpl struct {
	repo   Repository
	cache  *cache.Layer
	logger *slog.Logger
}

func NewProfileService(repo Repository, cacheLayer *cache.Layer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cacheLayer, logger: logger}
}

func (s *ServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTag, cache.Key("profiles.get", userID), cache.TTLProfiles,
		func(ctx context.Context) (*types.Profile, error) {
			return s.repo.GetProfile(ctx, userID)
		})
}

func (s *ServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.Profile, error) {
	profile, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile %s", types.ErrNotFound, userID)
	}
	s.cache.Invalidate(cacheTag)
	return profile, nil
}

// IsAdmin backs the dashboard admin gate. Cached with the profile TTL so a
// revoked flag takes effect within a minute.
func (s *ServiceImpl) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTag, cache.Key("profiles.isAdmin", userID), cache.TTLProfiles,
		func(ctx context.Context) (bool, error) {
			return s.repo.IsAdmin(ctx, userID)
		})
}

package guides

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const cacheTag = "guides"

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetGuide(ctx context.Context, id uuid.UUID) (*types.Guide, error)
	ListGuides(ctx context.Context, filter types.GuideFilter) ([]types.Guide, error)
	CreateGuide(ctx context.Context, params types.CreateGuideParams) (*types.Guide, error)
	UpdateGuide(ctx context.Context, id uuid.UUID, params types.UpdateGuideParams) (*types.Guide, error)
	DeleteGuide(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	repo   Repository
	cache  *cache.Layer
	logger *slog.Logger
}

func NewGuideService(repo Repository, cacheLayer *cache.Layer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cacheLayer, logger: logger}
}

func (s *ServiceImpl) GetGuide(ctx context.Context, id uuid.UUID) (*types.Guide, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTag, cache.Key("guides.get", id), cache.TTLGuides,
		func(ctx context.Context) (*types.Guide, error) {
			return s.repo.GetGuide(ctx, id)
		})
}

func (s *ServiceImpl) ListGuides(ctx context.Context, filter types.GuideFilter) ([]types.Guide, error) {
	key := cache.Key("guides.list", filter.Title, filter.Category, filter.Tags,
		filter.Featured, filter.Limit, filter.Offset)
	return cache.GetOrLoad(ctx, s.cache, cacheTag, key, cache.TTLGuides,
		func(ctx context.Context) ([]types.Guide, error) {
			return s.repo.ListGuides(ctx, filter)
		})
}

func (s *ServiceImpl) CreateGuide(ctx context.Context, params types.CreateGuideParams) (*types.Guide, error) {
	if !types.ValidGuideCategory(params.Category) {
		return nil, fmt.Errorf("%w: unknown guide category %q", types.ErrValidation, params.Category)
	}
	guide, err := s.repo.CreateGuide(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheTag)
	s.logger.InfoContext(ctx, "Guide created", slog.String("guide_id", guide.ID.String()))
	return guide, nil
}

func (s *ServiceImpl) UpdateGuide(ctx context.Context, id uuid.UUID, params types.UpdateGuideParams) (*types.Guide, error) {
	if params.Category != nil && !types.ValidGuideCategory(*params.Category) {
		return nil, fmt.Errorf("%w: unknown guide category %q", types.ErrValidation, *params.Category)
	}
	guide, err := s.repo.UpdateGuide(ctx, id, params)
	if err != nil {
		return nil, err
	}
	if guide == nil {
		return nil, fmt.Errorf("%w: guide %s", types.ErrNotFound, id)
	}
	s.cache.Invalidate(cacheTag)
	return guide, nil
}

func (s *ServiceImpl) DeleteGuide(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteGuide(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(cacheTag)
	return nil
}

package partners

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const cacheTag = "partners"

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetPartner(ctx context.Context, id uuid.UUID) (*types.Partner, error)
	ListPartners(ctx context.Context, filter types.PartnerFilter) ([]types.Partner, error)
	CreatePartner(ctx context.Context, params types.CreatePartnerParams) (*types.Partner, error)
	UpdatePartner(ctx context.Context, id uuid.UUID, params types.UpdatePartnerParams) (*types.Partner, error)
	DeletePartner(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	repo   Repository
	cache  *cache.Layer
	logger *slog.Logger
}

func NewPartnerService(repo Repository, cacheLayer *cache.Layer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cacheLayer, logger: logger}
}

func (s *ServiceImpl) GetPartner(ctx context.Context, id uuid.UUID) (*types.Partner, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTag, cache.Key("partners.get", id), cache.TTLPartners,
		func(ctx context.Context) (*types.Partner, error) {
			return s.repo.GetPartner(ctx, id)
		})
}

func (s *ServiceImpl) ListPartners(ctx context.Context, filter types.PartnerFilter) ([]types.Partner, error) {
	key := cache.Key("partners.list", filter.Name, filter.Category, filter.Location,
		filter.Tags, filter.Featured, filter.Limit, filter.Offset)
	return cache.GetOrLoad(ctx, s.cache, cacheTag, key, cache.TTLPartners,
		func(ctx context.Context) ([]types.Partner, error) {
			return s.repo.ListPartners(ctx, filter)
		})
}

func (s *ServiceImpl) CreatePartner(ctx context.Context, params types.CreatePartnerParams) (*types.Partner, error) {
	if !types.ValidPartnerCategory(params.Category) {
		return nil, fmt.Errorf("%w: unknown partner category %q", types.ErrValidation, params.Category)
	}
	partner, err := s.repo.CreatePartner(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheTag)
	s.logger.InfoContext(ctx, "Partner created", slog.String("partner_id", partner.ID.String()))
	return partner, nil
}

func (s *ServiceImpl) UpdatePartner(ctx context.Context, id uuid.UUID, params types.UpdatePartnerParams) (*types.Partner, error) {
	if params.Category != nil && !types.ValidPartnerCategory(*params.Category) {
		return nil, fmt.Errorf("%w: unknown partner category %q", types.ErrValidation, *params.Category)
	}
	partner, err := s.repo.UpdatePartner(ctx, id, params)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, fmt.Errorf("%w: partner %s", types.ErrNotFound, id)
	}
	s.cache.Invalidate(cacheTag)
	return partner, nil
}

func (s *ServiceImpl) DeletePartner(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePartner(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(cacheTag)
	return nil
}

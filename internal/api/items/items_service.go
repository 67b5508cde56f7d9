package items

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const cacheTag = "items"

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetItem(ctx context.Context, id uuid.UUID) (*types.Item, error)
	ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error)
	SearchItems(ctx context.Context, filter types.ItemFilter) (*types.ItemSearchResult, error)
	CreateItem(ctx context.Context, params types.CreateItemParams) (*types.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, params types.UpdateItemParams) (*types.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	repo   Repository
	cache  *cache.Layer
	logger *slog.Logger
}

func NewItemService(repo Repository, cacheLayer *cache.Layer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cacheLayer, logger: logger}
}

func (s *ServiceImpl) GetItem(ctx context.Context, id uuid.UUID) (*types.Item, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTag, cache.Key("items.get", id), cache.TTLItems,
		func(ctx context.Context) (*types.Item, error) {
			return s.repo.GetItem(ctx, id)
		})
}

func (s *ServiceImpl) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	key := cache.Key("items.list", filter.Type, filter.Category, filter.Subcategory,
		filter.Area, filter.Search, filter.Tags, filter.PriceRange, filter.Featured,
		filter.Limit, filter.Offset)
	return cache.GetOrLoad(ctx, s.cache, cacheTag, key, cache.TTLItems,
		func(ctx context.Context) ([]types.Item, error) {
			return s.repo.ListItems(ctx, filter)
		})
}

// SearchItems runs the activity and service halves of a search in parallel
// and returns them split out with a combined count.
func (s *ServiceImpl) SearchItems(ctx context.Context, filter types.ItemFilter) (*types.ItemSearchResult, error) {
	var activities, services []types.Item

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f := filter
		f.Type = types.ItemTypeActivity
		var err error
		activities, err = s.ListItems(gctx, f)
		return err
	})
	g.Go(func() error {
		f := filter
		f.Type = types.ItemTypeService
		var err error
		services, err = s.ListItems(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &types.ItemSearchResult{
		Activities: activities,
		Services:   services,
		Count:      len(activities) + len(services),
	}, nil
}

func (s *ServiceImpl) CreateItem(ctx context.Context, params types.CreateItemParams) (*types.Item, error) {
	if !types.ValidItemCategory(params.Category) {
		return nil, fmt.Errorf("%w: unknown item category %q", types.ErrValidation, params.Category)
	}
	if err := params.Attributes.Validate(params.Category); err != nil {
		return nil, err
	}
	item, err := s.repo.CreateItem(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheTag)
	s.logger.InfoContext(ctx, "Item created",
		slog.String("item_id", item.ID.String()),
		slog.String("item_type", string(item.Type)))
	return item, nil
}

func (s *ServiceImpl) UpdateItem(ctx context.Context, id uuid.UUID, params types.UpdateItemParams) (*types.Item, error) {
	if params.Attributes != nil {
		current, err := s.repo.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("%w: item %s", types.ErrNotFound, id)
		}
		if err := params.Attributes.Validate(current.Category); err != nil {
			return nil, err
		}
	}
	item, err := s.repo.UpdateItem(ctx, id, params)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", types.ErrNotFound, id)
	}
	s.cache.Invalidate(cacheTag)
	return item, nil
}

func (s *ServiceImpl) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(cacheTag)
	return nil
}

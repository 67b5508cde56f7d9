package items

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

// fakeItemRepo answers ListItems per requested type. SearchItems fans out
// concurrently, so recording is locked.
type fakeItemRepo struct {
	mu         sync.Mutex
	activities []types.Item
	services   []types.Item
	filters    []types.ItemFilter
	created    []types.CreateItemParams
	current    *types.Item
}

func (f *fakeItemRepo) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	switch filter.Type {
	case types.ItemTypeActivity:
		return f.activities, nil
	case types.ItemTypeService:
		return f.services, nil
	}
	return append(append([]types.Item{}, f.activities...), f.services...), nil
}

func (f *fakeItemRepo) GetItem(ctx context.Context, id uuid.UUID) (*types.Item, error) {
	return f.current, nil
}

func (f *fakeItemRepo) CreateItem(ctx context.Context, params types.CreateItemParams) (*types.Item, error) {
	f.created = append(f.created, params)
	return &types.Item{BaseItem: types.BaseItem{
		ID: uuid.New(), Type: params.Type, Name: params.Name, Category: params.Category,
	}}, nil
}

func (f *fakeItemRepo) UpdateItem(ctx context.Context, id uuid.UUID, params types.UpdateItemParams) (*types.Item, error) {
	return f.current, nil
}

func (f *fakeItemRepo) DeleteItem(ctx context.Context, id uuid.UUID) error { return nil }

func newTestService(repo Repository) *ServiceImpl {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewItemService(repo, cache.New(logger), logger)
}

func activity(name string) types.Item {
	return types.Item{BaseItem: types.BaseItem{
		ID: uuid.New(), Type: types.ItemTypeActivity, Name: name, Category: types.CategoryLeisure,
	}}
}

func service(name string) types.Item {
	return types.Item{BaseItem: types.BaseItem{
		ID: uuid.New(), Type: types.ItemTypeService, Name: name, Category: types.CategoryMobility,
	}}
}

func TestSearchItems_SplitsByType(t *testing.T) {
	repo := &fakeItemRepo{
		activities: []types.Item{activity("Kayak tour"), activity("Wine tasting")},
		services:   []types.Item{service("Car rental")},
	}

	result, err := newTestService(repo).SearchItems(context.Background(), types.ItemFilter{Search: "tour"})
	require.NoError(t, err)

	assert.Len(t, result.Activities, 2)
	assert.Len(t, result.Services, 1)
	assert.Equal(t, 3, result.Count)

	// Both halves ran with the caller's filter narrowed to one type each.
	require.Len(t, repo.filters, 2)
	seen := map[types.ItemType]bool{}
	for _, f := range repo.filters {
		seen[f.Type] = true
		assert.Equal(t, "tour", f.Search)
	}
	assert.True(t, seen[types.ItemTypeActivity])
	assert.True(t, seen[types.ItemTypeService])
}

func TestSearchItems_EmptyHalves(t *testing.T) {
	result, err := newTestService(&fakeItemRepo{}).SearchItems(context.Background(), types.ItemFilter{})
	require.NoError(t, err)

	assert.Empty(t, result.Activities)
	assert.Empty(t, result.Services)
	assert.Equal(t, 0, result.Count)
}

func TestCreateItem_RejectsUnknownCategory(t *testing.T) {
	repo := &fakeItemRepo{}
	_, err := newTestService(repo).CreateItem(context.Background(), types.CreateItemParams{
		Type:     types.ItemTypeActivity,
		Name:     "Ghost tour",
		Category: types.ItemCategory("paranormal"),
	})

	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Empty(t, repo.created)
}

func TestCreateItem_RejectsMismatchedAttributes(t *testing.T) {
	repo := &fakeItemRepo{}
	_, err := newTestService(repo).CreateItem(context.Background(), types.CreateItemParams{
		Type:     types.ItemTypeService,
		Name:     "Bike shop",
		Category: types.CategoryMobility,
		Attributes: types.ItemAttributes{
			Accommodation: &types.AccommodationAttributes{Stars: 4},
		},
	})

	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Empty(t, repo.created)
}

func TestCreateItem_Valid(t *testing.T) {
	repo := &fakeItemRepo{}
	item, err := newTestService(repo).CreateItem(context.Background(), types.CreateItemParams{
		Type:     types.ItemTypeService,
		Name:     "Bike shop",
		Category: types.CategoryMobility,
		Attributes: types.ItemAttributes{
			Mobility: &types.MobilityAttributes{RentalTypes: []string{"bike_rental"}},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Bike shop", item.Name)
	require.Len(t, repo.created, 1)
}

func TestListItems_Cached(t *testing.T) {
	repo := &fakeItemRepo{activities: []types.Item{activity("Kayak tour")}}
	svc := newTestService(repo)
	filter := types.ItemFilter{Type: types.ItemTypeActivity}

	_, err := svc.ListItems(context.Background(), filter)
	require.NoError(t, err)
	_, err = svc.ListItems(context.Background(), filter)
	require.NoError(t, err)

	assert.Len(t, repo.filters, 1, "second identical list comes from cache")
}

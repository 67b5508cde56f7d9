package tools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramar-app/terramar-backend/internal/types"
)

type fakeItemService struct {
	listed   []types.Item
	search   *types.ItemSearchResult
	filters  []types.ItemFilter
	searched []types.ItemFilter
}

func (f *fakeItemService) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	f.filters = append(f.filters, filter)
	return f.listed, nil
}

func (f *fakeItemService) SearchItems(ctx context.Context, filter types.ItemFilter) (*types.ItemSearchResult, error) {
	f.searched = append(f.searched, filter)
	if f.search != nil {
		return f.search, nil
	}
	return &types.ItemSearchResult{}, nil
}

func (f *fakeItemService) GetItem(ctx context.Context, id uuid.UUID) (*types.Item, error) {
	return nil, nil
}
func (f *fakeItemService) CreateItem(ctx context.Context, params types.CreateItemParams) (*types.Item, error) {
	return nil, nil
}
func (f *fakeItemService) UpdateItem(ctx context.Context, id uuid.UUID, params types.UpdateItemParams) (*types.Item, error) {
	return nil, nil
}
func (f *fakeItemService) DeleteItem(ctx context.Context, id uuid.UUID) error { return nil }

func TestExpandSynonyms(t *testing.T) {
	tests := []struct {
		search string
		want   []string
	}{
		{"je cherche une voiture", []string{"car_rental"}},
		{"where can I rent a car", []string{"car_rental"}},
		{"louer un vélo", []string{"bike_rental"}},
		{"bike tour", []string{"bike_rental"}},
		{"une trottinette pour la journée", []string{"scooter_rental"}},
		{"boat trip", []string{"boat_rental"}},
		{"plongée sous-marine", []string{"diving"}},
		{"good restaurant near the beach", []string{"restaurant", "beach"}},
		{"spa and massage", []string{"spa"}},
		{"museum tickets", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, expandSynonyms(tt.search))
		})
	}
}

func TestExpandSynonyms_Deduplicates(t *testing.T) {
	// "location" implies car_rental, which "voiture" implies too.
	tags := expandSynonyms("location de voiture")
	assert.ElementsMatch(t, []string{"car_rental", "bike_rental"}, tags)
}

func TestWantsCarRental(t *testing.T) {
	assert.True(t, wantsCarRental("anything", []string{"car_rental"}))
	assert.True(t, wantsCarRental("I want to rent wheels", nil))
	assert.True(t, wantsCarRental("louer quelque chose", nil))
	assert.False(t, wantsCarRental("best pizza in town", []string{"restaurant"}))
}

func TestItemsTool_TypedQueryUsesList(t *testing.T) {
	svc := &fakeItemService{
		listed: []types.Item{{BaseItem: types.BaseItem{
			ID: uuid.New(), Name: "Kayak tours", Type: types.ItemTypeActivity,
		}}},
	}
	tool := NewItemsTool(svc)

	result, err := tool.Run(context.Background(), map[string]any{
		"type": "activity", "search": "kayak",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result["count"])
	activities := result["activities"].([]types.Item)
	require.Len(t, activities, 1)
	assert.Empty(t, result["services"])
	assert.Empty(t, svc.searched)
	require.Len(t, svc.filters, 1)
	assert.Equal(t, types.ItemTypeActivity, svc.filters[0].Type)
}

func TestItemsTool_UntypedQueryUsesSearch(t *testing.T) {
	svc := &fakeItemService{
		search: &types.ItemSearchResult{
			Activities: []types.Item{{BaseItem: types.BaseItem{ID: uuid.New(), Name: "Snorkeling"}}},
			Services:   []types.Item{{BaseItem: types.BaseItem{ID: uuid.New(), Name: "Dive shop"}}},
			Count:      2,
		},
	}
	tool := NewItemsTool(svc)

	result, err := tool.Run(context.Background(), map[string]any{"search": "diving"})
	require.NoError(t, err)

	assert.Equal(t, 2, result["count"])
	require.Len(t, svc.searched, 1)
	assert.Equal(t, []string{"diving"}, svc.searched[0].Tags)
}

func TestItemsTool_CarRentalFallbackRequery(t *testing.T) {
	svc := &fakeItemService{}
	tool := NewItemsTool(svc)

	_, err := tool.Run(context.Background(), map[string]any{
		"search": "je veux louer une voiture pour demain",
	})
	require.NoError(t, err)

	// The first pass found nothing; the second goes straight at mobility
	// with the car_rental tag.
	require.Len(t, svc.searched, 2)
	retry := svc.searched[1]
	assert.Equal(t, types.CategoryMobility, retry.Category)
	assert.Equal(t, []string{"car_rental"}, retry.Tags)
	assert.Empty(t, retry.Search)
}

func TestItemsTool_NoFallbackWithoutRentalIntent(t *testing.T) {
	svc := &fakeItemService{}
	tool := NewItemsTool(svc)

	result, err := tool.Run(context.Background(), map[string]any{"search": "art gallery"})
	require.NoError(t, err)

	assert.Equal(t, 0, result["count"])
	assert.Len(t, svc.searched, 1)
}

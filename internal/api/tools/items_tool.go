package tools

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/terramar-app/terramar-backend/internal/api/items"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const itemsToolName = "searchActivitiesServices"

// synonymTags expands common French/English phrasing into the tags the
// directory actually uses, so "une voiture" finds the rental agencies.
var synonymTags = map[string][]string{
	"voiture":     {"car_rental"},
	"car":         {"car_rental"},
	"car rental":  {"car_rental"},
	"location":    {"car_rental", "bike_rental"},
	"velo":        {"bike_rental"},
	"vélo":        {"bike_rental"},
	"bike":        {"bike_rental"},
	"scooter":     {"scooter_rental"},
	"trottinette": {"scooter_rental"},
	"bateau":      {"boat_rental"},
	"boat":        {"boat_rental"},
	"plongee":     {"diving"},
	"plongée":     {"diving"},
	"diving":      {"diving"},
	"restaurant":  {"restaurant"},
	"plage":       {"beach"},
	"beach":       {"beach"},
	"spa":         {"spa"},
	"massage":     {"spa"},
}

// expandSynonyms returns extra tag filters implied by the free-text query.
func expandSynonyms(search string) []string {
	lowered := strings.ToLower(search)
	seen := make(map[string]struct{})
	var tags []string
	for term, mapped := range synonymTags {
		if strings.Contains(lowered, term) {
			for _, tag := range mapped {
				if _, dup := seen[tag]; !dup {
					seen[tag] = struct{}{}
					tags = append(tags, tag)
				}
			}
		}
	}
	return tags
}

func wantsCarRental(search string, tags []string) bool {
	for _, tag := range tags {
		if tag == "car_rental" {
			return true
		}
	}
	lowered := strings.ToLower(search)
	return strings.Contains(lowered, "rent") || strings.Contains(lowered, "louer")
}

// NewItemsTool declares and implements the activities/services search.
func NewItemsTool(service items.Service) *Tool {
	return &Tool{
		Declaration: &genai.FunctionDeclaration{
			Name: itemsToolName,
			Description: "Search the directory of activities and services: accommodation, " +
				"restaurants, leisure, shopping, culture, transport, vehicle rental, health, " +
				"wellness, real estate. French and English queries both work.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {
						Type:        genai.TypeString,
						Description: "activity, service, or both. Defaults to both.",
					},
					"category": {
						Type: genai.TypeString,
						Description: "Optional category: accommodation, food_drink, leisure, shopping, " +
							"culture, transport, mobility, health, wellness, real_estate.",
					},
					"subcategory": {Type: genai.TypeString, Description: "Optional subcategory filter."},
					"area":        {Type: genai.TypeString, Description: "Optional area or neighborhood name."},
					"search":      {Type: genai.TypeString, Description: "Free-text search over names and descriptions."},
					"price_range": {Type: genai.TypeString, Description: "Optional price bracket, e.g. $, $$, $$$."},
					"featured_only": {
						Type:        genai.TypeBoolean,
						Description: "Restrict to featured listings. Defaults to false.",
					},
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			search := stringArg(args, "search")
			filter := types.ItemFilter{
				Category:    types.ItemCategory(stringArg(args, "category")),
				Subcategory: stringArg(args, "subcategory"),
				Area:        stringArg(args, "area"),
				Search:      search,
				PriceRange:  stringArg(args, "price_range"),
				Featured:    boolArg(args, "featured_only"),
				Tags:        expandSynonyms(search),
			}
			if t := stringArg(args, "type"); t == string(types.ItemTypeActivity) || t == string(types.ItemTypeService) {
				filter.Type = types.ItemType(t)
			}

			result, err := searchWithFilter(ctx, service, filter)
			if err != nil {
				return nil, err
			}

			// Rental questions phrased loosely miss the tag filters; one
			// direct mobility re-query catches those before giving up.
			if result.Count == 0 && wantsCarRental(search, filter.Tags) {
				result, err = searchWithFilter(ctx, service, types.ItemFilter{
					Type:     filter.Type,
					Category: types.CategoryMobility,
					Tags:     []string{"car_rental"},
				})
				if err != nil {
					return nil, err
				}
			}

			return map[string]any{
				"activities": result.Activities,
				"services":   result.Services,
				"count":      result.Count,
			}, nil
		},
	}
}

func searchWithFilter(ctx context.Context, service items.Service, filter types.ItemFilter) (*types.ItemSearchResult, error) {
	if filter.Type != "" {
		listed, err := service.ListItems(ctx, filter)
		if err != nil {
			return nil, err
		}
		result := &types.ItemSearchResult{Count: len(listed)}
		if filter.Type == types.ItemTypeActivity {
			result.Activities = listed
		} else {
			result.Services = listed
		}
		return result, nil
	}
	return service.SearchItems(ctx, filter)
}

package tools

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/terramar-app/terramar-backend/internal/api/guides"
	"github.com/terramar-app/terramar-backend/internal/api/partners"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const (
	guidesToolName   = "searchGuides"
	partnersToolName = "searchPartners"
)

// NewGuidesTool declares and implements the guide lookup.
func NewGuidesTool(service guides.Service) *Tool {
	categoryList := make([]string, len(types.GuideCategories))
	for i, c := range types.GuideCategories {
		categoryList[i] = string(c)
	}

	return &Tool{
		Declaration: &genai.FunctionDeclaration{
			Name:        guidesToolName,
			Description: "Search the practical guides covering local topics: beaches, hiking, gastronomy, transport, and so on.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search": {Type: genai.TypeString, Description: "Free-text search over guide titles and descriptions."},
					"category": {
						Type:        genai.TypeString,
						Description: "Optional category. One of: " + strings.Join(categoryList, ", ") + ".",
					},
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			found, err := service.ListGuides(ctx, types.GuideFilter{
				Title:    stringArg(args, "search"),
				Category: types.GuideCategory(stringArg(args, "category")),
				Limit:    20,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"guides": found, "count": len(found)}, nil
		},
	}
}

// NewPartnersTool declares and implements the partner lookup.
func NewPartnersTool(service partners.Service) *Tool {
	return &Tool{
		Declaration: &genai.FunctionDeclaration{
			Name:        partnersToolName,
			Description: "Search the local partner directory: tourism offices, hotels, restaurants, shops, institutions.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search":   {Type: genai.TypeString, Description: "Free-text search over partner names and descriptions."},
					"category": {Type: genai.TypeString, Description: "Optional category, e.g. hospitality, gastronomy, commerce."},
					"location": {Type: genai.TypeString, Description: "Optional address substring."},
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			found, err := service.ListPartners(ctx, types.PartnerFilter{
				Name:     stringArg(args, "search"),
				Category: types.PartnerCategory(stringArg(args, "category")),
				Location: stringArg(args, "location"),
				Limit:    20,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"partners": found, "count": len(found)}, nil
		},
	}
}

package types

import (
	"time"

	"github.com/google/uuid"
)

// GuideCategory enumerates the tourism topics a guide can cover.
type GuideCategory string

const (
	GuideBeaches        GuideCategory = "beaches"
	GuideHiking         GuideCategory = "hiking"
	GuideCycling        GuideCategory = "cycling"
	GuideWaterSports    GuideCategory = "water_sports"
	GuideGastronomy     GuideCategory = "gastronomy"
	GuideWineries       GuideCategory = "wineries"
	GuideLocalMarkets   GuideCategory = "local_markets"
	GuideMuseums        GuideCategory = "museums"
	GuideHistory        GuideCategory = "history"
	GuideArchitecture   GuideCategory = "architecture"
	GuideFestivalsGuide GuideCategory = "festivals"
	GuideNightlife      GuideCategory = "nightlife"
	GuideShopping       GuideCategory = "shopping"
	GuideFamily         GuideCategory = "family"
	GuideWellnessGuide  GuideCategory = "wellness"
	GuideGolf           GuideCategory = "golf"
	GuideSailing        GuideCategory = "sailing"
	GuideFishing        GuideCategory = "fishing"
	GuideBirdwatching   GuideCategory = "birdwatching"
	GuideNatureParks    GuideCategory = "nature_parks"
	GuideVillages       GuideCategory = "villages"
	GuideDayTrips       GuideCategory = "day_trips"
	GuideTransportGuide GuideCategory = "transport"
	GuidePracticalities GuideCategory = "practicalities"
	GuideAccommodation  GuideCategory = "accommodation"
	GuideCamping        GuideCategory = "camping"
	GuidePetFriendly    GuideCategory = "pet_friendly"
	GuideAccessibility  GuideCategory = "accessibility"
)

// GuideCategories lists every valid guide category, used for input validation
// and for the tool schema exposed to the model.
var GuideCategories = []GuideCategory{
	GuideBeaches, GuideHiking, GuideCycling, GuideWaterSports, GuideGastronomy,
	GuideWineries, GuideLocalMarkets, GuideMuseums, GuideHistory, GuideArchitecture,
	GuideFestivalsGuide, GuideNightlife, GuideShopping, GuideFamily, GuideWellnessGuide,
	GuideGolf, GuideSailing, GuideFishing, GuideBirdwatching, GuideNatureParks,
	GuideVillages, GuideDayTrips, GuideTransportGuide, GuidePracticalities,
	GuideAccommodation, GuideCamping, GuidePetFriendly, GuideAccessibility,
}

// GuideSection is one ordered title/content block of a guide body.
type GuideSection struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

type GuideContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

type PracticalInfo struct {
	BestSeason     string `json:"best_season,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
	PriceIndicator string `json:"price_indicator,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type Guide struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Category      GuideCategory  `json:"category"`
	Description   string         `json:"description"`
	Sections      []GuideSection `json:"sections,omitempty"`
	Contacts      []GuideContact `json:"contacts,omitempty"`
	PracticalInfo *PracticalInfo `json:"practical_info,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Featured      bool           `json:"featured"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type GuideFilter struct {
	Title    string
	Category GuideCategory
	Tags     []string
	Featured bool
	Limit    int
	Offset   int
}

type CreateGuideParams struct {
	Title         string         `json:"title" validate:"required"`
	Category      GuideCategory  `json:"category" validate:"required"`
	Description   string         `json:"description"`
	Sections      []GuideSection `json:"sections"`
	Contacts      []GuideContact `json:"contacts"`
	PracticalInfo *PracticalInfo `json:"practical_info"`
	Tags          []string       `json:"tags"`
	Featured      bool           `json:"featured"`
}

type UpdateGuideParams struct {
	Title         *string        `json:"title,omitempty"`
	Category      *GuideCategory `json:"category,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Sections      []GuideSection `json:"sections,omitempty"`
	Contacts      []GuideContact `json:"contacts,omitempty"`
	PracticalInfo *PracticalInfo `json:"practical_info,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Featured      *bool          `json:"featured,omitempty"`
}

// ValidGuideCategory reports whether c is one of the fixed categories.
func ValidGuideCategory(c GuideCategory) bool {
	for _, v := range GuideCategories {
		if v == c {
			return true
		}
	}
	return false
}

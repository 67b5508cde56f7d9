package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemType discriminates the two directory listings sharing the base shape.
type ItemType string

const (
	ItemTypeActivity ItemType = "activity"
	ItemTypeService  ItemType = "service"
)

// ItemCategory keys the category-specific attribute shape of a detail row.
type ItemCategory string

const (
	CategoryAccommodation ItemCategory = "accommodation"
	CategoryFoodDrink     ItemCategory = "food_drink"
	CategoryLeisure       ItemCategory = "leisure"
	CategoryShopping      ItemCategory = "shopping"
	CategoryCulture       ItemCategory = "culture"
	CategoryTransport     ItemCategory = "transport"
	CategoryMobility      ItemCategory = "mobility"
	CategoryHealth        ItemCategory = "health"
	CategoryWellness      ItemCategory = "wellness"
	CategoryRealEstate    ItemCategory = "real_estate"
)

var ItemCategories = []ItemCategory{
	CategoryAccommodation, CategoryFoodDrink, CategoryLeisure, CategoryShopping,
	CategoryCulture, CategoryTransport, CategoryMobility, CategoryHealth,
	CategoryWellness, CategoryRealEstate,
}

func ValidItemCategory(c ItemCategory) bool {
	for _, v := range ItemCategories {
		if v == c {
			return true
		}
	}
	return false
}

// BaseItem holds the fields shared by every activity/service listing,
// prior to category-specific detail.
type BaseItem struct {
	ID             uuid.UUID    `json:"id"`
	Type           ItemType     `json:"type"`
	Name           string       `json:"name"`
	Images         []string     `json:"images,omitempty"`
	Description    string       `json:"description,omitempty"`
	Address        string       `json:"address,omitempty"`
	Latitude       float64      `json:"latitude,omitempty"`
	Longitude      float64      `json:"longitude,omitempty"`
	Area           string       `json:"area,omitempty"`
	OpeningHours   string       `json:"opening_hours,omitempty"`
	Rating         float64      `json:"rating,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	PriceRange     string       `json:"price_range,omitempty"`
	Features       []string     `json:"features,omitempty"`
	Languages      []string     `json:"languages,omitempty"`
	PaymentMethods []string     `json:"payment_methods,omitempty"`
	Accessibility  []string     `json:"accessibility,omitempty"`
	Category       ItemCategory `json:"category"`
	Subcategory    string       `json:"subcategory,omitempty"`
	Sponsored      bool         `json:"sponsored"`
	Featured       bool         `json:"featured"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Item is the joined aggregate exposed by the access layer: a base row and
// its category detail. Rows missing either half never leave the repository.
type Item struct {
	BaseItem
	Attributes ItemAttributes `json:"attributes"`
}

// ItemAttributes is a tagged union keyed by ItemCategory. Exactly one member
// is non-nil for a well-formed detail row.
type ItemAttributes struct {
	Accommodation *AccommodationAttributes `json:"accommodation,omitempty"`
	FoodDrink     *FoodDrinkAttributes     `json:"food_drink,omitempty"`
	Leisure       *LeisureAttributes       `json:"leisure,omitempty"`
	Shopping      *ShoppingAttributes      `json:"shopping,omitempty"`
	Culture       *CultureAttributes       `json:"culture,omitempty"`
	Transport     *TransportAttributes     `json:"transport,omitempty"`
	Mobility      *MobilityAttributes      `json:"mobility,omitempty"`
	Health        *HealthAttributes        `json:"health,omitempty"`
	Wellness      *WellnessAttributes      `json:"wellness,omitempty"`
	RealEstate    *RealEstateAttributes    `json:"real_estate,omitempty"`
}

type AccommodationAttributes struct {
	Stars        int      `json:"stars,omitempty"`
	RoomCount    int      `json:"room_count,omitempty"`
	CheckIn      string   `json:"check_in,omitempty"`
	CheckOut     string   `json:"check_out,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	PetsAllowed  bool     `json:"pets_allowed,omitempty"`
	PoolType     string   `json:"pool_type,omitempty"`
	BreakfastInc bool     `json:"breakfast_included,omitempty"`
}

type FoodDrinkAttributes struct {
	CuisineTypes   []string `json:"cuisine_types,omitempty"`
	DietaryOptions []string `json:"dietary_options,omitempty"`
	Seating        []string `json:"seating,omitempty"`
	Reservations   bool     `json:"reservations,omitempty"`
	Takeaway       bool     `json:"takeaway,omitempty"`
	Delivery       bool     `json:"delivery,omitempty"`
}

type LeisureAttributes struct {
	ActivityKinds []string `json:"activity_kinds,omitempty"`
	MinAge        int      `json:"min_age,omitempty"`
	MaxGroupSize  int      `json:"max_group_size,omitempty"`
	DurationMin   int      `json:"duration_minutes,omitempty"`
	Equipment     []string `json:"equipment,omitempty"`
	Seasonal      bool     `json:"seasonal,omitempty"`
}

type ShoppingAttributes struct {
	ProductKinds []string `json:"product_kinds,omitempty"`
	Brands       []string `json:"brands,omitempty"`
	LocalGoods   bool     `json:"local_goods,omitempty"`
}

type CultureAttributes struct {
	Collections  []string `json:"collections,omitempty"`
	GuidedTours  bool     `json:"guided_tours,omitempty"`
	AudioGuides  []string `json:"audio_guide_languages,omitempty"`
	TicketPrices string   `json:"ticket_prices,omitempty"`
}

type TransportAttributes struct {
	VehicleTypes []string `json:"vehicle_types,omitempty"`
	Routes       []string `json:"routes,omitempty"`
	Schedule     string   `json:"schedule,omitempty"`
	Booking      string   `json:"booking,omitempty"`
}

type MobilityAttributes struct {
	RentalTypes   []string `json:"rental_types,omitempty"` // car_rental, bike_rental, scooter_rental
	MinDriverAge  int      `json:"min_driver_age,omitempty"`
	LicenseNeeded bool     `json:"license_needed,omitempty"`
	Insurance     []string `json:"insurance_options,omitempty"`
	FleetSize     int      `json:"fleet_size,omitempty"`
}

type HealthAttributes struct {
	Specialties  []string `json:"specialties,omitempty"`
	Emergency    bool     `json:"emergency,omitempty"`
	Appointments string   `json:"appointments,omitempty"`
	InsuranceOK  []string `json:"insurance_accepted,omitempty"`
}

type WellnessAttributes struct {
	Treatments  []string `json:"treatments,omitempty"`
	Facilities  []string `json:"facilities,omitempty"`
	Reservation bool     `json:"reservation_required,omitempty"`
}

type RealEstateAttributes struct {
	PropertyKinds []string `json:"property_kinds,omitempty"`
	Transactions  []string `json:"transactions,omitempty"` // sale, long_term_rent, holiday_rent
	AreasServed   []string `json:"areas_served,omitempty"`
}

// Validate checks that the populated union member matches the category.
func (a ItemAttributes) Validate(category ItemCategory) error {
	set := map[ItemCategory]bool{
		CategoryAccommodation: a.Accommodation != nil,
		CategoryFoodDrink:     a.FoodDrink != nil,
		CategoryLeisure:       a.Leisure != nil,
		CategoryShopping:      a.Shopping != nil,
		CategoryCulture:       a.Culture != nil,
		CategoryTransport:     a.Transport != nil,
		CategoryMobility:      a.Mobility != nil,
		CategoryHealth:        a.Health != nil,
		CategoryWellness:      a.Wellness != nil,
		CategoryRealEstate:    a.RealEstate != nil,
	}
	for cat, populated := range set {
		if populated && cat != category {
			return fmt.Errorf("%w: attributes set for %q on a %q item", ErrValidation, cat, category)
		}
	}
	return nil
}

// MarshalAttributes serializes the union for the JSONB detail column.
func MarshalAttributes(a ItemAttributes) ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalAttributes parses the JSONB detail column.
func UnmarshalAttributes(raw []byte) (ItemAttributes, error) {
	var a ItemAttributes
	if len(raw) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("failed to parse item attributes: %w", err)
	}
	return a, nil
}

// ItemFilter narrows item searches. Type selects activities, services or both.
type ItemFilter struct {
	Type        ItemType // empty means both
	Category    ItemCategory
	Subcategory string
	Area        string
	Search      string
	Tags        []string
	PriceRange  string
	Featured    bool
	Limit       int
	Offset      int
}

// ItemSearchResult is the tool-facing aggregate: the two listing kinds split
// out plus a combined count.
type ItemSearchResult struct {
	Activities []Item `json:"activities"`
	Services   []Item `json:"services"`
	Count      int    `json:"count"`
}

type CreateItemParams struct {
	Type           ItemType       `json:"type" validate:"required,oneof=activity service"`
	Name           string         `json:"name" validate:"required"`
	Images         []string       `json:"images"`
	Description    string         `json:"description"`
	Address        string         `json:"address"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Area           string         `json:"area"`
	OpeningHours   string         `json:"opening_hours"`
	Tags           []string       `json:"tags"`
	PriceRange     string         `json:"price_range"`
	Features       []string       `json:"features"`
	Languages      []string       `json:"languages"`
	PaymentMethods []string       `json:"payment_methods"`
	Accessibility  []string       `json:"accessibility"`
	Category       ItemCategory   `json:"category" validate:"required"`
	Subcategory    string         `json:"subcategory"`
	Sponsored      bool           `json:"sponsored"`
	Featured       bool           `json:"featured"`
	Attributes     ItemAttributes `json:"attributes"`
}

type UpdateItemParams struct {
	Name           *string         `json:"name,omitempty"`
	Images         []string        `json:"images,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Address        *string         `json:"address,omitempty"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	Area           *string         `json:"area,omitempty"`
	OpeningHours   *string         `json:"opening_hours,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	PriceRange     *string         `json:"price_range,omitempty"`
	Features       []string        `json:"features,omitempty"`
	Languages      []string        `json:"languages,omitempty"`
	PaymentMethods []string        `json:"payment_methods,omitempty"`
	Accessibility  []string        `json:"accessibility,omitempty"`
	Subcategory    *string         `json:"subcategory,omitempty"`
	Sponsored      *bool           `json:"sponsored,omitempty"`
	Featured       *bool           `json:"featured,omitempty"`
	Attributes     *ItemAttributes `json:"attributes,omitempty"`
}

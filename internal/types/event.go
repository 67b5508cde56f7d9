package types

import (
	"time"

	"github.com/google/uuid"
)

type EventCategory string

const (
	EventCategoryConcert   EventCategory = "concert"
	EventCategoryMarket    EventCategory = "market"
	EventCategorySport     EventCategory = "sport"
	EventCategoryCulture   EventCategory = "culture"
	EventCategoryFestival  EventCategory = "festival"
	EventCategoryWorkshop  EventCategory = "workshop"
	EventCategoryNightlife EventCategory = "nightlife"
	EventCategoryFamily    EventCategory = "family"
	EventCategoryNature    EventCategory = "nature"
	EventCategoryOther     EventCategory = "other"
)

// Event is either a specific-date event (Date set, no recurrence) or a
// recurring event (RecurrencePattern + Weekday set, no Date). Weekday is
// ISO numbering, Monday=1 through Sunday=7.
type Event struct {
	ID                uuid.UUID     `json:"id"`
	Title             string        `json:"title"`
	Category          EventCategory `json:"category"`
	Description       string        `json:"description,omitempty"`
	Date              *string       `json:"date,omitempty"` // YYYY-MM-DD
	Time              string        `json:"time,omitempty"` // HH:MM, lexicographically sortable
	RecurrencePattern *string       `json:"recurrence_pattern,omitempty"`
	Weekday           *int          `json:"weekday,omitempty"`
	Location          string        `json:"location,omitempty"`
	Price             string        `json:"price,omitempty"`
	Rating            float64       `json:"rating,omitempty"`
	OrganizerName     string        `json:"organizer_name,omitempty"`
	OrganizerContact  string        `json:"organizer_contact,omitempty"`
	Capacity          int           `json:"capacity,omitempty"`
	Attendance        int           `json:"attendance,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	Featured          bool          `json:"featured"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Recurring reports whether the event is weekday-based rather than dated.
func (e *Event) Recurring() bool {
	return e.RecurrencePattern != nil && *e.RecurrencePattern != ""
}

// EventFilter narrows event list queries. Zero values mean "no filter".
type EventFilter struct {
	Category EventCategory
	// Dates matches any of several specific dates at once. Tool timeframe
	// queries use it; the public list endpoint uses the single Date.
	Dates    []string
	Date     string
	Weekdays []int
	Search   string
	Tags     []string
	Featured bool
	Limit    int
	Offset   int
}

// CreateEventParams carries validated fields for an insert.
type CreateEventParams struct {
	Title             string        `json:"title" validate:"required"`
	Category          EventCategory `json:"category" validate:"required"`
	Description       string        `json:"description"`
	Date              *string       `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time              string        `json:"time,omitempty"`
	RecurrencePattern *string       `json:"recurrence_pattern,omitempty"`
	Weekday           *int          `json:"weekday,omitempty" validate:"omitempty,min=1,max=7"`
	Location          string        `json:"location"`
	Price             string        `json:"price"`
	OrganizerName     string        `json:"organizer_name"`
	OrganizerContact  string        `json:"organizer_contact"`
	Capacity          int           `json:"capacity" validate:"min=0"`
	Tags              []string      `json:"tags"`
	Featured          bool          `json:"featured"`
}

// UpdateEventParams uses pointers so absent fields are left untouched.
type UpdateEventParams struct {
	Title             *string        `json:"title,omitempty"`
	Category          *EventCategory `json:"category,omitempty"`
	Description       *string        `json:"description,omitempty"`
	Date              *string        `json:"date,omitempty"`
	Time              *string        `json:"time,omitempty"`
	RecurrencePattern *string        `json:"recurrence_pattern,omitempty"`
	Weekday           *int           `json:"weekday,omitempty"`
	Location          *string        `json:"location,omitempty"`
	Price             *string        `json:"price,omitempty"`
	OrganizerName     *string        `json:"organizer_name,omitempty"`
	OrganizerContact  *string        `json:"organizer_contact,omitempty"`
	Capacity          *int           `json:"capacity,omitempty"`
	Attendance        *int           `json:"attendance,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Featured          *bool          `json:"featured,omitempty"`
}

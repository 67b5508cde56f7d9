package tools

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/terramar-app/terramar-backend/internal/api/events"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const eventsToolName = "getEvents"

// fallbackVenues keeps the model from answering "nothing is on" with a dead
// end: when no event matches, it gets places worth suggesting anyway.
var fallbackVenues = []map[string]any{
	{"name": "Old town market square", "note": "Weekly produce and craft stalls most mornings"},
	{"name": "Harbor promenade", "note": "Street performers and pop-up stands on busy evenings"},
	{"name": "Municipal cultural center", "note": "Rotating exhibitions and last-minute announcements"},
}

var fallbackTips = []string{
	"Check the tourism office noticeboard for events announced on short notice.",
	"Many recurring markets and concerts pause off-season; nearby towns may still run theirs.",
	"Ask about village festivals; small ones are rarely listed online.",
}

// NewEventsTool declares and implements the events lookup the model calls.
func NewEventsTool(service events.Service) *Tool {
	return &Tool{
		Declaration: &genai.FunctionDeclaration{
			Name: eventsToolName,
			Description: "Find events in the area for a given timeframe. " +
				"Use one of the timeframe values when the user speaks coarsely, " +
				"or pass a date (YYYY-MM-DD) or a weekday name (English or French) as free text.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"timeframe": {
						Type: genai.TypeString,
						Description: "One of: today, tomorrow, this week, this weekend, " +
							"next week, this month; or a free-text date/weekday expression. Defaults to today.",
					},
					"category": {
						Type:        genai.TypeString,
						Description: "Optional event category filter, e.g. concert, market, sport, festival.",
					},
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			tf := resolveTimeframe(time.Now(), stringArg(args, "timeframe"))
			category := types.EventCategory(stringArg(args, "category"))

			matched, err := queryTimeframe(ctx, service, tf, category)
			if err != nil {
				return nil, err
			}

			result := map[string]any{
				"events": matched,
				"count":  len(matched),
			}
			if len(matched) == 0 {
				result["suggested_venues"] = fallbackVenues
				result["tips"] = fallbackTips
			}
			return result, nil
		},
	}
}

// queryTimeframe runs the specific-date and recurring halves in parallel and
// merges them. A specific-dated event and a recurring one sharing an id
// collapse to the specific one.
func queryTimeframe(ctx context.Context, service events.Service, tf timeframe, category types.EventCategory) ([]types.Event, error) {
	var specific, recurring []types.Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		specific, err = service.ListEvents(gctx, types.EventFilter{
			Category: category,
			Dates:    tf.Dates,
		})
		return err
	})
	g.Go(func() error {
		var err error
		recurring, err = service.ListEvents(gctx, types.EventFilter{
			Category: category,
			Weekdays: tf.Weekdays,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[uuid.UUID]types.Event, len(specific)+len(recurring))
	for _, e := range recurring {
		merged[e.ID] = e
	}
	for _, e := range specific {
		merged[e.ID] = e
	}

	result := make([]types.Event, 0, len(merged))
	for _, e := range merged {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		wi, wj := effectiveWeekday(result[i]), effectiveWeekday(result[j])
		if wi != wj {
			return wi < wj
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

// effectiveWeekday orders mixed results: recurring events carry a weekday,
// specific-dated events derive theirs from the date.
func effectiveWeekday(e types.Event) int {
	if e.Weekday != nil {
		return *e.Weekday
	}
	if e.Date != nil {
		if t, err := time.Parse("2006-01-02", *e.Date); err == nil {
			return isoWeekday(t)
		}
	}
	return 8
}

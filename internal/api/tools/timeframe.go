package tools

import (
	"strings"
	"time"
)

// timeframe is a resolved natural-language time expression: the concrete
// dates it spans and the ISO weekdays (Monday=1 .. Sunday=7) it covers.
type timeframe struct {
	Dates    []string
	Weekdays []int
}

// weekdayNames maps English and French weekday words to ISO numbers.
var weekdayNames = map[string]int{
	"monday": 1, "lundi": 1,
	"tuesday": 2, "mardi": 2,
	"wednesday": 3, "mercredi": 3,
	"thursday": 4, "jeudi": 4,
	"friday": 5, "vendredi": 5,
	"saturday": 6, "samedi": 6,
	"sunday": 7, "dimanche": 7,
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// startOfISOWeek returns the Monday of t's week, at midnight in t's location.
func startOfISOWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.AddDate(0, 0, 1-isoWeekday(t))
}

func dateRange(from time.Time, days int) []string {
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, from.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}

func allWeekdays() []int { return []int{1, 2, 3, 4, 5, 6, 7} }

// resolveTimeframe turns a coarse enum value or a free-text date/weekday
// expression into concrete dates and weekdays. Unrecognized input falls back
// to the current week.
func resolveTimeframe(now time.Time, expr string) timeframe {
	expr = strings.ToLower(strings.TrimSpace(expr))
	monday := startOfISOWeek(now)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch expr {
	case "today", "":
		return timeframe{
			Dates:    []string{today.Format("2006-01-02")},
			Weekdays: []int{isoWeekday(today)},
		}
	case "tomorrow":
		tomorrow := today.AddDate(0, 0, 1)
		return timeframe{
			Dates:    []string{tomorrow.Format("2006-01-02")},
			Weekdays: []int{isoWeekday(tomorrow)},
		}
	case "this week":
		return timeframe{Dates: dateRange(monday, 7), Weekdays: allWeekdays()}
	case "this weekend":
		saturday := monday.AddDate(0, 0, 5)
		return timeframe{Dates: dateRange(saturday, 2), Weekdays: []int{6, 7}}
	case "next week":
		return timeframe{Dates: dateRange(monday.AddDate(0, 0, 7), 7), Weekdays: allWeekdays()}
	case "this month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		days := first.AddDate(0, 1, -1).Day()
		return timeframe{Dates: dateRange(first, days), Weekdays: allWeekdays()}
	}

	// Free text. An exact date pins both halves to one day.
	if parsed, err := time.ParseInLocation("2006-01-02", expr, now.Location()); err == nil {
		return timeframe{
			Dates:    []string{parsed.Format("2006-01-02")},
			Weekdays: []int{isoWeekday(parsed)},
		}
	}

	// A weekday word resolves to its next occurrence, today included.
	for _, word := range strings.Fields(expr) {
		if wd, ok := weekdayNames[word]; ok {
			offset := (wd - isoWeekday(today) + 7) % 7
			return timeframe{
				Dates:    []string{today.AddDate(0, 0, offset).Format("2006-01-02")},
				Weekdays: []int{wd},
			}
		}
	}

	return timeframe{Dates: dateRange(monday, 7), Weekdays: allWeekdays()}
}

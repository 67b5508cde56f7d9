package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveTimeframe(t *testing.T) {
	// Wednesday 2026-09-02. The ISO week runs Mon 2026-08-31 .. Sun 2026-09-06.
	now := time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		expr         string
		wantDates    []string
		wantWeekdays []int
	}{
		{
			name:         "empty defaults to today",
			expr:         "",
			wantDates:    []string{"2026-09-02"},
			wantWeekdays: []int{3},
		},
		{
			name:         "today",
			expr:         "today",
			wantDates:    []string{"2026-09-02"},
			wantWeekdays: []int{3},
		},
		{
			name:         "tomorrow",
			expr:         "tomorrow",
			wantDates:    []string{"2026-09-03"},
			wantWeekdays: []int{4},
		},
		{
			name: "this week spans monday to sunday",
			expr: "this week",
			wantDates: []string{
				"2026-08-31", "2026-09-01", "2026-09-02", "2026-09-03",
				"2026-09-04", "2026-09-05", "2026-09-06",
			},
			wantWeekdays: []int{1, 2, 3, 4, 5, 6, 7},
		},
		{
			name:         "this weekend is saturday and sunday",
			expr:         "this weekend",
			wantDates:    []string{"2026-09-05", "2026-09-06"},
			wantWeekdays: []int{6, 7},
		},
		{
			name: "next week",
			expr: "next week",
			wantDates: []string{
				"2026-09-07", "2026-09-08", "2026-09-09", "2026-09-10",
				"2026-09-11", "2026-09-12", "2026-09-13",
			},
			wantWeekdays: []int{1, 2, 3, 4, 5, 6, 7},
		},
		{
			name:         "exact date",
			expr:         "2026-09-20",
			wantDates:    []string{"2026-09-20"},
			wantWeekdays: []int{7},
		},
		{
			name:         "english weekday resolves to next occurrence",
			expr:         "friday",
			wantDates:    []string{"2026-09-04"},
			wantWeekdays: []int{5},
		},
		{
			name:         "weekday word today resolves to today",
			expr:         "wednesday",
			wantDates:    []string{"2026-09-02"},
			wantWeekdays: []int{3},
		},
		{
			name:         "past weekday wraps to next week",
			expr:         "monday",
			wantDates:    []string{"2026-09-07"},
			wantWeekdays: []int{1},
		},
		{
			name:         "french weekday",
			expr:         "samedi",
			wantDates:    []string{"2026-09-05"},
			wantWeekdays: []int{6},
		},
		{
			name:         "weekday inside a phrase",
			expr:         "concerts ce dimanche",
			wantDates:    []string{"2026-09-06"},
			wantWeekdays: []int{7},
		},
		{
			name: "gibberish falls back to current week",
			expr: "whenever you like",
			wantDates: []string{
				"2026-08-31", "2026-09-01", "2026-09-02", "2026-09-03",
				"2026-09-04", "2026-09-05", "2026-09-06",
			},
			wantWeekdays: []int{1, 2, 3, 4, 5, 6, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := resolveTimeframe(now, tt.expr)
			assert.Equal(t, tt.wantDates, tf.Dates)
			assert.Equal(t, tt.wantWeekdays, tf.Weekdays)
		})
	}
}

func TestResolveTimeframe_ThisMonth(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	tf := resolveTimeframe(now, "this month")

	assert.Len(t, tf.Dates, 28)
	assert.Equal(t, "2026-02-01", tf.Dates[0])
	assert.Equal(t, "2026-02-28", tf.Dates[27])
	assert.Equal(t, allWeekdays(), tf.Weekdays)
}

func TestResolveTimeframe_SundayStaysInItsWeek(t *testing.T) {
	// Go's Weekday puts Sunday at 0; the ISO mapping must keep a Sunday in
	// the week that started the previous Monday.
	sunday := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)
	tf := resolveTimeframe(sunday, "this week")

	assert.Equal(t, "2026-08-31", tf.Dates[0])
	assert.Equal(t, "2026-09-06", tf.Dates[6])
}

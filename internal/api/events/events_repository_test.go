package events

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramar-app/terramar-backend/internal/types"
)

var eventRowColumns = []string{
	"id", "title", "category", "description", "event_date", "event_time",
	"recurrence_pattern", "weekday", "location", "price", "rating",
	"organizer_name", "organizer_contact", "capacity", "attendance",
	"tags", "featured", "created_at", "updated_at",
}

func eventRow(id uuid.UUID, title string, date *string, weekday *int) *pgxmock.Rows {
	var pattern *string
	if weekday != nil {
		p := "weekly"
		pattern = &p
	}
	return pgxmock.NewRows(eventRowColumns).AddRow(
		id, title, types.EventCategory("concert"), "", date, "20:00",
		pattern, weekday, "Harbor stage", "free", 4.2,
		"Town hall", "", 0, 0,
		[]string{"music"}, false, time.Now(), time.Now(),
	)
}

func newMockRepo(t *testing.T) (*PostgresEventRepo, pgxmock.PgxPoolIface) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := &PostgresEventRepo{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		pgpool: pool,
	}
	return repo, pool
}

func TestGetEvent(t *testing.T) {
	repo, pool := newMockRepo(t)
	id := uuid.New()
	date := "2026-09-05"

	pool.ExpectQuery(`(?s)SELECT .+ FROM events WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(eventRow(id, "Jazz night", &date, nil))

	event, err := repo.GetEvent(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "Jazz night", event.Title)
	require.NotNil(t, event.Date)
	assert.Equal(t, "2026-09-05", *event.Date)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestGetEvent_MissingIsNilNotError(t *testing.T) {
	repo, pool := newMockRepo(t)
	id := uuid.New()

	pool.ExpectQuery(`(?s)SELECT .+ FROM events WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(eventRowColumns))

	event, err := repo.GetEvent(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestListEvents_DatesFilterUsesAny(t *testing.T) {
	repo, pool := newMockRepo(t)
	dates := []string{"2026-09-05", "2026-09-06"}
	date := "2026-09-05"

	pool.ExpectQuery(`(?s)SELECT .+ FROM events WHERE event_date = ANY\(\$1\) ORDER BY`).
		WithArgs(dates).
		WillReturnRows(eventRow(uuid.New(), "Weekend market", &date, nil))

	events, err := repo.ListEvents(context.Background(), types.EventFilter{Dates: dates})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestListEvents_WeekdaysFilterRequiresRecurrence(t *testing.T) {
	repo, pool := newMockRepo(t)
	wd := 6

	pool.ExpectQuery(regexp.QuoteMeta("recurrence_pattern IS NOT NULL AND weekday = ANY($1)")).
		WithArgs([]int{6, 7}).
		WillReturnRows(eventRow(uuid.New(), "Saturday market", nil, &wd))

	events, err := repo.ListEvents(context.Background(), types.EventFilter{Weekdays: []int{6, 7}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Weekday)
	assert.Equal(t, 6, *events[0].Weekday)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestListEvents_CombinedFiltersNumberArgsInOrder(t *testing.T) {
	repo, pool := newMockRepo(t)

	pool.ExpectQuery(`(?s)WHERE category = \$1 AND \(title ILIKE \$2 OR description ILIKE \$3\).+LIMIT \$4`).
		WithArgs("concert", "%jazz%", "%jazz%", 10).
		WillReturnRows(pgxmock.NewRows(eventRowColumns))

	events, err := repo.ListEvents(context.Background(), types.EventFilter{
		Category: "concert",
		Search:   "jazz",
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Empty(t, events)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestDeleteEvent_NotFound(t *testing.T) {
	repo, pool := newMockRepo(t)
	id := uuid.New()

	pool.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteEvent(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	repo, pool := newMockRepo(t)
	id := uuid.New()

	pool.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.DeleteEvent(context.Background(), id))
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestUpdateEvent_NoFieldsFallsBackToGet(t *testing.T) {
	repo, pool := newMockRepo(t)
	id := uuid.New()
	date := "2026-09-05"

	// An empty patch issues no UPDATE, only the read-back.
	pool.ExpectQuery(`(?s)SELECT .+ FROM events WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(eventRow(id, "Unchanged", &date, nil))

	event, err := repo.UpdateEvent(context.Background(), id, types.UpdateEventParams{})
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "Unchanged", event.Title)
	require.NoError(t, pool.ExpectationsWereMet())
}

package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/terramar-app/terramar-backend/internal/cache"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const cacheTag = "events"

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*types.Event, error)
	ListEvents(ctx context.Context, filter types.EventFilter) ([]types.Event, error)
	CreateEvent(ctx context.Context, params types.CreateEventParams) (*types.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, params types.UpdateEventParams) (*types.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	repo   Repository
	cache  *cache.Layer
	logger *slog.Logger
}

func NewEventService(repo Repository, cacheLayer *cache.Layer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cacheLayer, logger: logger}
}

func (s *ServiceImpl) GetEvent(ctx context.Context, id uuid.UUID) (*types.Event, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheTag, cache.Key("events.get", id), cache.TTLEvents,
		func(ctx context.Context) (*types.Event, error) {
			return s.repo.GetEvent(ctx, id)
		})
}

func (s *ServiceImpl) ListEvents(ctx context.Context, filter types.EventFilter) ([]types.Event, error) {
	key := cache.Key("events.list", filter.Category, filter.Date, filter.Dates, filter.Weekdays,
		filter.Search, filter.Tags, filter.Featured, filter.Limit, filter.Offset)
	return cache.GetOrLoad(ctx, s.cache, cacheTag, key, cache.TTLEvents,
		func(ctx context.Context) ([]types.Event, error) {
			return s.repo.ListEvents(ctx, filter)
		})
}

func (s *ServiceImpl) CreateEvent(ctx context.Context, params types.CreateEventParams) (*types.Event, error) {
	if err := validateSchedule(params.Date, params.RecurrencePattern, params.Weekday); err != nil {
		return nil, err
	}
	event, err := s.repo.CreateEvent(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheTag)
	s.logger.InfoContext(ctx, "Event created", slog.String("event_id", event.ID.String()))
	return event, nil
}

func (s *ServiceImpl) UpdateEvent(ctx context.Context, id uuid.UUID, params types.UpdateEventParams) (*types.Event, error) {
	event, err := s.repo.UpdateEvent(ctx, id, params)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", types.ErrNotFound, id)
	}
	s.cache.Invalidate(cacheTag)
	return event, nil
}

func (s *ServiceImpl) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(cacheTag)
	return nil
}

// validateSchedule enforces the specific-date vs recurring split: an event
// carries a date, or a recurrence pattern with a weekday, never both.
func validateSchedule(date *string, pattern *string, weekday *int) error {
	hasDate := date != nil && *date != ""
	hasPattern := pattern != nil && *pattern != ""
	if hasDate && hasPattern {
		return fmt.Errorf("%w: event cannot have both a date and a recurrence pattern", types.ErrValidation)
	}
	if !hasDate && !hasPattern {
		return fmt.Errorf("%w: event needs a date or a recurrence pattern", types.ErrValidation)
	}
	if hasPattern && weekday == nil {
		return fmt.Errorf("%w: recurring event needs a weekday", types.ErrValidation)
	}
	return nil
}

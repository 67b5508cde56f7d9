package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/terramar-app/terramar-backend/app/observability/metrics"
)

// Per-entity TTLs. Volatile entities expire fast, near-static ones slowly.
const (
	TTLChats    = 5 * time.Second
	TTLMessages = 5 * time.Second
	TTLEvents   = 60 * time.Second
	TTLItems    = 5 * time.Minute
	TTLGuides   = 15 * time.Minute
	TTLPartners = 1 * time.Hour
	TTLProfiles = 60 * time.Second
)

// Layer memoizes read results keyed by operation name and arguments, and
// invalidates by tag immediately after any write on the tagged entity.
type Layer struct {
	store   *gocache.Cache
	logger  *slog.Logger
	metrics *metrics.AppMetrics

	mu   sync.Mutex
	tags map[string]map[string]struct{} // tag -> set of keys
}

func New(logger *slog.Logger) *Layer {
	return &Layer{
		store:  gocache.New(gocache.NoExpiration, 5*time.Minute),
		logger: logger,
		tags:   make(map[string]map[string]struct{}),
	}
}

// WithMetrics attaches hit/miss instruments. Optional so tests can skip the
// global meter provider.
func (l *Layer) WithMetrics(m *metrics.AppMetrics) *Layer {
	l.metrics = m
	return l
}

// Key builds a cache key from an operation name and its arguments.
func Key(op string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return strings.Join(parts, "|")
}

// GetOrLoad returns the cached value for key, or runs load, caches the result
// under the given tag with the given TTL, and returns it. A nil result with a
// nil error is cached like any other value (not-found stays normalized).
func GetOrLoad[T any](ctx context.Context, l *Layer, tag, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, found := l.store.Get(key); found {
		if l.metrics != nil {
			l.metrics.CacheHitsTotal.Add(ctx, 1)
		}
		return v.(T), nil
	}
	if l.metrics != nil {
		l.metrics.CacheMissesTotal.Add(ctx, 1)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	l.store.Set(key, v, ttl)
	l.mu.Lock()
	if l.tags[tag] == nil {
		l.tags[tag] = make(map[string]struct{})
	}
	l.tags[tag][key] = struct{}{}
	l.mu.Unlock()
	return v, nil
}

// Invalidate drops every cached key registered under the given tags.
// Repositories call it right after create/update/delete.
func (l *Layer) Invalidate(tags ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tag := range tags {
		for key := range l.tags[tag] {
			l.store.Delete(key)
		}
		delete(l.tags, tag)
	}
	if l.logger != nil {
		l.logger.Debug("Cache invalidated", slog.Any("tags", tags))
	}
}

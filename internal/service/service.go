// Package service exposes the bridge operations consumed by the HTTP
// surface: events, threats, aggregate stats and connectivity.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/cache"
	"github.com/ridgegate-systems/fwbridge/internal/logging"
	"github.com/ridgegate-systems/fwbridge/internal/metrics"
	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// statsWindow is the lookback used when computing aggregate stats.
const statsWindow = 24 * time.Hour

// Retriever is the appliance retrieval client surface the service
// depends on; tests inject fakes.
type Retriever interface {
	GetLogs(ctx context.Context, filter *models.EventFilter) ([]models.Event, error)
	GetThreats(ctx context.Context) ([]models.Threat, error)
	GetSystemStats(ctx context.Context) (*models.SystemCounters, error)
	TestConnectivity(ctx context.Context) *models.ConnectivityResult
}

// Publisher forwards normalized batches to downstream consumers.
// Publishing is best-effort; failures never affect the caller.
type Publisher interface {
	PublishEvents(ctx context.Context, events []models.Event) error
}

// Bridge implements the exposed operations, fronting the retriever
// with the result cache.
type Bridge struct {
	retriever Retriever
	store     cache.Store
	publisher Publisher
	logger    *logging.Logger
	now       func() time.Time
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithPublisher attaches a downstream event publisher.
func WithPublisher(p Publisher) Option {
	return func(b *Bridge) { b.publisher = p }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// New constructs a Bridge.
func New(retriever Retriever, store cache.Store, logger *logging.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		retriever: retriever,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetEvents returns canonical events for the filter. The filter is
// validated structurally before any upstream call; a cache hit
// short-circuits retrieval entirely.
func (b *Bridge) GetEvents(ctx context.Context, filter *models.EventFilter) ([]models.Event, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	key := cache.Key("logs", filter)
	if cached, ok := b.store.Get(ctx, key); ok {
		var events []models.Event
		if err := json.Unmarshal(cached, &events); err == nil {
			metrics.CacheHits.WithLabelValues("logs").Inc()
			return events, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("logs").Inc()

	events, err := b.retriever.GetLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Event, 0, len(events))
	for i := range events {
		if filter.Matches(&events[i]) {
			filtered = append(filtered, events[i])
		}
	}
	if limit := filter.EffectiveLimit(); len(filtered) > limit {
		filtered = filtered[:limit]
	}

	b.cacheResult(ctx, key, filtered, cache.TTLLogs, degradedEvents(filtered))
	b.publish(ctx, filtered)
	return filtered, nil
}

// GetThreats returns the current normalized threat records.
func (b *Bridge) GetThreats(ctx context.Context) ([]models.Threat, error) {
	key := cache.Key("threats", nil)
	if cached, ok := b.store.Get(ctx, key); ok {
		var threats []models.Threat
		if err := json.Unmarshal(cached, &threats); err == nil {
			metrics.CacheHits.WithLabelValues("threats").Inc()
			return threats, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("threats").Inc()

	threats, err := b.retriever.GetThreats(ctx)
	if err != nil {
		return nil, err
	}

	degraded := len(threats) > 0 && threats[0].Placeholder
	b.cacheResult(ctx, key, threats, cache.TTLThreats, degraded)
	return threats, nil
}

// GetAggregateStats summarizes traffic over the stats window,
// combining the appliance counters with top-N breakdowns computed
// from the normalized events and threats.
func (b *Bridge) GetAggregateStats(ctx context.Context) (*models.AggregateStats, error) {
	end := b.now().UTC()
	start := end.Truncate(time.Hour).Add(-statsWindow)

	key := cache.WindowKey("stats", start, end.Truncate(time.Hour))
	if cached, ok := b.store.Get(ctx, key); ok {
		var stats models.AggregateStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			metrics.CacheHits.WithLabelValues("stats").Inc()
			return &stats, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("stats").Inc()

	counters, err := b.retriever.GetSystemStats(ctx)
	if err != nil {
		return nil, err
	}
	events, err := b.retriever.GetLogs(ctx, &models.EventFilter{
		StartTime: start,
		EndTime:   end,
		Limit:     models.MaxResultLimit,
	})
	if err != nil {
		return nil, err
	}
	threats, err := b.retriever.GetThreats(ctx)
	if err != nil {
		return nil, err
	}

	stats := aggregate(counters, events, threats)
	b.cacheResult(ctx, key, stats, cache.TTLStats, stats.Degraded)
	return stats, nil
}

// TestConnectivity probes the appliance for health reporting. It never
// returns an error.
func (b *Bridge) TestConnectivity(ctx context.Context) *models.ConnectivityResult {
	return b.retriever.TestConnectivity(ctx)
}

// cacheResult stores a value unless it was built from placeholder
// data; caching a degraded result would mask appliance recovery for a
// full TTL.
func (b *Bridge) cacheResult(ctx context.Context, key string, value any, ttl time.Duration, degraded bool) {
	if degraded {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		b.logger.WithContext(ctx).Warn("failed to serialize cache value", slog.Any("error", err))
		return
	}
	b.store.Set(ctx, key, data, ttl)
}

func (b *Bridge) publish(ctx context.Context, events []models.Event) {
	if b.publisher == nil || len(events) == 0 {
		return
	}
	if err := b.publisher.PublishEvents(ctx, events); err != nil {
		b.logger.WithContext(ctx).Warn("failed to publish normalized events", slog.Any("error", err))
	}
}

func degradedEvents(events []models.Event) bool {
	return len(events) > 0 && events[0].Placeholder
}

package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"zapshift/internal/core/cache"
	"zapshift/internal/features/tracking/domain"
)

const (
	timelineKeyPrefix   = "tracking:timeline:"
	generationKeyPrefix = "tracking:timeline-gen:"
)

// RedisTimelineCache implements ports.TimelineCache on top of the cache port.
//
// Every tracking id has a generation counter bumped by Invalidate. Cached
// timelines carry the generation observed before their entries were read and
// are only served while it is still current, so a reader racing a writer
// cannot resurrect a stale history.
type RedisTimelineCache struct {
	cache cache.Cache
	ttl   time.Duration
}

type cachedTimeline struct {
	Generation int64           `json:"generation"`
	Timeline   domain.Timeline `json:"timeline"`
}

// NewRedisTimelineCache creates a new RedisTimelineCache.
func NewRedisTimelineCache(c cache.Cache, ttl time.Duration) *RedisTimelineCache {
	return &RedisTimelineCache{
		cache: c,
		ttl:   ttl,
	}
}

func timelineKey(trackingID string) string {
	return timelineKeyPrefix + trackingID
}

func generationKey(trackingID string) string {
	return generationKeyPrefix + trackingID
}

func (r *RedisTimelineCache) generation(ctx context.Context, trackingID string) (int64, error) {
	data, err := r.cache.Get(ctx, generationKey(trackingID))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get timeline generation: %w", err)
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse timeline generation: %w", err)
	}
	return gen, nil
}

// Get retrieves a cached timeline together with the current generation.
// A miss or an outdated entry returns nil and no error.
func (r *RedisTimelineCache) Get(ctx context.Context, trackingID string) (*domain.Timeline, int64, error) {
	gen, err := r.generation(ctx, trackingID)
	if err != nil {
		return nil, 0, err
	}

	data, err := r.cache.Get(ctx, timelineKey(trackingID))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, gen, nil
		}
		return nil, gen, fmt.Errorf("failed to get timeline from cache: %w", err)
	}

	var entry cachedTimeline
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, gen, fmt.Errorf("failed to unmarshal timeline: %w", err)
	}
	if entry.Generation != gen {
		return nil, gen, nil
	}
	return &entry.Timeline, gen, nil
}

// Set stores the timeline for the configured TTL, stamped with the
// generation the caller observed before loading it.
func (r *RedisTimelineCache) Set(ctx context.Context, timeline *domain.Timeline, generation int64) error {
	data, err := json.Marshal(cachedTimeline{Generation: generation, Timeline: *timeline})
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	if err := r.cache.Set(ctx, timelineKey(timeline.TrackingID), data, r.ttl); err != nil {
		return fmt.Errorf("failed to save timeline to cache: %w", err)
	}
	return nil
}

// Invalidate bumps the generation of trackingID and drops its cached timeline.
func (r *RedisTimelineCache) Invalidate(ctx context.Context, trackingID string) error {
	if _, err := r.cache.Incr(ctx, generationKey(trackingID)); err != nil {
		return fmt.Errorf("failed to invalidate timeline: %w", err)
	}
	if err := r.cache.Delete(ctx, timelineKey(trackingID)); err != nil {
		return fmt.Errorf("failed to invalidate timeline: %w", err)
	}
	return nil
}

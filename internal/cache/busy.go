// Package cache keeps busy-time lookups in Redis so repeated planning runs
// over the same windows do not hit the calendar providers again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetme/internal/models"
	"meetme/internal/planner"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "meetme:busy:"

// BusyCache decorates a planner.BusySource with a Redis cache.
type BusyCache struct {
	client    *redis.Client
	namespace string
	source    planner.BusySource
	ttl       time.Duration
	logger    *slog.Logger
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// New wraps source. Keys are prefixed with namespace, usually the account the
// source reads, and entries expire after ttl.
func New(logger *slog.Logger, client *redis.Client, namespace string, source planner.BusySource, ttl time.Duration) *BusyCache {
	return &BusyCache{client: client, namespace: namespace, source: source, ttl: ttl, logger: logger}
}

// Busy returns the cached events for the calendar and range, asking the
// source on a miss. Redis failures never fail the lookup.
func (c *BusyCache) Busy(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	key := busyKey(c.namespace, calendarID, min, max)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var events []models.Event
		if err := json.Unmarshal(data, &events); err == nil {
			c.logger.Debug("Busy times served from cache", "calendarID", calendarID, "count", len(events))
			return events, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Cache lookup failed", "key", key, "error", err)
	}

	events, err := c.source.Busy(ctx, calendarID, min, max)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(events)
	if err != nil {
		c.logger.Warn("Could not encode busy times for cache", "error", err)
		return events, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache store failed", "key", key, "error", err)
	}
	return events, nil
}

func busyKey(namespace, calendarID string, min, max time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", keyPrefix, namespace, calendarID, min.Unix(), max.Unix())
}

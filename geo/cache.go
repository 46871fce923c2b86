package geo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"aadinath/api/metrics"
	"aadinath/api/models"
)

const cacheKeyPrefix = "geo:ip:"

// CachedLocator memoizes known locations of another Locator in Redis.
// A Redis outage only costs the cache; lookups fall through to next.
type CachedLocator struct {
	next Locator
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.SugaredLogger
}

func NewCachedLocator(next Locator, rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedLocator {
	return &CachedLocator{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedLocator) Locate(ctx context.Context, ip string) models.Location {
	if loc, _, done := classify(ip); done {
		return loc
	}

	key := cacheKeyPrefix + ip
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var loc models.Location
		if jsonErr := json.Unmarshal(raw, &loc); jsonErr == nil {
			metrics.RecordGeoLookup("cache", "hit")
			return loc
		}
	case errors.Is(err, redis.Nil):
		metrics.RecordGeoLookup("cache", "miss")
	default:
		metrics.RecordGeoLookup("cache", "error")
		c.log.Warnf("Geolocation cache read failed: %v", err)
	}

	loc := c.next.Locate(ctx, ip)
	if !loc.Known() {
		return loc
	}

	data, err := json.Marshal(loc)
	if err != nil {
		return loc
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warnf("Geolocation cache write failed: %v", err)
	}
	return loc
}

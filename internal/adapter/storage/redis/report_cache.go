package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "report:"

// ReportCache implements ports.ReportCache using Redis strings with a TTL.
type ReportCache struct {
	client goredis.Cmdable
	prefix string
}

// NewReportCache creates a new Redis-backed report cache.
func NewReportCache(client goredis.Cmdable) *ReportCache {
	return &ReportCache{
		client: client,
		prefix: reportKeyPrefix,
	}
}

// Get returns the cached report JSON, or nil, nil on a miss.
func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis report get: %w", err)
	}
	return val, nil
}

// Set stores report JSON. A zero ttl keeps the entry until evicted.
func (c *ReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis report set: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// CacheCheck reports on the Redis instance backing the report cache and rate limiter.
// An outage degrades both to pass-through, so it is surfaced on /health but never fails requests.
type CacheCheck struct {
	client goredis.Cmdable
}

// NewHealthCheck creates the report cache health checker.
func NewHealthCheck(client goredis.Cmdable) *CacheCheck {
	return &CacheCheck{client: client}
}

func (h *CacheCheck) Ping(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("report cache: %w", err)
	}
	return nil
}

func (h *CacheCheck) Name() string {
	return "report_cache"
}

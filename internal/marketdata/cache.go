package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kjannette/optiondash/internal/logger"
	"github.com/kjannette/optiondash/internal/models"
)

// Cached is a read-through Redis cache in front of another provider. Keys
// include the UTC day so a window is refetched at most once per TTL per day.
type Cached struct {
	rdb  *redis.Client
	next Provider
	ttl  time.Duration
	now  func() time.Time
	log  *logger.Logger
}

func NewCached(rdb *redis.Client, next Provider, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cached{rdb: rdb, next: next, ttl: ttl, now: time.Now, log: logger.Named("marketdata.cache")}
}

func (c *Cached) key(ticker string, period Period) string {
	return fmt.Sprintf("history:%s:%s:%s", ticker, period, c.now().UTC().Format("2006-01-02"))
}

func (c *Cached) FetchHistory(ctx context.Context, ticker string, period Period) ([]models.Bar, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	key := c.key(t, period)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []models.Bar
		if jerr := json.Unmarshal(data, &bars); jerr == nil && len(bars) > 0 {
			c.log.Debugw("cache hit", "key", key, "bars", len(bars))
			return bars, nil
		}
		c.log.Warnw("discarding unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnw("redis get failed, bypassing cache", "key", key, "error", err)
	}

	bars, err := c.next.FetchHistory(ctx, t, period)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(bars); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warnw("redis set failed", "key", key, "error", serr)
		}
	}
	return bars, nil
}

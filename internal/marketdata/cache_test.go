package marketdata

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/optiondash/internal/models"
)

func TestCached_ReadThrough(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	up := &stubProvider{bars: []models.Bar{{Date: refNow, Close: 42}}}
	c := NewCached(rdb, up, time.Minute)
	c.now = func() time.Time { return refNow }
	t.Cleanup(func() { rdb.Del(ctx, c.key("CACHETEST", Period1W)) })

	first, err := c.FetchHistory(ctx, "cachetest", Period1W)
	require.NoError(t, err)
	second, err := c.FetchHistory(ctx, "CACHETEST", Period1W)
	require.NoError(t, err)

	assert.Equal(t, 1, up.calls)
	assert.Equal(t, first[0].Close, second[0].Close)
	assert.True(t, first[0].Date.Equal(second[0].Date))
}

func TestCached_RedisDownFallsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	up := &stubProvider{bars: []models.Bar{{Date: refNow, Close: 42}}}
	c := NewCached(rdb, up, time.Minute)

	bars, err := c.FetchHistory(context.Background(), "AAPL", Period1Y)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 1, up.calls)
}

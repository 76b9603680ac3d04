package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/service"
	"github.com/d60-Lab/social-blog/pkg/logger"
)

const keyPrefix = "trending:"

// TrendingCache 在 RankingService 的排行读视图外加一层短 TTL 的 redis 缓存。
// 写操作（like / view）直接透传；缓存读写失败回落到底层排行。
type TrendingCache struct {
	service.RankingService
	rdb *redis.Client
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTrendingCache returns next unchanged when rdb is nil or ttl is not positive.
func NewTrendingCache(next service.RankingService, rdb *redis.Client, ttl time.Duration) service.RankingService {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &TrendingCache{RankingService: next, rdb: rdb, ttl: ttl}
}

func (c *TrendingCache) TrendingContent(ctx context.Context, limit int) ([]*model.Blog, error) {
	key := fmt.Sprintf("%sblogs:%d", keyPrefix, limit)
	var out []*model.Blog
	if c.get(ctx, key, &out) {
		return out, nil
	}
	out, err := c.RankingService.TrendingContent(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out)
	return out, nil
}

func (c *TrendingCache) TrendingGenres(ctx context.Context, limit int) ([]service.GenreTrend, error) {
	key := fmt.Sprintf("%sgenres:%d", keyPrefix, limit)
	var out []service.GenreTrend
	if c.get(ctx, key, &out) {
		return out, nil
	}
	out, err := c.RankingService.TrendingGenres(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out)
	return out, nil
}

// Stats 返回命中 / 未命中次数
func (c *TrendingCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *TrendingCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("trending cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("trending cache entry corrupt", zap.String("key", key), zap.Error(err))
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

func (c *TrendingCache) set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Warn("trending cache write failed", zap.String("key", key), zap.Error(err))
	}
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/service"
)

type stubRanking struct {
	service.RankingService
	contentCalls int
	genreCalls   int
	err          error
}

func (s *stubRanking) TrendingContent(_ context.Context, limit int) ([]*model.Blog, error) {
	s.contentCalls++
	if s.err != nil {
		return nil, s.err
	}
	return []*model.Blog{{ID: "b1", Title: "hot", Views: 10}}, nil
}

func (s *stubRanking) TrendingGenres(_ context.Context, limit int) ([]service.GenreTrend, error) {
	s.genreCalls++
	return []service.GenreTrend{{Genre: "tech", Count: 2, TotalViews: 7}}, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTrendingCache_HitAfterMiss(t *testing.T) {
	mr, rdb := setupRedis(t)
	stub := &stubRanking{}
	c := NewTrendingCache(stub, rdb, 30*time.Second)
	ctx := context.Background()

	first, err := c.TrendingContent(ctx, 5)
	require.NoError(t, err)
	second, err := c.TrendingContent(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.contentCalls)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.EqualValues(t, 10, second[0].Views)

	// 不同 limit 独立缓存
	_, err = c.TrendingContent(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.contentCalls)

	genres, err := c.TrendingGenres(ctx, 5)
	require.NoError(t, err)
	_, err = c.TrendingGenres(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.genreCalls)
	assert.Equal(t, "tech", genres[0].Genre)

	hits, misses := c.(*TrendingCache).Stats()
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 3, misses)

	mr.FastForward(31 * time.Second)
	_, err = c.TrendingContent(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.contentCalls, "expired entry reloads")
}

func TestTrendingCache_RedisDownFallsThrough(t *testing.T) {
	mr, rdb := setupRedis(t)
	stub := &stubRanking{}
	c := NewTrendingCache(stub, rdb, time.Minute)
	mr.Close()

	res, err := c.TrendingContent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, 1, stub.contentCalls)
}

func TestTrendingCache_ErrorsNotCached(t *testing.T) {
	_, rdb := setupRedis(t)
	stub := &stubRanking{err: errors.New("db down")}
	c := NewTrendingCache(stub, rdb, time.Minute)

	_, err := c.TrendingContent(context.Background(), 5)
	assert.Error(t, err)
	stub.err = nil
	res, err := c.TrendingContent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, 2, stub.contentCalls)
}

func TestNewTrendingCache_Disabled(t *testing.T) {
	stub := &stubRanking{}
	assert.Same(t, service.RankingService(stub), NewTrendingCache(stub, nil, time.Minute))
}

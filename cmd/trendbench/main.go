package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/cache"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/internal/service"
	rediscache "github.com/d60-Lab/social-blog/pkg/cache"
	"github.com/d60-Lab/social-blog/pkg/database"
)

var genres = []string{"tech", "travel", "food", "art", "music", "sports", "science", "finance"}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	k = max(0, min(k, len(xs)-1))
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

// scenario 依次调用 content / genres 两个排行视图，记录单次延迟
func scenario(ctx context.Context, rk service.RankingService, reqs int) []time.Duration {
	out := make([]time.Duration, 0, reqs)
	for i := 0; i < reqs; i++ {
		limit := 5 + i%3
		start := time.Now()
		if i%2 == 0 {
			_ = must(rk.TrendingContent(ctx, limit))
		} else {
			_ = must(rk.TrendingGenres(ctx, limit))
		}
		out = append(out, time.Since(start))
	}
	return out
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	mustDo(database.Migrate(db, model.All()...))

	BLOGS := envInt("BLOGS", 50000)
	REQS := envInt("REQS", 5000)

	fmt.Println("Setting up test data...")
	author := model.Account{ID: uuid.NewString(), Handle: "bench_" + uuid.NewString()[:8]}
	mustDo(repository.NewAccountRepository(db).Create(ctx, &author))

	base := time.Now().Add(-time.Duration(BLOGS) * time.Second)
	rows := make([]model.Blog, BLOGS)
	for i := range rows {
		p := base.Add(time.Duration(i) * time.Second)
		status := model.BlogStatusPublished
		if i%10 == 0 {
			status = model.BlogStatusDraft
		}
		rows[i] = model.Blog{
			ID:        uuid.NewString(),
			AuthorID:  author.ID,
			Title:     fmt.Sprintf("post %d", i),
			Genre:     genres[rand.Intn(len(genres))],
			Body:      "bench body",
			Status:    status,
			Views:     rand.Int63n(100000),
			LikeCount: rand.Int63n(1000),
		}
		if status == model.BlogStatusPublished {
			rows[i].PublishedAt = &p
		}
	}
	mustDo(db.CreateInBatches(&rows, 1000).Error)
	fmt.Printf("Test data ready: %d blogs\n", BLOGS)

	blogRepo := repository.NewBlogRepository(db)
	direct := service.NewRankingService(blogRepo, repository.NewLikeRepository(db), cfg.Graph, cfg.Content)

	rdb := must(rediscache.NewRedis(ctx, cfg.Redis))
	defer rdb.Close()
	mustDo(rdb.FlushDB(ctx).Err())
	cached := cache.NewTrendingCache(direct, rdb, time.Minute)

	noCache := scenario(ctx, direct, REQS)
	withCache := scenario(ctx, cached, REQS)

	fmt.Printf("\nTrending read latency (%d req, %d blogs)\n", REQS, BLOGS)
	fmt.Printf("%-12s avg=%v p50=%v p95=%v p99=%v\n", "No cache",
		avg(noCache), pct(noCache, 0.50), pct(noCache, 0.95), pct(noCache, 0.99))
	fmt.Printf("%-12s avg=%v p50=%v p95=%v p99=%v", "Redis TTL",
		avg(withCache), pct(withCache, 0.50), pct(withCache, 0.95), pct(withCache, 0.99))
	if tc, ok := cached.(*cache.TrendingCache); ok {
		hits, misses := tc.Stats()
		fmt.Printf(" hits=%d misses=%d", hits, misses)
	}
	fmt.Println()
}

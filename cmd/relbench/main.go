package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/internal/service"
	"github.com/d60-Lab/social-blog/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
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

// run 以 conc 个 worker 对每个 follower 执行一次 toggle，返回单次延迟与失败数
func run(ctx context.Context, svc service.RelationshipService, followers []model.Account, celebID string, conc int) ([]time.Duration, int) {
	feed := make(chan int, len(followers))
	for i := range followers {
		feed <- i
	}
	close(feed)

	var (
		mu     sync.Mutex
		recs   = make([]time.Duration, 0, len(followers))
		failed int
		wg     sync.WaitGroup
	)
	for w := 0; w < min(conc, len(followers)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				_, err := svc.ToggleFollow(ctx, followers[i].ID, celebID)
				d := time.Since(st)
				mu.Lock()
				recs = append(recs, d)
				if err != nil {
					failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return recs, failed
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db, model.All()...); err != nil {
		panic(err)
	}

	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	PAGE := envInt("PAGE", 50)

	accountRepo := repository.NewAccountRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	// MODE=twostep 对比无事务的 primary/mirror 两步写
	var graph repository.FollowGraph
	if os.Getenv("MODE") != "twostep" {
		graph = repository.NewFollowGraph(db)
	}
	relSvc := service.NewRelationshipService(accountRepo, followRepo, fanRepo, nil, graph, cfg.Graph)
	ctx := context.Background()

	// seed: celeb 被 N 个账号关注
	celeb := model.Account{ID: uuid.NewString(), Handle: "celeb_" + uuid.NewString()[:8]}
	if err := accountRepo.Create(ctx, &celeb); err != nil {
		panic(err)
	}
	followers := make([]model.Account, N)
	for i := range followers {
		id := uuid.NewString()
		followers[i] = model.Account{ID: id, Handle: "u_" + id[:8], HandleLower: "u_" + id[:8]}
	}
	if err := db.CreateInBatches(&followers, 1000).Error; err != nil {
		panic(err)
	}

	t0 := time.Now()
	followRecs, followFailed := run(ctx, relSvc, followers, celeb.ID, CONC)
	followDur := time.Since(t0)

	q0 := time.Now()
	_, _ = relSvc.ListFollowers(ctx, celeb.ID, followers[0].ID, 1, PAGE)
	listDur := time.Since(q0)

	stats := must(relSvc.GetFollowStats(ctx, celeb.ID))
	var follows int64
	_ = db.Model(&model.Follow{}).Where("followee_id = ?", celeb.ID).Count(&follows).Error

	t1 := time.Now()
	unfollowRecs, unfollowFailed := run(ctx, relSvc, followers, celeb.ID, CONC)
	unfollowDur := time.Since(t1)

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Follow toggle total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failed: %d\n",
		followDur, followDur/time.Duration(N), pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99), followFailed)
	fmt.Printf("Unfollow toggle total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failed: %d\n",
		unfollowDur, unfollowDur/time.Duration(N), pct(unfollowRecs, 0.50), pct(unfollowRecs, 0.95), pct(unfollowRecs, 0.99), unfollowFailed)
	fmt.Printf("List followers(%d) latency: %v\n", PAGE, listDur)
	fmt.Printf("Symmetry: fans=%d follows=%d match=%v\n", stats.FollowerCount, follows, stats.FollowerCount == follows)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/api"
	"github.com/d60-Lab/social-blog/internal/api/handler"
	"github.com/d60-Lab/social-blog/internal/cache"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/internal/service"
	rediscache "github.com/d60-Lab/social-blog/pkg/cache"
	"github.com/d60-Lab/social-blog/pkg/database"
	"github.com/d60-Lab/social-blog/pkg/logger"
	"github.com/d60-Lab/social-blog/pkg/tracing"
)

// @title Social Blog API
// @version 1.0
// @description 关系链、内容发布与热门排行
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, model.All()...); err != nil {
			logger.Fatal("migrate failed", zap.Error(err))
		}
	}

	// redis 不可用时排行直接读库
	var rdb *redis.Client
	if rdb, err = rediscache.NewRedis(ctx, cfg.Redis); err != nil {
		logger.Warn("redis unavailable, trending cache disabled", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	accountRepo := repository.NewAccountRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	inboxRepo := repository.NewInboxRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	validator := service.NewFieldValidator(cfg.Content.MinWordCount, cfg.Content.MaxTags)
	store := service.NewBlogStore(blogRepo, validator, cfg.Graph)
	ranking := cache.NewTrendingCache(
		service.NewRankingService(blogRepo, likeRepo, cfg.Graph, cfg.Content),
		rdb, cfg.Redis.TrendingTTL,
	)

	views := service.NewViewRecorder(ranking, cfg.Views.QueueSize)
	stopViews := views.Start(cfg.Views.Workers)
	fanout := service.NewFanoutWorker(db, fanRepo, inboxRepo, cfg.Fanout)
	stopFanout := fanout.Start()

	h := handler.NewHandler(
		service.NewAccountService(accountRepo, validator, cfg.Graph, cfg.Content),
		service.NewRelationshipService(accountRepo, followRepo, fanRepo, inboxRepo, repository.NewFollowGraph(db), cfg.Graph),
		service.NewContentService(store),
		service.NewLifecycleService(store),
		ranking,
		service.NewFeedService(inboxRepo, cfg.Graph),
		views,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.SetupRouter(cfg, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := stopViews(sctx); err != nil {
		logger.Warn("view recorder shutdown", zap.Error(err))
	}
	if err := stopFanout(sctx); err != nil {
		logger.Warn("fanout shutdown", zap.Error(err))
	}
	if err := shutdownTracing(sctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

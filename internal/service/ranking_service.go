package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/pkg/logger"
)

const maxTrendingLimit = 100

// LikeResult like toggle 之后的状态
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// GenreTrend 题材热度
type GenreTrend struct {
	Genre      string `json:"genre"`
	Count      int64  `json:"count"`
	TotalViews int64  `json:"total_views"`
	TotalLikes int64  `json:"total_likes"`
}

// RankingService 互动与热门排行；排行为按需计算的只读视图
type RankingService interface {
	Like(ctx context.Context, actorID, blogID string) (*LikeResult, error)
	// RecordView 失败只记录日志，不向调用方返回
	RecordView(ctx context.Context, blogID string)
	TrendingContent(ctx context.Context, limit int) ([]*model.Blog, error)
	TrendingGenres(ctx context.Context, limit int) ([]GenreTrend, error)
}

type rankingService struct {
	blogRepo repository.BlogRepository
	likeRepo repository.LikeRepository
	graph    config.GraphConfig
	content  config.ContentConfig
}

func NewRankingService(blogRepo repository.BlogRepository, likeRepo repository.LikeRepository, graph config.GraphConfig, content config.ContentConfig) RankingService {
	return &rankingService{blogRepo: blogRepo, likeRepo: likeRepo, graph: graph, content: content}
}

func (s *rankingService) Like(ctx context.Context, actorID, blogID string) (*LikeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()

	b, err := s.blogRepo.Get(ctx, blogID)
	if err != nil {
		return nil, storeErr("load blog", err)
	}
	if b.Status != model.BlogStatusPublished {
		return nil, fmt.Errorf("like %s blog: %w", b.Status, ErrNotFound)
	}
	if b.AuthorID == actorID {
		return nil, fmt.Errorf("like own blog: %w", ErrForbidden)
	}

	attempts := max(s.graph.ToggleAttempts, 1)
	for i := 0; i < attempts; i++ {
		liked, err := s.likeRepo.Exists(ctx, blogID, actorID)
		if err != nil {
			return nil, storeErr("read like", err)
		}
		var (
			changed bool
			count   int64
		)
		if liked {
			changed, count, err = s.likeRepo.Remove(ctx, blogID, actorID)
		} else {
			changed, count, err = s.likeRepo.Add(ctx, blogID, actorID)
		}
		if err != nil {
			return nil, storeErr("toggle like", err)
		}
		if !changed {
			continue
		}
		return &LikeResult{Liked: !liked, LikeCount: count}, nil
	}
	return nil, fmt.Errorf("toggle like: contention after %d attempts: %w", attempts, ErrTransient)
}

func (s *rankingService) RecordView(ctx context.Context, blogID string) {
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()

	ok, err := s.blogRepo.IncrementViews(ctx, blogID)
	if err != nil {
		logger.Warn("record view failed", zap.String("blog_id", blogID), zap.Error(err))
		return
	}
	if !ok {
		logger.Debug("view ignored for unpublished or missing blog", zap.String("blog_id", blogID))
	}
}

func (s *rankingService) TrendingContent(ctx context.Context, limit int) ([]*model.Blog, error) {
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()
	res, err := s.blogRepo.TopByViews(ctx, s.limit(limit))
	if err != nil {
		return nil, storeErr("trending content", err)
	}
	return res, nil
}

func (s *rankingService) TrendingGenres(ctx context.Context, limit int) ([]GenreTrend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()
	rows, err := s.blogRepo.GenreStats(ctx, s.limit(limit))
	if err != nil {
		return nil, storeErr("trending genres", err)
	}
	res := make([]GenreTrend, len(rows))
	for i, r := range rows {
		res[i] = GenreTrend{Genre: r.Genre, Count: r.Count, TotalViews: r.TotalViews, TotalLikes: r.TotalLikes}
	}
	return res, nil
}

func (s *rankingService) limit(n int) int {
	if n < 1 {
		n = s.content.TrendingLimit
	}
	if n < 1 {
		n = 5
	}
	return min(n, maxTrendingLimit)
}

// IsAbsorbable reports whether an engagement failure may be logged instead of surfaced.
func IsAbsorbable(err error) bool {
	return errors.Is(err, ErrTransient)
}

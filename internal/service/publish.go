package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
)

// newPublicationEvent 首次发布时随状态变更同事务写入的 outbox 事件
func newPublicationEvent(b *model.Blog, at time.Time) *model.Outbox {
	return &model.Outbox{
		ID:        uuid.New().String(),
		BlogID:    b.ID,
		AuthorID:  b.AuthorID,
		CreatedAt: at,
		Status:    model.OutboxStatusPending,
	}
}

// FeedService 关注流：FanoutWorker 写入的收件箱中仍处于发布状态的内容
type FeedService interface {
	Feed(ctx context.Context, viewerID string, page, pageSize int) ([]*model.Blog, error)
}

type feedService struct {
	inboxRepo repository.InboxRepository
	cfg       config.GraphConfig
}

func NewFeedService(inboxRepo repository.InboxRepository, cfg config.GraphConfig) FeedService {
	return &feedService{inboxRepo: inboxRepo, cfg: cfg}
}

func (s *feedService) Feed(ctx context.Context, viewerID string, page, pageSize int) ([]*model.Blog, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = max(s.cfg.ListPageSize, 1)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	res, err := s.inboxRepo.ListFeed(ctx, viewerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, storeErr("load feed", err)
	}
	return res, nil
}

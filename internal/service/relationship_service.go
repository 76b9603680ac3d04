package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/social-blog/internal/service")

// errEdgeRaced 条件写入未命中：另一个并发 toggle 先改变了这条边
var errEdgeRaced = errors.New("follow edge changed concurrently")

// ToggleResult toggle 之后的状态，调用方无需二次读取
type ToggleResult struct {
	IsFollowing bool `json:"is_following"`
	// FollowerCount 目标账号的粉丝数
	FollowerCount int64 `json:"follower_count"`
	// FollowingCount 操作者的关注数
	FollowingCount int64 `json:"following_count"`
}

type FollowStats struct {
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}

// FollowEntry 列表项；IsFollowing 表示查看者（而非列表主人）是否已关注该账号
type FollowEntry struct {
	Account     *model.Account `json:"account"`
	IsFollowing bool           `json:"is_following"`
}

// RelationshipService 关系链服务
type RelationshipService interface {
	ToggleFollow(ctx context.Context, actorID, targetID string) (*ToggleResult, error)
	GetFollowStats(ctx context.Context, userID string) (*FollowStats, error)
	ListFollowers(ctx context.Context, userID, viewerID string, page, pageSize int) ([]FollowEntry, error)
	ListFollowing(ctx context.Context, userID, viewerID string, page, pageSize int) ([]FollowEntry, error)
}

// edgeLocks 进程内按 (actor, target) 分段串行化 toggle，减少同一条边在存储层的争用
type edgeLocks [64]sync.Mutex

func (l *edgeLocks) lock(actorID, targetID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(targetID))
	m := &l[h.Sum32()%uint32(len(l))]
	m.Lock()
	return m.Unlock
}

type relationshipService struct {
	locks       edgeLocks
	accountRepo repository.AccountRepository
	followRepo  repository.FollowRepository
	fanRepo     repository.FanRepository
	inboxRepo   repository.InboxRepository
	graph       repository.FollowGraph
	commit      twoStepCommitter
	cfg         config.GraphConfig
}

// NewRelationshipService graph 非 nil 时 follows/fans 在同一事务内翻转；
// 为 nil 时（存储不支持事务）先写 follows（primary）再写 fans（mirror），失败补偿。
// inboxRepo 可为 nil，此时取关不清理关注流。
func NewRelationshipService(
	accountRepo repository.AccountRepository,
	followRepo repository.FollowRepository,
	fanRepo repository.FanRepository,
	inboxRepo repository.InboxRepository,
	graph repository.FollowGraph,
	cfg config.GraphConfig,
) RelationshipService {
	return &relationshipService{
		accountRepo: accountRepo,
		followRepo:  followRepo,
		fanRepo:     fanRepo,
		inboxRepo:   inboxRepo,
		graph:       graph,
		commit: twoStepCommitter{
			retries:           cfg.MirrorRetries,
			delay:             cfg.RetryDelay,
			compensateTimeout: cfg.StoreTimeout,
		},
		cfg: cfg,
	}
}

func (s *relationshipService) ToggleFollow(ctx context.Context, actorID, targetID string) (*ToggleResult, error) {
	if actorID == targetID {
		return nil, ErrFollowSelf
	}
	ctx, span := tracer.Start(ctx, "RelationshipService.ToggleFollow", trace.WithAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("target.id", targetID),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.ensureAccounts(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(actorID, targetID)
	defer unlock()

	var (
		following bool
		err       error
	)
	if s.graph != nil {
		following, err = s.toggleTx(ctx, actorID, targetID)
	} else {
		following, err = s.toggleTwoStep(ctx, actorID, targetID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !following {
		s.pruneFeed(ctx, actorID, targetID)
	}
	res := &ToggleResult{IsFollowing: following}
	if res.FollowerCount, err = s.fanRepo.CountFans(ctx, targetID); err != nil {
		return nil, storeErr("count followers", err)
	}
	if res.FollowingCount, err = s.followRepo.CountFollowings(ctx, actorID); err != nil {
		return nil, storeErr("count following", err)
	}
	span.SetAttributes(attribute.Bool("following", res.IsFollowing))
	return res, nil
}

func (s *relationshipService) toggleTx(ctx context.Context, actorID, targetID string) (bool, error) {
	following, err := s.graph.Toggle(ctx, actorID, targetID)
	if err != nil {
		return false, storeErr("toggle follow edge", err)
	}
	return following, nil
}

// toggleTwoStep 读取当前状态后做条件写入；条件未命中说明被并发修改，重新读取再试
func (s *relationshipService) toggleTwoStep(ctx context.Context, actorID, targetID string) (bool, error) {
	attempts := max(s.cfg.ToggleAttempts, 1)
	for i := 0; i < attempts; i++ {
		following, err := s.followRepo.Exists(ctx, actorID, targetID)
		if err != nil {
			return false, storeErr("read follow edge", err)
		}

		err = s.commit.run(ctx, s.edgeStep(actorID, targetID, !following))
		if errors.Is(err, errEdgeRaced) {
			logger.Debug("follow toggle raced, retrying", zap.String("actor", actorID), zap.String("target", targetID))
			continue
		}
		if err != nil {
			return false, err
		}
		return !following, nil
	}
	return false, fmt.Errorf("toggle follow: contention after %d attempts: %w", attempts, ErrTransient)
}

// edgeStep 把一次关注/取关表达为 follows -> fans 的两步写
func (s *relationshipService) edgeStep(actorID, targetID string, add bool) twoStep {
	if add {
		return twoStep{
			name: "follow",
			primary: func(ctx context.Context) error {
				created, err := s.followRepo.Create(ctx, actorID, targetID)
				if err != nil {
					return storeErr("write following", err)
				}
				if !created {
					return errEdgeRaced
				}
				return nil
			},
			mirror: func(ctx context.Context) error {
				_, err := s.fanRepo.Create(ctx, targetID, actorID)
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := s.followRepo.Delete(ctx, actorID, targetID)
				return err
			},
		}
	}
	return twoStep{
		name: "unfollow",
		primary: func(ctx context.Context) error {
			deleted, err := s.followRepo.Delete(ctx, actorID, targetID)
			if err != nil {
				return storeErr("remove following", err)
			}
			if !deleted {
				return errEdgeRaced
			}
			return nil
		},
		mirror: func(ctx context.Context) error {
			_, err := s.fanRepo.Delete(ctx, targetID, actorID)
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := s.followRepo.Create(ctx, actorID, targetID)
			return err
		},
	}
}

func (s *relationshipService) pruneFeed(ctx context.Context, actorID, targetID string) {
	if s.inboxRepo == nil {
		return
	}
	if _, err := s.inboxRepo.DeleteByAuthor(ctx, actorID, targetID); err != nil {
		logger.Warn("prune feed after unfollow failed",
			zap.String("user", actorID), zap.String("author", targetID), zap.Error(err))
	}
}

func (s *relationshipService) ensureAccounts(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := s.accountRepo.Get(ctx, id); err != nil {
			return storeErr("load account", err)
		}
	}
	return nil
}

func (s *relationshipService) GetFollowStats(ctx context.Context, userID string) (*FollowStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.ensureAccounts(ctx, userID); err != nil {
		return nil, err
	}
	var (
		stats FollowStats
		err   error
	)
	if stats.FollowerCount, err = s.fanRepo.CountFans(ctx, userID); err != nil {
		return nil, storeErr("count followers", err)
	}
	if stats.FollowingCount, err = s.followRepo.CountFollowings(ctx, userID); err != nil {
		return nil, storeErr("count following", err)
	}
	return &stats, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID, viewerID string, page, pageSize int) ([]FollowEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.ensureAccounts(ctx, userID); err != nil {
		return nil, err
	}
	offset, limit := s.paging(page, pageSize)
	items, err := s.fanRepo.ListFans(ctx, userID, offset, limit)
	if err != nil {
		return nil, storeErr("list followers", err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FanID
	}
	return s.entries(ctx, ids, viewerID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID, viewerID string, page, pageSize int) ([]FollowEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.ensureAccounts(ctx, userID); err != nil {
		return nil, err
	}
	offset, limit := s.paging(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, storeErr("list following", err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FolloweeID
	}
	return s.entries(ctx, ids, viewerID)
}

// entries 按 ids 顺序组装列表，IsFollowing 针对 viewerID 计算
func (s *relationshipService) entries(ctx context.Context, ids []string, viewerID string) ([]FollowEntry, error) {
	accounts, err := s.accountRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, storeErr("load accounts", err)
	}
	byID := make(map[string]*model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	followed := map[string]bool{}
	if viewerID != "" {
		if followed, err = s.followRepo.FilterFollowed(ctx, viewerID, ids); err != nil {
			return nil, storeErr("load viewer follows", err)
		}
	}

	res := make([]FollowEntry, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			continue
		}
		res = append(res, FollowEntry{Account: a, IsFollowing: followed[id]})
	}
	return res, nil
}

func (s *relationshipService) paging(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.cfg.ListPageSize
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}

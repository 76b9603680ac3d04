package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/pkg/logger"
)

// FanoutWorker 从 outbox 拉取首次发布事件并写入粉丝的 inbox
type FanoutWorker struct {
	db           *gorm.DB
	fanRepo      repository.FanRepository
	inboxRepo    repository.InboxRepository
	batchSize    int
	claimLimit   int
	pollInterval time.Duration
	claimTimeout time.Duration
	workers      int
	now          func() time.Time
	metricsCh    chan time.Duration // outbox->processed latency
}

func NewFanoutWorker(db *gorm.DB, fanRepo repository.FanRepository, inboxRepo repository.InboxRepository, cfg config.FanoutConfig) *FanoutWorker {
	w := &FanoutWorker{
		db: db, fanRepo: fanRepo, inboxRepo: inboxRepo,
		workers: cfg.Workers, batchSize: cfg.BatchSize, claimLimit: cfg.ClaimLimit, pollInterval: cfg.PollInterval,
		claimTimeout: cfg.ClaimTimeout,
		metricsCh:    make(chan time.Duration, 4096),
		now:          time.Now,
	}
	if w.workers <= 0 {
		w.workers = 4
	}
	if w.batchSize <= 0 {
		w.batchSize = 500
	}
	if w.claimLimit <= 0 {
		w.claimLimit = 128
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 200 * time.Millisecond
	}
	if w.claimTimeout <= 0 {
		w.claimTimeout = 5 * time.Minute
	}
	return w
}

func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理 outbox；返回停止函数，等待进行中的批次结束。
func (w *FanoutWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(stop)
		}()
	}
	return func(ctx context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *FanoutWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.processOnce(context.Background()); err != nil {
				logger.Warn("fanout poll failed", zap.Error(err))
			}
		}
	}
}

// claim 以条件更新 pending -> processing 抢占事件，多 worker 并发时每条只会被一个拿到。
// processing 超过 claimTimeout 的事件（worker 中途退出或回退写入失败）视为可重新领取。
func (w *FanoutWorker) claim(ctx context.Context) ([]model.Outbox, error) {
	now := w.now()
	stale := now.Add(-w.claimTimeout)
	claimable := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ? OR (status = ? AND (claimed_at IS NULL OR claimed_at < ?))",
			model.OutboxStatusPending, model.OutboxStatusProcessing, stale)
	}

	var candidates []model.Outbox
	if err := w.db.WithContext(ctx).
		Scopes(claimable).
		Order("created_at").
		Limit(w.claimLimit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	claimed := candidates[:0]
	for _, c := range candidates {
		res := w.db.WithContext(ctx).
			Model(&model.Outbox{}).
			Where("id = ?", c.ID).
			Scopes(claimable).
			Updates(map[string]any{"status": model.OutboxStatusProcessing, "claimed_at": now})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 1 {
			if c.Status == model.OutboxStatusProcessing {
				logger.Warn("reclaiming stale outbox event", zap.String("outbox_id", c.ID), zap.String("blog_id", c.BlogID))
			}
			claimed = append(claimed, c)
		}
	}
	return claimed, nil
}

// processOnce claims one batch and fans each event out; returns how many events completed.
func (w *FanoutWorker) processOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil && len(batch) == 0 {
		return 0, err
	}

	done := 0
	for _, ev := range batch {
		written, ferr := w.fanout(ctx, ev)
		if ferr != nil {
			logger.Warn("fanout failed, event requeued", zap.String("blog_id", ev.BlogID), zap.Error(ferr))
			if rerr := w.db.WithContext(ctx).Model(&model.Outbox{}).
				Where("id = ?", ev.ID).
				Updates(map[string]any{"status": model.OutboxStatusPending, "claimed_at": nil}).Error; rerr != nil {
				// 留在 processing，超过 claim_timeout 后重新领取
				logger.Warn("requeue outbox event failed", zap.String("outbox_id", ev.ID), zap.Error(rerr))
			}
			continue
		}
		now := w.now()
		if uerr := w.db.WithContext(ctx).Model(&model.Outbox{}).
			Where("id = ?", ev.ID).
			Updates(map[string]any{"status": model.OutboxStatusDone, "processed_at": now, "fanout_count": written}).Error; uerr != nil {
			logger.Warn("mark outbox done failed", zap.String("outbox_id", ev.ID), zap.Error(uerr))
			continue
		}
		done++
		if !ev.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- time.Since(ev.CreatedAt):
			default:
			}
		}
	}
	return done, err
}

// fanout 分页读取作者的粉丝并批量写入 inbox；重复投递由唯一键吸收
func (w *FanoutWorker) fanout(ctx context.Context, ev model.Outbox) (int64, error) {
	score := ev.CreatedAt.UnixNano()
	var written int64
	for offset := 0; ; offset += w.batchSize {
		fans, err := w.fanRepo.ListFans(ctx, ev.AuthorID, offset, w.batchSize)
		if err != nil {
			return written, err
		}
		if len(fans) == 0 {
			return written, nil
		}
		records := make([]model.Inbox, 0, len(fans))
		now := time.Now()
		for _, f := range fans {
			records = append(records, model.Inbox{
				ID:        uuid.New().String(),
				UserID:    f.FanID,
				BlogID:    ev.BlogID,
				AuthorID:  ev.AuthorID,
				Score:     score,
				CreatedAt: now,
			})
		}
		if err := w.inboxRepo.Insert(ctx, records); err != nil {
			return written, err
		}
		written += int64(len(records))
		if len(fans) < w.batchSize {
			return written, nil
		}
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/pkg/logger"
)

type viewJob struct {
	blogID string
	enqAt  time.Time
}

// ViewRecorder 本地异步浏览计数：请求路径只入队，worker 调用 RecordView。
// 队列满时丢弃（浏览数允许少计）。
type ViewRecorder struct {
	ranking   RankingService
	ch        chan viewJob
	metricsCh chan time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewViewRecorder(ranking RankingService, queueSize int) *ViewRecorder {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &ViewRecorder{ranking: ranking, ch: make(chan viewJob, queueSize), metricsCh: make(chan time.Duration, 4096)}
}

// Start 启动 worker；返回的停止函数会排空队列，ctx 到期则放弃剩余任务。
func (r *ViewRecorder) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for job := range r.ch {
				r.ranking.RecordView(context.Background(), job.blogID)
				select {
				case r.metricsCh <- time.Since(job.enqAt):
				default:
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		r.mu.Lock()
		if !r.closed {
			r.closed = true
			close(r.ch)
		}
		r.mu.Unlock()

		done := make(chan struct{})
		go func() { r.wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			logger.Warn("view recorder stopped before draining", zap.Int("pending", len(r.ch)))
			return ctx.Err()
		}
	}
}

// Enqueue never blocks; it reports whether the view was accepted.
func (r *ViewRecorder) Enqueue(blogID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.ch <- viewJob{blogID: blogID, enqAt: time.Now()}:
		return true
	default:
		logger.Warn("view queue full, drop view", zap.String("blog_id", blogID))
		return false
	}
}

// Metrics 返回入队到落地耗时的只读通道
func (r *ViewRecorder) Metrics() <-chan time.Duration { return r.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (r *ViewRecorder) QueueLen() int { return len(r.ch) }

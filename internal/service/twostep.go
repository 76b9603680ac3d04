package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/pkg/logger"
)

// twoStep 一次跨两条记录的逻辑写：primary 先落地，mirror 随后；mirror 重试耗尽后撤销 primary
type twoStep struct {
	name       string
	primary    func(ctx context.Context) error
	mirror     func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// twoStepCommitter runs twoStep units with bounded mirror retries.
type twoStepCommitter struct {
	retries int
	delay   time.Duration
	// deadline for the compensation phase, detached from the caller's context
	compensateTimeout time.Duration
}

func (c twoStepCommitter) run(ctx context.Context, s twoStep) error {
	if err := s.primary(ctx); err != nil {
		return err
	}

	retries := c.retries
	if retries < 1 {
		retries = 1
	}
	var mirrorErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 && !sleepCtx(ctx, c.delay) {
			break
		}
		if mirrorErr = s.mirror(ctx); mirrorErr == nil {
			return nil
		}
		logger.Warn("mirror write failed",
			zap.String("step", s.name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", retries),
			zap.Error(mirrorErr),
		)
	}
	if mirrorErr == nil {
		mirrorErr = ctx.Err()
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.compensateTimeout)
	defer cancel()
	var compErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 && !sleepCtx(cctx, c.delay) {
			break
		}
		if compErr = s.compensate(cctx); compErr == nil {
			break
		}
	}
	if compErr != nil {
		// 两侧不对称：下一次对同一条边的写入会重放幂等的 mirror 操作使其收敛
		logger.Error("compensation failed, edge left asymmetric",
			zap.String("step", s.name),
			zap.NamedError("mirror_error", mirrorErr),
			zap.NamedError("compensation_error", compErr),
		)
		return fmt.Errorf("%s: mirror and compensation failed: %w", s.name, errors.Join(ErrTransient, mirrorErr, compErr))
	}
	logger.Error("mirror write exhausted retries, primary write reverted",
		zap.String("step", s.name),
		zap.Error(mirrorErr),
	)
	return fmt.Errorf("%s: mirror write failed after retries: %w", s.name, errors.Join(ErrTransient, mirrorErr))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

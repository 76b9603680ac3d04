package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
)

func TestFanoutWorker_DeliversToFollowersFeed(t *testing.T) {
	e := newEnv(t)
	rel := e.relationships()
	lifecycle := NewLifecycleService(e.store)
	feed := NewFeedService(e.inbox, testGraph)
	author := e.account(t, "alice")
	readers := []*model.Account{e.account(t, "bobby"), e.account(t, "carol"), e.account(t, "dave_")}
	stranger := e.account(t, "erin_")
	ctx := context.Background()

	for _, r := range readers {
		_, err := rel.ToggleFollow(ctx, r.ID, author.ID)
		require.NoError(t, err)
	}

	first, err := lifecycle.Publish(ctx, author.ID, "", draftFields("first"))
	require.NoError(t, err)
	e.store.now = func() time.Time { return time.Now().UTC().Add(time.Minute) }
	second, err := lifecycle.Publish(ctx, author.ID, "", draftFields("second"))
	require.NoError(t, err)
	_, err = lifecycle.SaveDraft(ctx, author.ID, "", draftFields("unpublished"))
	require.NoError(t, err)

	// batch 小于粉丝数，覆盖分页
	w := NewFanoutWorker(e.db, e.fans, e.inbox, config.FanoutConfig{BatchSize: 2, ClaimLimit: 10})
	done, err := w.processOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, done)

	var outbox []model.Outbox
	require.NoError(t, e.db.Find(&outbox).Error)
	require.Len(t, outbox, 2)
	for _, ev := range outbox {
		assert.Equal(t, model.OutboxStatusDone, ev.Status)
		assert.EqualValues(t, len(readers), ev.FanoutCount)
		assert.NotNil(t, ev.ProcessedAt)
	}

	for _, r := range readers {
		items, err := feed.Feed(ctx, r.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID, "newest first")
		assert.Equal(t, first.ID, items[1].ID)
	}
	items, err := feed.Feed(ctx, stranger.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	// 已处理的事件不会被再次领取
	done, err = w.processOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, done)
}

func TestFanoutWorker_FeedHidesArchived(t *testing.T) {
	e := newEnv(t)
	lifecycle := NewLifecycleService(e.store)
	feed := NewFeedService(e.inbox, testGraph)
	author, reader := e.account(t, "alice"), e.account(t, "bobby")
	ctx := context.Background()

	_, err := e.relationships().ToggleFollow(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	b, err := lifecycle.Publish(ctx, author.ID, "", draftFields("soon archived"))
	require.NoError(t, err)

	w := NewFanoutWorker(e.db, e.fans, e.inbox, config.FanoutConfig{})
	_, err = w.processOnce(ctx)
	require.NoError(t, err)

	_, err = lifecycle.Archive(ctx, author.ID, b.ID)
	require.NoError(t, err)
	items, err := feed.Feed(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFanoutWorker_StartStop(t *testing.T) {
	e := newEnv(t)
	author, reader := e.account(t, "alice"), e.account(t, "bobby")
	ctx := context.Background()
	_, err := e.relationships().ToggleFollow(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	_, err = NewLifecycleService(e.store).Publish(ctx, author.ID, "", draftFields("async"))
	require.NoError(t, err)

	w := NewFanoutWorker(e.db, e.fans, e.inbox, config.FanoutConfig{Workers: 2, PollInterval: 5 * time.Millisecond})
	stop := w.Start()

	assert.Eventually(t, func() bool {
		var n int64
		_ = e.db.Model(&model.Inbox{}).Where("user_id = ?", reader.ID).Count(&n).Error
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	sctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, stop(sctx))
}

func TestFanoutWorker_ReclaimsStaleProcessing(t *testing.T) {
	e := newEnv(t)
	feed := NewFeedService(e.inbox, testGraph)
	author, reader := e.account(t, "alice"), e.account(t, "bobby")
	ctx := context.Background()

	_, err := e.relationships().ToggleFollow(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	stuck, err := NewLifecycleService(e.store).Publish(ctx, author.ID, "", draftFields("stuck"))
	require.NoError(t, err)
	fresh, err := NewLifecycleService(e.store).Publish(ctx, author.ID, "", draftFields("in flight"))
	require.NoError(t, err)

	// 模拟两个已被领取但未完成的事件：一个早已超时，一个刚被其他 worker 拿走
	now := time.Now()
	longAgo := now.Add(-time.Hour)
	require.NoError(t, e.db.Model(&model.Outbox{}).Where("blog_id = ?", stuck.ID).
		Updates(map[string]any{"status": model.OutboxStatusProcessing, "claimed_at": longAgo}).Error)
	require.NoError(t, e.db.Model(&model.Outbox{}).Where("blog_id = ?", fresh.ID).
		Updates(map[string]any{"status": model.OutboxStatusProcessing, "claimed_at": now}).Error)

	w := NewFanoutWorker(e.db, e.fans, e.inbox, config.FanoutConfig{ClaimTimeout: time.Minute})
	w.now = func() time.Time { return now.Add(time.Second) }
	done, err := w.processOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	items, err := feed.Feed(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, stuck.ID, items[0].ID)

	var ev model.Outbox
	require.NoError(t, e.db.First(&ev, "blog_id = ?", fresh.ID).Error)
	assert.Equal(t, model.OutboxStatusProcessing, ev.Status)

	// 超过 claim_timeout 后由下一轮领取
	w.now = func() time.Time { return now.Add(2 * time.Minute) }
	done, err = w.processOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	require.NoError(t, e.db.First(&ev, "blog_id = ?", fresh.ID).Error)
	assert.Equal(t, model.OutboxStatusDone, ev.Status)
	require.NotNil(t, ev.ClaimedAt)
}

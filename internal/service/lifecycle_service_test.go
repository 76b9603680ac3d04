package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-blog/internal/model"
)

func TestPublish_SetsPublishedAtOnce(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author := e.account(t, "alice")
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e.store.now = func() time.Time { return clock }

	draft, err := svc.SaveDraft(ctx, author.ID, "", draftFields("first"))
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)

	clock = clock.Add(time.Hour)
	pub, err := svc.Publish(ctx, author.ID, draft.ID, draftFields("first"))
	require.NoError(t, err)
	require.NotNil(t, pub.PublishedAt)
	first := *pub.PublishedAt

	clock = clock.Add(time.Hour)
	again, err := svc.Publish(ctx, author.ID, draft.ID, draftFields("first, edited"))
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusPublished, again.Status)
	assert.True(t, first.Equal(*again.PublishedAt))

	stored, err := e.blogs.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "first, edited", stored.Title)
	assert.True(t, first.Equal(*stored.PublishedAt))

	var events int64
	require.NoError(t, e.db.Model(&model.Outbox{}).Where("blog_id = ?", draft.ID).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestPublish_NewItemDirectly(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author := e.account(t, "alice")

	b, err := svc.Publish(context.Background(), author.ID, "", draftFields("direct"))
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusPublished, b.Status)
	assert.NotNil(t, b.PublishedAt)
	assert.Equal(t, "tech", b.Genre)

	var ev model.Outbox
	require.NoError(t, e.db.Where("blog_id = ?", b.ID).First(&ev).Error)
	assert.Equal(t, model.OutboxStatusPending, ev.Status)
	assert.Equal(t, author.ID, ev.AuthorID)
}

func TestLifecycle_ForbiddenLeavesItemUnmodified(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author, other := e.account(t, "alice"), e.account(t, "mallory")
	ctx := context.Background()

	draft, err := svc.SaveDraft(ctx, author.ID, "", draftFields("mine"))
	require.NoError(t, err)

	_, err = svc.SaveDraft(ctx, other.ID, draft.ID, draftFields("hijack"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Publish(ctx, other.ID, draft.ID, draftFields("hijack"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Publish(ctx, author.ID, draft.ID, draftFields("mine"))
	require.NoError(t, err)
	_, err = svc.Archive(ctx, other.ID, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, draft.ID), ErrForbidden)

	stored, err := e.blogs.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Title)
	assert.Equal(t, model.BlogStatusPublished, stored.Status)
}

func TestLifecycle_Transitions(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author := e.account(t, "alice")
	ctx := context.Background()

	draft, err := svc.SaveDraft(ctx, author.ID, "", draftFields("t"))
	require.NoError(t, err)

	_, err = svc.Archive(ctx, author.ID, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "draft cannot be archived")

	_, err = svc.Publish(ctx, author.ID, draft.ID, draftFields("t"))
	require.NoError(t, err)

	_, err = svc.SaveDraft(ctx, author.ID, draft.ID, draftFields("back to draft"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	archived, err := svc.Archive(ctx, author.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusArchived, archived.Status)

	_, err = svc.Publish(ctx, author.ID, draft.ID, draftFields("t"))
	assert.ErrorIs(t, err, ErrInvalidTransition, "archived is terminal")
	_, err = svc.Archive(ctx, author.ID, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Archive(ctx, author.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDraft_FieldKeyedValidation(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author := e.account(t, "alice")

	_, err := svc.SaveDraft(context.Background(), author.ID, "", CreateContentFields{
		Tags:          []string{"a", "b", "c", "d"},
		CoverImageURL: strings.Repeat("c", 513),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	for _, f := range []string{"title", "genre", "body", "tags", "cover_image_url"} {
		assert.Contains(t, verr.Fields, f)
	}

	var n int64
	require.NoError(t, e.db.Model(&model.Blog{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSaveDraft_CoverImageStoredVerbatim(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author := e.account(t, "alice")
	ctx := context.Background()

	for _, cover := range []string{"/uploads/covers/a b.png", " https://cdn.example.com/x.png "} {
		f := draftFields("cover")
		f.CoverImageURL = cover
		b, err := svc.SaveDraft(ctx, author.ID, "", f)
		require.NoError(t, err)
		assert.Equal(t, cover, b.CoverImageURL)

		var stored model.Blog
		require.NoError(t, e.db.First(&stored, "id = ?", b.ID).Error)
		assert.Equal(t, cover, stored.CoverImageURL)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	content := NewContentService(e.store)
	author := e.account(t, "alice")
	ctx := context.Background()

	b, err := svc.Publish(ctx, author.ID, "", draftFields("gone"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, author.ID, b.ID))
	require.NoError(t, svc.Delete(ctx, author.ID, b.ID))

	_, err = content.Get(ctx, b.ID, author.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, author.ID, "missing"), ErrNotFound)
}

func TestListByAuthor_Visibility(t *testing.T) {
	e := newEnv(t)
	svc := NewLifecycleService(e.store)
	author, other := e.account(t, "alice"), e.account(t, "bobby")
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, author.ID, "", draftFields("draft"))
	require.NoError(t, err)
	pub, err := svc.Publish(ctx, author.ID, "", draftFields("pub"))
	require.NoError(t, err)

	own, err := svc.ListByAuthor(ctx, author.ID, author.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	drafts, err := svc.ListByAuthor(ctx, author.ID, author.ID, model.BlogStatusDraft, 1, 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "draft", drafts[0].Title)

	visible, err := svc.ListByAuthor(ctx, author.ID, other.ID, model.BlogStatusPublished, 1, 10)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, pub.ID, visible[0].ID)

	hidden, err := svc.ListByAuthor(ctx, author.ID, other.ID, model.BlogStatusDraft, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	_, err = svc.ListByAuthor(ctx, author.ID, author.ID, "bogus", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

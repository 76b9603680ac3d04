package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-blog/internal/model"
)

func strPtr(s string) *string { return &s }

func TestContentService_GetHidesUnpublishedFromOthers(t *testing.T) {
	e := newEnv(t)
	svc := NewContentService(e.store)
	author, other := e.account(t, "alice"), e.account(t, "bobby")
	ctx := context.Background()

	d, err := svc.Create(ctx, author.ID, draftFields("secret"))
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusDraft, d.Status)

	got, err := svc.Get(ctx, d.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)

	_, err = svc.Get(ctx, d.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, d.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentService_UpdatePartial(t *testing.T) {
	e := newEnv(t)
	svc := NewContentService(e.store)
	lifecycle := NewLifecycleService(e.store)
	author, other := e.account(t, "alice"), e.account(t, "bobby")
	ctx := context.Background()

	b, err := lifecycle.Publish(ctx, author.ID, "", CreateContentFields{
		Title: "orig", Genre: "Travel", Tags: []string{" Go ", "go", "db"}, Body: "some words here",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "db"}, b.Tags)

	updated, err := svc.Update(ctx, b.ID, author.ID, UpdateContentFields{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "travel", updated.Genre)
	assert.Equal(t, model.BlogStatusPublished, updated.Status)
	assert.True(t, b.PublishedAt.Equal(*updated.PublishedAt))

	_, err = svc.Update(ctx, b.ID, author.ID, UpdateContentFields{Title: strPtr("")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")

	_, err = svc.Update(ctx, b.ID, other.ID, UpdateContentFields{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = lifecycle.Archive(ctx, author.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.Update(ctx, b.ID, author.ID, UpdateContentFields{Title: strPtr("late")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestContentService_IncrementViews(t *testing.T) {
	e := newEnv(t)
	svc := NewContentService(e.store)
	author := e.account(t, "alice")
	ctx := context.Background()

	d, err := svc.Create(ctx, author.ID, draftFields("draft"))
	require.NoError(t, err)
	assert.ErrorIs(t, svc.IncrementViews(ctx, d.ID), ErrNotFound)

	p, err := NewLifecycleService(e.store).Publish(ctx, author.ID, d.ID, draftFields("draft"))
	require.NoError(t, err)
	require.NoError(t, svc.IncrementViews(ctx, p.ID))
	got, err := svc.Get(ctx, p.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)
}

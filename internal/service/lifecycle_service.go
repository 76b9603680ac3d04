package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/social-blog/internal/model"
)

// LifecycleService 发布生命周期：draft -> published -> archived
type LifecycleService interface {
	// SaveDraft existingID 为空时新建草稿，否则编辑已有草稿
	SaveDraft(ctx context.Context, actorID, existingID string, fields CreateContentFields) (*model.Blog, error)
	// Publish 新建即发布，或 draft -> published；对已发布内容视为保留状态的编辑
	Publish(ctx context.Context, actorID, existingID string, fields CreateContentFields) (*model.Blog, error)
	Archive(ctx context.Context, actorID, id string) (*model.Blog, error)
	// Delete 软删除，幂等
	Delete(ctx context.Context, actorID, id string) error
	ListByAuthor(ctx context.Context, authorID, viewerID string, status model.BlogStatus, page, pageSize int) ([]*model.Blog, error)
}

type lifecycleService struct {
	store *BlogStore
}

func NewLifecycleService(store *BlogStore) LifecycleService {
	return &lifecycleService{store: store}
}

func (s *lifecycleService) SaveDraft(ctx context.Context, actorID, existingID string, fields CreateContentFields) (*model.Blog, error) {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	if existingID == "" {
		return s.store.insert(ctx, actorID, fields, model.BlogStatusDraft)
	}
	return s.store.mutate(ctx, existingID, actorID, func(b *model.Blog) (*model.Outbox, error) {
		if b.Status != model.BlogStatusDraft {
			return nil, fmt.Errorf("save draft over %s blog: %w", b.Status, ErrInvalidTransition)
		}
		return nil, s.store.editFields(b, fields)
	})
}

func (s *lifecycleService) Publish(ctx context.Context, actorID, existingID string, fields CreateContentFields) (*model.Blog, error) {
	ctx, span := tracer.Start(ctx, "LifecycleService.Publish", trace.WithAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("blog.id", existingID),
	))
	defer span.End()
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	if existingID == "" {
		return s.store.insert(ctx, actorID, fields, model.BlogStatusPublished)
	}
	b, err := s.store.mutate(ctx, existingID, actorID, func(b *model.Blog) (*model.Outbox, error) {
		switch b.Status {
		case model.BlogStatusDraft:
			if err := s.store.editFields(b, fields); err != nil {
				return nil, err
			}
			b.Status = model.BlogStatusPublished
			// publishedAt 只在首次进入 published 时设置
			if b.PublishedAt == nil {
				now := s.store.now()
				b.PublishedAt = &now
			}
			return newPublicationEvent(b, *b.PublishedAt), nil
		case model.BlogStatusPublished:
			return nil, s.store.editFields(b, fields)
		default:
			return nil, fmt.Errorf("publish %s blog: %w", b.Status, ErrInvalidTransition)
		}
	})
	if err != nil {
		span.RecordError(err)
	}
	return b, err
}

func (s *lifecycleService) Archive(ctx context.Context, actorID, id string) (*model.Blog, error) {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()
	return s.store.mutate(ctx, id, actorID, func(b *model.Blog) (*model.Outbox, error) {
		if b.Status != model.BlogStatusPublished {
			return nil, fmt.Errorf("archive %s blog: %w", b.Status, ErrInvalidTransition)
		}
		b.Status = model.BlogStatusArchived
		return nil, nil
	})
}

func (s *lifecycleService) Delete(ctx context.Context, actorID, id string) error {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	b, err := s.store.repo.GetUnscoped(ctx, id)
	if err != nil {
		return storeErr("load blog", err)
	}
	if b.AuthorID != actorID {
		return ErrForbidden
	}
	if b.DeletedAt.Valid {
		return nil
	}
	if _, err := s.store.repo.SoftDelete(ctx, id); err != nil {
		return storeErr("delete blog", err)
	}
	return nil
}

func (s *lifecycleService) ListByAuthor(ctx context.Context, authorID, viewerID string, status model.BlogStatus, page, pageSize int) ([]*model.Blog, error) {
	return s.store.listByAuthor(ctx, authorID, viewerID, status, page, pageSize)
}

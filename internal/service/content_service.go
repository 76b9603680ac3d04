package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
)

// BlogStore 内容读写的公共部分：超时、归属校验、读-判定-条件写循环
type BlogStore struct {
	repo      repository.BlogRepository
	validator *FieldValidator
	timeout   time.Duration
	attempts  int
	pageSize  int
	now       func() time.Time
}

func NewBlogStore(repo repository.BlogRepository, v *FieldValidator, graph config.GraphConfig) *BlogStore {
	return &BlogStore{
		repo:      repo,
		validator: v,
		timeout:   graph.StoreTimeout,
		attempts:  max(graph.ToggleAttempts, 1),
		pageSize:  graph.ListPageSize,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (st *BlogStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, st.timeout)
}

func (st *BlogStore) load(ctx context.Context, id string) (*model.Blog, error) {
	b, err := st.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("load blog", err)
	}
	return b, nil
}

func (st *BlogStore) loadOwned(ctx context.Context, id, actorID string) (*model.Blog, error) {
	b, err := st.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AuthorID != actorID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (st *BlogStore) insert(ctx context.Context, authorID string, fields CreateContentFields, status model.BlogStatus) (*model.Blog, error) {
	fields = normalizeContent(fields)
	if err := st.validator.Content(fields); err != nil {
		return nil, err
	}
	now := st.now()
	b := &model.Blog{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyFields(b, fields)

	var event *model.Outbox
	if status == model.BlogStatusPublished {
		b.PublishedAt = &now
		event = newPublicationEvent(b, now)
	}
	if err := st.repo.Create(ctx, b, event); err != nil {
		return nil, storeErr("create blog", err)
	}
	return b, nil
}

// mutate 重新读取当前状态后交给 decide 判定，再以读到的状态为条件写回；
// 状态被并发修改时重试
func (st *BlogStore) mutate(ctx context.Context, id, actorID string, decide func(b *model.Blog) (*model.Outbox, error)) (*model.Blog, error) {
	for i := 0; i < st.attempts; i++ {
		b, err := st.loadOwned(ctx, id, actorID)
		if err != nil {
			return nil, err
		}
		expected := b.Status
		event, err := decide(b)
		if err != nil {
			return nil, err
		}
		b.UpdatedAt = st.now()
		err = st.repo.UpdateIfStatus(ctx, b, expected, event)
		if errors.Is(err, repository.ErrStale) {
			continue
		}
		if err != nil {
			return nil, storeErr("update blog", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("update blog %s: changed concurrently: %w", id, ErrTransient)
}

// editFields 合并并校验字段，写回 b
func (st *BlogStore) editFields(b *model.Blog, fields CreateContentFields) error {
	fields = normalizeContent(fields)
	if err := st.validator.Content(fields); err != nil {
		return err
	}
	applyFields(b, fields)
	return nil
}

func (st *BlogStore) listByAuthor(ctx context.Context, authorID, viewerID string, status model.BlogStatus, page, pageSize int) ([]*model.Blog, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "is invalid"}}
	}
	var statuses []model.BlogStatus
	switch {
	case viewerID == authorID && status != "":
		statuses = []model.BlogStatus{status}
	case viewerID == authorID:
		// 作者本人看全部
	case status == "" || status == model.BlogStatusPublished:
		statuses = []model.BlogStatus{model.BlogStatusPublished}
	default:
		return []*model.Blog{}, nil
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = max(st.pageSize, 1)
	}
	ctx, cancel := st.withTimeout(ctx)
	defer cancel()
	res, err := st.repo.ListByAuthor(ctx, authorID, statuses, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, storeErr("list blogs", err)
	}
	return res, nil
}

func fieldsOf(b *model.Blog) CreateContentFields {
	return CreateContentFields{
		Title:         b.Title,
		Genre:         b.Genre,
		Tags:          append([]string(nil), b.Tags...),
		Body:          b.Body,
		CoverImageURL: b.CoverImageURL,
	}
}

func applyFields(b *model.Blog, f CreateContentFields) {
	b.Title = f.Title
	b.Genre = f.Genre
	b.Tags = f.Tags
	b.Body = f.Body
	b.CoverImageURL = f.CoverImageURL
}

// ContentService 内容存储
type ContentService interface {
	Create(ctx context.Context, authorID string, fields CreateContentFields) (*model.Blog, error)
	// Get 非作者只能看到已发布内容，其余一律 NotFound
	Get(ctx context.Context, id, viewerID string) (*model.Blog, error)
	Update(ctx context.Context, id, actorID string, fields UpdateContentFields) (*model.Blog, error)
	ListByAuthor(ctx context.Context, authorID, viewerID string, status model.BlogStatus, page, pageSize int) ([]*model.Blog, error)
	IncrementViews(ctx context.Context, id string) error
}

type contentService struct {
	store *BlogStore
}

func NewContentService(store *BlogStore) ContentService { return &contentService{store: store} }

func (s *contentService) Create(ctx context.Context, authorID string, fields CreateContentFields) (*model.Blog, error) {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()
	return s.store.insert(ctx, authorID, fields, model.BlogStatusDraft)
}

func (s *contentService) Get(ctx context.Context, id, viewerID string) (*model.Blog, error) {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()
	b, err := s.store.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BlogStatusPublished && b.AuthorID != viewerID {
		return nil, fmt.Errorf("get blog: %w", ErrNotFound)
	}
	return b, nil
}

// Update 编辑内容，状态保持不变；已归档内容不可编辑
func (s *contentService) Update(ctx context.Context, id, actorID string, fields UpdateContentFields) (*model.Blog, error) {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()
	return s.store.mutate(ctx, id, actorID, func(b *model.Blog) (*model.Outbox, error) {
		if b.Status == model.BlogStatusArchived {
			return nil, fmt.Errorf("edit archived blog: %w", ErrInvalidTransition)
		}
		return nil, s.store.editFields(b, fields.applyTo(fieldsOf(b)))
	})
}

func (s *contentService) ListByAuthor(ctx context.Context, authorID, viewerID string, status model.BlogStatus, page, pageSize int) ([]*model.Blog, error) {
	return s.store.listByAuthor(ctx, authorID, viewerID, status, page, pageSize)
}

func (s *contentService) IncrementViews(ctx context.Context, id string) error {
	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()
	ok, err := s.store.repo.IncrementViews(ctx, id)
	if err != nil {
		return storeErr("increment views", err)
	}
	if !ok {
		return fmt.Errorf("increment views: %w", ErrNotFound)
	}
	return nil
}

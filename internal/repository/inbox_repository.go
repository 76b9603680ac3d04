package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-blog/internal/model"
)

// InboxRepository 关注流收件箱
type InboxRepository interface {
	// Insert 批量写入，(user_id, blog_id) 重复时忽略
	Insert(ctx context.Context, items []model.Inbox) error
	DeleteByAuthor(ctx context.Context, userID, authorID string) (int64, error)
	// ListFeed 收件箱中仍处于发布状态的内容，新者在前
	ListFeed(ctx context.Context, userID string, offset, limit int) ([]*model.Blog, error)
}

type inboxRepository struct{ db *gorm.DB }

func NewInboxRepository(db *gorm.DB) InboxRepository { return &inboxRepository{db: db} }

func (r *inboxRepository) Insert(ctx context.Context, items []model.Inbox) error {
	if len(items) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&items).Error)
}

func (r *inboxRepository) DeleteByAuthor(ctx context.Context, userID, authorID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&model.Inbox{})
	return res.RowsAffected, translate(res.Error)
}

func (r *inboxRepository) ListFeed(ctx context.Context, userID string, offset, limit int) ([]*model.Blog, error) {
	var res []*model.Blog
	err := r.db.WithContext(ctx).
		Model(&model.Blog{}).
		Select("blogs.*").
		Joins("JOIN inbox ON inbox.blog_id = blogs.id").
		Where("inbox.user_id = ? AND blogs.status = ?", userID, model.BlogStatusPublished).
		Order("inbox.score DESC, inbox.id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, translate(err)
}

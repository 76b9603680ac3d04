package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-blog/internal/model"
)

// GenreStat 题材聚合行
type GenreStat struct {
	Genre      string `gorm:"column:genre"`
	Count      int64  `gorm:"column:blog_count"`
	TotalViews int64  `gorm:"column:total_views"`
	TotalLikes int64  `gorm:"column:total_likes"`
}

// BlogRepository 内容仓储
type BlogRepository interface {
	// Create 写入内容；event 非空时同事务写入 outbox
	Create(ctx context.Context, blog *model.Blog, event *model.Outbox) error
	Get(ctx context.Context, id string) (*model.Blog, error)
	// GetUnscoped 包含已软删除的记录
	GetUnscoped(ctx context.Context, id string) (*model.Blog, error)
	// UpdateIfStatus 仅当当前状态等于 expected 时写入，未命中返回 ErrStale；
	// event 非空时与更新同事务写入 outbox
	UpdateIfStatus(ctx context.Context, blog *model.Blog, expected model.BlogStatus, event *model.Outbox) error
	ListByAuthor(ctx context.Context, authorID string, statuses []model.BlogStatus, offset, limit int) ([]*model.Blog, error)
	// IncrementViews 原子自增，仅对已发布内容生效
	IncrementViews(ctx context.Context, id string) (bool, error)
	TopByViews(ctx context.Context, limit int) ([]*model.Blog, error)
	GenreStats(ctx context.Context, limit int) ([]GenreStat, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
}

type blogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) BlogRepository { return &blogRepository{db: db} }

// editableColumns 生命周期写入涉及的列；views / like_count 只走原子自增
var editableColumns = []string{"title", "genre", "tags", "body", "cover_image_url", "status", "published_at", "updated_at"}

func (r *blogRepository) Create(ctx context.Context, blog *model.Blog, event *model.Outbox) error {
	if event == nil {
		return translate(r.db.WithContext(ctx).Create(blog).Error)
	}
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(blog).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	}))
}

func (r *blogRepository) Get(ctx context.Context, id string) (*model.Blog, error) {
	var b model.Blog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *blogRepository) GetUnscoped(ctx context.Context, id string) (*model.Blog, error) {
	var b model.Blog
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *blogRepository) UpdateIfStatus(ctx context.Context, blog *model.Blog, expected model.BlogStatus, event *model.Outbox) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(blog).
			Where("status = ?", expected).
			Select(editableColumns).
			Updates(blog)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *blogRepository) ListByAuthor(ctx context.Context, authorID string, statuses []model.BlogStatus, offset, limit int) ([]*model.Blog, error) {
	var res []*model.Blog
	tx := r.db.WithContext(ctx).Where("author_id = ?", authorID)
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	err := tx.Order("updated_at DESC, id ASC").Offset(offset).Limit(limit).Find(&res).Error
	return res, translate(err)
}

func (r *blogRepository) IncrementViews(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Blog{}).
		Where("id = ? AND status = ?", id, model.BlogStatusPublished).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// TopByViews 浏览量降序，同浏览量按发布时间新者优先，最后按 id 保证稳定
func (r *blogRepository) TopByViews(ctx context.Context, limit int) ([]*model.Blog, error) {
	var res []*model.Blog
	err := r.db.WithContext(ctx).
		Where("status = ?", model.BlogStatusPublished).
		Order("views DESC, published_at DESC, id ASC").
		Limit(limit).
		Find(&res).Error
	return res, translate(err)
}

func (r *blogRepository) GenreStats(ctx context.Context, limit int) ([]GenreStat, error) {
	var res []GenreStat
	err := r.db.WithContext(ctx).
		Model(&model.Blog{}).
		Select("genre, COUNT(*) AS blog_count, COALESCE(SUM(views), 0) AS total_views, COALESCE(SUM(like_count), 0) AS total_likes").
		Where("status = ?", model.BlogStatusPublished).
		Group("genre").
		Order("blog_count DESC, genre ASC").
		Limit(limit).
		Scan(&res).Error
	return res, translate(err)
}

func (r *blogRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Blog{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-blog/internal/model"
)

// LikeRepository 点赞集合；blogs.like_count 与 blog_likes 在同一事务内变更
type LikeRepository interface {
	// Add 条件写入点赞，返回是否新增以及最新计数
	Add(ctx context.Context, blogID, userID string) (bool, int64, error)
	// Remove 条件删除点赞，返回是否删除以及最新计数
	Remove(ctx context.Context, blogID, userID string) (bool, int64, error)
	Exists(ctx context.Context, blogID, userID string) (bool, error)
}

type likeRepository struct{ db *gorm.DB }

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Add(ctx context.Context, blogID, userID string) (bool, int64, error) {
	var added bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l := &model.BlogLike{ID: uuid.New().String(), BlogID: blogID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(l)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		if added {
			if err := bumpLikeCount(tx, blogID, 1); err != nil {
				return err
			}
		}
		var err error
		count, err = likeCount(tx, blogID)
		return err
	})
	return added, count, translate(err)
}

func (r *likeRepository) Remove(ctx context.Context, blogID, userID string) (bool, int64, error) {
	var removed bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("blog_id = ? AND user_id = ?", blogID, userID).Delete(&model.BlogLike{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		if removed {
			if err := bumpLikeCount(tx, blogID, -1); err != nil {
				return err
			}
		}
		var err error
		count, err = likeCount(tx, blogID)
		return err
	})
	return removed, count, translate(err)
}

func (r *likeRepository) Exists(ctx context.Context, blogID, userID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.BlogLike{}).Where("blog_id = ? AND user_id = ?", blogID, userID).Count(&cnt).Error
	return cnt > 0, translate(err)
}

func bumpLikeCount(tx *gorm.DB, blogID string, delta int) error {
	return tx.Model(&model.Blog{}).
		Where("id = ?", blogID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

func likeCount(tx *gorm.DB, blogID string) (int64, error) {
	var b model.Blog
	if err := tx.Select("like_count").Where("id = ?", blogID).First(&b).Error; err != nil {
		return 0, err
	}
	return b.LikeCount, nil
}

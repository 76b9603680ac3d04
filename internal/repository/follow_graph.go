package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-blog/internal/model"
)

// FollowGraph 在同一个事务里读取并翻转 follows / fans 两侧
type FollowGraph interface {
	// Toggle 返回翻转后的状态；actor 不存在时返回 ErrNotFound
	Toggle(ctx context.Context, actorID, targetID string) (following bool, err error)
}

type followGraph struct{ db *gorm.DB }

func NewFollowGraph(db *gorm.DB) FollowGraph { return &followGraph{db: db} }

func (g *followGraph) Toggle(ctx context.Context, actorID, targetID string) (bool, error) {
	var following bool
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住 actor 行：同一 actor 的 toggle 跨实例串行（sqlite 下整库写锁已串行，Locking 被忽略）
		var actor model.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", actorID).
			Take(&actor).Error; err != nil {
			return err
		}

		var cnt int64
		if err := tx.Model(&model.Follow{}).
			Where("follower_id = ? AND followee_id = ?", actorID, targetID).
			Count(&cnt).Error; err != nil {
			return err
		}

		if cnt > 0 {
			if err := tx.Where("follower_id = ? AND followee_id = ?", actorID, targetID).
				Delete(&model.Follow{}).Error; err != nil {
				return err
			}
			following = false
			return tx.Where("user_id = ? AND fan_id = ?", targetID, actorID).Delete(&model.Fan{}).Error
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Follow{ID: uuid.New().String(), FollowerID: actorID, FolloweeID: targetID}).Error; err != nil {
			return err
		}
		following = true
		// 历史遗留的单侧 fans 行由唯一键吸收
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Fan{ID: uuid.New().String(), UserID: targetID, FanID: actorID}).Error
	})
	if err != nil {
		return false, translate(err)
	}
	return following, nil
}

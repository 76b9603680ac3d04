package model

import (
	"time"
)

// Follow 关注关系（A 关注 B），即 A 的 following 集合
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID string `gorm:"type:varchar(36);index:idx_follow_follower;uniqueIndex:ux_follow_pair;not null"`
	FolloweeID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_follow_pair"`
	// ux_follow_pair = (follower_id, followee_id)，重复关注在存储层即冲突
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }

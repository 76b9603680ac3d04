package model

import "time"

// BlogLike 点赞记录，(blog_id, user_id) 唯一，点赞按账号幂等
type BlogLike struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	BlogID    string `gorm:"type:varchar(36);not null;uniqueIndex:ux_like_pair"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:ux_like_pair"`
	CreatedAt time.Time
}

func (BlogLike) TableName() string { return "blog_likes" }

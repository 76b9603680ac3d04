package model

import "time"

// Inbox 时间线项（按 user_id 切分）
type Inbox struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	UserID   string `gorm:"type:varchar(36);index:idx_inbox_user_author;uniqueIndex:ux_inbox_user_blog"`
	BlogID   string `gorm:"type:varchar(36);index:idx_inbox_blog;uniqueIndex:ux_inbox_user_blog"`
	AuthorID string `gorm:"type:varchar(36);index:idx_inbox_user_author"`
	// ux_inbox_user_blog = (user_id, blog_id)，重复投递幂等
	Score     int64     `gorm:"index:idx_inbox_user_score"`
	CreatedAt time.Time `gorm:"index:idx_inbox_user_score"`
}

func (Inbox) TableName() string { return "inbox" }

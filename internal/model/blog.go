package model

import (
	"time"

	"gorm.io/gorm"
)

// BlogStatus 内容生命周期状态
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
	BlogStatusArchived  BlogStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s BlogStatus) Valid() bool {
	switch s {
	case BlogStatusDraft, BlogStatusPublished, BlogStatusArchived:
		return true
	}
	return false
}

// Blog 内容主体
type Blog struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID      string     `json:"author_id" gorm:"type:varchar(36);not null;index:idx_blog_author_status"`
	Title         string     `json:"title" gorm:"type:varchar(200);not null"`
	Genre         string     `json:"genre" gorm:"type:varchar(64);not null;index:idx_blog_genre"`
	Tags          []string   `json:"tags" gorm:"type:text;serializer:json"`
	Body          string     `json:"body" gorm:"type:text"`
	CoverImageURL string     `json:"cover_image_url" gorm:"type:varchar(512)"`
	Status        BlogStatus `json:"status" gorm:"type:varchar(16);not null;index:idx_blog_author_status;index:idx_blog_trending,priority:1"`
	Views         int64      `json:"views" gorm:"not null;default:0;index:idx_blog_trending,priority:2"`
	// LikeCount 与 blog_likes 行数在同一事务内维护
	LikeCount   int64          `json:"like_count" gorm:"not null;default:0"`
	PublishedAt *time.Time     `json:"published_at,omitempty" gorm:"index:idx_blog_trending,priority:3"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Blog) TableName() string { return "blogs" }

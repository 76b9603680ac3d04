package model

import "time"

// Account 账号；关注关系不内嵌，分别落在 follows / fans 两张表
type Account struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Handle      string    `json:"handle" gorm:"type:varchar(64);not null"`
	HandleLower string    `json:"-" gorm:"type:varchar(64);not null;uniqueIndex:ux_account_handle"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(128)"`
	Bio         string    `json:"bio" gorm:"type:text"`
	AvatarURL   string    `json:"avatar_url" gorm:"type:varchar(512)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

package model

import "time"

// Fan 粉丝关系（B 的粉丝是 A），与 Follow 互为镜像，即 B 的 followers 集合
type Fan struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_fan_user;uniqueIndex:ux_fan_pair;not null"`
	FanID     string `gorm:"type:varchar(36);not null;uniqueIndex:ux_fan_pair"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Fan) TableName() string { return "fans" }

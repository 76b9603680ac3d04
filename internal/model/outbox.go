package model

import "time"

const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusDone       = "done"
)

// Outbox 首次发布事件，与状态变更同事务写入，由 FanoutWorker 扇出到粉丝 inbox
type Outbox struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	BlogID      string    `gorm:"type:varchar(36);uniqueIndex"`
	AuthorID    string    `gorm:"type:varchar(36);index:idx_outbox_author"`
	CreatedAt   time.Time `gorm:"index"`
	Status      string    `gorm:"type:varchar(16);index"` // pending, processing, done
	// ClaimedAt 进入 processing 的时间；超过 claim_timeout 仍未完成的事件可被重新领取
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
	FanoutCount int64
}

func (Outbox) TableName() string { return "outbox" }

package domain

import (
	"time"
)

// Reminder 表示一条待办提醒记录。
type Reminder struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MessageID *string   `json:"messageId,omitempty" gorm:"type:varchar(36);index"`
	Title     string    `json:"title" gorm:"type:varchar(512)"`
	DueAt     time.Time `json:"dueAt" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
}

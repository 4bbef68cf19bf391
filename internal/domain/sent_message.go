package domain

import (
	"time"
)

// SentMessage 表示一条已发送邮件的流水记录，只追加不修改。
type SentMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MessageID *string   `json:"messageId,omitempty" gorm:"type:varchar(36);index"`
	Recipient string    `json:"recipient" gorm:"type:varchar(255)"`
	Subject   string    `json:"subject" gorm:"type:varchar(998)"`
	Body      string    `json:"body" gorm:"type:text"`
	SentAt    time.Time `json:"sentAt" gorm:"index"`
}

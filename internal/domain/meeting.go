package domain

import (
	"time"
)

// Meeting 表示一条已排期的会议记录。
// 会议总是由某封邮件触发，MessageID 必填。
type Meeting struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MessageID string    `json:"messageId" gorm:"type:varchar(36);index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(512)"`
	StartAt   time.Time `json:"startAt" gorm:"index"`
	EndAt     time.Time `json:"endAt"`
	Attendees string    `json:"attendees" gorm:"type:text"` // 逗号分隔的参会人邮箱
	MeetURL   string    `json:"meetUrl" gorm:"type:varchar(512)"`
	EventID   string    `json:"eventId" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt"`
}

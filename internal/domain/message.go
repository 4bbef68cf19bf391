package domain

import (
	"time"
)

// Message 表示一封已入库的待办邮件记录。
type Message struct {
	ID               string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ExternalID       string               `json:"externalId" gorm:"type:varchar(255);uniqueIndex"`
	Sender           string               `json:"sender" gorm:"type:varchar(255)"`
	Recipient        string               `json:"recipient" gorm:"type:varchar(255)"`
	Subject          string               `json:"subject" gorm:"type:varchar(998)"`
	Snippet          string               `json:"snippet" gorm:"type:varchar(512)"`
	Body             string               `json:"body" gorm:"type:text"`
	Summary          string               `json:"summary" gorm:"type:text"`
	Label            TriageLabel          `json:"label" gorm:"type:varchar(16);index"`
	Subtype          TriageSubtype        `json:"subtype" gorm:"type:varchar(32)"`
	Source           ClassificationSource `json:"classificationSource" gorm:"type:varchar(16)"`
	ExtractedDueTime *time.Time           `json:"extractedDueTime,omitempty"`
	DraftReply       string               `json:"draftReply" gorm:"type:text"`
	MeetingURL       string               `json:"meetingUrl" gorm:"type:varchar(512)"`
	Sent             bool                 `json:"sent"`
	ReceivedAt       time.Time            `json:"receivedAt" gorm:"index"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// ApplyClassification 将一次分类结果写入消息的分流字段。
func (m *Message) ApplyClassification(c Classification) {
	m.Label = c.Label
	m.Subtype = c.Subtype
	m.Source = c.Source
	m.ExtractedDueTime = c.DueTime
}

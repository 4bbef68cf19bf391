package storage

import (
	"errors"
	"time"

	"mailtriage/backend/internal/domain"
)

var (
	// ErrMessageNotFound 邮件记录未找到错误
	ErrMessageNotFound = errors.New("message not found")
	// ErrReminderNotFound 提醒记录未找到错误
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrMeetingNotFound 会议记录未找到错误
	ErrMeetingNotFound = errors.New("meeting not found")
)

// UpsertResult 描述一次幂等写入的结果。
type UpsertResult struct {
	Created bool // true 表示本次写入新建了记录，false 表示命中已有记录
}

// MessageRepository 定义邮件记录的数据存取操作。
type MessageRepository interface {
	// UpsertMessage 以 ExternalID 为幂等键写入邮件。
	// 已存在时刷新 snippet、body、received_at，分流字段保持首次分类结果。
	UpsertMessage(message *domain.Message) (UpsertResult, error)
	GetMessage(id string) (*domain.Message, error)
	GetMessageByExternalID(externalID string) (*domain.Message, error)
	ListMessages(label *domain.TriageLabel) ([]domain.Message, error)
	UpdateClassification(id string, c domain.Classification, summary string) error
	UpdateDraft(id string, draft string) error
	SetMeetingURL(id string, url string) error
	MarkSent(id string) error
	DeleteMessage(id string) error
	DeleteAllMessages() (int, error)
}

// ReminderRepository 定义提醒记录的数据存取操作。
type ReminderRepository interface {
	CreateReminder(reminder *domain.Reminder) error
	GetReminder(id string) (*domain.Reminder, error)
	ListReminders() ([]domain.Reminder, error)
	DeleteReminder(id string) error
}

// MeetingRepository 定义会议记录的数据存取操作。
type MeetingRepository interface {
	CreateMeeting(meeting *domain.Meeting) error
	GetMeeting(id string) (*domain.Meeting, error)
	ListMeetings() ([]domain.Meeting, error)
	DeleteMeeting(id string) error
}

// SentMessageRepository 定义发送流水的数据存取操作，只追加。
type SentMessageRepository interface {
	LogSentMessage(sent *domain.SentMessage) error
	ListSentMessages(since *time.Time) ([]domain.SentMessage, error)
}

// Store 定义完整的存储接口。
type Store interface {
	MessageRepository
	ReminderRepository
	MeetingRepository
	SentMessageRepository

	// 工具方法
	Close() error
	Health() error
}

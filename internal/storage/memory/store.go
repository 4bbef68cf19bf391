package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/storage"
)

// Store 使用内存保存邮件与待办数据，主要用于开发验证和测试。
type Store struct {
	mu         sync.RWMutex
	messages   map[string]*domain.Message // messageID -> message
	byExternal map[string]string          // externalID -> messageID
	reminders  map[string]*domain.Reminder
	meetings   map[string]*domain.Meeting
	sentLog    []*domain.SentMessage
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		messages:   make(map[string]*domain.Message),
		byExternal: make(map[string]string),
		reminders:  make(map[string]*domain.Reminder),
		meetings:   make(map[string]*domain.Meeting),
		sentLog:    make([]*domain.SentMessage, 0),
	}
}

// UpsertMessage 以 ExternalID 为幂等键写入邮件。
// 去重检查与插入在同一把锁内完成，并发重复写入只会建立一条记录。
func (s *Store) UpsertMessage(message *domain.Message) (storage.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existingID, ok := s.byExternal[message.ExternalID]; ok {
		// 命中已有记录：刷新可变字段，分流字段保持首次分类结果
		existing := s.messages[existingID]
		existing.Snippet = message.Snippet
		existing.Body = message.Body
		existing.ReceivedAt = message.ReceivedAt
		existing.UpdatedAt = now
		*message = *existing
		return storage.UpsertResult{Created: false}, nil
	}

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = now
	message.UpdatedAt = now

	stored := *message
	s.messages[stored.ID] = &stored
	s.byExternal[stored.ExternalID] = stored.ID
	return storage.UpsertResult{Created: true}, nil
}

// GetMessage 根据 ID 获取邮件。
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	copied := *message
	return &copied, nil
}

// GetMessageByExternalID 根据外部 ID 获取邮件。
func (s *Store) GetMessageByExternalID(externalID string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExternal[externalID]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	copied := *s.messages[id]
	return &copied, nil
}

// ListMessages 返回邮件快照，label 非空时按标签过滤，按接收时间倒序。
func (s *Store) ListMessages(label *domain.TriageLabel) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if label != nil && m.Label != *label {
			continue
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})
	return result, nil
}

// UpdateClassification 覆盖一封邮件的分流字段与摘要。
func (s *Store) UpdateClassification(id string, c domain.Classification, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	message.ApplyClassification(c)
	message.Summary = summary
	message.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateDraft 保存邮件的回复草稿。
func (s *Store) UpdateDraft(id string, draft string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	message.DraftReply = draft
	message.UpdatedAt = time.Now().UTC()
	return nil
}

// SetMeetingURL 记录由该邮件排期产生的会议链接。
func (s *Store) SetMeetingURL(id string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	message.MeetingURL = url
	message.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSent 将邮件标记为已发送。
func (s *Store) MarkSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	message.Sent = true
	message.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteMessage 删除指定邮件。关联的提醒与会议记录保持原样。
func (s *Store) DeleteMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	delete(s.byExternal, message.ExternalID)
	delete(s.messages, id)
	return nil
}

// DeleteAllMessages 清空全部邮件，返回删除数量。
func (s *Store) DeleteAllMessages() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.messages)
	s.messages = make(map[string]*domain.Message)
	s.byExternal = make(map[string]string)
	return count, nil
}

// CreateReminder 保存提醒记录。
func (s *Store) CreateReminder(reminder *domain.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	reminder.CreatedAt = time.Now().UTC()
	stored := *reminder
	s.reminders[stored.ID] = &stored
	return nil
}

// GetReminder 根据 ID 获取提醒。
func (s *Store) GetReminder(id string) (*domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminder, ok := s.reminders[id]
	if !ok {
		return nil, storage.ErrReminderNotFound
	}
	copied := *reminder
	return &copied, nil
}

// ListReminders 返回全部提醒的快照，按到期时间升序。
func (s *Store) ListReminders() ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DueAt.Before(result[j].DueAt)
	})
	return result, nil
}

// DeleteReminder 删除指定提醒。
func (s *Store) DeleteReminder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[id]; !ok {
		return storage.ErrReminderNotFound
	}
	delete(s.reminders, id)
	return nil
}

// CreateMeeting 保存会议记录。
func (s *Store) CreateMeeting(meeting *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	meeting.CreatedAt = time.Now().UTC()
	stored := *meeting
	s.meetings[stored.ID] = &stored
	return nil
}

// GetMeeting 根据 ID 获取会议。
func (s *Store) GetMeeting(id string) (*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return nil, storage.ErrMeetingNotFound
	}
	copied := *meeting
	return &copied, nil
}

// ListMeetings 返回全部会议的快照，按开始时间升序。
func (s *Store) ListMeetings() ([]domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartAt.Before(result[j].StartAt)
	})
	return result, nil
}

// DeleteMeeting 删除指定会议。
func (s *Store) DeleteMeeting(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[id]; !ok {
		return storage.ErrMeetingNotFound
	}
	delete(s.meetings, id)
	return nil
}

// LogSentMessage 追加一条发送流水。
func (s *Store) LogSentMessage(sent *domain.SentMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sent.ID == "" {
		sent.ID = uuid.NewString()
	}
	if sent.SentAt.IsZero() {
		sent.SentAt = time.Now().UTC()
	}
	stored := *sent
	s.sentLog = append(s.sentLog, &stored)
	return nil
}

// ListSentMessages 返回发送流水，since 非空时只返回此后的记录。
func (s *Store) ListSentMessages(since *time.Time) ([]domain.SentMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SentMessage, 0, len(s.sentLog))
	for _, entry := range s.sentLog {
		if since != nil && entry.SentAt.Before(*since) {
			continue
		}
		result = append(result, *entry)
	}
	return result, nil
}

// Close 关闭存储，内存实现无需任何操作。
func (s *Store) Close() error {
	return nil
}

// Health 健康检查，内存实现总是健康。
func (s *Store) Health() error {
	return nil
}

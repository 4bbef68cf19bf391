package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailtriage/backend/internal/calendar"
	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/session"
	"mailtriage/backend/internal/storage"
)

// ToggleState 一次勾选操作后的条目状态。
type ToggleState string

const (
	// ToggleDone 条目被勾选为完成，记录仍在
	ToggleDone ToggleState = "done"
	// ToggleRemoved 条目被第二次勾选移除
	ToggleRemoved ToggleState = "removed"
)

// CreateReminderInput 创建提醒的入参。
type CreateReminderInput struct {
	MessageID *string
	Title     string
	DueAt     time.Time
}

// CreateMeetingInput 创建会议的入参。MessageID 指向触发会议的邮件，必填。
type CreateMeetingInput struct {
	MessageID string
	Title     string
	Attendees []string
	StartAt   time.Time
	EndAt     time.Time
}

// LifecycleService 管理提醒与会议的创建和勾选状态机。
//
// 状态机：Active -> Done -> Removed。
// Done 是会话级瞬态标记，只存在于勾选跟踪器中；
// Removed 删除存储行并清除标记。
type LifecycleService struct {
	store     storage.Store
	scheduler calendar.Scheduler
	tracker   session.Tracker
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewLifecycleService 创建生命周期服务。scheduler 可以为 nil（未启用日历）。
func NewLifecycleService(store storage.Store, scheduler calendar.Scheduler, tracker session.Tracker, metrics *monitoring.Metrics, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		store:     store,
		scheduler: scheduler,
		tracker:   tracker,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateReminder 创建提醒：先落库，再尽力转发到日历。
// 日历失败不回滚记录，只返回警告文案，由调用方展示。
func (s *LifecycleService) CreateReminder(ctx context.Context, input CreateReminderInput) (*domain.Reminder, string, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, "", fmt.Errorf("reminder title is required")
	}
	if input.DueAt.IsZero() {
		return nil, "", fmt.Errorf("reminder due time is required")
	}

	reminder := &domain.Reminder{
		MessageID: input.MessageID,
		Title:     input.Title,
		DueAt:     input.DueAt.UTC(),
	}
	if err := s.store.CreateReminder(reminder); err != nil {
		return nil, "", err
	}
	s.metrics.RemindersCreated.Inc()

	var warning string
	if s.scheduler != nil {
		if _, err := s.scheduler.CreateReminder(ctx, input.Title, reminder.DueAt); err != nil {
			warning = fmt.Sprintf("reminder saved but calendar forwarding failed: %v", err)
			s.logger.Warn("calendar reminder forwarding failed",
				zap.String("reminder_id", reminder.ID), zap.Error(err))
		}
	}

	s.logger.Info("reminder created", zap.String("reminder_id", reminder.ID), zap.Time("due_at", reminder.DueAt))
	return reminder, warning, nil
}

// ListReminders 返回全部提醒。
func (s *LifecycleService) ListReminders() ([]domain.Reminder, error) {
	return s.store.ListReminders()
}

// CreateMeeting 排期会议：日历先行，排期成功后才落库。
// 日历错误原样返回，此时不留下任何记录。
func (s *LifecycleService) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*domain.Meeting, error) {
	if s.scheduler == nil {
		return nil, fmt.Errorf("calendar is not configured")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("meeting title is required")
	}
	if strings.TrimSpace(input.MessageID) == "" {
		return nil, fmt.Errorf("meeting message reference is required")
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return nil, fmt.Errorf("meeting start and end times are required")
	}
	if !input.EndAt.After(input.StartAt) {
		return nil, fmt.Errorf("meeting end time must be after start time")
	}

	// 触发邮件必须真实存在，再去碰日历
	if _, err := s.store.GetMessage(input.MessageID); err != nil {
		return nil, err
	}

	event, err := s.scheduler.CreateEvent(ctx, input.Title, input.Attendees, input.StartAt, input.EndAt)
	if err != nil {
		return nil, err
	}

	meeting := &domain.Meeting{
		MessageID: input.MessageID,
		Title:     input.Title,
		StartAt:   input.StartAt.UTC(),
		EndAt:     input.EndAt.UTC(),
		Attendees: strings.Join(input.Attendees, ","),
		MeetURL:   event.MeetURL,
		EventID:   event.EventID,
	}
	if err := s.store.CreateMeeting(meeting); err != nil {
		return nil, err
	}
	s.metrics.MeetingsCreated.Inc()

	// 把会议链接回写到触发邮件的记录
	if err := s.store.SetMeetingURL(input.MessageID, event.MeetURL); err != nil {
		s.logger.Warn("failed to record meeting url on message",
			zap.String("message_id", input.MessageID), zap.Error(err))
	}

	s.logger.Info("meeting scheduled",
		zap.String("meeting_id", meeting.ID),
		zap.String("event_id", event.EventID),
		zap.String("meet_url", event.MeetURL))
	return meeting, nil
}

// ListMeetings 返回全部会议。
func (s *LifecycleService) ListMeetings() ([]domain.Meeting, error) {
	return s.store.ListMeetings()
}

// ListAvailability 返回窗口内日历上已被占用的时间段，供挑选会议时间参考。
func (s *LifecycleService) ListAvailability(ctx context.Context, start, end time.Time) ([]calendar.BusyInterval, error) {
	if s.scheduler == nil {
		return nil, fmt.Errorf("calendar is not configured")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("availability window end must be after start")
	}
	return s.scheduler.ListBusy(ctx, start, end)
}

// Toggle 推进一条待办的勾选状态机。
// 第一次勾选：标记完成（记录不动），返回 done；
// 第二次勾选：删除记录并清除标记，返回 removed。
func (s *LifecycleService) Toggle(ctx context.Context, kind session.Kind, id, sessionID string) (ToggleState, error) {
	// 先确认记录存在，再查勾选状态
	switch kind {
	case session.KindReminder:
		if _, err := s.store.GetReminder(id); err != nil {
			return "", err
		}
	case session.KindMeeting:
		if _, err := s.store.GetMeeting(id); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown toggle kind %q", kind)
	}

	done, err := s.tracker.IsDone(ctx, sessionID, kind, id)
	if err != nil {
		return "", err
	}

	if !done {
		if err := s.tracker.MarkDone(ctx, sessionID, kind, id); err != nil {
			return "", err
		}
		s.metrics.RecordToggle(string(kind), string(ToggleDone))
		return ToggleDone, nil
	}

	switch kind {
	case session.KindReminder:
		err = s.store.DeleteReminder(id)
	case session.KindMeeting:
		err = s.store.DeleteMeeting(id)
	}
	if err != nil {
		return "", err
	}
	if err := s.tracker.ClearDone(ctx, sessionID, kind, id); err != nil {
		s.logger.Warn("failed to clear done mark", zap.String("id", id), zap.Error(err))
	}
	s.metrics.RecordToggle(string(kind), string(ToggleRemoved))
	return ToggleRemoved, nil
}

// IsDone 查询某条待办在该会话中是否已勾选完成。
func (s *LifecycleService) IsDone(ctx context.Context, kind session.Kind, id, sessionID string) (bool, error) {
	return s.tracker.IsDone(ctx, sessionID, kind, id)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/backend/internal/calendar"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/session"
	"mailtriage/backend/internal/storage"
	"mailtriage/backend/internal/storage/memory"
)

// stubScheduler 可编程的日历替身
type stubScheduler struct {
	eventErr    error
	reminderErr error
	busyErr     error
	busy        []calendar.BusyInterval
	events      int
	reminders   int
}

func (s *stubScheduler) CreateEvent(ctx context.Context, title string, attendees []string, start, end time.Time) (*calendar.Event, error) {
	if s.eventErr != nil {
		return nil, s.eventErr
	}
	s.events++
	return &calendar.Event{EventID: "evt-1", MeetURL: "https://meet.example.com/abc"}, nil
}

func (s *stubScheduler) CreateReminder(ctx context.Context, title string, start time.Time) (*calendar.ReminderEvent, error) {
	if s.reminderErr != nil {
		return nil, s.reminderErr
	}
	s.reminders++
	return &calendar.ReminderEvent{EventID: "rem-evt-1"}, nil
}

func (s *stubScheduler) ListBusy(ctx context.Context, start, end time.Time) ([]calendar.BusyInterval, error) {
	if s.busyErr != nil {
		return nil, s.busyErr
	}
	return s.busy, nil
}

var lifecycleMetrics = monitoring.NewMetrics(prometheus.NewRegistry())

func newLifecycle(store storage.Store, scheduler calendar.Scheduler) *LifecycleService {
	tracker := session.NewMemoryTracker(time.Hour)
	return NewLifecycleService(store, scheduler, tracker, lifecycleMetrics, zap.NewNop())
}

func TestLifecycleService_CreateReminder(t *testing.T) {
	ctx := context.Background()
	due := time.Now().Add(24 * time.Hour)

	t.Run("创建提醒并转发日历", func(t *testing.T) {
		store := memory.NewStore()
		scheduler := &stubScheduler{}
		svc := newLifecycle(store, scheduler)

		reminder, warning, err := svc.CreateReminder(ctx, CreateReminderInput{Title: "submit invoice", DueAt: due})

		require.NoError(t, err)
		assert.Empty(t, warning)
		assert.NotEmpty(t, reminder.ID)
		assert.Equal(t, 1, scheduler.reminders)
	})

	t.Run("日历失败只产生警告", func(t *testing.T) {
		store := memory.NewStore()
		scheduler := &stubScheduler{reminderErr: errors.New("calendar down")}
		svc := newLifecycle(store, scheduler)

		reminder, warning, err := svc.CreateReminder(ctx, CreateReminderInput{Title: "submit invoice", DueAt: due})

		require.NoError(t, err)
		assert.Contains(t, warning, "calendar down")

		// 记录仍然存在
		stored, err := store.GetReminder(reminder.ID)
		require.NoError(t, err)
		assert.Equal(t, "submit invoice", stored.Title)
	})

	t.Run("未启用日历时直接落库", func(t *testing.T) {
		store := memory.NewStore()
		svc := newLifecycle(store, nil)

		_, warning, err := svc.CreateReminder(ctx, CreateReminderInput{Title: "no calendar", DueAt: due})
		require.NoError(t, err)
		assert.Empty(t, warning)
	})

	t.Run("缺少标题拒绝创建", func(t *testing.T) {
		svc := newLifecycle(memory.NewStore(), nil)
		_, _, err := svc.CreateReminder(ctx, CreateReminderInput{DueAt: due})
		assert.Error(t, err)
	})
}

func TestLifecycleService_CreateMeeting(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	t.Run("排期成功后落库并回写会议链接", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-meet")
		scheduler := &stubScheduler{}
		svc := newLifecycle(store, scheduler)

		meeting, err := svc.CreateMeeting(ctx, CreateMeetingInput{
			MessageID: msg.ID,
			Title:     "kickoff",
			Attendees: []string{"bob@example.com"},
			StartAt:   start,
			EndAt:     end,
		})

		require.NoError(t, err)
		assert.Equal(t, "https://meet.example.com/abc", meeting.MeetURL)
		assert.Equal(t, "evt-1", meeting.EventID)
		assert.Equal(t, msg.ID, meeting.MessageID)

		meetings, err := store.ListMeetings()
		require.NoError(t, err)
		assert.Len(t, meetings, 1)

		stored, err := store.GetMessage(msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.example.com/abc", stored.MeetingURL)
	})

	t.Run("日历失败时不留任何记录", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-meet-fail")
		scheduler := &stubScheduler{eventErr: errors.New("quota exceeded")}
		svc := newLifecycle(store, scheduler)

		_, err := svc.CreateMeeting(ctx, CreateMeetingInput{MessageID: msg.ID, Title: "kickoff", StartAt: start, EndAt: end})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")

		meetings, err := store.ListMeetings()
		require.NoError(t, err)
		assert.Empty(t, meetings)
	})

	t.Run("缺少触发邮件拒绝排期", func(t *testing.T) {
		store := memory.NewStore()
		scheduler := &stubScheduler{}
		svc := newLifecycle(store, scheduler)

		_, err := svc.CreateMeeting(ctx, CreateMeetingInput{Title: "kickoff", StartAt: start, EndAt: end})
		require.Error(t, err)
		assert.Zero(t, scheduler.events)
	})

	t.Run("触发邮件不存在时拒绝排期", func(t *testing.T) {
		store := memory.NewStore()
		scheduler := &stubScheduler{}
		svc := newLifecycle(store, scheduler)

		_, err := svc.CreateMeeting(ctx, CreateMeetingInput{MessageID: "missing", Title: "kickoff", StartAt: start, EndAt: end})
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)
		assert.Zero(t, scheduler.events)
	})

	t.Run("未启用日历时拒绝排期", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-meet-nocal")
		svc := newLifecycle(store, nil)
		_, err := svc.CreateMeeting(ctx, CreateMeetingInput{MessageID: msg.ID, Title: "kickoff", StartAt: start, EndAt: end})
		assert.Error(t, err)
	})

	t.Run("结束时间必须晚于开始时间", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-meet-window")
		svc := newLifecycle(store, &stubScheduler{})
		_, err := svc.CreateMeeting(ctx, CreateMeetingInput{MessageID: msg.ID, Title: "kickoff", StartAt: end, EndAt: start})
		assert.Error(t, err)
	})
}

func TestLifecycleService_ListAvailability(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(time.Hour)
	end := start.Add(24 * time.Hour)

	t.Run("返回日历上的占用时段", func(t *testing.T) {
		busy := []calendar.BusyInterval{
			{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
			{Start: start.Add(4 * time.Hour), End: start.Add(5 * time.Hour)},
		}
		svc := newLifecycle(memory.NewStore(), &stubScheduler{busy: busy})

		got, err := svc.ListAvailability(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, busy, got)
	})

	t.Run("未启用日历时拒绝查询", func(t *testing.T) {
		svc := newLifecycle(memory.NewStore(), nil)
		_, err := svc.ListAvailability(ctx, start, end)
		assert.Error(t, err)
	})

	t.Run("窗口结束必须晚于开始", func(t *testing.T) {
		svc := newLifecycle(memory.NewStore(), &stubScheduler{})
		_, err := svc.ListAvailability(ctx, end, start)
		assert.Error(t, err)
	})

	t.Run("日历错误向上传递", func(t *testing.T) {
		svc := newLifecycle(memory.NewStore(), &stubScheduler{busyErr: errors.New("freebusy down")})
		_, err := svc.ListAvailability(ctx, start, end)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "freebusy down")
	})
}

func TestLifecycleService_Toggle(t *testing.T) {
	ctx := context.Background()

	t.Run("提醒两次勾选后删除", func(t *testing.T) {
		store := memory.NewStore()
		svc := newLifecycle(store, nil)

		reminder, _, err := svc.CreateReminder(ctx, CreateReminderInput{Title: "t", DueAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		// 第一次勾选：标记完成，记录仍在
		state, err := svc.Toggle(ctx, session.KindReminder, reminder.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, ToggleDone, state)

		_, err = store.GetReminder(reminder.ID)
		assert.NoError(t, err)

		// 第二次勾选：删除记录
		state, err = svc.Toggle(ctx, session.KindReminder, reminder.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, ToggleRemoved, state)

		_, err = store.GetReminder(reminder.ID)
		assert.ErrorIs(t, err, storage.ErrReminderNotFound)
	})

	t.Run("勾选状态按会话隔离", func(t *testing.T) {
		store := memory.NewStore()
		svc := newLifecycle(store, nil)

		reminder, _, err := svc.CreateReminder(ctx, CreateReminderInput{Title: "t", DueAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		state, err := svc.Toggle(ctx, session.KindReminder, reminder.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, ToggleDone, state)

		// 另一个会话的第一次勾选仍是 done
		state, err = svc.Toggle(ctx, session.KindReminder, reminder.ID, "s2")
		require.NoError(t, err)
		assert.Equal(t, ToggleDone, state)
	})

	t.Run("会议勾选走同一状态机", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-toggle-meet")
		scheduler := &stubScheduler{}
		svc := newLifecycle(store, scheduler)

		meeting, err := svc.CreateMeeting(ctx, CreateMeetingInput{
			MessageID: msg.ID,
			Title:     "m",
			StartAt:   time.Now().Add(time.Hour),
			EndAt:     time.Now().Add(2 * time.Hour),
		})
		require.NoError(t, err)

		state, err := svc.Toggle(ctx, session.KindMeeting, meeting.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, ToggleDone, state)

		state, err = svc.Toggle(ctx, session.KindMeeting, meeting.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, ToggleRemoved, state)

		_, err = store.GetMeeting(meeting.ID)
		assert.ErrorIs(t, err, storage.ErrMeetingNotFound)
	})

	t.Run("不存在的条目返回未找到", func(t *testing.T) {
		svc := newLifecycle(memory.NewStore(), nil)
		_, err := svc.Toggle(ctx, session.KindReminder, "missing", "s1")
		assert.ErrorIs(t, err, storage.ErrReminderNotFound)
	})

	t.Run("未知类型拒绝", func(t *testing.T) {
		svc := newLifecycle(memory.NewStore(), nil)
		_, err := svc.Toggle(ctx, session.Kind("task"), "x", "s1")
		assert.Error(t, err)
	})
}

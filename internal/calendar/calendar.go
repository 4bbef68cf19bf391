package calendar

import (
	"context"
	"time"
)

// Event 表示一次会议排期的结果。
type Event struct {
	EventID string
	MeetURL string
}

// ReminderEvent 表示一次日历提醒的创建结果。
type ReminderEvent struct {
	EventID string
	Link    string
}

// BusyInterval 表示日历上一段已被占用的时间。
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Scheduler 定义日历协作方的操作边界。
// 所有错误原样向上传递，不做重试。
type Scheduler interface {
	// CreateEvent 创建带 Meet 会议链接的日历事件并邀请全部参会人。
	CreateEvent(ctx context.Context, title string, attendees []string, start, end time.Time) (*Event, error)
	// CreateReminder 在指定时间创建一个 30 分钟的提醒事件。
	CreateReminder(ctx context.Context, title string, start time.Time) (*ReminderEvent, error)
	// ListBusy 返回窗口内已被占用的时间段，按开始时间升序。
	ListBusy(ctx context.Context, start, end time.Time) ([]BusyInterval, error)
}

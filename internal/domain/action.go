package domain

// Action 表示分流决策产出的唯一动作。
type Action string

const (
	// ActionScheduleMeeting 需要安排会议
	ActionScheduleMeeting Action = "schedule_meeting"
	// ActionRespond 需要草拟回复
	ActionRespond Action = "respond"
	// ActionCreateReminder 需要创建提醒
	ActionCreateReminder Action = "create_reminder"
	// ActionNotifyOnly 仅向用户展示通知
	ActionNotifyOnly Action = "notify_only"
	// ActionIgnore 无需任何处理
	ActionIgnore Action = "ignore"
	// ActionUnrecognized 分类结果无法映射到已知动作
	ActionUnrecognized Action = "unrecognized"
)

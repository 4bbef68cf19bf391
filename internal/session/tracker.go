package session

import (
	"context"
)

// Kind 区分勾选状态所属的待办类型。
type Kind string

const (
	// KindReminder 提醒
	KindReminder Kind = "reminder"
	// KindMeeting 会议
	KindMeeting Kind = "meeting"
)

// Tracker 维护每个会话的"已完成"勾选集合。
//
// 勾选状态是会话级的瞬态数据，从不落入记录存储：
// 会话过期后集合消失，对应条目隐式回到未完成状态。
type Tracker interface {
	// IsDone 查询某条待办在该会话中是否已勾选完成。
	IsDone(ctx context.Context, sessionID string, kind Kind, id string) (bool, error)
	// MarkDone 将某条待办在该会话中勾选为完成。
	MarkDone(ctx context.Context, sessionID string, kind Kind, id string) error
	// ClearDone 清除某条待办在该会话中的勾选。
	ClearDone(ctx context.Context, sessionID string, kind Kind, id string) error
}

package triage

import (
	"time"

	"mailtriage/backend/internal/domain"
)

// Route 把分类结果映射为唯一动作。
//
// 纯函数，规则按优先级从上到下匹配，任意输入都有确定的输出：
//  1. 会议邀请或改期请求 -> 安排会议
//  2. 需要回复的业务子类 -> 草拟回复
//  3. 携带截止时间 -> 创建提醒
//  4. 通知类子类 -> 仅通知
//  5. 垃圾、推广、社交 -> 忽略
//  6. 其余一律视为无法识别
//
// 注意 DEADLINE_TASK 没有专属规则：带截止时间走规则 3，
// 不带截止时间落入规则 6。
func Route(label domain.TriageLabel, subtype domain.TriageSubtype, dueTime *time.Time) domain.Action {
	switch subtype {
	case domain.SubtypeMeetingInvite, domain.SubtypeScheduleRequest:
		return domain.ActionScheduleMeeting
	case domain.SubtypeInfoRequest, domain.SubtypeQuoteProposal,
		domain.SubtypeSupportIssue, domain.SubtypeFeedbackComplaint:
		return domain.ActionRespond
	}

	if dueTime != nil {
		return domain.ActionCreateReminder
	}

	switch subtype {
	case domain.SubtypeResult, domain.SubtypeUpcomingEvent, domain.SubtypeAlert:
		return domain.ActionNotifyOnly
	case domain.SubtypeSpam, domain.SubtypePromotion, domain.SubtypeSocial:
		return domain.ActionIgnore
	}

	return domain.ActionUnrecognized
}

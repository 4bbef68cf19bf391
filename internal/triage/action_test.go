package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mailtriage/backend/internal/domain"
)

func TestRoute(t *testing.T) {
	due := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		label   domain.TriageLabel
		subtype domain.TriageSubtype
		dueTime *time.Time
		want    domain.Action
	}{
		{"会议邀请安排会议", domain.LabelRespond, domain.SubtypeMeetingInvite, nil, domain.ActionScheduleMeeting},
		{"改期请求安排会议", domain.LabelRespond, domain.SubtypeScheduleRequest, nil, domain.ActionScheduleMeeting},
		{"会议邀请优先于截止时间", domain.LabelRespond, domain.SubtypeMeetingInvite, &due, domain.ActionScheduleMeeting},
		{"信息咨询需要回复", domain.LabelRespond, domain.SubtypeInfoRequest, nil, domain.ActionRespond},
		{"报价请求需要回复", domain.LabelRespond, domain.SubtypeQuoteProposal, nil, domain.ActionRespond},
		{"工单需要回复", domain.LabelRespond, domain.SubtypeSupportIssue, nil, domain.ActionRespond},
		{"反馈投诉需要回复", domain.LabelRespond, domain.SubtypeFeedbackComplaint, nil, domain.ActionRespond},
		{"回复类优先于截止时间", domain.LabelRespond, domain.SubtypeInfoRequest, &due, domain.ActionRespond},
		{"截止任务带时间创建提醒", domain.LabelRespond, domain.SubtypeDeadlineTask, &due, domain.ActionCreateReminder},
		{"截止任务无时间无法识别", domain.LabelRespond, domain.SubtypeDeadlineTask, nil, domain.ActionUnrecognized},
		{"通知带截止时间创建提醒", domain.LabelNotify, domain.SubtypeAlert, &due, domain.ActionCreateReminder},
		{"结果通知仅展示", domain.LabelNotify, domain.SubtypeResult, nil, domain.ActionNotifyOnly},
		{"活动通知仅展示", domain.LabelNotify, domain.SubtypeUpcomingEvent, nil, domain.ActionNotifyOnly},
		{"安全告警仅展示", domain.LabelNotify, domain.SubtypeAlert, nil, domain.ActionNotifyOnly},
		{"垃圾邮件忽略", domain.LabelIgnore, domain.SubtypeSpam, nil, domain.ActionIgnore},
		{"推广邮件忽略", domain.LabelIgnore, domain.SubtypePromotion, nil, domain.ActionIgnore},
		{"社交通知忽略", domain.LabelIgnore, domain.SubtypeSocial, nil, domain.ActionIgnore},
		{"未知子类无法识别", domain.LabelNotify, domain.TriageSubtype("SOMETHING_NEW"), nil, domain.ActionUnrecognized},
		{"未知子类带时间创建提醒", domain.LabelNotify, domain.TriageSubtype("SOMETHING_NEW"), &due, domain.ActionCreateReminder},
		{"空子类无法识别", domain.LabelNotify, domain.TriageSubtype(""), nil, domain.ActionUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.label, tt.subtype, tt.dueTime))
		})
	}
}

// TestRoute_Totality 全部标签与子类组合都必须得到一个确定动作。
func TestRoute_Totality(t *testing.T) {
	labels := []domain.TriageLabel{domain.LabelRespond, domain.LabelNotify, domain.LabelIgnore}
	due := time.Now().UTC()

	for _, label := range labels {
		for _, subtype := range domain.Subtypes {
			for _, dueTime := range []*time.Time{nil, &due} {
				action := Route(label, subtype, dueTime)
				assert.NotEmpty(t, action, "label=%s subtype=%s", label, subtype)
			}
		}
	}
}

package domain

// TriageLabel 表示邮件的一级分流标签。
type TriageLabel string

const (
	// LabelRespond 需要人工回复的邮件
	LabelRespond TriageLabel = "respond"
	// LabelNotify 只需提醒用户、无需回复的邮件
	LabelNotify TriageLabel = "notify"
	// LabelIgnore 可以忽略的邮件
	LabelIgnore TriageLabel = "ignore"
)

// IsValid 判断标签是否属于已定义的取值。
func (l TriageLabel) IsValid() bool {
	switch l {
	case LabelRespond, LabelNotify, LabelIgnore:
		return true
	}
	return false
}

// TriageSubtype 表示邮件的二级分流子类。
type TriageSubtype string

// respond 标签下的子类
const (
	SubtypeMeetingInvite     TriageSubtype = "MEETING_INVITE"
	SubtypeScheduleRequest   TriageSubtype = "SCHEDULE_REQUEST"
	SubtypeInfoRequest       TriageSubtype = "INFO_REQUEST"
	SubtypeQuoteProposal     TriageSubtype = "QUOTE_PROPOSAL"
	SubtypeSupportIssue      TriageSubtype = "SUPPORT_ISSUE"
	SubtypeFeedbackComplaint TriageSubtype = "FEEDBACK_COMPLAINT"
	SubtypeDeadlineTask      TriageSubtype = "DEADLINE_TASK"
)

// notify 标签下的子类
const (
	SubtypeResult        TriageSubtype = "RESULT"
	SubtypeUpcomingEvent TriageSubtype = "UPCOMING_EVENT"
	SubtypeAlert         TriageSubtype = "ALERT"
)

// ignore 标签下的子类
const (
	SubtypeSpam      TriageSubtype = "SPAM"
	SubtypePromotion TriageSubtype = "PROMOTION"
	SubtypeSocial    TriageSubtype = "SOCIAL"
)

// Subtypes 列出全部 13 个子类。
var Subtypes = []TriageSubtype{
	SubtypeMeetingInvite,
	SubtypeScheduleRequest,
	SubtypeInfoRequest,
	SubtypeQuoteProposal,
	SubtypeSupportIssue,
	SubtypeFeedbackComplaint,
	SubtypeDeadlineTask,
	SubtypeResult,
	SubtypeUpcomingEvent,
	SubtypeAlert,
	SubtypeSpam,
	SubtypePromotion,
	SubtypeSocial,
}

// IsValid 判断子类是否属于已定义的取值。
func (s TriageSubtype) IsValid() bool {
	for _, known := range Subtypes {
		if s == known {
			return true
		}
	}
	return false
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriageLabelIsValid(t *testing.T) {
	t.Run("已定义的标签有效", func(t *testing.T) {
		for _, label := range []TriageLabel{LabelRespond, LabelNotify, LabelIgnore} {
			assert.True(t, label.IsValid(), string(label))
		}
	})

	t.Run("未知标签无效", func(t *testing.T) {
		assert.False(t, TriageLabel("archive").IsValid())
		assert.False(t, TriageLabel("").IsValid())
	})
}

func TestTriageSubtypeIsValid(t *testing.T) {
	t.Run("全部子类共13个且有效", func(t *testing.T) {
		assert.Len(t, Subtypes, 13)
		for _, subtype := range Subtypes {
			assert.True(t, subtype.IsValid(), string(subtype))
		}
	})

	t.Run("截止任务归在需要回复组", func(t *testing.T) {
		// DEADLINE_TASK 需要用户动作（建提醒），与 respond 组的子类同级
		respond := []TriageSubtype{
			SubtypeMeetingInvite,
			SubtypeScheduleRequest,
			SubtypeInfoRequest,
			SubtypeQuoteProposal,
			SubtypeSupportIssue,
			SubtypeFeedbackComplaint,
			SubtypeDeadlineTask,
		}
		assert.Contains(t, respond, SubtypeDeadlineTask)
		assert.Equal(t, respond, Subtypes[:len(respond)])
	})

	t.Run("未知子类无效", func(t *testing.T) {
		assert.False(t, TriageSubtype("NEWSLETTER").IsValid())
	})
}

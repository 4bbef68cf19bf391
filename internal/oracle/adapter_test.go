package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mailtriage/backend/internal/domain"
)

// stubClient 返回预设输出的模型客户端
type stubClient struct {
	output string
	err    error
}

func (s *stubClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	return s.output, s.err
}

func newTestAdapter(output string, err error) *Adapter {
	return NewAdapter(&stubClient{output: output, err: err}, "mistral", "llama-3.1-8b-instant", zap.NewNop())
}

func TestAdapter_Summarize(t *testing.T) {
	t.Run("正文为空返回固定摘要", func(t *testing.T) {
		adapter := newTestAdapter("ignored", nil)
		assert.Equal(t, "No content available.", adapter.Summarize(context.Background(), "   "))
	})

	t.Run("模型失败返回占位文本", func(t *testing.T) {
		adapter := newTestAdapter("", errors.New("boom"))
		assert.Equal(t, SummarizeErrorSentinel, adapter.Summarize(context.Background(), "hello"))
	})

	t.Run("正常输出去除首尾空白", func(t *testing.T) {
		adapter := newTestAdapter("  - point one\n- point two  ", nil)
		assert.Equal(t, "- point one\n- point two", adapter.Summarize(context.Background(), "hello"))
	})
}

func TestAdapter_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("摘要为空返回兜底分类", func(t *testing.T) {
		adapter := newTestAdapter("ignored", nil)
		c := adapter.Classify(ctx, "")
		assert.Equal(t, domain.LabelNotify, c.Label)
		assert.Equal(t, domain.SubtypeUpcomingEvent, c.Subtype)
		assert.Equal(t, domain.SourceFallback, c.Source)
		assert.Nil(t, c.DueTime)
	})

	t.Run("模型出错返回兜底分类", func(t *testing.T) {
		adapter := newTestAdapter("", errors.New("timeout"))
		c := adapter.Classify(ctx, "some summary")
		assert.Equal(t, domain.SourceFallback, c.Source)
	})

	t.Run("解析标准输出", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "email", "subtype": "MEETING_INVITE"}`, nil)
		c := adapter.Classify(ctx, "meeting tomorrow")
		assert.Equal(t, domain.LabelRespond, c.Label)
		assert.Equal(t, domain.SubtypeMeetingInvite, c.Subtype)
		assert.Equal(t, domain.SourceParsed, c.Source)
	})

	t.Run("提取夹杂说明文字中的JSON", func(t *testing.T) {
		adapter := newTestAdapter("Sure, here is the result:\n{\"label\": \"no\", \"subtype\": \"spam\"}\nHope it helps.", nil)
		c := adapter.Classify(ctx, "win a prize")
		assert.Equal(t, domain.LabelIgnore, c.Label)
		assert.Equal(t, domain.SubtypeSpam, c.Subtype)
		assert.Equal(t, domain.SourceParsed, c.Source)
	})

	t.Run("标签大小写与空白归一", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": " Notify ", "subtype": "alert"}`, nil)
		c := adapter.Classify(ctx, "security notice")
		assert.Equal(t, domain.LabelNotify, c.Label)
		assert.Equal(t, domain.SubtypeAlert, c.Subtype)
	})

	t.Run("解析due_time为UTC", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "email", "subtype": "DEADLINE_TASK", "due_time": "2025-06-10T17:00:00Z"}`, nil)
		c := adapter.Classify(ctx, "submit invoice")
		if assert.NotNil(t, c.DueTime) {
			assert.Equal(t, time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC), *c.DueTime)
		}
	})

	t.Run("兼容旧键名meeting_time", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "email", "subtype": "MEETING_INVITE", "meeting_time": "2025-06-10T09:30:00Z"}`, nil)
		c := adapter.Classify(ctx, "meeting")
		assert.NotNil(t, c.DueTime)
	})

	t.Run("无法解析的due_time视为缺失", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "email", "subtype": "DEADLINE_TASK", "due_time": "next Tuesday"}`, nil)
		c := adapter.Classify(ctx, "task")
		assert.Nil(t, c.DueTime)
		assert.Equal(t, domain.LabelRespond, c.Label)
		assert.Equal(t, domain.SourceParsed, c.Source)
	})

	t.Run("输出不含JSON返回兜底分类", func(t *testing.T) {
		adapter := newTestAdapter("I think this is spam.", nil)
		c := adapter.Classify(ctx, "something")
		assert.Equal(t, domain.SourceFallback, c.Source)
	})

	t.Run("JSON损坏返回兜底分类", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "email", "subtype": `, nil)
		c := adapter.Classify(ctx, "something")
		assert.Equal(t, domain.SourceFallback, c.Source)
	})

	t.Run("未知标签返回兜底分类", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "maybe", "subtype": "ALERT"}`, nil)
		c := adapter.Classify(ctx, "something")
		assert.Equal(t, domain.SourceFallback, c.Source)
	})

	t.Run("子类缺失时默认UPCOMING_EVENT", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "notify"}`, nil)
		c := adapter.Classify(ctx, "something")
		assert.Equal(t, domain.SubtypeUpcomingEvent, c.Subtype)
		assert.Equal(t, domain.SourceParsed, c.Source)
	})

	t.Run("未知子类保留原值交由路由兜底", func(t *testing.T) {
		adapter := newTestAdapter(`{"label": "notify", "subtype": "SOMETHING_NEW"}`, nil)
		c := adapter.Classify(ctx, "something")
		assert.Equal(t, domain.TriageSubtype("SOMETHING_NEW"), c.Subtype)
		assert.False(t, c.Subtype.IsValid())
	})
}

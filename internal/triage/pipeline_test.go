package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/storage/memory"
)

// stubConnector 返回固定候选列表
type stubConnector struct {
	candidates []mailsource.Candidate
	err        error
}

func (s *stubConnector) FetchCandidates(ctx context.Context, limit int64) ([]mailsource.Candidate, error) {
	return s.candidates, s.err
}

// stubClassifier 按外部脚本返回分类结果
type stubClassifier struct {
	classification domain.Classification
}

func (s *stubClassifier) Summarize(ctx context.Context, body string) string {
	return "summary of: " + body
}

func (s *stubClassifier) Classify(ctx context.Context, summary string) domain.Classification {
	return s.classification
}

// recordingNotifier 记录广播事件
type recordingNotifier struct {
	events []domain.Action
}

func (r *recordingNotifier) NotifyTriaged(message domain.Message, action domain.Action) {
	r.events = append(r.events, action)
}

var testMetrics = monitoring.NewMetrics(prometheus.NewRegistry())

func newTestPipeline(connector mailsource.Connector, classifier Classifier, store *memory.Store, notifier Notifier) *Pipeline {
	return NewPipeline(PipelineOptions{
		Connector:     connector,
		Classifier:    classifier,
		Store:         store,
		Metrics:       testMetrics,
		Notifier:      notifier,
		Logger:        zap.NewNop(),
		FetchLimit:    5,
		SnippetLength: 40,
	})
}

func candidate(id, subject, body string) mailsource.Candidate {
	return mailsource.Candidate{
		ExternalID: id,
		Sender:     "alice@example.com",
		Recipient:  "inbox@example.com",
		Subject:    subject,
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestPipeline_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("摄取新邮件并广播动作", func(t *testing.T) {
		store := memory.NewStore()
		notifier := &recordingNotifier{}
		connector := &stubConnector{candidates: []mailsource.Candidate{
			candidate("ext-1", "Meeting tomorrow", "Can we meet tomorrow at 4PM?"),
		}}
		classifier := &stubClassifier{classification: domain.Classification{
			Label:   domain.LabelRespond,
			Subtype: domain.SubtypeMeetingInvite,
			Source:  domain.SourceParsed,
		}}

		pipeline := newTestPipeline(connector, classifier, store, notifier)
		count, err := pipeline.Ingest(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, []domain.Action{domain.ActionScheduleMeeting}, notifier.events)

		stored, err := store.GetMessageByExternalID("ext-1")
		require.NoError(t, err)
		assert.Equal(t, domain.LabelRespond, stored.Label)
		assert.Equal(t, domain.SubtypeMeetingInvite, stored.Subtype)
		assert.Equal(t, "alice@example.com", stored.Sender)
		assert.Equal(t, "inbox@example.com", stored.Recipient)
		assert.Equal(t, "summary of: Can we meet tomorrow at 4PM?", stored.Summary)
		assert.NotEmpty(t, stored.Snippet)
	})

	t.Run("重复摄取是幂等的", func(t *testing.T) {
		store := memory.NewStore()
		connector := &stubConnector{candidates: []mailsource.Candidate{
			candidate("ext-1", "Subject", "Body"),
		}}
		classifier := &stubClassifier{classification: domain.FallbackClassification()}

		pipeline := newTestPipeline(connector, classifier, store, nil)

		count, err := pipeline.Ingest(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		// 第二轮同一封邮件不再入库
		count, err = pipeline.Ingest(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		messages, err := store.ListMessages(nil)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
	})

	t.Run("已入库邮件的分流字段不被覆盖", func(t *testing.T) {
		store := memory.NewStore()
		connector := &stubConnector{candidates: []mailsource.Candidate{
			candidate("ext-1", "Subject", "Body"),
		}}
		classifier := &stubClassifier{classification: domain.Classification{
			Label:   domain.LabelRespond,
			Subtype: domain.SubtypeInfoRequest,
			Source:  domain.SourceParsed,
		}}

		pipeline := newTestPipeline(connector, classifier, store, nil)
		_, err := pipeline.Ingest(ctx)
		require.NoError(t, err)

		// 第二轮分类器给出不同结果，但已入库邮件被整体跳过
		classifier.classification = domain.Classification{
			Label:   domain.LabelIgnore,
			Subtype: domain.SubtypeSpam,
			Source:  domain.SourceParsed,
		}
		_, err = pipeline.Ingest(ctx)
		require.NoError(t, err)

		stored, err := store.GetMessageByExternalID("ext-1")
		require.NoError(t, err)
		assert.Equal(t, domain.LabelRespond, stored.Label)
		assert.Equal(t, domain.SubtypeInfoRequest, stored.Subtype)
	})

	t.Run("缺少外部ID的候选被跳过", func(t *testing.T) {
		store := memory.NewStore()
		connector := &stubConnector{candidates: []mailsource.Candidate{
			candidate("", "No ID", "body"),
			candidate("ext-2", "Has ID", "body"),
		}}
		classifier := &stubClassifier{classification: domain.FallbackClassification()}

		pipeline := newTestPipeline(connector, classifier, store, nil)
		count, err := pipeline.Ingest(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("拉取失败向上返回错误", func(t *testing.T) {
		store := memory.NewStore()
		connector := &stubConnector{err: errors.New("gmail unavailable")}
		classifier := &stubClassifier{classification: domain.FallbackClassification()}

		pipeline := newTestPipeline(connector, classifier, store, nil)
		count, err := pipeline.Ingest(ctx)

		assert.Error(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("兜底分类正常入库", func(t *testing.T) {
		store := memory.NewStore()
		connector := &stubConnector{candidates: []mailsource.Candidate{
			candidate("ext-3", "Garbled", "???"),
		}}
		classifier := &stubClassifier{classification: domain.FallbackClassification()}

		pipeline := newTestPipeline(connector, classifier, store, nil)
		count, err := pipeline.Ingest(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)

		stored, err := store.GetMessageByExternalID("ext-3")
		require.NoError(t, err)
		assert.Equal(t, domain.LabelNotify, stored.Label)
		assert.Equal(t, domain.SubtypeUpcomingEvent, stored.Subtype)
		assert.Equal(t, domain.SourceFallback, stored.Source)
	})
}

func TestPipeline_Submit(t *testing.T) {
	store := memory.NewStore()
	classifier := &stubClassifier{classification: domain.FallbackClassification()}
	pipeline := newTestPipeline(&stubConnector{}, classifier, store, nil)

	t.Run("单个候选直接入库", func(t *testing.T) {
		ok := pipeline.Submit(context.Background(), candidate("smtp-1", "Inbound", "raw body"))
		assert.True(t, ok)
	})

	t.Run("重复提交返回false", func(t *testing.T) {
		ok := pipeline.Submit(context.Background(), candidate("smtp-1", "Inbound", "raw body"))
		assert.False(t, ok)
	})
}

func TestDeriveSnippet(t *testing.T) {
	t.Run("压缩空白为单行", func(t *testing.T) {
		assert.Equal(t, "a b c", deriveSnippet("a\n  b\t\tc", 40))
	})

	t.Run("超长正文按字符截断", func(t *testing.T) {
		snippet := deriveSnippet("word word word word word word word word word", 10)
		assert.Equal(t, 10, len([]rune(snippet)))
	})

	t.Run("多字节字符不被截断", func(t *testing.T) {
		snippet := deriveSnippet("会议安排在明天下午四点，请准时参加并提前准备材料", 5)
		assert.Equal(t, 5, len([]rune(snippet)))
	})
}

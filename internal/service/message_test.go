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

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/responder"
	"mailtriage/backend/internal/storage"
	"mailtriage/backend/internal/storage/memory"
)

// stubOracleClient 返回固定文本的模型客户端
type stubOracleClient struct {
	output string
	err    error
}

func (s *stubOracleClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	return s.output, s.err
}

// stubTriageClassifier 返回固定分类的分类器
type stubTriageClassifier struct {
	classification domain.Classification
}

func (s *stubTriageClassifier) Summarize(ctx context.Context, body string) string {
	return "new summary"
}

func (s *stubTriageClassifier) Classify(ctx context.Context, summary string) domain.Classification {
	return s.classification
}

// stubSender 记录发送调用
type stubSender struct {
	err  error
	sent []string // 收件人列表
}

func (s *stubSender) Send(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

var messageMetrics = monitoring.NewMetrics(prometheus.NewRegistry())

// seedMessage 向存储写入一封测试邮件
func seedMessage(t *testing.T, store storage.Store, externalID string) *domain.Message {
	t.Helper()
	msg := &domain.Message{
		ExternalID: externalID,
		Sender:     "alice@example.com",
		Subject:    "Project kickoff",
		Body:       "Can we meet next Monday?",
		Summary:    "Client asks about kickoff meeting availability.",
		Label:      domain.LabelRespond,
		Subtype:    domain.SubtypeMeetingInvite,
		Source:     domain.SourceParsed,
		ReceivedAt: time.Now().UTC(),
	}
	_, err := store.UpsertMessage(msg)
	require.NoError(t, err)
	return msg
}

func newMessageService(store storage.Store, classifier *stubTriageClassifier, client *stubOracleClient, sender *stubSender) *MessageService {
	rsp := responder.NewResponder(client, "llama-3.1-8b-instant", zap.NewNop())
	if classifier == nil {
		classifier = &stubTriageClassifier{classification: domain.FallbackClassification()}
	}
	var snd mailsource.Sender
	if sender != nil {
		snd = sender
	}
	return NewMessageService(store, classifier, rsp, snd, messageMetrics, zap.NewNop())
}

func TestMessageService_ActionFor(t *testing.T) {
	store := memory.NewStore()
	msg := seedMessage(t, store, "ext-1")
	svc := newMessageService(store, nil, &stubOracleClient{}, nil)

	t.Run("返回存量记录的路由动作", func(t *testing.T) {
		action, err := svc.ActionFor(msg.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ActionScheduleMeeting, action)
	})

	t.Run("不存在的邮件返回未找到", func(t *testing.T) {
		_, err := svc.ActionFor("missing")
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)
	})
}

func TestMessageService_Reclassify(t *testing.T) {
	store := memory.NewStore()
	msg := seedMessage(t, store, "ext-1")
	classifier := &stubTriageClassifier{classification: domain.Classification{
		Label:   domain.LabelIgnore,
		Subtype: domain.SubtypeSpam,
		Source:  domain.SourceParsed,
	}}
	svc := newMessageService(store, classifier, &stubOracleClient{}, nil)

	t.Run("重新分类覆盖分流字段与摘要", func(t *testing.T) {
		updated, err := svc.Reclassify(context.Background(), msg.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LabelIgnore, updated.Label)
		assert.Equal(t, domain.SubtypeSpam, updated.Subtype)
		assert.Equal(t, "new summary", updated.Summary)
	})
}

func TestMessageService_Drafts(t *testing.T) {
	ctx := context.Background()

	t.Run("生成草稿并保存", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		svc := newMessageService(store, nil, &stubOracleClient{output: "Hi Alice, Monday works."}, nil)

		draft, err := svc.DraftReply(ctx, msg.ID, "Anil Kumar")
		require.NoError(t, err)
		assert.Equal(t, "Hi Alice, Monday works.", draft)

		stored, err := store.GetMessage(msg.ID)
		require.NoError(t, err)
		assert.Equal(t, draft, stored.DraftReply)
	})

	t.Run("模型失败时草稿不变", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		svc := newMessageService(store, nil, &stubOracleClient{err: errors.New("model down")}, nil)

		_, err := svc.DraftReply(ctx, msg.ID, "Anil Kumar")
		assert.Error(t, err)

		stored, err := store.GetMessage(msg.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.DraftReply)
	})

	t.Run("没有草稿时拒绝改写", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		svc := newMessageService(store, nil, &stubOracleClient{output: "rewritten"}, nil)

		_, err := svc.RewriteDraft(ctx, msg.ID, "formal")
		assert.Error(t, err)
	})

	t.Run("改写覆盖已有草稿", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		require.NoError(t, store.UpdateDraft(msg.ID, "original draft"))
		svc := newMessageService(store, nil, &stubOracleClient{output: "rewritten draft"}, nil)

		out, err := svc.RewriteDraft(ctx, msg.ID, "formal")
		require.NoError(t, err)
		assert.Equal(t, "rewritten draft", out)
	})
}

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("发送草稿并记录流水", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		require.NoError(t, store.UpdateDraft(msg.ID, "my reply"))
		sender := &stubSender{}
		svc := newMessageService(store, nil, &stubOracleClient{}, sender)

		sent, err := svc.Send(ctx, msg.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", sent.Recipient)
		assert.Equal(t, "Re: Project kickoff", sent.Subject)
		assert.Equal(t, []string{"alice@example.com"}, sender.sent)

		stored, err := store.GetMessage(msg.ID)
		require.NoError(t, err)
		assert.True(t, stored.Sent)

		log, err := store.ListSentMessages(nil)
		require.NoError(t, err)
		assert.Len(t, log, 1)
	})

	t.Run("发送失败时不落任何记录", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		require.NoError(t, store.UpdateDraft(msg.ID, "my reply"))
		sender := &stubSender{err: errors.New("smtp refused")}
		svc := newMessageService(store, nil, &stubOracleClient{}, sender)

		_, err := svc.Send(ctx, msg.ID, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp refused")

		stored, err := store.GetMessage(msg.ID)
		require.NoError(t, err)
		assert.False(t, stored.Sent)

		log, err := store.ListSentMessages(nil)
		require.NoError(t, err)
		assert.Empty(t, log)
	})

	t.Run("没有草稿时拒绝发送", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		svc := newMessageService(store, nil, &stubOracleClient{}, &stubSender{})

		_, err := svc.Send(ctx, msg.ID, "")
		assert.Error(t, err)
	})

	t.Run("未配置发送通道时拒绝发送", func(t *testing.T) {
		store := memory.NewStore()
		msg := seedMessage(t, store, "ext-1")
		require.NoError(t, store.UpdateDraft(msg.ID, "my reply"))
		svc := newMessageService(store, nil, &stubOracleClient{}, nil)

		_, err := svc.Send(ctx, msg.ID, "")
		assert.Error(t, err)
	})

	t.Run("Re前缀不重复添加", func(t *testing.T) {
		assert.Equal(t, "Re: hello", replySubject("hello"))
		assert.Equal(t, "Re: hello", replySubject("Re: hello"))
		assert.Equal(t, "re: hello", replySubject("re: hello"))
	})
}

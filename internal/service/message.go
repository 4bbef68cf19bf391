package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/responder"
	"mailtriage/backend/internal/storage"
	"mailtriage/backend/internal/triage"
)

// MessageService 提供邮件记录的查询、草稿与发送能力。
type MessageService struct {
	store      storage.Store
	classifier triage.Classifier
	responder  *responder.Responder
	sender     mailsource.Sender
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewMessageService 创建邮件服务。sender 可以为 nil（未配置发送通道）。
func NewMessageService(store storage.Store, classifier triage.Classifier, rsp *responder.Responder, sender mailsource.Sender, metrics *monitoring.Metrics, logger *zap.Logger) *MessageService {
	return &MessageService{
		store:      store,
		classifier: classifier,
		responder:  rsp,
		sender:     sender,
		metrics:    metrics,
		logger:     logger,
	}
}

// List 返回邮件列表，label 非空时按标签过滤。
func (s *MessageService) List(label *domain.TriageLabel) ([]domain.Message, error) {
	return s.store.ListMessages(label)
}

// Get 返回单封邮件。
func (s *MessageService) Get(id string) (*domain.Message, error) {
	return s.store.GetMessage(id)
}

// Delete 删除单封邮件。关联的提醒与会议保持原样。
func (s *MessageService) Delete(id string) error {
	return s.store.DeleteMessage(id)
}

// DeleteAll 清空全部邮件，返回删除数量。
func (s *MessageService) DeleteAll() (int, error) {
	return s.store.DeleteAllMessages()
}

// ActionFor 返回某封已入库邮件的路由动作。
func (s *MessageService) ActionFor(id string) (domain.Action, error) {
	message, err := s.store.GetMessage(id)
	if err != nil {
		return "", err
	}
	return triage.Route(message.Label, message.Subtype, message.ExtractedDueTime), nil
}

// Reclassify 对已入库邮件重新执行摘要与分类，覆盖分流字段。
// 这是重新分类的唯一入口，常规摄取不会触碰已有的分流结果。
func (s *MessageService) Reclassify(ctx context.Context, id string) (*domain.Message, error) {
	message, err := s.store.GetMessage(id)
	if err != nil {
		return nil, err
	}

	summary := s.classifier.Summarize(ctx, message.Body)
	classification := s.classifier.Classify(ctx, summary)
	s.metrics.RecordClassification(string(classification.Label), classification.Source == domain.SourceFallback)

	if err := s.store.UpdateClassification(id, classification, summary); err != nil {
		return nil, err
	}

	s.logger.Info("message reclassified",
		zap.String("message_id", id),
		zap.String("label", string(classification.Label)),
		zap.String("subtype", string(classification.Subtype)))
	return s.store.GetMessage(id)
}

// DraftReply 基于邮件摘要生成回复草稿并保存。
func (s *MessageService) DraftReply(ctx context.Context, id, fullName string) (string, error) {
	message, err := s.store.GetMessage(id)
	if err != nil {
		return "", err
	}

	draft, err := s.responder.Draft(ctx, message.Summary, fullName)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateDraft(id, draft); err != nil {
		return "", err
	}
	return draft, nil
}

// UpdateDraft 保存人工编辑后的草稿。
func (s *MessageService) UpdateDraft(id, draft string) error {
	return s.store.UpdateDraft(id, draft)
}

// RewriteDraft 将已有草稿改写为指定语气并保存。
func (s *MessageService) RewriteDraft(ctx context.Context, id, tone string) (string, error) {
	message, err := s.store.GetMessage(id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(message.DraftReply) == "" {
		return "", fmt.Errorf("message has no draft to rewrite")
	}

	rewritten, err := s.responder.Rewrite(ctx, message.DraftReply, tone)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateDraft(id, rewritten); err != nil {
		return "", err
	}
	return rewritten, nil
}

// Send 把当前草稿发送给原发件人（或指定收件人）。
// 发送失败时不落任何记录，协作方错误原样返回；
// 成功后追加发送流水并把邮件标记为已发送。
func (s *MessageService) Send(ctx context.Context, id, to string) (*domain.SentMessage, error) {
	if s.sender == nil {
		return nil, fmt.Errorf("no mail sender configured")
	}

	message, err := s.store.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(message.DraftReply) == "" {
		return nil, fmt.Errorf("message has no draft to send")
	}

	if to == "" {
		to = message.Sender
	}
	subject := replySubject(message.Subject)

	if err := s.sender.Send(ctx, to, subject, message.DraftReply); err != nil {
		s.metrics.MessageSendFailed.Inc()
		return nil, err
	}

	sent := &domain.SentMessage{
		MessageID: &message.ID,
		Recipient: to,
		Subject:   subject,
		Body:      message.DraftReply,
		SentAt:    time.Now().UTC(),
	}
	if err := s.store.LogSentMessage(sent); err != nil {
		return nil, err
	}
	if err := s.store.MarkSent(id); err != nil {
		return nil, err
	}

	s.metrics.MessagesSent.Inc()
	s.logger.Info("reply sent", zap.String("message_id", id), zap.String("to", to))
	return sent, nil
}

// ListSent 返回发送流水。
func (s *MessageService) ListSent(since *time.Time) ([]domain.SentMessage, error) {
	return s.store.ListSentMessages(since)
}

// replySubject 为回复加上 Re: 前缀，已有前缀时不重复。
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

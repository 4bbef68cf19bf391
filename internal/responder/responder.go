package responder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailtriage/backend/internal/oracle"
)

// DefaultTone 未指定语气时的默认值。
const DefaultTone = "polite and professional"

// Responder 通过模型服务生成和改写回复草稿。
// 与分类适配器不同，草稿生成失败会直接返回错误，由调用方展示给用户。
type Responder struct {
	client oracle.Client
	model  string
	logger *zap.Logger
}

// NewResponder 创建草稿生成器。
func NewResponder(client oracle.Client, model string, logger *zap.Logger) *Responder {
	return &Responder{client: client, model: model, logger: logger}
}

// Draft 基于邮件摘要生成可直接发送的回复草稿。
func (r *Responder) Draft(ctx context.Context, summary, fullName string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("summary is empty")
	}
	if fullName == "" {
		fullName = "the user"
	}

	prompt := fmt.Sprintf(draftPromptTemplate, fullName, summary, fullName)
	out, err := r.client.Complete(ctx, r.model, prompt)
	if err != nil {
		r.logger.Warn("draft generation failed", zap.Error(err))
		return "", fmt.Errorf("draft reply: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Rewrite 将已有草稿改写为指定语气，保持内容与长度不变。
func (r *Responder) Rewrite(ctx context.Context, draft, tone string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("draft is empty")
	}
	if strings.TrimSpace(tone) == "" {
		tone = DefaultTone
	}

	prompt := fmt.Sprintf(rewritePromptTemplate, tone, draft, tone)
	out, err := r.client.Complete(ctx, r.model, prompt)
	if err != nil {
		r.logger.Warn("draft rewrite failed", zap.Error(err), zap.String("tone", tone))
		return "", fmt.Errorf("rewrite draft: %w", err)
	}
	return strings.TrimSpace(out), nil
}

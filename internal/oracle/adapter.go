package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailtriage/backend/internal/domain"
)

// SummarizeErrorSentinel 摘要失败时写入记录的固定占位文本。
const SummarizeErrorSentinel = "Error summarizing email content."

// emptyBodySummary 正文为空时的固定摘要。
const emptyBodySummary = "No content available."

// jsonBlockPattern 从模型输出中截取首个 { 到最后一个 } 之间的内容。
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Adapter 将模型输出归一为领域层的摘要与分类结果。
// 模型的任何异常都在此处吸收：摘要失败退化为占位文本，
// 分类失败退化为兜底分类，绝不让错误中断摄取流水线。
type Adapter struct {
	client        Client
	summaryModel  string
	classifyModel string
	logger        *zap.Logger
}

// NewAdapter 创建分类适配器。
func NewAdapter(client Client, summaryModel, classifyModel string, logger *zap.Logger) *Adapter {
	return &Adapter{
		client:        client,
		summaryModel:  summaryModel,
		classifyModel: classifyModel,
		logger:        logger,
	}
}

// Summarize 生成邮件正文的要点摘要。失败时返回固定占位文本，不返回错误。
func (a *Adapter) Summarize(ctx context.Context, body string) string {
	if strings.TrimSpace(body) == "" {
		return emptyBodySummary
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, body)
	out, err := a.client.Complete(ctx, a.summaryModel, prompt)
	if err != nil {
		a.logger.Warn("summarization failed", zap.Error(err))
		return SummarizeErrorSentinel
	}
	return strings.TrimSpace(out)
}

// Classify 根据摘要对邮件做三级标签 + 子类分流。
// 输入为空、模型出错或输出不可解析时均返回兜底分类。
func (a *Adapter) Classify(ctx context.Context, summary string) domain.Classification {
	if strings.TrimSpace(summary) == "" {
		return domain.FallbackClassification()
	}

	prompt := fmt.Sprintf(triagePromptTemplate, summary)
	raw, err := a.client.Complete(ctx, a.classifyModel, prompt)
	if err != nil {
		a.logger.Warn("classification failed", zap.Error(err))
		return domain.FallbackClassification()
	}
	return a.parseClassification(raw)
}

// rawClassification 模型输出的 JSON 结构，due_time 兼容旧键名 meeting_time。
type rawClassification struct {
	Label       string `json:"label"`
	Subtype     string `json:"subtype"`
	DueTime     string `json:"due_time"`
	MeetingTime string `json:"meeting_time"`
}

// parseClassification 从模型原始输出中提取并归一分类结果。
func (a *Adapter) parseClassification(raw string) domain.Classification {
	match := jsonBlockPattern.FindString(raw)
	if match == "" {
		a.logger.Warn("unexpected classification format", zap.String("raw", truncate(raw, 256)))
		return domain.FallbackClassification()
	}

	var parsed rawClassification
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		a.logger.Warn("classification JSON invalid", zap.Error(err), zap.String("raw", truncate(match, 256)))
		return domain.FallbackClassification()
	}

	label, ok := normalizeLabel(parsed.Label)
	if !ok {
		a.logger.Warn("classification label unknown", zap.String("label", parsed.Label))
		return domain.FallbackClassification()
	}

	subtype := domain.TriageSubtype(strings.ToUpper(strings.TrimSpace(parsed.Subtype)))
	if subtype == "" {
		subtype = domain.SubtypeUpcomingEvent
	}

	c := domain.Classification{
		Label:   label,
		Subtype: subtype,
		Source:  domain.SourceParsed,
	}

	dueRaw := parsed.DueTime
	if dueRaw == "" {
		dueRaw = parsed.MeetingTime
	}
	if dueRaw != "" {
		due, err := time.Parse(time.RFC3339, dueRaw)
		if err != nil {
			// 无法解析的时间视为缺失，不影响标签与子类
			a.logger.Warn("due time unparseable", zap.String("due_time", dueRaw))
		} else {
			utc := due.UTC()
			c.DueTime = &utc
		}
	}

	return c
}

// normalizeLabel 将模型输出的标签归一为领域层取值。
// 兼容模型侧的历史词汇：email -> respond，no -> ignore。
func normalizeLabel(value string) (domain.TriageLabel, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "email", "respond":
		return domain.LabelRespond, true
	case "notify":
		return domain.LabelNotify, true
	case "no", "ignore":
		return domain.LabelIgnore, true
	}
	return "", false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

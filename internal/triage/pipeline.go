package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/pool"
	"mailtriage/backend/internal/storage"
)

// Classifier 定义流水线依赖的摘要与分类能力。
type Classifier interface {
	Summarize(ctx context.Context, body string) string
	Classify(ctx context.Context, summary string) domain.Classification
}

// Notifier 在新邮件完成分流后向外广播。
type Notifier interface {
	NotifyTriaged(message domain.Message, action domain.Action)
}

// Pipeline 邮件摄取流水线：拉取、摘要、分类、入库。
//
// 单个候选的失败只记录日志并跳过，不会中断整批；
// 幂等性由存储层以 ExternalID 为键保证。
type Pipeline struct {
	connector     mailsource.Connector
	classifier    Classifier
	store         storage.Store
	workers       *pool.WorkerPool
	metrics       *monitoring.Metrics
	notifier      Notifier
	logger        *zap.Logger
	fetchLimit    int64
	snippetLength int
}

// PipelineOptions 创建流水线所需的依赖。
type PipelineOptions struct {
	Connector     mailsource.Connector
	Classifier    Classifier
	Store         storage.Store
	Workers       *pool.WorkerPool
	Metrics       *monitoring.Metrics
	Notifier      Notifier
	Logger        *zap.Logger
	FetchLimit    int64
	SnippetLength int
}

// NewPipeline 创建摄取流水线。
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 5
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = 200
	}
	return &Pipeline{
		connector:     opts.Connector,
		classifier:    opts.Classifier,
		store:         opts.Store,
		workers:       opts.Workers,
		metrics:       opts.Metrics,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		fetchLimit:    opts.FetchLimit,
		snippetLength: opts.SnippetLength,
	}
}

// Ingest 执行一次完整的摄取，返回新入库的邮件数量。
// 只有拉取阶段的错误会向上返回，单封邮件的处理失败不会。
func (p *Pipeline) Ingest(ctx context.Context) (int, error) {
	start := time.Now()
	candidates, err := p.connector.FetchCandidates(ctx, p.fetchLimit)
	if err != nil {
		p.metrics.RecordError("fetch", "pipeline")
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	var (
		ingested atomic.Int64
		wg       sync.WaitGroup
	)
	for _, candidate := range candidates {
		c := candidate
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if p.processCandidate(ctx, c) {
				ingested.Add(1)
			}
		}
		if p.workers != nil {
			p.workers.Submit(task)
		} else {
			task()
		}
	}
	wg.Wait()

	p.metrics.IngestRunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("ingestion run complete",
		zap.Int("candidates", len(candidates)),
		zap.Int64("ingested", ingested.Load()),
		zap.Duration("elapsed", time.Since(start)))
	return int(ingested.Load()), nil
}

// Submit 摄取单个外部候选（SMTP 入口使用），返回是否新入库。
func (p *Pipeline) Submit(ctx context.Context, candidate mailsource.Candidate) bool {
	return p.processCandidate(ctx, candidate)
}

// processCandidate 处理单个候选，返回是否新入库。
func (p *Pipeline) processCandidate(ctx context.Context, c mailsource.Candidate) bool {
	if c.ExternalID == "" {
		p.logger.Warn("candidate without external id dropped", zap.String("subject", c.Subject))
		p.metrics.CandidatesFailed.Inc()
		return false
	}

	// 已入库的邮件整体跳过，不再消耗模型调用
	if _, err := p.store.GetMessageByExternalID(c.ExternalID); err == nil {
		p.metrics.CandidatesSkipped.Inc()
		return false
	} else if !errors.Is(err, storage.ErrMessageNotFound) {
		p.logger.Error("dedup lookup failed", zap.String("external_id", c.ExternalID), zap.Error(err))
		p.metrics.CandidatesFailed.Inc()
		return false
	}

	summaryStart := time.Now()
	summary := p.classifier.Summarize(ctx, c.Body)
	p.metrics.RecordOracleLatency("summarize", time.Since(summaryStart))

	classifyStart := time.Now()
	classification := p.classifier.Classify(ctx, summary)
	p.metrics.RecordOracleLatency("classify", time.Since(classifyStart))
	p.metrics.RecordClassification(string(classification.Label), classification.Source == domain.SourceFallback)

	message := domain.Message{
		ExternalID: c.ExternalID,
		Sender:     c.Sender,
		Recipient:  c.Recipient,
		Subject:    c.Subject,
		Snippet:    deriveSnippet(c.Body, p.snippetLength),
		Body:       c.Body,
		Summary:    summary,
		ReceivedAt: c.ReceivedAt,
	}
	message.ApplyClassification(classification)

	result, err := p.store.UpsertMessage(&message)
	if err != nil {
		p.logger.Error("failed to persist message", zap.String("external_id", c.ExternalID), zap.Error(err))
		p.metrics.CandidatesFailed.Inc()
		return false
	}
	if !result.Created {
		// 并发摄取先到一步
		p.metrics.CandidatesSkipped.Inc()
		return false
	}

	action := Route(message.Label, message.Subtype, message.ExtractedDueTime)
	p.metrics.CandidatesIngested.Inc()
	p.metrics.RecordAction(string(action))
	if action == domain.ActionUnrecognized {
		p.logger.Warn("message routed to unrecognized",
			zap.String("message_id", message.ID),
			zap.String("label", string(message.Label)),
			zap.String("subtype", string(message.Subtype)))
	}

	if p.notifier != nil {
		p.notifier.NotifyTriaged(message, action)
	}

	p.logger.Info("message ingested",
		zap.String("message_id", message.ID),
		zap.String("label", string(message.Label)),
		zap.String("subtype", string(message.Subtype)),
		zap.String("action", string(action)))
	return true
}

// deriveSnippet 把正文压缩为单行片段并按字符数截断。
func deriveSnippet(body string, limit int) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(collapsed) <= limit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:limit])
}

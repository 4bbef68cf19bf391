package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mailtriage/backend/internal/triage"
)

// IngestService 把摄取流水线包装为可由 HTTP 与后台循环共用的服务。
// 同一时刻只允许一轮摄取在跑，重入的触发请求直接拒绝。
type IngestService struct {
	pipeline *triage.Pipeline
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
}

// NewIngestService 创建摄取服务。
func NewIngestService(pipeline *triage.Pipeline, logger *zap.Logger) *IngestService {
	return &IngestService{pipeline: pipeline, logger: logger}
}

// Run 执行一轮摄取，返回新入库数量。已有摄取在跑时返回 (0, false, nil)。
func (s *IngestService) Run(ctx context.Context) (int, bool, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0, false, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	count, err := s.pipeline.Ingest(ctx)
	if err != nil {
		s.logger.Error("ingestion run failed", zap.Error(err))
		return 0, true, err
	}
	return count, true, nil
}

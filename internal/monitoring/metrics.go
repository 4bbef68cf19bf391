package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 摄取指标
	CandidatesIngested prometheus.Counter
	CandidatesSkipped  prometheus.Counter
	CandidatesFailed   prometheus.Counter
	IngestRunDuration  prometheus.Histogram

	// 分类指标
	ClassificationsTotal    *prometheus.CounterVec // 按标签统计
	ClassificationFallbacks prometheus.Counter
	OracleLatency           *prometheus.HistogramVec // 按操作统计

	// 动作路由指标
	ActionsRouted *prometheus.CounterVec

	// 待办指标
	RemindersCreated  prometheus.Counter
	MeetingsCreated   prometheus.Counter
	ToggleTransitions *prometheus.CounterVec // 按 kind 与 transition 统计

	// 发送指标
	MessagesSent      prometheus.Counter
	MessageSendFailed prometheus.Counter

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标并注册到指定的注册表。
// reg 为 nil 时使用 Prometheus 默认注册表；同一注册表内重复创建会 panic，
// 测试应传入独立的 prometheus.NewRegistry()。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtriage_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailtriage_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		CandidatesIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_candidates_ingested_total",
				Help: "Total number of candidates ingested as new messages",
			},
		),

		CandidatesSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_candidates_skipped_total",
				Help: "Total number of candidates skipped as already known",
			},
		),

		CandidatesFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_candidates_failed_total",
				Help: "Total number of candidates that failed during ingestion",
			},
		),

		IngestRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mailtriage_ingest_run_duration_seconds",
				Help:    "Duration of a full ingestion run in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),

		ClassificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtriage_classifications_total",
				Help: "Total number of classifications by label",
			},
			[]string{"label"},
		),

		ClassificationFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_classification_fallbacks_total",
				Help: "Total number of classifications that fell back to the default",
			},
		),

		OracleLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailtriage_oracle_latency_seconds",
				Help:    "Latency of model service calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ActionsRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtriage_actions_routed_total",
				Help: "Total number of routed actions by kind",
			},
			[]string{"action"},
		),

		RemindersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_reminders_created_total",
				Help: "Total number of reminders created",
			},
		),

		MeetingsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_meetings_created_total",
				Help: "Total number of meetings scheduled",
			},
		),

		ToggleTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtriage_toggle_transitions_total",
				Help: "Total number of toggle state transitions",
			},
			[]string{"kind", "transition"},
		),

		MessagesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_messages_sent_total",
				Help: "Total number of reply messages sent",
			},
		),

		MessageSendFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_message_send_failed_total",
				Help: "Total number of reply send failures",
			},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtriage_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailtriage_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordClassification 记录一次分类结果
func (m *Metrics) RecordClassification(label string, fallback bool) {
	m.ClassificationsTotal.WithLabelValues(label).Inc()
	if fallback {
		m.ClassificationFallbacks.Inc()
	}
}

// RecordOracleLatency 记录模型调用耗时
func (m *Metrics) RecordOracleLatency(operation string, duration time.Duration) {
	m.OracleLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAction 记录一次动作路由
func (m *Metrics) RecordAction(action string) {
	m.ActionsRouted.WithLabelValues(action).Inc()
}

// RecordToggle 记录一次勾选状态迁移
func (m *Metrics) RecordToggle(kind, transition string) {
	m.ToggleTransitions.WithLabelValues(kind, transition).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}

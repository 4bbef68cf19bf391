package smtp

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/service"
	"mailtriage/backend/internal/triage"
)

// Backend 实现 go-smtp 的 Backend 接口。
//
// 【安全说明】
// 这是一个只接收邮件的 SMTP 服务器（Receiving-Only SMTP Server）。
// 特性：
// - ✅ 只接收发送到被监听地址的邮件
// - ✅ 严格验证收件人必须等于当前监听地址
// - ❌ 不支持对外发送邮件（无邮件中继功能）
// - ❌ 不会成为垃圾邮件中继或开放中继
//
// 通过验证的邮件被解析为摄取候选，直接提交到分流流水线，
// 与 Gmail 拉取共用同一套去重和分类逻辑。
type Backend struct {
	pipeline *triage.Pipeline
	settings *service.SettingsService
	logger   *zap.Logger
}

// NewBackend 创建 SMTP Backend。
func NewBackend(pipeline *triage.Pipeline, settings *service.SettingsService, logger *zap.Logger) *Backend {
	return &Backend{
		pipeline: pipeline,
		settings: settings,
		logger:   logger,
	}
}

// NewSession 创建新的 SMTP 会话。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	return &session{backend: b}, nil
}

type session struct {
	backend     *Backend
	fromAddress string
	rcptAddress string
	accepted    bool
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.fromAddress = normalizeAddress(from)
	return nil
}

// Rcpt 处理 RCPT 命令。
//
// 【安全关键】此方法是防止邮件中继的核心。
// 只接受发送到当前监听地址的邮件，拒绝所有其它地址。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeAddress(to)

	if !strings.Contains(addr, "@") {
		return &gosmtp.SMTPError{
			Code:         501,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
			Message:      "invalid recipient address",
		}
	}

	monitored := s.backend.settings.MonitoredAddress()
	if monitored == "" {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
			Message:      "no monitored address configured",
		}
	}
	if !strings.EqualFold(addr, monitored) {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
			Message:      "relay access denied - recipient not monitored by this server",
		}
	}

	s.rcptAddress = addr
	s.accepted = true
	return nil
}

// Data 处理邮件内容：解析 MIME 后提交到分流流水线。
func (s *session) Data(r io.Reader) error {
	if !s.accepted {
		return &gosmtp.SMTPError{
			Code:         554,
			EnhancedCode: gosmtp.EnhancedCode{5, 5, 1},
			Message:      "no valid recipient",
		}
	}

	rawBytes, err := io.ReadAll(io.LimitReader(r, 10<<20)) // 10MB
	if err != nil {
		return err
	}

	parsed, err := ParseEmail(rawBytes)
	if err != nil {
		return fmt.Errorf("parse email: %w", err)
	}

	candidate := s.toCandidate(parsed)
	submitted := s.backend.pipeline.Submit(context.Background(), candidate)
	s.backend.logger.Info("smtp message received",
		zap.String("external_id", candidate.ExternalID),
		zap.String("sender", candidate.Sender),
		zap.Bool("submitted", submitted))
	return nil
}

// toCandidate 把解析结果变换为摄取候选。
// 外部 ID 优先用 Message-ID 头，保证重投递不会重复入库。
func (s *session) toCandidate(parsed *ParsedEmail) mailsource.Candidate {
	externalID := strings.Trim(strings.TrimSpace(parsed.MessageID), "<>")
	if externalID == "" {
		externalID = "smtp-" + uuid.NewString()
	}

	sender := extractAddress(parsed.From)
	if sender == "" {
		sender = s.fromAddress
	}
	if sender == "" {
		sender = "Unknown Sender"
	}

	// RCPT 阶段已验证过的收件地址优先，To 头只作兜底
	recipient := s.rcptAddress
	if recipient == "" {
		recipient = extractAddress(parsed.To)
	}

	subject := parsed.Subject
	if subject == "" {
		subject = "No Subject"
	}

	body := parsed.Text
	if body == "" {
		body = parsed.HTML
	}

	receivedAt := parsed.Date
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	return mailsource.Candidate{
		ExternalID: externalID,
		Sender:     sender,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		ReceivedAt: receivedAt,
	}
}

// AuthPlain 处理 PLAIN 认证（此处允许匿名）。
func (s *session) AuthPlain(username, password string) error {
	return nil
}

// Reset 重置状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.rcptAddress = ""
	s.accepted = false
}

// Logout 会话结束。
func (s *session) Logout() error {
	return nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}

// extractAddress 从 "Name <addr>" 形式的头部提取地址部分。
func extractAddress(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if parsed, err := mail.ParseAddress(header); err == nil {
		return strings.ToLower(parsed.Address)
	}
	return strings.ToLower(strings.Trim(header, "<>"))
}

func decodeHeader(value string) string {
	if value == "" {
		return value
	}
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

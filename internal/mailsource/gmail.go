package mailsource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// addressPattern 从 "Name <addr>" 形式的 From 头中提取纯地址。
var addressPattern = regexp.MustCompile(`<(.+?)>`)

// GmailSource 基于 Gmail API 的邮件来源，同时实现 Connector 与 Sender。
type GmailSource struct {
	srv       *gmail.Service
	monitored func() string // 被监控邮箱地址的读取器，发送时作为 From
	logger    *zap.Logger
}

// NewGmailSource 创建 Gmail 邮件来源。
// credentialsFile 为 OAuth 客户端凭据，tokenFile 为已授权的令牌缓存；
// 令牌缺失或失效时返回错误，不在服务进程内发起交互式授权。
func NewGmailSource(ctx context.Context, credentialsFile, tokenFile string, monitored func() string, logger *zap.Logger) (*GmailSource, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail token (run the token generator first): %w", err)
	}

	httpClient := oauthConfig.Client(ctx, tok)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSource{srv: srv, monitored: monitored, logger: logger}, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// FetchCandidates 拉取收件箱中最近的邮件。
// 单封邮件的拉取失败只记录日志并跳过，不中断整批。
func (g *GmailSource) FetchCandidates(ctx context.Context, limit int64) ([]Candidate, error) {
	if g.monitored() == "" {
		// 未设置监控地址时不拉取
		return nil, nil
	}

	list, err := g.srv.Users.Messages.List(gmailUser).
		LabelIds("INBOX").
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list gmail messages: %w", err)
	}

	candidates := make([]Candidate, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := g.srv.Users.Messages.Get(gmailUser, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			g.logger.Warn("failed to fetch gmail message", zap.String("gmail_id", ref.Id), zap.Error(err))
			continue
		}
		candidates = append(candidates, g.toCandidate(full))
	}
	return candidates, nil
}

// toCandidate 把 Gmail 消息转换为摄取候选。
func (g *GmailSource) toCandidate(msg *gmail.Message) Candidate {
	c := Candidate{
		ExternalID: msg.Id,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch strings.ToLower(header.Name) {
			case "from", "reply-to", "sender":
				if c.Sender == "" {
					c.Sender = extractAddress(header.Value)
				}
			case "to", "delivered-to":
				if c.Recipient == "" {
					c.Recipient = extractAddress(header.Value)
				}
			case "subject":
				c.Subject = header.Value
			}
		}
		c.Body = extractBody(msg.Payload)
	}
	if c.Sender == "" {
		c.Sender = "Unknown Sender"
	}
	if c.Recipient == "" {
		c.Recipient = g.monitored()
	}
	if c.Subject == "" {
		c.Subject = "No Subject"
	}
	return c
}

// extractAddress 从 From 头中提取纯邮箱地址。
func extractAddress(fromField string) string {
	if m := addressPattern.FindStringSubmatch(fromField); m != nil {
		return m[1]
	}
	return strings.TrimSpace(fromField)
}

// extractBody 递归提取正文，优先 text/plain，其次 text/html。
func extractBody(payload *gmail.MessagePart) string {
	var plain, html string
	collectBodies(payload, &plain, &html)
	if plain != "" {
		return plain
	}
	return html
}

func collectBodies(part *gmail.MessagePart, plain, html *string) {
	if part == nil {
		return
	}
	if part.Body != nil && part.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			text := strings.TrimSpace(string(data))
			switch part.MimeType {
			case "text/plain":
				if *plain == "" {
					*plain = text
				}
			case "text/html":
				if *html == "" {
					*html = text
				}
			}
		}
	}
	for _, sub := range part.Parts {
		collectBodies(sub, plain, html)
	}
}

// Send 以监控邮箱的身份发送一封纯文本邮件。
func (g *GmailSource) Send(ctx context.Context, to, subject, body string) error {
	from := g.monitored()
	if from == "" {
		return fmt.Errorf("no monitored address configured")
	}
	if to == "" || subject == "" || body == "" {
		return fmt.Errorf("missing required fields")
	}

	var mime strings.Builder
	mime.WriteString("From: " + from + "\r\n")
	mime.WriteString("To: " + to + "\r\n")
	mime.WriteString("Subject: " + subject + "\r\n")
	mime.WriteString("MIME-Version: 1.0\r\n")
	mime.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	mime.WriteString("\r\n")
	mime.WriteString(body)

	raw := base64.URLEncoding.EncodeToString([]byte(mime.String()))
	_, err := g.srv.Users.Messages.Send(gmailUser, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send gmail message: %w", err)
	}
	return nil
}

// 编译期断言接口实现
var (
	_ Connector = (*GmailSource)(nil)
	_ Sender    = (*GmailSource)(nil)
)

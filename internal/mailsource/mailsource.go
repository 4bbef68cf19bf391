package mailsource

import (
	"context"
	"time"
)

// Candidate 表示一封待摄取的邮件原始数据。
// ExternalID 必须稳定：同一封邮件无论拉取多少次都得到同一个值。
type Candidate struct {
	ExternalID string
	Sender     string
	Recipient  string // 收件地址，通常等于被监控的邮箱
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Connector 定义邮件来源的拉取边界。
type Connector interface {
	// FetchCandidates 返回最多 limit 封最近的邮件。
	FetchCandidates(ctx context.Context, limit int64) ([]Candidate, error)
}

// Sender 定义邮件发送边界。
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

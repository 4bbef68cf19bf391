package mailsource

import "context"

// NullConnector 空来源连接器：没有配置邮件来源时使用。
// 拉取永远返回空集，摄取只剩 SMTP 入口投递的候选。
type NullConnector struct{}

// FetchCandidates 实现 Connector。
func (NullConnector) FetchCandidates(_ context.Context, _ int64) ([]Candidate, error) {
	return nil, nil
}

package smtp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	t.Run("纯文本邮件", func(t *testing.T) {
		raw := []byte("Message-ID: <abc-123@mail.example.com>\r\n" +
			"From: Alice <alice@example.com>\r\n" +
			"To: inbox@example.com\r\n" +
			"Subject: Hello\r\n" +
			"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" +
			"plain body here\r\n")

		parsed, err := ParseEmail(raw)
		require.NoError(t, err)
		assert.Equal(t, "<abc-123@mail.example.com>", parsed.MessageID)
		assert.Equal(t, "Hello", parsed.Subject)
		assert.Equal(t, "Alice <alice@example.com>", parsed.From)
		assert.Contains(t, parsed.Text, "plain body here")
		assert.False(t, parsed.Date.IsZero())
	})

	t.Run("multipart邮件取text优先", func(t *testing.T) {
		raw := []byte("From: bob@example.com\r\n" +
			"Subject: Mixed\r\n" +
			"Content-Type: multipart/alternative; boundary=frontier\r\n" +
			"\r\n" +
			"--frontier\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"text part\r\n" +
			"--frontier\r\n" +
			"Content-Type: text/html\r\n" +
			"\r\n" +
			"<p>html part</p>\r\n" +
			"--frontier--\r\n")

		parsed, err := ParseEmail(raw)
		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "text part")
		assert.Contains(t, parsed.HTML, "html part")
	})

	t.Run("base64编码正文被解码", func(t *testing.T) {
		// "deadline tomorrow" 的 base64
		raw := []byte("From: carol@example.com\r\n" +
			"Subject: Encoded\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"Content-Transfer-Encoding: base64\r\n" +
			"\r\n" +
			"ZGVhZGxpbmUgdG9tb3Jyb3c=\r\n")

		parsed, err := ParseEmail(raw)
		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "deadline tomorrow")
	})

	t.Run("附件部分被跳过", func(t *testing.T) {
		raw := []byte("From: dave@example.com\r\n" +
			"Subject: With attachment\r\n" +
			"Content-Type: multipart/mixed; boundary=xyz\r\n" +
			"\r\n" +
			"--xyz\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"see attached\r\n" +
			"--xyz\r\n" +
			"Content-Type: application/pdf\r\n" +
			"Content-Disposition: attachment; filename=report.pdf\r\n" +
			"\r\n" +
			"%PDF-1.4 fake\r\n" +
			"--xyz--\r\n")

		parsed, err := ParseEmail(raw)
		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "see attached")
		assert.NotContains(t, parsed.Text, "PDF")
	})

	t.Run("缺少Content-Type按纯文本处理", func(t *testing.T) {
		raw := []byte("From: eve@example.com\r\n" +
			"Subject: Bare\r\n" +
			"\r\n" +
			"just text\r\n")

		parsed, err := ParseEmail(raw)
		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "just text")
	})

	t.Run("非法邮件返回错误", func(t *testing.T) {
		_, err := ParseEmail([]byte("not an email at all"))
		assert.Error(t, err)
	})
}

func TestSessionToCandidate(t *testing.T) {
	t.Run("RCPT地址优先作为收件人", func(t *testing.T) {
		s := &session{rcptAddress: "inbox@example.com"}
		c := s.toCandidate(&ParsedEmail{
			MessageID: "<id-1@mail.example.com>",
			From:      "Alice <alice@example.com>",
			To:        "Someone <other@example.com>",
			Subject:   "Hello",
		})
		assert.Equal(t, "id-1@mail.example.com", c.ExternalID)
		assert.Equal(t, "alice@example.com", c.Sender)
		assert.Equal(t, "inbox@example.com", c.Recipient)
	})

	t.Run("缺少RCPT时回退To头", func(t *testing.T) {
		s := &session{}
		c := s.toCandidate(&ParsedEmail{To: "Inbox <inbox@example.com>"})
		assert.Equal(t, "inbox@example.com", c.Recipient)
		assert.Equal(t, "Unknown Sender", c.Sender)
		assert.Equal(t, "No Subject", c.Subject)
		assert.True(t, strings.HasPrefix(c.ExternalID, "smtp-"))
	})
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "alice@example.com", extractAddress("Alice <Alice@Example.com>"))
	assert.Equal(t, "bob@example.com", extractAddress("bob@example.com"))
	assert.Equal(t, "", extractAddress(""))
}

func TestConnectionLimiter(t *testing.T) {
	t.Run("超出并发上限拒绝", func(t *testing.T) {
		limiter := NewConnectionLimiter(2, 100)
		assert.True(t, limiter.Acquire())
		assert.True(t, limiter.Acquire())
		assert.False(t, limiter.Acquire())

		limiter.Release()
		assert.True(t, limiter.Acquire())
	})

	t.Run("释放不会低于零", func(t *testing.T) {
		limiter := NewConnectionLimiter(1, 100)
		limiter.Release()
		assert.Equal(t, 0, limiter.Current())
	})
}

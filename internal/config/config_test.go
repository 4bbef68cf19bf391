package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("默认配置", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)

		// 默认内存存储
		assert.Empty(t, cfg.Database.Type)
		assert.False(t, cfg.Redis.Enabled)

		assert.Equal(t, "mistral", cfg.Oracle.SummaryModel)
		assert.Equal(t, "llama-3.1-8b-instant", cfg.Oracle.ClassifyModel)
		// 草稿模型默认复用分类模型
		assert.Equal(t, cfg.Oracle.ClassifyModel, cfg.Oracle.DraftModel)
		assert.Equal(t, 60*time.Second, cfg.Oracle.Timeout)
		assert.Equal(t, 2.0, cfg.Oracle.RequestsPerSecond)

		assert.Equal(t, "none", cfg.MailSource.Provider)
		assert.Equal(t, int64(5), cfg.MailSource.FetchLimit)
		assert.False(t, cfg.Calendar.Enabled)
		assert.Equal(t, "primary", cfg.Calendar.CalendarID)

		assert.Equal(t, 2*time.Minute, cfg.Ingest.Interval)
		assert.Equal(t, 4, cfg.Ingest.Workers)
		assert.Equal(t, 200, cfg.Ingest.SnippetLength)
		assert.Equal(t, 12*time.Hour, cfg.Session.TTL)

		assert.False(t, cfg.SMTP.Enabled)
		assert.Equal(t, ":2525", cfg.SMTP.BindAddr)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		t.Setenv("MAILTRIAGE_SERVER_PORT", "9090")
		t.Setenv("MAILTRIAGE_MAILSOURCE_MONITORED_ADDRESS", " Inbox@Example.COM ")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		// 监控地址归一化为小写
		assert.Equal(t, "inbox@example.com", cfg.MailSource.MonitoredAddress)
	})

	t.Run("未知邮件来源拒绝启动", func(t *testing.T) {
		t.Setenv("MAILTRIAGE_MAILSOURCE_PROVIDER", "imap")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a, b"))
	assert.Empty(t, parseList(" , "))
}

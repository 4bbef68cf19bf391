package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 缓存服务配置
type RedisConfig struct {
	Enabled  bool   // 是否启用 Redis（用于跨实例的会话勾选状态）
	Address  string // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// OracleConfig 定义大模型分类服务的访问配置
type OracleConfig struct {
	BaseURL           string        // OpenAI 兼容接口地址，如 "http://localhost:11434/v1"
	APIKey            string        // 接口密钥，本地模型可留空
	SummaryModel      string        // 摘要模型名称，默认 "mistral"
	ClassifyModel     string        // 分类模型名称，默认 "llama-3.1-8b-instant"
	DraftModel        string        // 草稿模型名称，默认同分类模型
	Timeout           time.Duration // 单次请求超时时间，默认 60s
	RequestsPerSecond float64       // 客户端限速，默认 2 qps
}

// MailSourceConfig 定义邮件来源连接器的配置
type MailSourceConfig struct {
	Provider         string // 来源类型: "gmail" 或 "none"
	CredentialsFile  string // OAuth 客户端凭据文件路径
	TokenFile        string // OAuth 令牌缓存文件路径
	FetchLimit       int64  // 每次拉取的最大邮件数，默认 5
	MonitoredAddress string // 被监控的邮箱地址
}

// CalendarConfig 定义日历协作方的配置
type CalendarConfig struct {
	Enabled         bool   // 是否启用日历排期
	CredentialsFile string // OAuth 客户端凭据文件路径
	TokenFile       string // OAuth 令牌缓存文件路径
	CalendarID      string // 目标日历，默认 "primary"
	Timezone        string // 事件时区，默认 "UTC"
}

// IngestConfig 定义后台摄取循环的配置
type IngestConfig struct {
	Interval      time.Duration // 轮询间隔，默认 2 分钟，0 表示关闭后台循环
	Workers       int           // 分类并发数，默认 4
	SnippetLength int           // 摘要片段的最大长度，默认 200
}

// SessionConfig 定义会话勾选状态的配置
type SessionConfig struct {
	TTL time.Duration // 勾选状态的存活时间，默认 12 小时
}

// SMTPConfig 定义可选的 SMTP 收件入口配置
type SMTPConfig struct {
	Enabled  bool   // 是否启用 SMTP 监听
	BindAddr string // SMTP 服务监听地址，格式 "host:port"，默认 ":2525"
	Domain   string // SMTP 服务器域名，用于 HELO/EHLO 响应
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server     ServerConfig     // HTTP 服务器配置
	Log        LogConfig        // 日志配置
	Database   DatabaseConfig   // 数据库配置
	Redis      RedisConfig      // Redis 配置
	Oracle     OracleConfig     // 大模型服务配置
	MailSource MailSourceConfig // 邮件来源配置
	Calendar   CalendarConfig   // 日历配置
	Ingest     IngestConfig     // 摄取循环配置
	Session    SessionConfig    // 会话配置
	SMTP       SMTPConfig       // SMTP 入口配置
	CORS       CORSConfig       // 跨域配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: MAILTRIAGE_
// 例如: MAILTRIAGE_SERVER_PORT, MAILTRIAGE_ORACLE_BASE_URL
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("mailtriage")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("oracle.base_url", "http://localhost:11434/v1")
	viper.SetDefault("oracle.api_key", "")
	viper.SetDefault("oracle.summary_model", "mistral")
	viper.SetDefault("oracle.classify_model", "llama-3.1-8b-instant")
	viper.SetDefault("oracle.draft_model", "")
	viper.SetDefault("oracle.timeout", "60s")
	viper.SetDefault("oracle.requests_per_second", 2.0)
	viper.SetDefault("mailsource.provider", "none")
	viper.SetDefault("mailsource.credentials_file", "credentials.json")
	viper.SetDefault("mailsource.token_file", "token.json")
	viper.SetDefault("mailsource.fetch_limit", 5)
	viper.SetDefault("mailsource.monitored_address", "")
	viper.SetDefault("calendar.enabled", false)
	viper.SetDefault("calendar.credentials_file", "credentials.json")
	viper.SetDefault("calendar.token_file", "calendar_token.json")
	viper.SetDefault("calendar.calendar_id", "primary")
	viper.SetDefault("calendar.timezone", "UTC")
	viper.SetDefault("ingest.interval", "2m")
	viper.SetDefault("ingest.workers", 4)
	viper.SetDefault("ingest.snippet_length", 200)
	viper.SetDefault("session.ttl", "12h")
	viper.SetDefault("smtp.enabled", false)
	viper.SetDefault("smtp.bind_addr", ":2525")
	viper.SetDefault("smtp.domain", "mailtriage.local")
	viper.SetDefault("cors.allowed_origins", "*")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	oracleTimeout, err := time.ParseDuration(viper.GetString("oracle.timeout"))
	if err != nil {
		oracleTimeout = 60 * time.Second
	}

	ingestInterval, err := time.ParseDuration(viper.GetString("ingest.interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid ingest.interval: %w", err)
	}

	sessionTTL, err := time.ParseDuration(viper.GetString("session.ttl"))
	if err != nil {
		sessionTTL = 12 * time.Hour
	}

	workers := viper.GetInt("ingest.workers")
	if workers <= 0 {
		workers = 4
	}

	snippetLength := viper.GetInt("ingest.snippet_length")
	if snippetLength <= 0 {
		snippetLength = 200
	}

	fetchLimit := viper.GetInt64("mailsource.fetch_limit")
	if fetchLimit <= 0 {
		fetchLimit = 5
	}

	rps := viper.GetFloat64("oracle.requests_per_second")
	if rps <= 0 {
		rps = 2.0
	}

	classifyModel := viper.GetString("oracle.classify_model")
	draftModel := viper.GetString("oracle.draft_model")
	if draftModel == "" {
		draftModel = classifyModel
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	provider := strings.ToLower(viper.GetString("mailsource.provider"))
	switch provider {
	case "gmail", "none":
	default:
		return nil, fmt.Errorf("invalid mailsource.provider %q (expect gmail or none)", provider)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Oracle: OracleConfig{
			BaseURL:           viper.GetString("oracle.base_url"),
			APIKey:            viper.GetString("oracle.api_key"),
			SummaryModel:      viper.GetString("oracle.summary_model"),
			ClassifyModel:     classifyModel,
			DraftModel:        draftModel,
			Timeout:           oracleTimeout,
			RequestsPerSecond: rps,
		},
		MailSource: MailSourceConfig{
			Provider:         provider,
			CredentialsFile:  viper.GetString("mailsource.credentials_file"),
			TokenFile:        viper.GetString("mailsource.token_file"),
			FetchLimit:       fetchLimit,
			MonitoredAddress: strings.ToLower(strings.TrimSpace(viper.GetString("mailsource.monitored_address"))),
		},
		Calendar: CalendarConfig{
			Enabled:         viper.GetBool("calendar.enabled"),
			CredentialsFile: viper.GetString("calendar.credentials_file"),
			TokenFile:       viper.GetString("calendar.token_file"),
			CalendarID:      viper.GetString("calendar.calendar_id"),
			Timezone:        viper.GetString("calendar.timezone"),
		},
		Ingest: IngestConfig{
			Interval:      ingestInterval,
			Workers:       workers,
			SnippetLength: snippetLength,
		},
		Session: SessionConfig{
			TTL: sessionTTL,
		},
		SMTP: SMTPConfig{
			Enabled:  viper.GetBool("smtp.enabled"),
			BindAddr: viper.GetString("smtp.bind_addr"),
			Domain:   viper.GetString("smtp.domain"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（从 backend/ 子目录运行时）
//
// 文件不存在时静默失败，已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}

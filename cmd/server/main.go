package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailtriage/backend/internal/calendar"
	"mailtriage/backend/internal/config"
	"mailtriage/backend/internal/health"
	"mailtriage/backend/internal/logger"
	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/oracle"
	"mailtriage/backend/internal/pool"
	"mailtriage/backend/internal/responder"
	"mailtriage/backend/internal/service"
	"mailtriage/backend/internal/session"
	"mailtriage/backend/internal/smtp"
	"mailtriage/backend/internal/storage"
	"mailtriage/backend/internal/storage/memory"
	"mailtriage/backend/internal/storage/postgres"
	"mailtriage/backend/internal/triage"
	httptransport "mailtriage/backend/internal/transport/http"
	"mailtriage/backend/internal/websocket"
)

// main 启动包含 HTTP API、后台摄取循环与可选 SMTP 入口的综合服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     "",
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting mailtriage server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化存储层
	var store storage.Store
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		store, err = initializeDatabaseStorage(cfg, log)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		// 使用内存存储（开发环境）
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}

	// 初始化监控系统（默认注册表，由 /metrics 暴露）
	metrics := monitoring.NewMetrics(nil)

	// 会话勾选跟踪器：Redis 优先，退化为进程内存
	var tracker session.Tracker
	var redisPinger health.Pinger
	if cfg.Redis.Enabled {
		redisTracker, err := session.NewRedisTracker(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Session.TTL)
		if err != nil {
			panic(fmt.Sprintf("failed to connect redis: %v", err))
		}
		defer redisTracker.Close()
		tracker = redisTracker
		redisPinger = redisTracker
		log.Info("using redis session tracker", zap.String("address", cfg.Redis.Address))
	} else {
		tracker = session.NewMemoryTracker(cfg.Session.TTL)
		log.Info("using in-memory session tracker", zap.Duration("ttl", cfg.Session.TTL))
	}

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, redisPinger, log)

	// 大模型客户端与分类适配器
	oracleClient := oracle.NewHTTPClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Timeout, cfg.Oracle.RequestsPerSecond)
	classifier := oracle.NewAdapter(oracleClient, cfg.Oracle.SummaryModel, cfg.Oracle.ClassifyModel, log)
	draftResponder := responder.NewResponder(oracleClient, cfg.Oracle.DraftModel, log)

	// 监控地址设置（运行期可改）
	settingsService := service.NewSettingsService(cfg.MailSource.MonitoredAddress)

	// 邮件来源连接器
	var connector mailsource.Connector = mailsource.NullConnector{}
	var sender mailsource.Sender
	if cfg.MailSource.Provider == "gmail" {
		gmailSource, err := mailsource.NewGmailSource(ctx,
			cfg.MailSource.CredentialsFile,
			cfg.MailSource.TokenFile,
			settingsService.MonitoredAddress,
			log,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize gmail source: %v", err))
		}
		connector = gmailSource
		sender = gmailSource
		log.Info("gmail mail source initialized",
			zap.String("monitored", cfg.MailSource.MonitoredAddress))
	} else {
		log.Info("no mail source configured, ingestion limited to SMTP intake")
	}

	// 日历排期
	var scheduler calendar.Scheduler
	if cfg.Calendar.Enabled {
		googleScheduler, err := calendar.NewGoogleScheduler(ctx,
			cfg.Calendar.CredentialsFile,
			cfg.Calendar.TokenFile,
			cfg.Calendar.CalendarID,
			cfg.Calendar.Timezone,
			settingsService.MonitoredAddress,
			log,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize calendar: %v", err))
		}
		scheduler = googleScheduler
		log.Info("google calendar scheduler initialized", zap.String("calendar", cfg.Calendar.CalendarID))
	}

	// 创建 WebSocket Hub（分流事件广播）
	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, log)

	// 分类并发池与摄取流水线
	workerPool := pool.NewWorkerPool(cfg.Ingest.Workers, cfg.Ingest.Workers*4, log)
	pipeline := triage.NewPipeline(triage.PipelineOptions{
		Connector:     connector,
		Classifier:    classifier,
		Store:         store,
		Workers:       workerPool,
		Metrics:       metrics,
		Notifier:      wsHub,
		Logger:        log,
		FetchLimit:    cfg.MailSource.FetchLimit,
		SnippetLength: cfg.Ingest.SnippetLength,
	})

	// 初始化服务层
	messageService := service.NewMessageService(store, classifier, draftResponder, sender, metrics, log)
	lifecycleService := service.NewLifecycleService(store, scheduler, tracker, metrics, log)
	ingestService := service.NewIngestService(pipeline, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:           cfg,
		MessageService:   messageService,
		LifecycleService: lifecycleService,
		IngestService:    ingestService,
		SettingsService:  settingsService,
		HealthChecker:    healthChecker,
		Metrics:          metrics,
		WebSocketHub:     wsHub,
		Logger:           log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// 启动分类并发池
	workerPool.Start(groupCtx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 可选 SMTP 入口 goroutine
	var smtpServer *gosmtp.Server
	if cfg.SMTP.Enabled {
		smtpBackend := smtp.NewBackend(pipeline, settingsService, log)
		smtpServer = gosmtp.NewServer(smtpBackend)
		smtpServer.Addr = cfg.SMTP.BindAddr
		smtpServer.Domain = cfg.SMTP.Domain
		smtpServer.ReadTimeout = 10 * time.Second
		smtpServer.WriteTimeout = 10 * time.Second
		smtpServer.MaxMessageBytes = 10 * 1024 * 1024 // 10MB
		smtpServer.MaxRecipients = 50

		group.Go(func() error {
			log.Info("starting SMTP server",
				zap.String("address", cfg.SMTP.BindAddr),
				zap.String("domain", cfg.SMTP.Domain),
			)
			listener, err := net.Listen("tcp", cfg.SMTP.BindAddr)
			if err != nil {
				log.Error("SMTP listen error", zap.Error(err))
				return err
			}
			// 并发连接与新建速率限制
			limited := smtp.LimitListener(listener, smtp.NewConnectionLimiter(64, 16))
			if err := smtpServer.Serve(limited); err != nil {
				log.Error("SMTP server error", zap.Error(err))
				return err
			}
			return nil
		})
	}

	// 后台摄取循环 goroutine
	if cfg.Ingest.Interval > 0 {
		group.Go(func() error {
			ticker := time.NewTicker(cfg.Ingest.Interval)
			defer ticker.Stop()

			log.Info("starting ingestion loop", zap.Duration("interval", cfg.Ingest.Interval))

			for {
				select {
				case <-groupCtx.Done():
					log.Info("ingestion loop stopped")
					return nil
				case <-ticker.C:
					count, started, err := ingestService.Run(groupCtx)
					if err != nil {
						log.Error("scheduled ingestion failed", zap.Error(err))
					} else if started && count > 0 {
						log.Info("scheduled ingestion completed", zap.Int("ingested", count))
					}
				}
			}
		})
	}

	// WebSocket Hub goroutine
	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// 关闭 HTTP 服务器
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		// 关闭 SMTP 服务器
		if smtpServer != nil {
			if err := smtpServer.Close(); err != nil {
				log.Warn("SMTP server close warning", zap.Error(err))
			}
		}

		log.Info("servers stopped")
		return nil
	})

	// 等待所有 goroutine 完成
	if err := group.Wait(); err != nil && err != context.Canceled {
		workerPool.Stop()
		log.Fatal("server error", zap.Error(err))
	}

	workerPool.Stop()
	if err := store.Close(); err != nil {
		log.Warn("store close warning", zap.Error(err))
	}
	log.Info("server exited cleanly")
}

// initializeDatabaseStorage 初始化数据库存储
func initializeDatabaseStorage(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	log.Info("initializing database storage",
		zap.String("database_type", cfg.Database.Type),
	)

	poolCfg := postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	switch cfg.Database.Type {
	case "postgres":
		return postgres.NewStore(cfg.Database.DSN, poolCfg)
	case "mysql":
		return postgres.NewMySQLStore(cfg.Database.DSN, poolCfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mailtriage/backend/internal/config"
	"mailtriage/backend/internal/logger"
	"mailtriage/backend/internal/mailsource"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/oracle"
	"mailtriage/backend/internal/service"
	"mailtriage/backend/internal/storage"
	"mailtriage/backend/internal/storage/postgres"
	"mailtriage/backend/internal/triage"
)

// main 执行一轮邮件摄取后退出，适合 cron 或手工运维。
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		poolCfg := postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}
		switch cfg.Database.Type {
		case "postgres":
			store, err = postgres.NewStore(cfg.Database.DSN, poolCfg)
		case "mysql":
			store, err = postgres.NewMySQLStore(cfg.Database.DSN, poolCfg)
		default:
			err = fmt.Errorf("unsupported database type %q", cfg.Database.Type)
		}
		if err != nil {
			log.Fatal("failed to initialize database storage", zap.Error(err))
		}
	} else {
		// 没有数据库时单次摄取没有意义：结果随进程消失
		log.Fatal("one-shot ingestion requires database storage, set MAILTRIAGE_DATABASE_TYPE and MAILTRIAGE_DATABASE_DSN")
	}
	defer store.Close()

	if cfg.MailSource.Provider != "gmail" {
		log.Fatal("one-shot ingestion requires a mail source, set MAILTRIAGE_MAILSOURCE_PROVIDER=gmail")
	}

	settings := service.NewSettingsService(cfg.MailSource.MonitoredAddress)
	gmailSource, err := mailsource.NewGmailSource(ctx,
		cfg.MailSource.CredentialsFile,
		cfg.MailSource.TokenFile,
		settings.MonitoredAddress,
		log,
	)
	if err != nil {
		log.Fatal("failed to initialize gmail source", zap.Error(err))
	}

	oracleClient := oracle.NewHTTPClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Timeout, cfg.Oracle.RequestsPerSecond)
	classifier := oracle.NewAdapter(oracleClient, cfg.Oracle.SummaryModel, cfg.Oracle.ClassifyModel, log)

	pipeline := triage.NewPipeline(triage.PipelineOptions{
		Connector:     gmailSource,
		Classifier:    classifier,
		Store:         store,
		Metrics:       monitoring.NewMetrics(nil),
		Logger:        log,
		FetchLimit:    cfg.MailSource.FetchLimit,
		SnippetLength: cfg.Ingest.SnippetLength,
	})

	count, err := pipeline.Ingest(ctx)
	if err != nil {
		log.Fatal("ingestion failed", zap.Error(err))
	}

	log.Info("ingestion completed", zap.Int("ingested", count))
}

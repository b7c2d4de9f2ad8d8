package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/infrastructure/config"
	"github.com/logicalc/loancalc/internal/infrastructure/notification"
	pgRepo "github.com/logicalc/loancalc/internal/infrastructure/postgres"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
	"github.com/logicalc/loancalc/pkg/observability"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Telemetry.LogLevel,
		Format:  cfg.Telemetry.LogFormat,
		Service: "notifierd",
	})

	if err := cfg.ValidateNotifier(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Storage != config.StoragePostgres {
		logger.Error("notifierd reads companies from PostgreSQL, set STORAGE=postgres")
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: "notifierd",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	pool, err := pkgpostgres.NewPool(dbCtx, cfg.Postgres())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var sink port.NotificationSink = notification.NewSMTPSink(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BCC:      cfg.SMTP.BCC,
		Timeout:  cfg.SMTP.Timeout,
	}, nil, logger)
	if os.Getenv("NOTIFIER_DRY_RUN") == "true" {
		logger.Warn("NOTIFIER_DRY_RUN set, logging messages instead of emailing")
		sink = notification.NewLogSink(logger)
	}

	deliverUC := usecase.NewDeliverCompanyMessageUseCase(pgRepo.NewReferenceRepo(pool), sink, logger)

	consumer, err := pkgkafka.NewConsumer(cfg.KafkaClient(), cfg.Kafka.MessageTopic, messageHandler(deliverUC, logger), logger)
	if err != nil {
		logger.Error("failed to create kafka consumer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("consumer close error", "error", err)
		}
	}()

	logger.Info("notifierd started", "topic", cfg.Kafka.MessageTopic, "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.Start(ctx); err != nil {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("notifierd stopped")
}

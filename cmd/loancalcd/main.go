package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/domain/service"
	"github.com/logicalc/loancalc/internal/infrastructure/cache"
	"github.com/logicalc/loancalc/internal/infrastructure/config"
	"github.com/logicalc/loancalc/internal/infrastructure/csvimport"
	"github.com/logicalc/loancalc/internal/infrastructure/kafka"
	"github.com/logicalc/loancalc/internal/infrastructure/messaging"
	grpcPresentation "github.com/logicalc/loancalc/internal/presentation/grpc"
	"github.com/logicalc/loancalc/internal/presentation/rest"
	"github.com/logicalc/loancalc/pkg/auth"
	"github.com/logicalc/loancalc/pkg/events"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
	"github.com/logicalc/loancalc/pkg/observability"
)

func main() {
	seed := flag.String("seed", "", "rate table CSV file or folder imported at startup")
	reflection := flag.Bool("grpc-reflection", false, "register gRPC server reflection")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Telemetry.LogLevel,
		Format:  cfg.Telemetry.LogFormat,
		Service: cfg.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting loancalcd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"storage", cfg.Storage,
	)

	// Initialize tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort
	grpcMetrics, err := observability.NewRPCMetrics(meterProvider.Meter("loancalcd/grpc"))
	if err != nil {
		logger.Error("failed to create gRPC metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := observability.NewRPCMetrics(meterProvider.Meter("loancalcd/http"))
	if err != nil {
		logger.Error("failed to create HTTP metrics", "error", err)
		os.Exit(1)
	}

	// Storage.
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Rate table cache.
	var provider port.RateTableProvider = store.tables
	var invalidator port.RateTableInvalidator
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		tableCache := cache.NewRateTableCache(store.tables, client, cfg.Redis.TTL, logger)
		provider, invalidator = tableCache, tableCache
		store.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info("rate table cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// Event publisher.
	var publisher eventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkgkafka.NewProducer(cfg.KafkaClient())
		if err != nil {
			logger.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = kafka.NewKafkaEventPublisher(producer, kafka.Topics{
			Calculations:    cfg.Kafka.CalculationTopic,
			CompanyMessages: cfg.Kafka.MessageTopic,
			RateTables:      cfg.Kafka.RateTableTopic,
		}, logger)
	} else {
		logger.Info("KAFKA_BROKERS not set, logging domain events")
		publisher = messaging.NewLogPublisher(logger)
	}

	// Outbox relay.
	relay := events.NewRelay(store.outbox, publisher, events.RelayConfig{}, logger)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(ctx)
	}()

	// Wire use cases.
	calculateUC := usecase.NewCalculateLoanUseCase(
		provider, store.calculations,
		service.NewCalculationEngine(nil),
		cfg.CalculationDefaults(),
		logger,
	)
	getCalculationUC := usecase.NewGetCalculationUseCase(store.calculations)
	getCompanyUC := usecase.NewGetCompanyUseCase(store.references)
	submitMessageUC := usecase.NewSubmitCompanyMessageUseCase(store.references, store.calculations, store.messages, logger)
	importUC := usecase.NewImportRateTableUseCase(store.references, store.tables, invalidator, publisher, logger)

	if *seed != "" {
		if err := seedRateTables(ctx, importUC, *seed); err != nil {
			logger.Error("failed to seed rate tables", "path", *seed, "error", err)
			os.Exit(1)
		}
	}

	// JWT service (validation-only: public key preferred, secret as fallback).
	var jwtSvc *auth.JWTService
	if cfg.Auth.Enabled {
		jwtSvc, err = newJWTService(cfg.Auth)
		if err != nil {
			logger.Error("failed to initialize JWT service", "error", err)
			os.Exit(1)
		}
	}

	// gRPC server.
	handler := grpcPresentation.NewCalculatorHandler(calculateUC, getCalculationUC, getCompanyUC, submitMessageUC, importUC, logger)
	grpcServer, err := grpcPresentation.NewServer(handler, grpcPresentation.ServerConfig{
		JWT:        jwtSvc,
		CertFile:   cfg.TLS.CertFile,
		KeyFile:    cfg.TLS.KeyFile,
		Reflection: *reflection,
		Metrics:    grpcMetrics,
	}, logger)
	if err != nil {
		logger.Error("failed to create gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server.
	router := rest.NewRouter(rest.Endpoints{
		Calculate:      calculateUC,
		GetCalculation: getCalculationUC,
		GetCompany:     getCompanyUC,
		SubmitMessage:  submitMessageUC,
	}, rest.NewHealthHandler(store.checks, logger), rest.Metrics{
		Handler:  metricsHandler,
		Requests: httpMetrics,
	}, logger)
	httpServer := rest.NewServer(router, logger)

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		if err := httpServer.ListenAndServe(cfg.HTTPAddr()); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	cancel()
	<-relayDone

	logger.Info("loancalcd stopped")
}

// eventPublisher publishes events directly and relays stored outbox entries.
type eventPublisher interface {
	port.EventPublisher
	events.EntryPublisher
}

func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.Issuer}
	if cfg.PublicKeyFile != "" {
		keyData, err := auth.LoadKeyFromFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load JWT public key: %w", err)
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	} else {
		jwtCfg.Secret = cfg.JWTSecret
	}
	return auth.NewJWTService(jwtCfg)
}

func seedRateTables(ctx context.Context, importUC *usecase.ImportRateTableUseCase, path string) error {
	files, err := csvimport.LoadPath(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := importUC.Execute(ctx, f.Request()); err != nil {
			return fmt.Errorf("import %s: %w", f.Path, err)
		}
	}
	return nil
}

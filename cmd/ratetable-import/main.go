// Command ratetable-import loads rate table CSV files into the calculator.
//
// Usage:
//
//	ratetable-import [flags] <file-or-folder>
//	ratetable-import -export -company <slug> -loan-type <name> [-o file]
//
// Files are written straight to PostgreSQL unless -remote names a loancalcd
// gRPC address, in which case they are sent with an admin token.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/infrastructure/cache"
	"github.com/logicalc/loancalc/internal/infrastructure/config"
	"github.com/logicalc/loancalc/internal/infrastructure/csvimport"
	"github.com/logicalc/loancalc/internal/infrastructure/kafka"
	"github.com/logicalc/loancalc/internal/infrastructure/messaging"
	pgRepo "github.com/logicalc/loancalc/internal/infrastructure/postgres"
	grpcPresentation "github.com/logicalc/loancalc/internal/presentation/grpc"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
	"github.com/logicalc/loancalc/pkg/observability"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
	"github.com/logicalc/loancalc/pkg/tlsutil"
)

type options struct {
	remote   string
	token    string
	useTLS   bool
	caFile   string
	export   bool
	company  string
	loanType string
	output   string
	timeout  time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.remote, "remote", "", "loancalcd gRPC address; imports over gRPC instead of PostgreSQL")
	flag.StringVar(&opts.token, "token", os.Getenv("LOANCALC_TOKEN"), "bearer token with the admin role for -remote")
	flag.BoolVar(&opts.useTLS, "tls", false, "use TLS with the system roots for -remote")
	flag.StringVar(&opts.caFile, "tls-ca", "", "CA certificate for a TLS -remote; implies -tls")
	flag.BoolVar(&opts.export, "export", false, "write a stored rate table as CSV instead of importing")
	flag.StringVar(&opts.company, "company", "", "company slug for -export")
	flag.StringVar(&opts.loanType, "loan-type", "", "loan type name for -export")
	flag.StringVar(&opts.output, "o", "", "output file for -export (default stdout)")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall deadline")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file-or-folder>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, opts.timeout)
	defer cancelTimeout()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Telemetry.LogLevel,
		Format:  "text",
		Service: "ratetable-import",
		Output:  os.Stderr,
	})

	if err := run(ctx, cfg, opts, flag.Args(), logger); err != nil {
		logger.Error("ratetable-import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, opts options, args []string, logger *slog.Logger) error {
	if opts.export {
		return runExport(ctx, cfg, opts, logger)
	}
	if len(args) != 1 {
		flag.Usage()
		return errors.New("exactly one file or folder is required")
	}

	files, err := csvimport.LoadPath(args[0])
	if err != nil {
		return err
	}

	var importFn func(context.Context, dto.ImportRateTableRequest) (dto.ImportRateTableResponse, error)
	if opts.remote != "" {
		client, closeFn, err := dialRemote(opts)
		if err != nil {
			return err
		}
		defer closeFn()
		importFn = func(ctx context.Context, req dto.ImportRateTableRequest) (dto.ImportRateTableResponse, error) {
			if opts.token != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+opts.token)
			}
			resp, err := client.ImportRateTable(ctx, &req)
			if err != nil {
				return dto.ImportRateTableResponse{}, err
			}
			return *resp, nil
		}
	} else {
		importUC, closeFn, err := localImporter(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		importFn = importUC.Execute
	}

	for _, f := range files {
		resp, err := importFn(ctx, f.Request())
		if err != nil {
			return fmt.Errorf("import %s: %w", f.Path, err)
		}
		for _, c := range resp.Categories {
			logger.Info("category imported",
				"file", f.Path,
				"category", c.Category,
				"rows", c.RowCount,
				"version", c.Version,
			)
		}
	}
	logger.Info("import finished", "files", len(files))
	return nil
}

func dialRemote(opts options) (*grpcPresentation.CalculatorServiceClient, func(), error) {
	creds := insecure.NewCredentials()
	if opts.useTLS || opts.caFile != "" {
		tlsCreds, err := tlsutil.ClientTLSConfig(opts.caFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load TLS CA: %w", err)
		}
		creds = tlsCreds
	}
	conn, err := grpclib.NewClient(opts.remote, grpclib.WithTransportCredentials(creds))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", opts.remote, err)
	}
	return grpcPresentation.NewCalculatorServiceClient(conn), func() { _ = conn.Close() }, nil
}

// postgresStore opens the configured database for direct access.
func postgresStore(ctx context.Context, cfg config.Config) (*pgRepo.ReferenceRepo, *pgRepo.RateTableRepo, func(), error) {
	if cfg.Storage != config.StoragePostgres {
		return nil, nil, nil, fmt.Errorf("direct access needs STORAGE=%s (got %q); use -remote for a running server", config.StoragePostgres, cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	pool, err := pkgpostgres.NewPool(ctx, cfg.Postgres())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return pgRepo.NewReferenceRepo(pool), pgRepo.NewRateTableRepo(pool), pool.Close, nil
}

func localImporter(ctx context.Context, cfg config.Config, logger *slog.Logger) (*usecase.ImportRateTableUseCase, func(), error) {
	refs, tables, closeDB, err := postgresStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){closeDB}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var invalidator port.RateTableInvalidator
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		invalidator = cache.NewRateTableCache(tables, client, cfg.Redis.TTL, logger)
	}

	var publisher port.EventPublisher = messaging.NewLogPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkgkafka.NewProducer(cfg.KafkaClient())
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create kafka producer: %w", err)
		}
		closers = append(closers, func() { _ = producer.Close() })
		publisher = kafka.NewKafkaEventPublisher(producer, kafka.Topics{
			Calculations:    cfg.Kafka.CalculationTopic,
			CompanyMessages: cfg.Kafka.MessageTopic,
			RateTables:      cfg.Kafka.RateTableTopic,
		}, logger)
	}

	return usecase.NewImportRateTableUseCase(refs, tables, invalidator, publisher, logger), closeAll, nil
}

func runExport(ctx context.Context, cfg config.Config, opts options, logger *slog.Logger) error {
	if opts.company == "" || opts.loanType == "" {
		return errors.New("-export needs -company and -loan-type")
	}
	refs, tables, closeDB, err := postgresStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	company, err := refs.FindCompanyBySlug(ctx, opts.company)
	if err != nil {
		return fmt.Errorf("find company: %w", err)
	}
	loanTypes, err := refs.ListLoanTypes(ctx, company.ID)
	if err != nil {
		return fmt.Errorf("list loan types: %w", err)
	}
	loanTypeID := ""
	for _, lt := range loanTypes {
		if lt.Name == opts.loanType {
			loanTypeID = lt.ID
		}
	}
	if loanTypeID == "" {
		return fmt.Errorf("company %s has no rate table for loan type %q", company.Slug, opts.loanType)
	}

	table, err := tables.Snapshot(ctx, company.ID, loanTypeID)
	if err != nil {
		return fmt.Errorf("snapshot rate table: %w", err)
	}

	var out io.Writer = os.Stdout
	if opts.output != "" {
		fh, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer fh.Close()
		out = fh
	}
	if err := csvimport.Write(out, csvimport.SectionsFromTable(company, opts.loanType, table)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Info("rate table exported", "company", company.Slug, "loan_type", opts.loanType)
	return nil
}

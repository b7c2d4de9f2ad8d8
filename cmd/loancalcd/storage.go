package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/infrastructure/config"
	"github.com/logicalc/loancalc/internal/infrastructure/memory"
	pgRepo "github.com/logicalc/loancalc/internal/infrastructure/postgres"
	"github.com/logicalc/loancalc/internal/presentation/rest"
	"github.com/logicalc/loancalc/pkg/events"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

// storage groups the repositories of one backend.
type storage struct {
	references   port.ReferenceDataRepository
	tables       port.RateTableRepository
	calculations port.CalculationRepository
	messages     port.CompanyMessageRepository
	outbox       events.OutboxRepository
	checks       map[string]rest.ReadinessCheck
	pool         *pgxpool.Pool
}

func (s *storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		refs := memory.NewReferenceStore()
		outbox := memory.NewOutbox()
		return &storage{
			references:   refs,
			tables:       refs,
			calculations: memory.NewCalculationRepository(outbox),
			messages:     memory.NewCompanyMessageRepository(outbox),
			outbox:       outbox,
			checks:       map[string]rest.ReadinessCheck{},
		}, nil
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pgCfg := cfg.Postgres()
	pool, err := pkgpostgres.NewPool(dbCtx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	if cfg.DB.RunMigrations {
		if err := pkgpostgres.RunMigrations(pgCfg.DSN(), pgRepo.Migrations, pgRepo.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	return &storage{
		references:   pgRepo.NewReferenceRepo(pool),
		tables:       pgRepo.NewRateTableRepo(pool),
		calculations: pgRepo.NewCalculationRepo(pool),
		messages:     pgRepo.NewCompanyMessageRepo(pool),
		outbox:       pgRepo.NewOutboxRepo(pool),
		checks: map[string]rest.ReadinessCheck{
			"postgres": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
		},
		pool: pool,
	}, nil
}

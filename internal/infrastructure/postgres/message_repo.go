package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/pkg/events"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

// CompanyMessageRepo implements port.CompanyMessageRepository.
type CompanyMessageRepo struct {
	pool *pgxpool.Pool
}

// NewCompanyMessageRepo creates a new PostgreSQL-backed message repository.
func NewCompanyMessageRepo(pool *pgxpool.Pool) *CompanyMessageRepo {
	return &CompanyMessageRepo{pool: pool}
}

// Save inserts msg and writes its domain events to the outbox in the same
// transaction. An empty calculation ID is stored as NULL.
func (r *CompanyMessageRepo) Save(ctx context.Context, msg model.CompanyMessage) error {
	var calculationID *string
	if id := msg.CalculationID(); id != "" {
		calculationID = &id
	}
	entries, err := events.NewOutboxEntries(msg.DomainEvents())
	if err != nil {
		return fmt.Errorf("save company message: %w", err)
	}

	err = pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO company_messages (id, company_id, calculation_id, sender, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			msg.ID(), msg.CompanyID(), calculationID, msg.Sender(), msg.Message(), msg.CreatedAt(),
		)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, entries)
	})
	if err != nil {
		return fmt.Errorf("save company message: %w", err)
	}
	return nil
}

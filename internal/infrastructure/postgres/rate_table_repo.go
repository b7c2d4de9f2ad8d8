package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

const categoryColumns = `id, company_id, loan_type_id, name, strategy, sum_in_rate, version`

// RateTableRepo implements port.RateTableRepository.
type RateTableRepo struct {
	pool *pgxpool.Pool
}

// NewRateTableRepo creates a new PostgreSQL-backed rate table repository.
func NewRateTableRepo(pool *pgxpool.Pool) *RateTableRepo {
	return &RateTableRepo{pool: pool}
}

// Snapshot reads the categories and rows of a scope in one REPEATABLE READ,
// READ ONLY transaction so that a concurrent import is seen entirely or not
// at all.
func (r *RateTableRepo) Snapshot(ctx context.Context, companyID, loanTypeID string) (model.RateTable, error) {
	var table model.RateTable
	err := pkgpostgres.WithSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		categories, err := loadCategories(ctx, tx, companyID, loanTypeID)
		if err != nil {
			return err
		}
		rows, err := loadRows(ctx, tx, companyID, loanTypeID)
		if err != nil {
			return err
		}
		table, err = model.NewRateTable(companyID, loanTypeID, categories, rows)
		return err
	})
	if err != nil {
		return model.RateTable{}, fmt.Errorf("snapshot rate table: %w", err)
	}
	return table, nil
}

// ReplaceRows deletes every row of category and copies rows in, bumping the
// category version when it still equals category.Version.
func (r *RateTableRepo) ReplaceRows(ctx context.Context, category model.AdditionCategory, rows []model.RateTableRow) (model.AdditionCategory, error) {
	var updated model.AdditionCategory
	err := pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = scanCategory(tx.QueryRow(ctx, `
			UPDATE addition_categories SET version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING `+categoryColumns,
			category.ID, category.Version,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			var stored int
			if err := tx.QueryRow(ctx, `SELECT version FROM addition_categories WHERE id = $1`, category.ID).Scan(&stored); err != nil {
				return notFound(err, "category", category.ID)
			}
			return fmt.Errorf("category %s: %w: version %d, stored %d",
				category.Name, valueobject.ErrVersionConflict, category.Version, stored)
		}
		if err != nil {
			return fmt.Errorf("bump category version: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM rate_table_rows WHERE category_id = $1`, category.ID); err != nil {
			return fmt.Errorf("delete rows: %w", err)
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"rate_table_rows"},
			[]string{"category_id", "credit_score_threshold", "value_index_threshold", "addition_value"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				return []any{category.ID, rows[i].CreditScoreThreshold, rows[i].ValueIndexThreshold, rows[i].AdditionValue}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.AdditionCategory{}, err
	}
	return updated, nil
}

func loadCategories(ctx context.Context, q pkgpostgres.Querier, companyID, loanTypeID string) ([]model.AdditionCategory, error) {
	rows, err := q.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM addition_categories
		WHERE company_id = $1 AND loan_type_id = $2`,
		companyID, loanTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []model.AdditionCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadRows(ctx context.Context, q pkgpostgres.Querier, companyID, loanTypeID string) ([]model.RateTableRow, error) {
	rows, err := q.Query(ctx, `
		SELECT r.category_id, r.credit_score_threshold, r.value_index_threshold, r.addition_value
		FROM rate_table_rows r
		JOIN addition_categories c ON c.id = r.category_id
		WHERE c.company_id = $1 AND c.loan_type_id = $2`,
		companyID, loanTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []model.RateTableRow
	for rows.Next() {
		var row model.RateTableRow
		if err := rows.Scan(&row.CategoryID, &row.CreditScoreThreshold, &row.ValueIndexThreshold, &row.AdditionValue); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanCategory(row pgx.Row) (model.AdditionCategory, error) {
	var (
		c        model.AdditionCategory
		strategy string
	)
	if err := row.Scan(&c.ID, &c.CompanyID, &c.LoanTypeID, &c.Name, &strategy, &c.SumInRate, &c.Version); err != nil {
		return model.AdditionCategory{}, err
	}
	s, err := valueobject.NewValueIndexStrategy(strategy)
	if err != nil {
		return model.AdditionCategory{}, fmt.Errorf("category %s: %w", c.Name, err)
	}
	c.Strategy = s
	return c, nil
}

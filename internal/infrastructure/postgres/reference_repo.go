package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// maxSlugAttempts bounds the suffixes tried for a taken company slug.
const maxSlugAttempts = 100

// ReferenceRepo implements port.ReferenceDataRepository.
type ReferenceRepo struct {
	pool *pgxpool.Pool
}

// NewReferenceRepo creates a new PostgreSQL-backed reference data repository.
func NewReferenceRepo(pool *pgxpool.Pool) *ReferenceRepo {
	return &ReferenceRepo{pool: pool}
}

const companyColumns = `id, title, slug, email, disclosure, created_at`

// GetOrCreateCompany returns the company titled title, inserting it with the
// first free slug when it does not exist.
func (r *ReferenceRepo) GetOrCreateCompany(ctx context.Context, title string) (model.LoanCompany, error) {
	candidate, err := model.NewLoanCompany(title, "", time.Now())
	if err != nil {
		return model.LoanCompany{}, fmt.Errorf("create company: %w", err)
	}

	base := candidate.Slug
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		if attempt > 1 {
			candidate.Slug = base + "-" + strconv.Itoa(attempt)
		}

		company, err := scanCompany(r.pool.QueryRow(ctx, `
			INSERT INTO loan_companies (`+companyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT DO NOTHING
			RETURNING `+companyColumns,
			candidate.ID, candidate.Title, candidate.Slug, candidate.Email, candidate.Disclosure, candidate.CreatedAt,
		))
		if err == nil {
			return company, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.LoanCompany{}, fmt.Errorf("insert company: %w", err)
		}

		// Either the title exists or the slug is taken by another title.
		existing, err := scanCompany(r.pool.QueryRow(ctx,
			`SELECT `+companyColumns+` FROM loan_companies WHERE title = $1`, candidate.Title))
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.LoanCompany{}, fmt.Errorf("find company: %w", err)
		}
	}
	return model.LoanCompany{}, fmt.Errorf("no free slug for company %q", candidate.Title)
}

func (r *ReferenceRepo) UpdateCompanyEmail(ctx context.Context, companyID, email string) (model.LoanCompany, error) {
	company, err := scanCompany(r.pool.QueryRow(ctx, `
		UPDATE loan_companies SET email = $2 WHERE id = $1
		RETURNING `+companyColumns,
		companyID, strings.TrimSpace(email),
	))
	if err != nil {
		return model.LoanCompany{}, notFound(err, "company", companyID)
	}
	return company, nil
}

func (r *ReferenceRepo) FindCompanyByID(ctx context.Context, id string) (model.LoanCompany, error) {
	company, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM loan_companies WHERE id = $1`, id))
	if err != nil {
		return model.LoanCompany{}, notFound(err, "company", id)
	}
	return company, nil
}

func (r *ReferenceRepo) FindCompanyBySlug(ctx context.Context, slug string) (model.LoanCompany, error) {
	company, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM loan_companies WHERE slug = $1`, slug))
	if err != nil {
		return model.LoanCompany{}, notFound(err, "company", slug)
	}
	return company, nil
}

func (r *ReferenceRepo) GetOrCreateLoanType(ctx context.Context, name string) (model.LoanType, error) {
	candidate, err := model.NewLoanType(name)
	if err != nil {
		return model.LoanType{}, fmt.Errorf("create loan type: %w", err)
	}

	var lt model.LoanType
	err = r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO loan_types (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
			RETURNING id, name
		)
		SELECT id, name FROM inserted
		UNION ALL
		SELECT id, name FROM loan_types WHERE name = $2
		LIMIT 1`,
		candidate.ID, candidate.Name,
	).Scan(&lt.ID, &lt.Name)
	if err != nil {
		return model.LoanType{}, fmt.Errorf("get or create loan type: %w", err)
	}
	return lt, nil
}

func (r *ReferenceRepo) GetOrCreateCategory(
	ctx context.Context, companyID, loanTypeID, name string, strategy valueobject.ValueIndexStrategy,
) (model.AdditionCategory, error) {
	candidate, err := model.NewAdditionCategory(companyID, loanTypeID, name, strategy)
	if err != nil {
		return model.AdditionCategory{}, fmt.Errorf("create category: %w", err)
	}

	category, err := scanCategory(r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO addition_categories (id, company_id, loan_type_id, name, strategy, sum_in_rate, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (company_id, loan_type_id, name) DO NOTHING
			RETURNING `+categoryColumns+`
		)
		SELECT `+categoryColumns+` FROM inserted
		UNION ALL
		SELECT `+categoryColumns+` FROM addition_categories
		WHERE company_id = $2 AND loan_type_id = $3 AND name = $4
		LIMIT 1`,
		candidate.ID, candidate.CompanyID, candidate.LoanTypeID, candidate.Name,
		candidate.Strategy.String(), candidate.SumInRate, candidate.Version,
	))
	if err != nil {
		return model.AdditionCategory{}, fmt.Errorf("get or create category: %w", err)
	}
	return category, nil
}

func (r *ReferenceRepo) ListLoanTypes(ctx context.Context, companyID string) ([]model.LoanType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT lt.id, lt.name
		FROM loan_types lt
		JOIN addition_categories c ON c.loan_type_id = lt.id
		WHERE c.company_id = $1
		  AND EXISTS (SELECT 1 FROM rate_table_rows r WHERE r.category_id = c.id)
		ORDER BY lt.name`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list loan types: %w", err)
	}
	defer rows.Close()

	var out []model.LoanType
	for rows.Next() {
		var lt model.LoanType
		if err := rows.Scan(&lt.ID, &lt.Name); err != nil {
			return nil, fmt.Errorf("scan loan type: %w", err)
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

func scanCompany(row pgx.Row) (model.LoanCompany, error) {
	var c model.LoanCompany
	if err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Email, &c.Disclosure, &c.CreatedAt); err != nil {
		return model.LoanCompany{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

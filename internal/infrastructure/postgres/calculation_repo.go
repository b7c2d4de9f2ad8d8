package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/events"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

// CalculationRepo implements port.CalculationRepository. Calculations are
// insert-only; the amortization schedule is derived again on read.
type CalculationRepo struct {
	pool *pgxpool.Pool
}

// NewCalculationRepo creates a new PostgreSQL-backed calculation repository.
func NewCalculationRepo(pool *pgxpool.Pool) *CalculationRepo {
	return &CalculationRepo{pool: pool}
}

// additionRecord is the JSONB shape of one rate addition.
type additionRecord struct {
	Category   string  `json:"category"`
	Strategy   string  `json:"strategy"`
	ValueIndex float64 `json:"value_index"`
	Value      float64 `json:"value"`
}

// Save inserts calc and writes its domain events to the outbox in the same
// transaction. Saving an existing ID fails.
func (r *CalculationRepo) Save(ctx context.Context, calc model.LoanCalculation) error {
	additions := make([]additionRecord, 0, len(calc.Additions()))
	for _, a := range calc.Additions() {
		additions = append(additions, additionRecord{
			Category:   a.Category,
			Strategy:   a.Strategy.String(),
			ValueIndex: a.ValueIndex,
			Value:      a.Value,
		})
	}
	additionsJSON, err := json.Marshal(additions)
	if err != nil {
		return fmt.Errorf("marshal additions: %w", err)
	}

	var remaining *int
	if months, ok := calc.CurrentLoanEstimatedRemainingTerm(); ok {
		remaining = &months
	}

	entries, err := events.NewOutboxEntries(calc.DomainEvents())
	if err != nil {
		return fmt.Errorf("save calculation: %w", err)
	}

	req := calc.Request()
	query := `
		INSERT INTO loan_calculations (
			id, company_id, loan_type_id,
			current_loan_balance, current_loan_monthly_payment, current_loan_rate,
			estimated_credit_score, estimated_collateral_value,
			estimated_monthly_income, estimated_monthly_expenses,
			estimated_collateral_year, loan_amount, requested_term,
			rate, additions, maximum_term, monthly_term, monthly_payment,
			remaining_term, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`
	err = pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			calc.ID(), req.CompanyID, req.LoanTypeID,
			req.CurrentLoanBalance, req.CurrentLoanMonthlyPayment, req.CurrentLoanRate,
			req.EstimatedCreditScore, req.EstimatedCollateralValue,
			req.EstimatedMonthlyIncome, req.EstimatedMonthlyExpenses,
			req.EstimatedCollateralYear, req.LoanAmount, req.MonthlyTerm,
			calc.Rate(), additionsJSON, calc.MaximumTerm(), calc.MonthlyTerm(), calc.MonthlyPayment(),
			remaining, calc.CreatedAt(),
		)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, entries)
	})
	if err != nil {
		return fmt.Errorf("save calculation: %w", err)
	}
	return nil
}

// FindByID retrieves a calculation by ID.
func (r *CalculationRepo) FindByID(ctx context.Context, id string) (model.LoanCalculation, error) {
	query := `
		SELECT id, company_id, loan_type_id,
		       current_loan_balance, current_loan_monthly_payment, current_loan_rate,
		       estimated_credit_score, estimated_collateral_value,
		       estimated_monthly_income, estimated_monthly_expenses,
		       estimated_collateral_year, loan_amount, requested_term,
		       rate, additions, maximum_term, monthly_term, monthly_payment,
		       remaining_term, created_at
		FROM loan_calculations
		WHERE id = $1
	`
	calc, err := scanCalculation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return model.LoanCalculation{}, notFound(err, "calculation", id)
	}
	return calc, nil
}

func scanCalculation(row pgx.Row) (model.LoanCalculation, error) {
	var (
		id            string
		req           model.LoanCalculationRequest
		terms         model.CalculatedTerms
		additionsJSON []byte
		createdAt     time.Time
	)
	err := row.Scan(
		&id, &req.CompanyID, &req.LoanTypeID,
		&req.CurrentLoanBalance, &req.CurrentLoanMonthlyPayment, &req.CurrentLoanRate,
		&req.EstimatedCreditScore, &req.EstimatedCollateralValue,
		&req.EstimatedMonthlyIncome, &req.EstimatedMonthlyExpenses,
		&req.EstimatedCollateralYear, &req.LoanAmount, &req.MonthlyTerm,
		&terms.Rate, &additionsJSON, &terms.MaximumTerm, &terms.MonthlyTerm, &terms.MonthlyPayment,
		&terms.RemainingTerm, &createdAt,
	)
	if err != nil {
		return model.LoanCalculation{}, err
	}

	terms.Additions, err = decodeAdditions(additionsJSON)
	if err != nil {
		return model.LoanCalculation{}, fmt.Errorf("calculation %s: %w", id, err)
	}
	terms.Schedule = model.GenerateAmortizationSchedule(req.LoanAmount, terms.Rate, terms.MonthlyTerm, terms.MonthlyPayment)

	return model.ReconstructLoanCalculation(id, req, terms, createdAt.UTC()), nil
}

func decodeAdditions(data []byte) ([]model.RateAddition, error) {
	var records []additionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode additions: %w", err)
	}
	out := make([]model.RateAddition, 0, len(records))
	for _, rec := range records {
		strategy, err := valueobject.NewValueIndexStrategy(rec.Strategy)
		if err != nil {
			return nil, fmt.Errorf("decode additions: %w", err)
		}
		out = append(out, model.RateAddition{
			Category:   rec.Category,
			Strategy:   strategy,
			ValueIndex: rec.ValueIndex,
			Value:      rec.Value,
		})
	}
	return out, nil
}

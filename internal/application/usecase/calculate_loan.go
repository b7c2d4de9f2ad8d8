package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/domain/service"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// CalculateLoanUseCase quotes a refinancing loan against the current rate
// table of a company and stores the result. The repository records
// CalculationCreated in its outbox.
type CalculateLoanUseCase struct {
	tables   port.RateTableProvider
	calcRepo port.CalculationRepository
	engine   *service.CalculationEngine
	defaults model.CalculationDefaults
	now      func() time.Time
	logger   *slog.Logger
}

// NewCalculateLoanUseCase wires dependencies. A zero defaults.CollateralYear
// resolves to the current year on every calculation.
func NewCalculateLoanUseCase(
	tables port.RateTableProvider,
	calcRepo port.CalculationRepository,
	engine *service.CalculationEngine,
	defaults model.CalculationDefaults,
	logger *slog.Logger,
) *CalculateLoanUseCase {
	if engine == nil {
		engine = service.NewCalculationEngine(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalculateLoanUseCase{
		tables:   tables,
		calcRepo: calcRepo,
		engine:   engine,
		defaults: defaults,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock used for calculation timestamps and the
// default collateral year.
func (uc *CalculateLoanUseCase) WithClock(now func() time.Time) *CalculateLoanUseCase {
	uc.now = now
	return uc
}

// Execute computes and persists a calculation.
func (uc *CalculateLoanUseCase) Execute(ctx context.Context, req dto.CalculateLoanRequest) (dto.CalculationResponse, error) {
	ctx, span := tracer.Start(ctx, "CalculateLoan", trace.WithAttributes(
		attribute.String("company_id", req.CompanyID),
		attribute.String("loan_type_id", req.LoanTypeID),
	))
	defer span.End()

	now := uc.now().UTC()

	// 1. Build the request from the DTO and the configured defaults.
	calcReq := toModelRequest(uc.defaults.AsOf(now), req)

	// 2. Snapshot the rate table.
	table, err := uc.tables.Snapshot(ctx, req.CompanyID, req.LoanTypeID)
	if err != nil {
		return dto.CalculationResponse{}, fail(span, fmt.Errorf("load rate table: %w", err))
	}

	// 3. Run the engine.
	calc, err := uc.engine.Calculate(calcReq, table)
	if err != nil {
		if isOperatorFault(err) {
			uc.logger.ErrorContext(ctx, "rate table cannot serve calculation",
				"company_id", req.CompanyID,
				"loan_type_id", req.LoanTypeID,
				"error", err,
			)
		}
		return dto.CalculationResponse{}, fail(span, fmt.Errorf("calculate: %w", err))
	}

	calc = calc.WithIdentity(uuid.New().String(), now)
	span.SetAttributes(attribute.String("calculation_id", calc.ID()), attribute.Float64("rate", calc.Rate()))

	// 4. Persist together with CalculationCreated.
	if err := uc.calcRepo.Save(ctx, calc); err != nil {
		return dto.CalculationResponse{}, fail(span, fmt.Errorf("save calculation: %w", err))
	}

	uc.logger.InfoContext(ctx, "loan calculated",
		"calculation_id", calc.ID(),
		"rate", calc.Rate(),
		"monthly_term", calc.MonthlyTerm(),
		"monthly_payment", calc.MonthlyPayment().String(),
	)

	return toCalculationResponse(calc), nil
}

// isOperatorFault reports errors caused by rate table setup rather than by
// borrower input.
func isOperatorFault(err error) bool {
	return errors.Is(err, valueobject.ErrConfiguration) || errors.Is(err, valueobject.ErrMissingRateTable)
}

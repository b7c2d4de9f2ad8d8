package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// valueIndexFunc derives a borrower ratio from a request.
type valueIndexFunc func(req model.LoanCalculationRequest) (float64, error)

var hundred = decimal.NewFromInt(100)

// valueIndexFuncs is the single dispatch point from strategy to function.
var valueIndexFuncs = map[valueobject.ValueIndexStrategy]valueIndexFunc{
	valueobject.ValueIndexLoanToValue:    loanToValue,
	valueobject.ValueIndexDebtToIncome:   debtToIncome,
	valueobject.ValueIndexCollateralYear: collateralYear,
}

// ValueIndex computes the value index a strategy keys rate rows on.
func ValueIndex(strategy valueobject.ValueIndexStrategy, req model.LoanCalculationRequest) (float64, error) {
	fn, ok := valueIndexFuncs[strategy]
	if !ok {
		return 0, valueobject.NewConfigurationError("unknown value index strategy %q", strategy.String())
	}
	return fn(req)
}

// loanToValue is loan amount / collateral value × 100.
func loanToValue(req model.LoanCalculationRequest) (float64, error) {
	if req.EstimatedCollateralValue.IsZero() {
		return 0, &valueobject.DivisionError{Strategy: valueobject.ValueIndexLoanToValue, Field: "estimated_collateral_value"}
	}
	return ratio(req.LoanAmount, req.EstimatedCollateralValue), nil
}

// debtToIncome is monthly expenses / monthly income × 100.
func debtToIncome(req model.LoanCalculationRequest) (float64, error) {
	if req.EstimatedMonthlyIncome.IsZero() {
		return 0, &valueobject.DivisionError{Strategy: valueobject.ValueIndexDebtToIncome, Field: "estimated_monthly_income"}
	}
	return ratio(req.EstimatedMonthlyExpenses, req.EstimatedMonthlyIncome), nil
}

func collateralYear(req model.LoanCalculationRequest) (float64, error) {
	return float64(req.EstimatedCollateralYear), nil
}

func ratio(numerator, denominator decimal.Decimal) float64 {
	return numerator.Div(denominator).Mul(hundred).InexactFloat64()
}

// describeIndex formats a value index for error context.
func describeIndex(strategy valueobject.ValueIndexStrategy, v float64) string {
	return fmt.Sprintf("%s=%.4f", strategy, v)
}

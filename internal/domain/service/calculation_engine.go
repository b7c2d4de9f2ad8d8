package service

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// Validation messages shown next to the offending field.
const (
	MsgMustBePositive  = "must be greater than zero"
	MsgPaymentTooSmall = "is too small to ever pay the loan off"
)

var twelve = decimal.NewFromInt(12)

// ---------------------------------------------------------------------------
// CalculationEngine – domain service producing a refinancing quote
// ---------------------------------------------------------------------------

// CalculationEngine computes a LoanCalculation from a request and a rate table
// snapshot. It performs no I/O and is safe for concurrent use.
type CalculationEngine struct {
	resolver *RateResolver
}

// NewCalculationEngine returns an engine using resolver.
func NewCalculationEngine(resolver *RateResolver) *CalculationEngine {
	if resolver == nil {
		resolver = NewRateResolver()
	}
	return &CalculationEngine{resolver: resolver}
}

// Calculate validates req and resolves rate, maximum term, effective term and
// monthly payment against table, plus the remaining term of the current loan
// when it is fully described. The result carries no ID or timestamp.
func (e *CalculationEngine) Calculate(req model.LoanCalculationRequest, table model.RateTable) (model.LoanCalculation, error) {
	if err := ValidateRequest(req); err != nil {
		return model.LoanCalculation{}, err
	}
	if table.CompanyID() != req.CompanyID || table.LoanTypeID() != req.LoanTypeID {
		return model.LoanCalculation{}, valueobject.NewConfigurationError(
			"rate table for company %s loan type %s does not match request for company %s loan type %s",
			table.CompanyID(), table.LoanTypeID(), req.CompanyID, req.LoanTypeID)
	}

	remaining, err := remainingTerm(req)
	if err != nil {
		return model.LoanCalculation{}, err
	}

	rate, additions, err := e.resolver.ResolveRate(req, table)
	if err != nil {
		return model.LoanCalculation{}, valueobject.FieldError(fmt.Errorf("compute rate: %w", err), MsgMustBePositive)
	}

	maxTerm, err := e.resolver.ComputeMaximumTerm(req, table)
	if err != nil {
		return model.LoanCalculation{}, valueobject.FieldError(fmt.Errorf("compute maximum term: %w", err), MsgMustBePositive)
	}

	term := min(req.MonthlyTerm, maxTerm)

	pmt := model.PMT(rate/12.0, term, -req.LoanAmount.InexactFloat64(), 0, model.PaymentAtEnd)
	if math.IsNaN(pmt) || math.IsInf(pmt, 0) {
		return model.LoanCalculation{}, valueobject.NewConfigurationError("rate %v yields no finite payment over %d months", rate, term)
	}
	payment := decimal.NewFromFloat(pmt).Round(2)

	return model.NewLoanCalculation(req, model.CalculatedTerms{
		Rate:           rate,
		Additions:      additions,
		MaximumTerm:    maxTerm,
		MonthlyTerm:    term,
		MonthlyPayment: payment,
		RemainingTerm:  remaining,
		Schedule:       model.GenerateAmortizationSchedule(req.LoanAmount, rate, term, payment),
	})
}

// ValidateRequest checks the request fields in combination and returns a
// *valueobject.ValidationError listing every offending field.
func ValidateRequest(req model.LoanCalculationRequest) error {
	verr := valueobject.NewValidationError()

	current := map[string]decimal.NullDecimal{
		"current_loan_balance":         req.CurrentLoanBalance,
		"current_loan_monthly_payment": req.CurrentLoanMonthlyPayment,
		"current_loan_rate":            req.CurrentLoanRate,
	}
	allValid := true
	for field, v := range current {
		if !v.Valid {
			allValid = false
			continue
		}
		if v.Decimal.IsNegative() {
			allValid = false
			verr.Add(field, MsgMustBePositive)
		}
	}

	if allValid {
		pmt := req.CurrentLoanMonthlyPayment.Decimal
		interest := req.CurrentLoanRate.Decimal.Div(twelve).Mul(req.CurrentLoanBalance.Decimal)
		if pmt.LessThanOrEqual(interest) {
			verr.Add("current_loan_monthly_payment", MsgPaymentTooSmall)
		}
	}

	if !req.LoanAmount.IsPositive() {
		verr.Add("loan_amount", MsgMustBePositive)
	}
	if req.MonthlyTerm <= 0 {
		verr.Add("monthly_term", MsgMustBePositive)
	}
	if req.EstimatedCollateralValue.IsNegative() {
		verr.Add("estimated_collateral_value", MsgMustBePositive)
	}
	if req.EstimatedMonthlyIncome.IsNegative() {
		verr.Add("estimated_monthly_income", MsgMustBePositive)
	}
	if req.EstimatedMonthlyExpenses.IsNegative() {
		verr.Add("estimated_monthly_expenses", MsgMustBePositive)
	}

	return verr.OrNil()
}

// remainingTerm estimates the months left on the current loan, or nil when
// the balance, payment or rate is unknown or the balance is zero.
func remainingTerm(req model.LoanCalculationRequest) (*int, error) {
	if !req.HasCurrentLoan() || req.CurrentLoanBalance.Decimal.IsZero() {
		return nil, nil
	}

	rate := req.CurrentLoanRate.Decimal.InexactFloat64() / 12.0
	pmt := -req.CurrentLoanMonthlyPayment.Decimal.InexactFloat64()
	pv := req.CurrentLoanBalance.Decimal.InexactFloat64()

	n, err := model.NPer(rate, pmt, pv)
	if err != nil {
		verr := valueobject.NewValidationError()
		verr.Add("current_loan_monthly_payment", MsgPaymentTooSmall)
		return nil, fmt.Errorf("estimate remaining term: %w: %w", verr, err)
	}

	months := int(math.RoundToEven(n))
	return &months, nil
}

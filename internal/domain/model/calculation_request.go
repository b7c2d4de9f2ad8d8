package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Built-in fallbacks for borrower estimates the caller leaves out.
const (
	DefaultCreditScore = 850
	DefaultMonthlyTerm = 60
)

// CalculationDefaults holds the values substituted for estimates a borrower
// does not supply. It is configuration, never read from globals.
type CalculationDefaults struct {
	CreditScore     int
	CollateralValue decimal.Decimal
	MonthlyIncome   decimal.Decimal
	MonthlyExpenses decimal.Decimal
	CollateralYear  int
	MonthlyTerm     int
}

// AsOf returns d with a zero CollateralYear replaced by the year of now.
func (d CalculationDefaults) AsOf(now time.Time) CalculationDefaults {
	if d.CollateralYear == 0 {
		d.CollateralYear = now.Year()
	}
	return d
}

// LoanCalculationRequest is the complete input to a calculation. Optional
// current-loan figures are null when the borrower has not supplied them.
type LoanCalculationRequest struct {
	CompanyID  string
	LoanTypeID string

	CurrentLoanBalance        decimal.NullDecimal
	CurrentLoanMonthlyPayment decimal.NullDecimal
	CurrentLoanRate           decimal.NullDecimal

	EstimatedCreditScore     int
	EstimatedCollateralValue decimal.Decimal
	EstimatedMonthlyIncome   decimal.Decimal
	EstimatedMonthlyExpenses decimal.Decimal
	EstimatedCollateralYear  int

	LoanAmount  decimal.Decimal
	MonthlyTerm int
}

// RequestOption overrides one default of a LoanCalculationRequest.
type RequestOption func(*LoanCalculationRequest)

// WithCurrentLoan records the borrower's existing loan. Any argument may be
// null.
func WithCurrentLoan(balance, monthlyPayment, annualRate decimal.NullDecimal) RequestOption {
	return func(r *LoanCalculationRequest) {
		r.CurrentLoanBalance = balance
		r.CurrentLoanMonthlyPayment = monthlyPayment
		r.CurrentLoanRate = annualRate
	}
}

// WithCreditScore sets the estimated credit score.
func WithCreditScore(score int) RequestOption {
	return func(r *LoanCalculationRequest) { r.EstimatedCreditScore = score }
}

// WithCollateral sets the estimated collateral value and model year.
func WithCollateral(value decimal.Decimal, year int) RequestOption {
	return func(r *LoanCalculationRequest) {
		r.EstimatedCollateralValue = value
		r.EstimatedCollateralYear = year
	}
}

// WithCollateralValue sets only the estimated collateral value.
func WithCollateralValue(value decimal.Decimal) RequestOption {
	return func(r *LoanCalculationRequest) { r.EstimatedCollateralValue = value }
}

// WithCollateralYear sets only the collateral model year.
func WithCollateralYear(year int) RequestOption {
	return func(r *LoanCalculationRequest) { r.EstimatedCollateralYear = year }
}

// WithMonthlyIncome sets the estimated monthly income.
func WithMonthlyIncome(income decimal.Decimal) RequestOption {
	return func(r *LoanCalculationRequest) { r.EstimatedMonthlyIncome = income }
}

// WithMonthlyExpenses sets the estimated monthly expenses.
func WithMonthlyExpenses(expenses decimal.Decimal) RequestOption {
	return func(r *LoanCalculationRequest) { r.EstimatedMonthlyExpenses = expenses }
}

// WithMonthlyTerm sets the requested term in months.
func WithMonthlyTerm(months int) RequestOption {
	return func(r *LoanCalculationRequest) { r.MonthlyTerm = months }
}

// NewLoanCalculationRequest fills a request from defaults and applies opts.
// Zero-valued defaults fall back to the built-in credit score and term.
func NewLoanCalculationRequest(
	defaults CalculationDefaults,
	companyID, loanTypeID string,
	loanAmount decimal.Decimal,
	opts ...RequestOption,
) LoanCalculationRequest {
	creditScore := defaults.CreditScore
	if creditScore == 0 {
		creditScore = DefaultCreditScore
	}
	term := defaults.MonthlyTerm
	if term == 0 {
		term = DefaultMonthlyTerm
	}

	req := LoanCalculationRequest{
		CompanyID:                companyID,
		LoanTypeID:               loanTypeID,
		EstimatedCreditScore:     creditScore,
		EstimatedCollateralValue: defaults.CollateralValue,
		EstimatedMonthlyIncome:   defaults.MonthlyIncome,
		EstimatedMonthlyExpenses: defaults.MonthlyExpenses,
		EstimatedCollateralYear:  defaults.CollateralYear,
		LoanAmount:               loanAmount,
		MonthlyTerm:              term,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// HasCurrentLoan reports whether balance, payment and rate are all known.
func (r LoanCalculationRequest) HasCurrentLoan() bool {
	return r.CurrentLoanBalance.Valid && r.CurrentLoanMonthlyPayment.Valid && r.CurrentLoanRate.Valid
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CalculateLoanRequest carries a borrower's quote request. Nil estimates are
// replaced by the configured calculator defaults.
type CalculateLoanRequest struct {
	CompanyID  string `json:"company_id"`
	LoanTypeID string `json:"loan_type_id"`

	CurrentLoanBalance        *decimal.Decimal `json:"current_loan_balance,omitempty"`
	CurrentLoanMonthlyPayment *decimal.Decimal `json:"current_loan_monthly_payment,omitempty"`
	CurrentLoanRate           *decimal.Decimal `json:"current_loan_rate,omitempty"`

	EstimatedCreditScore     *int             `json:"estimated_credit_score,omitempty"`
	EstimatedCollateralValue *decimal.Decimal `json:"estimated_collateral_value,omitempty"`
	EstimatedMonthlyIncome   *decimal.Decimal `json:"estimated_monthly_income,omitempty"`
	EstimatedMonthlyExpenses *decimal.Decimal `json:"estimated_monthly_expenses,omitempty"`
	EstimatedCollateralYear  *int             `json:"estimated_collateral_year,omitempty"`

	LoanAmount  decimal.Decimal `json:"loan_amount"`
	MonthlyTerm *int            `json:"monthly_term,omitempty"`
}

// GetCalculationRequest identifies a stored calculation.
type GetCalculationRequest struct {
	ID string `json:"id"`
}

// GetCompanyRequest identifies a loan company by slug.
type GetCompanyRequest struct {
	Slug string `json:"slug"`
}

// SubmitCompanyMessageRequest carries a borrower's message to a loan company.
type SubmitCompanyMessageRequest struct {
	CompanyID     string `json:"company_id"`
	CalculationID string `json:"calculation_id,omitempty"`
	Sender        string `json:"sender"`
	Message       string `json:"message"`
}

// RateCell is one addition of a rate table section.
type RateCell struct {
	CreditScore int     `json:"credit_score"`
	ValueIndex  int     `json:"value_index"`
	Value       float64 `json:"value"`
}

// RateTableSection replaces every row of one category. Strategy is a wire
// name and may be empty. A non-empty CompanyEmail updates the company's
// contact address.
type RateTableSection struct {
	CompanyTitle string     `json:"company_title"`
	CompanyEmail string     `json:"company_email,omitempty"`
	LoanTypeName string     `json:"loan_type_name"`
	Category     string     `json:"category"`
	Strategy     string     `json:"strategy,omitempty"`
	Cells        []RateCell `json:"cells"`
}

// ImportRateTableRequest carries parsed rate table sections. Source names
// the file they came from, for logs.
type ImportRateTableRequest struct {
	Source   string             `json:"source"`
	Sections []RateTableSection `json:"sections"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// RateAdditionResponse is one addition that went into a rate.
type RateAdditionResponse struct {
	Category   string  `json:"category"`
	Strategy   string  `json:"strategy"`
	ValueIndex float64 `json:"value_index"`
	Value      float64 `json:"value"`
}

// AmortizationEntryResponse represents a single amortization schedule entry.
type AmortizationEntryResponse struct {
	Period           int             `json:"period"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// CalculationResponse is the external representation of a loan calculation.
type CalculationResponse struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	LoanTypeID string `json:"loan_type_id"`

	LoanAmount    decimal.Decimal `json:"loan_amount"`
	RequestedTerm int             `json:"requested_term"`
	CreditScore   int             `json:"credit_score"`

	Rate           float64                `json:"rate"`
	RatePercent    string                 `json:"rate_percent"`
	Additions      []RateAdditionResponse `json:"additions"`
	MaximumTerm    int                    `json:"maximum_term"`
	MonthlyTerm    int                    `json:"monthly_term"`
	MonthlyPayment decimal.Decimal        `json:"monthly_payment"`
	LoanInterest   decimal.Decimal        `json:"loan_interest"`

	CurrentLoanEstimatedRemainingTerm *int                `json:"current_loan_estimated_remaining_term"`
	CurrentLoanRemainingInterest      decimal.NullDecimal `json:"current_loan_remaining_interest"`
	EstimatedMonthlySavings           decimal.NullDecimal `json:"estimated_monthly_savings"`
	EstimatedYearlySavings            decimal.NullDecimal `json:"estimated_yearly_savings"`
	InterestSavings                   decimal.NullDecimal `json:"interest_savings"`

	Schedule  []AmortizationEntryResponse `json:"schedule,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

// LoanTypeResponse is the external representation of a loan type.
type LoanTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompanyResponse is the external representation of a loan company and the
// loan types it quotes.
type CompanyResponse struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Slug       string             `json:"slug"`
	Disclosure string             `json:"disclosure"`
	LoanTypes  []LoanTypeResponse `json:"loan_types"`
}

// CompanyMessageResponse acknowledges a stored message.
type CompanyMessageResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	CalculationID string    `json:"calculation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ImportedCategoryResponse summarizes one imported section.
type ImportedCategoryResponse struct {
	CompanyID  string `json:"company_id"`
	LoanTypeID string `json:"loan_type_id"`
	Category   string `json:"category"`
	Version    int    `json:"version"`
	RowCount   int    `json:"row_count"`
}

// ImportRateTableResponse lists the categories an import replaced.
type ImportRateTableResponse struct {
	Categories []ImportedCategoryResponse `json:"categories"`
}

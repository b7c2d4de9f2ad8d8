package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// Event type names, also used as Kafka header values.
const (
	TypeCalculationCreated      = "loancalc.calculation.created"
	TypeCompanyMessageSubmitted = "loancalc.company_message.submitted"
	TypeRateTableImported       = "loancalc.rate_table.imported"
)

// ---------------------------------------------------------------------------
// Calculation Events
// ---------------------------------------------------------------------------

// CalculationCreated is raised when a quote is computed and stored.
type CalculationCreated struct {
	events.BaseEvent
	CompanyID      string          `json:"company_id"`
	LoanTypeID     string          `json:"loan_type_id"`
	LoanAmount     decimal.Decimal `json:"loan_amount"`
	Rate           float64         `json:"rate"`
	MaximumTerm    int             `json:"maximum_term"`
	MonthlyTerm    int             `json:"monthly_term"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

func NewCalculationCreated(
	calculationID, companyID, loanTypeID string,
	loanAmount decimal.Decimal, rate float64,
	maximumTerm, monthlyTerm int,
	monthlyPayment decimal.Decimal, now time.Time,
) CalculationCreated {
	return CalculationCreated{
		BaseEvent:      events.NewBaseEvent(TypeCalculationCreated, calculationID, "LoanCalculation", now),
		CompanyID:      companyID,
		LoanTypeID:     loanTypeID,
		LoanAmount:     loanAmount,
		Rate:           rate,
		MaximumTerm:    maximumTerm,
		MonthlyTerm:    monthlyTerm,
		MonthlyPayment: monthlyPayment,
	}
}

// ---------------------------------------------------------------------------
// Company Events
// ---------------------------------------------------------------------------

// CompanyMessageSubmitted is raised when a borrower asks a loan company to get
// in touch. The notifier turns it into an email.
type CompanyMessageSubmitted struct {
	events.BaseEvent
	CompanyID     string `json:"company_id"`
	CalculationID string `json:"calculation_id,omitempty"`
	Sender        string `json:"sender"`
	Message       string `json:"message"`
}

func NewCompanyMessageSubmitted(
	messageID, companyID, calculationID, sender, message string, now time.Time,
) CompanyMessageSubmitted {
	return CompanyMessageSubmitted{
		BaseEvent:     events.NewBaseEvent(TypeCompanyMessageSubmitted, messageID, "CompanyMessage", now),
		CompanyID:     companyID,
		CalculationID: calculationID,
		Sender:        sender,
		Message:       message,
	}
}

// ---------------------------------------------------------------------------
// Rate Table Events
// ---------------------------------------------------------------------------

// RateTableImported is raised when the rows of a category are replaced.
type RateTableImported struct {
	events.BaseEvent
	CompanyID  string `json:"company_id"`
	LoanTypeID string `json:"loan_type_id"`
	Category   string `json:"category"`
	Version    int    `json:"version"`
	RowCount   int    `json:"row_count"`
}

func NewRateTableImported(
	categoryID, companyID, loanTypeID, category string, version, rowCount int, now time.Time,
) RateTableImported {
	return RateTableImported{
		BaseEvent:  events.NewBaseEvent(TypeRateTableImported, categoryID, "AdditionCategory", now),
		CompanyID:  companyID,
		LoanTypeID: loanTypeID,
		Category:   category,
		Version:    version,
		RowCount:   rowCount,
	}
}

package port

import (
	"context"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Rate table ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// RateTableProvider returns one consistent snapshot of a company's rate table
// for a loan type. Concurrent imports never produce a mixed snapshot.
type RateTableProvider interface {
	Snapshot(ctx context.Context, companyID, loanTypeID string) (model.RateTable, error)
}

// RateTableRepository stores rate tables.
type RateTableRepository interface {
	RateTableProvider
	// ReplaceRows swaps every row of a category atomically and returns the
	// category with its bumped version.
	ReplaceRows(ctx context.Context, category model.AdditionCategory, rows []model.RateTableRow) (model.AdditionCategory, error)
}

// RateTableInvalidator drops any cached snapshot of a rate table.
type RateTableInvalidator interface {
	Invalidate(ctx context.Context, companyID, loanTypeID string) error
}

// ReferenceDataRepository stores companies, loan types and categories.
type ReferenceDataRepository interface {
	GetOrCreateCompany(ctx context.Context, title string) (model.LoanCompany, error)
	UpdateCompanyEmail(ctx context.Context, companyID, email string) (model.LoanCompany, error)
	GetOrCreateLoanType(ctx context.Context, name string) (model.LoanType, error)
	GetOrCreateCategory(ctx context.Context, companyID, loanTypeID, name string, strategy valueobject.ValueIndexStrategy) (model.AdditionCategory, error)
	FindCompanyByID(ctx context.Context, id string) (model.LoanCompany, error)
	FindCompanyBySlug(ctx context.Context, slug string) (model.LoanCompany, error)
	// ListLoanTypes returns the loan types a company has rate rows for,
	// ordered by name.
	ListLoanTypes(ctx context.Context, companyID string) ([]model.LoanType, error)
}

// ---------------------------------------------------------------------------
// Calculation and message ports
// ---------------------------------------------------------------------------

// CalculationRepository persists calculations. Calculations are insert-only.
type CalculationRepository interface {
	Save(ctx context.Context, calc model.LoanCalculation) error
	FindByID(ctx context.Context, id string) (model.LoanCalculation, error)
}

// CompanyMessageRepository persists company messages.
type CompanyMessageRepository interface {
	Save(ctx context.Context, msg model.CompanyMessage) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// External service ports
// ---------------------------------------------------------------------------

// NotificationSink delivers a submitted company message to the company.
type NotificationSink interface {
	Notify(ctx context.Context, company model.LoanCompany, msg event.CompanyMessageSubmitted) error
}

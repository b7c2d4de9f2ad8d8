package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// Well-known category names.
const (
	MaximumTermCategory = "Maximum term"
	MaximumRateCategory = "Maximum rate"
)

// AdditionCategory is one dimension of a company's rate table for a loan type,
// such as "Loan to value". Rows of a category map (credit score, value index)
// thresholds to an addition.
type AdditionCategory struct {
	ID         string
	CompanyID  string
	LoanTypeID string
	Name       string
	Strategy   valueobject.ValueIndexStrategy
	// SumInRate marks categories whose addition is part of the annual rate.
	// Term and limit categories are looked up but never summed.
	SumInRate bool
	// Version is bumped each time the category's rows are replaced.
	Version int
}

// NewAdditionCategory creates a category with the default SumInRate for its
// name. A zero strategy defaults to loan-to-value.
func NewAdditionCategory(companyID, loanTypeID, name string, strategy valueobject.ValueIndexStrategy) (AdditionCategory, error) {
	name = strings.TrimSpace(name)
	if companyID == "" {
		return AdditionCategory{}, errors.New("company ID is required")
	}
	if loanTypeID == "" {
		return AdditionCategory{}, errors.New("loan type ID is required")
	}
	if name == "" {
		return AdditionCategory{}, errors.New("category name is required")
	}
	if strategy.IsZero() {
		strategy = valueobject.ValueIndexLoanToValue
	}
	return AdditionCategory{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		LoanTypeID: loanTypeID,
		Name:       name,
		Strategy:   strategy,
		SumInRate:  DefaultSumInRate(name),
		Version:    1,
	}, nil
}

// DefaultSumInRate reports whether a new category called name contributes to
// the annual rate.
func DefaultSumInRate(name string) bool {
	switch strings.TrimSpace(name) {
	case MaximumTermCategory, MaximumRateCategory:
		return false
	default:
		return true
	}
}

package service

import (
	"fmt"
	"math"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// RateResolver – domain service turning a rate table into a rate and term
// ---------------------------------------------------------------------------

// RateResolver sums category additions into an annual rate and looks up the
// maximum term. It holds no state.
type RateResolver struct{}

// NewRateResolver returns a new resolver.
func NewRateResolver() *RateResolver {
	return &RateResolver{}
}

// ComputeRate returns the annual rate for req: the sum of the additions of
// every category with SumInRate, visited in ascending name order.
func (r *RateResolver) ComputeRate(req model.LoanCalculationRequest, table model.RateTable) (float64, error) {
	rate, _, err := r.ResolveRate(req, table)
	return rate, err
}

// ResolveRate is ComputeRate that also reports each category's contribution.
func (r *RateResolver) ResolveRate(req model.LoanCalculationRequest, table model.RateTable) (float64, []model.RateAddition, error) {
	categories := table.SummedCategories()
	if len(categories) == 0 {
		return 0, nil, valueobject.NewConfigurationError(
			"company %s loan type %s has no categories summed into the rate", table.CompanyID(), table.LoanTypeID())
	}

	rate := 0.0
	additions := make([]model.RateAddition, 0, len(categories))
	for _, c := range categories {
		index, err := ValueIndex(c.Strategy, req)
		if err != nil {
			return 0, nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		value, err := table.Lookup(c.Name, req.EstimatedCreditScore, index)
		if err != nil {
			return 0, nil, fmt.Errorf("look up %q at %s: %w", c.Name, describeIndex(c.Strategy, index), err)
		}
		rate += value
		additions = append(additions, model.RateAddition{
			Category:   c.Name,
			Strategy:   c.Strategy,
			ValueIndex: index,
			Value:      value,
		})
	}
	return rate, additions, nil
}

// ComputeMaximumTerm returns the longest term in months offered for req: the
// addition of the "Maximum term" category rounded to the nearest integer.
func (r *RateResolver) ComputeMaximumTerm(req model.LoanCalculationRequest, table model.RateTable) (int, error) {
	c, ok := table.Category(model.MaximumTermCategory)
	if !ok {
		return 0, valueobject.NewConfigurationError(
			"company %s loan type %s has no %q category", table.CompanyID(), table.LoanTypeID(), model.MaximumTermCategory)
	}

	index, err := ValueIndex(c.Strategy, req)
	if err != nil {
		return 0, fmt.Errorf("category %q: %w", c.Name, err)
	}
	value, err := table.Lookup(c.Name, req.EstimatedCreditScore, index)
	if err != nil {
		return 0, fmt.Errorf("look up %q at %s: %w", c.Name, describeIndex(c.Strategy, index), err)
	}

	term := int(math.Round(value))
	if term <= 0 {
		return 0, valueobject.NewConfigurationError("%q resolves to non-positive term %v", c.Name, value)
	}
	return term, nil
}

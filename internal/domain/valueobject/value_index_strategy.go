package valueobject

import (
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// ValueIndexStrategy – immutable value object
// ---------------------------------------------------------------------------

// ValueIndexStrategy names the borrower ratio an addition category is keyed
// on. The set is closed; each member maps to exactly one pure function in the
// domain service layer.
type ValueIndexStrategy struct {
	value string
}

const (
	strategyLoanToValue    = "loan_to_value"
	strategyDebtToIncome   = "debt_to_income"
	strategyCollateralYear = "year_of_collateral"
)

var (
	ValueIndexLoanToValue    = ValueIndexStrategy{value: strategyLoanToValue}
	ValueIndexDebtToIncome   = ValueIndexStrategy{value: strategyDebtToIncome}
	ValueIndexCollateralYear = ValueIndexStrategy{value: strategyCollateralYear}
)

var validValueIndexStrategies = map[string]ValueIndexStrategy{
	strategyLoanToValue:    ValueIndexLoanToValue,
	strategyDebtToIncome:   ValueIndexDebtToIncome,
	strategyCollateralYear: ValueIndexCollateralYear,
}

var valueIndexLabels = map[string]string{
	strategyLoanToValue:    "Loan to value",
	strategyDebtToIncome:   "Debt to income",
	strategyCollateralYear: "Year of collateral",
}

// NewValueIndexStrategy creates a ValueIndexStrategy from its wire name.
func NewValueIndexStrategy(s string) (ValueIndexStrategy, error) {
	v, ok := validValueIndexStrategies[s]
	if !ok {
		return ValueIndexStrategy{}, fmt.Errorf("invalid value index strategy: %q", s)
	}
	return v, nil
}

// ValueIndexStrategyForLabel matches a human label such as "Debt to income"
// (case-insensitive) to its strategy.
func ValueIndexStrategyForLabel(label string) (ValueIndexStrategy, bool) {
	want := strings.TrimSpace(label)
	for wire, l := range valueIndexLabels {
		if strings.EqualFold(l, want) {
			return validValueIndexStrategies[wire], true
		}
	}
	return ValueIndexStrategy{}, false
}

// ValueIndexStrategies lists every strategy ordered by wire name.
func ValueIndexStrategies() []ValueIndexStrategy {
	out := make([]ValueIndexStrategy, 0, len(validValueIndexStrategies))
	for _, s := range validValueIndexStrategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].value < out[j].value })
	return out
}

// String returns the wire name of the strategy.
func (s ValueIndexStrategy) String() string { return s.value }

// Label returns the human readable name of the strategy.
func (s ValueIndexStrategy) Label() string { return valueIndexLabels[s.value] }

// IsZero returns true if the strategy has not been initialised.
func (s ValueIndexStrategy) IsZero() bool { return s.value == "" }

// Equal returns true when both strategies carry the same value.
func (s ValueIndexStrategy) Equal(other ValueIndexStrategy) bool { return s.value == other.value }

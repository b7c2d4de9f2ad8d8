package valueobject_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

func TestNewValueIndexStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected valueobject.ValueIndexStrategy
	}{
		{"loan_to_value", valueobject.ValueIndexLoanToValue},
		{"debt_to_income", valueobject.ValueIndexDebtToIncome},
		{"year_of_collateral", valueobject.ValueIndexCollateralYear},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := valueobject.NewValueIndexStrategy(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.expected))
			assert.Equal(t, tt.input, got.String())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := valueobject.NewValueIndexStrategy("_get_value_index_loan_to_value")
		assert.Error(t, err)
	})
}

func TestValueIndexStrategyForLabel(t *testing.T) {
	s, ok := valueobject.ValueIndexStrategyForLabel("  debt to INCOME ")
	require.True(t, ok)
	assert.Equal(t, valueobject.ValueIndexDebtToIncome, s)

	_, ok = valueobject.ValueIndexStrategyForLabel("Maximum term")
	assert.False(t, ok)
}

func TestValueIndexStrategies_Ordered(t *testing.T) {
	all := valueobject.ValueIndexStrategies()
	require.Len(t, all, 3)
	assert.Equal(t, "debt_to_income", all[0].String())
	assert.Equal(t, "loan_to_value", all[1].String())
	assert.Equal(t, "year_of_collateral", all[2].String())
	assert.True(t, valueobject.ValueIndexStrategy{}.IsZero())
}

func TestValidationError(t *testing.T) {
	verr := valueobject.NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("loan_amount", "must be greater than zero")
	verr.Add("current_loan_balance", "must be greater than zero")
	verr.Add("loan_amount", "ignored second message")

	err := verr.OrNil()
	require.Error(t, err)
	assert.True(t, errors.Is(err, valueobject.ErrValidation))
	assert.Equal(t,
		"validation failed: current_loan_balance must be greater than zero; loan_amount must be greater than zero",
		err.Error())

	var target *valueobject.ValidationError
	require.True(t, errors.As(err, &target))
	assert.Len(t, target.Fields, 2)
}

func TestTypedErrorsUnwrap(t *testing.T) {
	assert.ErrorIs(t, &valueobject.MissingRateTableError{Category: "Loan to value"}, valueobject.ErrMissingRateTable)
	assert.ErrorIs(t, valueobject.NewConfigurationError("no %q category", "Maximum term"), valueobject.ErrConfiguration)
	assert.ErrorIs(t, &valueobject.DivisionError{Strategy: valueobject.ValueIndexLoanToValue, Field: "estimated_collateral_value"}, valueobject.ErrDivisionByZero)
}

func TestFieldError(t *testing.T) {
	div := &valueobject.DivisionError{Strategy: valueobject.ValueIndexDebtToIncome, Field: "estimated_monthly_income"}
	err := valueobject.FieldError(fmt.Errorf("compute rate: %w", div), "must be greater than zero")

	assert.ErrorIs(t, err, valueobject.ErrValidation)
	assert.ErrorIs(t, err, valueobject.ErrDivisionByZero)
	var verr *valueobject.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"estimated_monthly_income": "must be greater than zero"}, verr.Fields)

	other := valueobject.NewConfigurationError("no rows")
	assert.Same(t, other, valueobject.FieldError(other, "must be greater than zero"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "4.30%", valueobject.FormatPercent(0.043))
	assert.Equal(t, "0.00%", valueobject.FormatPercent(0))
	assert.Equal(t, "12.50%", valueobject.FormatPercent(0.125))
}

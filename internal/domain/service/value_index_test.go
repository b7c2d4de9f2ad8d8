package service_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/service"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/testutil"
)

func TestValueIndex(t *testing.T) {
	req := testutil.UsedVehicleRequest()

	tests := []struct {
		strategy valueobject.ValueIndexStrategy
		expected float64
	}{
		{valueobject.ValueIndexLoanToValue, 66.6666666667},
		{valueobject.ValueIndexDebtToIncome, 66.6666666667},
		{valueobject.ValueIndexCollateralYear, 2008},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			got, err := service.ValueIndex(tt.strategy, req)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-6)
		})
	}
}

func TestValueIndex_DivisionByZero(t *testing.T) {
	t.Run("loan to value", func(t *testing.T) {
		req := testutil.UsedVehicleRequest()
		req.EstimatedCollateralValue = decimal.Zero

		_, err := service.ValueIndex(valueobject.ValueIndexLoanToValue, req)
		require.ErrorIs(t, err, valueobject.ErrDivisionByZero)

		var derr *valueobject.DivisionError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "estimated_collateral_value", derr.Field)
	})

	t.Run("debt to income", func(t *testing.T) {
		req := testutil.UsedVehicleRequest()
		req.EstimatedMonthlyIncome = decimal.Zero

		_, err := service.ValueIndex(valueobject.ValueIndexDebtToIncome, req)
		require.ErrorIs(t, err, valueobject.ErrDivisionByZero)
	})

	t.Run("collateral year never divides", func(t *testing.T) {
		req := testutil.UsedVehicleRequest()
		req.EstimatedCollateralValue = decimal.Zero
		req.EstimatedMonthlyIncome = decimal.Zero

		_, err := service.ValueIndex(valueobject.ValueIndexCollateralYear, req)
		assert.NoError(t, err)
	})
}

func TestValueIndex_UnknownStrategy(t *testing.T) {
	_, err := service.ValueIndex(valueobject.ValueIndexStrategy{}, model.LoanCalculationRequest{})
	assert.ErrorIs(t, err, valueobject.ErrConfiguration)
}

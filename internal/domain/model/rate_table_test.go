package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/testutil"
)

func TestRateTable_Lookup(t *testing.T) {
	table := testutil.UsedVehicleTable()

	tests := []struct {
		name        string
		category    string
		creditScore int
		valueIndex  float64
		expected    float64
	}{
		{name: "exact thresholds", category: "Debt to income", creditScore: 750, valueIndex: 70, expected: 0.010},
		{name: "between thresholds rounds up", category: "Debt to income", creditScore: 750, valueIndex: 66.67, expected: 0.010},
		{name: "score between tiers uses next tier", category: "Loan to value", creditScore: 720, valueIndex: 66.67, expected: 0.025},
		{name: "score below lowest tier", category: "Loan to value", creditScore: 500, valueIndex: 40, expected: 0.030},
		{name: "value index above max clamps", category: "Loan to value", creditScore: 750, valueIndex: 200, expected: 0.060},
		{name: "credit score above max clamps", category: "Debt to income", creditScore: 900, valueIndex: 66.67, expected: 0.005},
		{name: "both above max clamp", category: "Year of collateral", creditScore: 999, valueIndex: 2030, expected: 0.002},
		{name: "collateral year", category: "Year of collateral", creditScore: 750, valueIndex: 2008, expected: 0.008},
		{name: "maximum term", category: model.MaximumTermCategory, creditScore: 750, valueIndex: 2008, expected: 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Lookup(tt.category, tt.creditScore, tt.valueIndex)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestRateTable_LookupClampEqualsMax(t *testing.T) {
	table := testutil.UsedVehicleTable()
	for _, c := range table.Categories() {
		above, err := table.Lookup(c.Name, 900, 5000)
		require.NoError(t, err)
		atMax, err := table.Lookup(c.Name, 800, maxIndex(table.Rows(c.Name)))
		require.NoError(t, err)
		assert.Equal(t, atMax, above, c.Name)
	}
}

func maxIndex(rows []model.RateTableRow) float64 {
	m := 0
	for _, r := range rows {
		m = max(m, r.ValueIndexThreshold)
	}
	return float64(m)
}

func TestRateTable_LookupMissingCategory(t *testing.T) {
	table := testutil.UsedVehicleTable()

	_, err := table.Lookup("Maximum rate", 750, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, valueobject.ErrMissingRateTable)

	var missing *valueobject.MissingRateTableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Maximum rate", missing.Category)
}

func TestRateTable_LookupCategoryWithoutRows(t *testing.T) {
	cats := []model.AdditionCategory{{ID: "c1", Name: "Loan to value", SumInRate: true, Strategy: valueobject.ValueIndexLoanToValue}}
	table, err := model.NewRateTable("co", "lt", cats, nil)
	require.NoError(t, err)

	_, err = table.Lookup("Loan to value", 700, 50)
	assert.ErrorIs(t, err, valueobject.ErrMissingRateTable)
	assert.True(t, table.IsEmpty())
}

func TestRateTable_CanonicalOrderIgnoresInsertionOrder(t *testing.T) {
	cats := []model.AdditionCategory{{ID: "c1", Name: "Loan to value", SumInRate: true}}
	rows := []model.RateTableRow{
		{CategoryID: "c1", CreditScoreThreshold: 800, ValueIndexThreshold: 100, AdditionValue: 0.01},
		{CategoryID: "c1", CreditScoreThreshold: 700, ValueIndexThreshold: 100, AdditionValue: 0.03},
		{CategoryID: "c1", CreditScoreThreshold: 700, ValueIndexThreshold: 50, AdditionValue: 0.02},
		{CategoryID: "c1", CreditScoreThreshold: 800, ValueIndexThreshold: 50, AdditionValue: 0.005},
	}
	table, err := model.NewRateTable("co", "lt", cats, rows)
	require.NoError(t, err)

	got, err := table.Lookup("Loan to value", 650, 40)
	require.NoError(t, err)
	assert.Equal(t, 0.02, got)

	ordered := table.Rows("Loan to value")
	require.Len(t, ordered, 4)
	assert.Equal(t, 700, ordered[0].CreditScoreThreshold)
	assert.Equal(t, 50, ordered[0].ValueIndexThreshold)
	assert.Equal(t, 800, ordered[3].CreditScoreThreshold)
	assert.Equal(t, 100, ordered[3].ValueIndexThreshold)
}

func TestRateTable_SparseTableIsConfigurationError(t *testing.T) {
	cats := []model.AdditionCategory{{ID: "c1", Name: "Loan to value", SumInRate: true}}
	rows := []model.RateTableRow{
		{CategoryID: "c1", CreditScoreThreshold: 800, ValueIndexThreshold: 50, AdditionValue: 0.01},
		{CategoryID: "c1", CreditScoreThreshold: 700, ValueIndexThreshold: 100, AdditionValue: 0.03},
	}
	table, err := model.NewRateTable("co", "lt", cats, rows)
	require.NoError(t, err)

	_, err = table.Lookup("Loan to value", 800, 100)
	assert.ErrorIs(t, err, valueobject.ErrConfiguration)
}

func TestNewRateTable_RejectsBadReferenceData(t *testing.T) {
	t.Run("duplicate category", func(t *testing.T) {
		cats := []model.AdditionCategory{{ID: "a", Name: "Loan to value"}, {ID: "b", Name: "Loan to value"}}
		_, err := model.NewRateTable("co", "lt", cats, nil)
		assert.ErrorIs(t, err, valueobject.ErrConfiguration)
	})

	t.Run("orphan row", func(t *testing.T) {
		rows := []model.RateTableRow{{CategoryID: "missing", CreditScoreThreshold: 700, ValueIndexThreshold: 50}}
		_, err := model.NewRateTable("co", "lt", nil, rows)
		assert.ErrorIs(t, err, valueobject.ErrConfiguration)
	})
}

func TestRateTable_SummedCategoriesByName(t *testing.T) {
	table := testutil.UsedVehicleTable()

	summed := table.SummedCategories()
	require.Len(t, summed, 3)
	assert.Equal(t, "Debt to income", summed[0].Name)
	assert.Equal(t, "Loan to value", summed[1].Name)
	assert.Equal(t, "Year of collateral", summed[2].Name)

	_, ok := table.Category(model.MaximumTermCategory)
	assert.True(t, ok)
	assert.Len(t, table.AllRows(), 12+15+15+15)
}

func TestRateTable_AccessorsReturnCopies(t *testing.T) {
	table := testutil.UsedVehicleTable()

	rows := table.Rows("Loan to value")
	rows[0].AdditionValue = 99

	got, err := table.Lookup("Loan to value", 700, 50)
	require.NoError(t, err)
	assert.Equal(t, 0.030, got)

	cats := table.Categories()
	cats[0].Name = "renamed"
	_, ok := table.Category("Debt to income")
	assert.True(t, ok)
}

func TestDefaultSumInRate(t *testing.T) {
	assert.False(t, model.DefaultSumInRate("Maximum term"))
	assert.False(t, model.DefaultSumInRate("Maximum rate"))
	assert.True(t, model.DefaultSumInRate("Loan to value"))

	c, err := model.NewAdditionCategory("co", "lt", "Maximum term", valueobject.ValueIndexStrategy{})
	require.NoError(t, err)
	assert.False(t, c.SumInRate)
	assert.Equal(t, valueobject.ValueIndexLoanToValue, c.Strategy)
	assert.Equal(t, 1, c.Version)
}

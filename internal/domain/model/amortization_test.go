package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

func TestNPer(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		pmt      float64
		pv       float64
		expected float64
	}{
		{name: "200 a month at 1%", rate: 0.01, pmt: -200, pv: 10000, expected: 69.6607168936},
		{name: "300 a month at 1%", rate: 0.01, pmt: -300, pv: 10000, expected: 40.7489071561},
		{name: "single period payoff", rate: 0.01, pmt: -10100, pv: 10000, expected: 1.0},
		{name: "zero rate", rate: 0, pmt: -200, pv: 10000, expected: 50},
		{name: "current loan of the used vehicle quote", rate: 0.15 / 12, pmt: -300, pv: 6000, expected: 23.158},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := model.NPer(tt.rate, tt.pmt, tt.pv)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, n, 1e-3)
		})
	}
}

func TestNPer_RegressionPrecision(t *testing.T) {
	n, err := model.NPer(0.01, -200, 10000)
	require.NoError(t, err)
	assert.InDelta(t, 69.6607168936, n, 1e-7)

	n, err = model.NPer(0.01, -300, 10000)
	require.NoError(t, err)
	assert.InDelta(t, 40.7489071561, n, 1e-7)
}

func TestNPer_Errors(t *testing.T) {
	t.Run("zero payment", func(t *testing.T) {
		_, err := model.NPer(0.01, 0, 10000)
		assert.ErrorIs(t, err, valueobject.ErrNoAmortization)
	})

	t.Run("rate of minus one", func(t *testing.T) {
		_, err := model.NPer(-1, -200, 10000)
		assert.ErrorIs(t, err, valueobject.ErrInvalidRate)
	})

	t.Run("payment below interest", func(t *testing.T) {
		_, err := model.NPer(0.01, -50, 10000)
		assert.ErrorIs(t, err, valueobject.ErrNoAmortization)
	})

	t.Run("payment equal to interest", func(t *testing.T) {
		_, err := model.NPer(0.01, -100, 10000)
		assert.ErrorIs(t, err, valueobject.ErrNoAmortization)
	})
}

func TestPMT(t *testing.T) {
	assert.InDelta(t, 1134.7151594754, model.PMT(0.02, 12, -12000, 0, model.PaymentAtEnd), 1e-7)
	assert.InDelta(t, -1000.0, model.PMT(0, 10, 0, 10000, model.PaymentAtStart), 1e-9)
	assert.InDelta(t, 296.5762, model.PMT(0.043/12, 36, -10000, 0, model.PaymentAtEnd), 1e-4)
}

func TestPMT_AnnuityDueIsDiscounted(t *testing.T) {
	end := model.PMT(0.01, 24, -5000, 0, model.PaymentAtEnd)
	start := model.PMT(0.01, 24, -5000, 0, model.PaymentAtStart)
	assert.InDelta(t, end/1.01, start, 1e-9)
}

func TestPMTNPerRoundTrip(t *testing.T) {
	tests := []struct {
		rate float64
		nper int
		pv   float64
	}{
		{0.01, 48, 10000},
		{0.043 / 12, 36, 10000},
		{0.15 / 12, 24, 6000},
		{0.0025, 360, 250000},
		{0.02, 1, 500},
	}

	for _, tt := range tests {
		pmt := model.PMT(tt.rate, tt.nper, tt.pv, 0, model.PaymentAtEnd)
		n, err := model.NPer(tt.rate, pmt, tt.pv)
		require.NoError(t, err)
		assert.InDelta(t, float64(tt.nper), n, 1e-6, "rate=%v nper=%d pv=%v", tt.rate, tt.nper, tt.pv)
	}
}

func TestGenerateAmortizationSchedule_30YearMortgage(t *testing.T) {
	// $100,000 at 5.00% for 360 months
	principal := decimal.NewFromInt(100_000)
	payment := decimal.NewFromFloat(model.PMT(0.05/12, 360, -100_000, 0, model.PaymentAtEnd)).Round(2)
	require.True(t, payment.Equal(decimal.RequireFromString("536.82")), "payment %s", payment)

	schedule := model.GenerateAmortizationSchedule(principal, 0.05, 360, payment)
	require.Len(t, schedule, 360)

	first := schedule[0]
	assert.Equal(t, 1, first.Period)
	assert.True(t, first.Interest.Equal(decimal.RequireFromString("416.67")), "first interest %s", first.Interest)
	assert.True(t, first.Total.Equal(payment))

	last := schedule[len(schedule)-1]
	assert.Equal(t, 360, last.Period)
	assert.True(t, last.RemainingBalance.IsZero(), "final remaining balance %s", last.RemainingBalance)

	totalPrincipal := decimal.Zero
	for _, entry := range schedule {
		totalPrincipal = totalPrincipal.Add(entry.Principal)
	}
	assert.True(t, totalPrincipal.Equal(principal), "total principal %s", totalPrincipal)
}

func TestGenerateAmortizationSchedule_ZeroRate(t *testing.T) {
	schedule := model.GenerateAmortizationSchedule(decimal.NewFromInt(1200), 0, 12, decimal.NewFromInt(100))
	require.Len(t, schedule, 12)
	for _, e := range schedule {
		assert.True(t, e.Interest.IsZero())
		assert.True(t, e.Principal.Equal(decimal.NewFromInt(100)))
	}
	assert.True(t, schedule[11].RemainingBalance.IsZero())
}

func TestGenerateAmortizationSchedule_InvalidInputs(t *testing.T) {
	assert.Nil(t, model.GenerateAmortizationSchedule(decimal.Zero, 0.05, 12, decimal.NewFromInt(10)))
	assert.Nil(t, model.GenerateAmortizationSchedule(decimal.NewFromInt(1000), 0.05, 0, decimal.NewFromInt(10)))
}

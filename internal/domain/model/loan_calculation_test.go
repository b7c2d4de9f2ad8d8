package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/testutil"
)

func intPtr(v int) *int { return &v }

func usedVehicleTerms() model.CalculatedTerms {
	return model.CalculatedTerms{
		Rate:           0.043,
		MaximumTerm:    36,
		MonthlyTerm:    36,
		MonthlyPayment: decimal.RequireFromString("296.58"),
		RemainingTerm:  intPtr(23),
	}
}

func TestNewLoanCalculation_DerivedMetrics(t *testing.T) {
	calc, err := model.NewLoanCalculation(testutil.UsedVehicleRequest(), usedVehicleTerms())
	require.NoError(t, err)

	assert.Empty(t, calc.ID())
	assert.Equal(t, 48, calc.RequestedTerm())
	assert.Equal(t, 36, calc.MonthlyTerm())

	remaining, ok := calc.CurrentLoanEstimatedRemainingTerm()
	require.True(t, ok)
	assert.Equal(t, 23, remaining)

	monthly := calc.EstimatedMonthlySavings()
	require.True(t, monthly.Valid)
	testutil.AssertDecimal(t, "3.42", monthly.Decimal)

	yearly := calc.EstimatedYearlySavings()
	require.True(t, yearly.Valid)
	testutil.AssertDecimal(t, "41.04", yearly.Decimal)

	testutil.AssertDecimal(t, "676.88", calc.LoanInterest())

	remainingInterest := calc.CurrentLoanRemainingInterest()
	require.True(t, remainingInterest.Valid)
	testutil.AssertDecimal(t, "900", remainingInterest.Decimal)

	savings := calc.InterestSavings()
	require.True(t, savings.Valid)
	testutil.AssertDecimal(t, "223.12", savings.Decimal)
}

func TestNewLoanCalculation_WithoutCurrentLoan(t *testing.T) {
	req := model.NewLoanCalculationRequest(testutil.UsedVehicleDefaults(), "co", "lt", decimal.NewFromInt(10000))
	terms := usedVehicleTerms()
	terms.RemainingTerm = nil

	calc, err := model.NewLoanCalculation(req, terms)
	require.NoError(t, err)

	_, ok := calc.CurrentLoanEstimatedRemainingTerm()
	assert.False(t, ok)
	assert.False(t, calc.EstimatedMonthlySavings().Valid)
	assert.False(t, calc.EstimatedYearlySavings().Valid)
	assert.False(t, calc.CurrentLoanRemainingInterest().Valid)
	assert.False(t, calc.InterestSavings().Valid)
}

func TestNewLoanCalculation_TermInvariant(t *testing.T) {
	terms := usedVehicleTerms()
	terms.MonthlyTerm = 48

	_, err := model.NewLoanCalculation(testutil.UsedVehicleRequest(), terms)
	assert.Error(t, err)

	terms.MonthlyTerm = 0
	_, err = model.NewLoanCalculation(testutil.UsedVehicleRequest(), terms)
	assert.Error(t, err)
}

func TestLoanCalculation_WithIdentityKeepsOriginal(t *testing.T) {
	calc, err := model.NewLoanCalculation(testutil.UsedVehicleRequest(), usedVehicleTerms())
	require.NoError(t, err)

	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	stored := calc.WithIdentity("calc-1", now)

	assert.Equal(t, "calc-1", stored.ID())
	assert.Equal(t, now, stored.CreatedAt())
	assert.Empty(t, calc.ID())
	assert.Empty(t, calc.DomainEvents())

	require.Len(t, stored.DomainEvents(), 1)
	created, ok := stored.DomainEvents()[0].(event.CalculationCreated)
	require.True(t, ok)
	assert.Equal(t, "calc-1", created.AggregateID())
	assert.Equal(t, 36, created.MonthlyTerm)
	assert.True(t, created.MonthlyPayment.Equal(decimal.RequireFromString("296.58")))
	assert.Empty(t, stored.ClearEvents().DomainEvents())
}

func TestLoanCalculation_AccessorsReturnCopies(t *testing.T) {
	terms := usedVehicleTerms()
	terms.Additions = []model.RateAddition{{Category: "Loan to value", Strategy: valueobject.ValueIndexLoanToValue, Value: 0.025}}
	calc, err := model.NewLoanCalculation(testutil.UsedVehicleRequest(), terms)
	require.NoError(t, err)

	terms.Additions[0].Value = 1
	*terms.RemainingTerm = 99

	assert.Equal(t, 0.025, calc.Additions()[0].Value)
	remaining, _ := calc.CurrentLoanEstimatedRemainingTerm()
	assert.Equal(t, 23, remaining)
}

func TestNewLoanCalculationRequest_Defaults(t *testing.T) {
	defaults := model.CalculationDefaults{
		CollateralValue: decimal.NewFromInt(1000),
		MonthlyIncome:   decimal.NewFromInt(5000),
		MonthlyExpenses: decimal.NewFromInt(2000),
		CollateralYear:  2026,
	}
	req := model.NewLoanCalculationRequest(defaults, "co", "lt", decimal.NewFromInt(8000))

	assert.Equal(t, model.DefaultCreditScore, req.EstimatedCreditScore)
	assert.Equal(t, model.DefaultMonthlyTerm, req.MonthlyTerm)
	assert.Equal(t, 2026, req.EstimatedCollateralYear)
	assert.True(t, req.EstimatedCollateralValue.Equal(decimal.NewFromInt(1000)))
	assert.False(t, req.HasCurrentLoan())

	req = model.NewLoanCalculationRequest(defaults, "co", "lt", decimal.NewFromInt(8000),
		model.WithCreditScore(640), model.WithMonthlyTerm(24), model.WithCollateralYear(2015))
	assert.Equal(t, 640, req.EstimatedCreditScore)
	assert.Equal(t, 24, req.MonthlyTerm)
	assert.Equal(t, 2015, req.EstimatedCollateralYear)
}

func TestCalculationDefaults_AsOf(t *testing.T) {
	jan := time.Date(2027, 1, 1, 0, 0, 1, 0, time.UTC)

	assert.Equal(t, 2027, model.CalculationDefaults{}.AsOf(jan).CollateralYear)
	assert.Equal(t, 2015, model.CalculationDefaults{CollateralYear: 2015}.AsOf(jan).CollateralYear)
}

func TestNewCompanyMessage(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	t.Run("valid message records event", func(t *testing.T) {
		msg, err := model.NewCompanyMessage("co", "calc-1", "borrower@example.com", "Please call me.", now)
		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID())
		require.Len(t, msg.DomainEvents(), 1)
		assert.Equal(t, "loancalc.company_message.submitted", msg.DomainEvents()[0].EventType())
		assert.Empty(t, msg.ClearEvents().DomainEvents())
	})

	t.Run("invalid sender", func(t *testing.T) {
		_, err := model.NewCompanyMessage("co", "", "Borrower <borrower@example.com>", "", now)
		testutil.RequireFieldError(t, err, "sender", "must be a valid email address")

		_, err = model.NewCompanyMessage("co", "", "not-an-email", "", now)
		testutil.RequireFieldError(t, err, "sender", "must be a valid email address")
	})

	t.Run("message too long", func(t *testing.T) {
		body := make([]rune, model.MaxCompanyMessageLength+1)
		for i := range body {
			body[i] = 'é'
		}
		_, err := model.NewCompanyMessage("co", "", "borrower@example.com", string(body), now)
		testutil.RequireFieldError(t, err, "message", "must be at most 1024 characters")

		_, err = model.NewCompanyMessage("co", "", "borrower@example.com", string(body[:model.MaxCompanyMessageLength]), now)
		assert.NoError(t, err)
	})
}

func TestNewLoanCompany_Slug(t *testing.T) {
	c, err := model.NewLoanCompany("  Acle Loans!  ", "quotes@acle.example", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Acle Loans!", c.Title)
	assert.Equal(t, "acle-loans", c.Slug)
	assert.Equal(t, model.DefaultDisclosure, c.Disclosure)

	assert.Equal(t, "credit-union-2", model.Slugify("Credit -- Union (2)"))

	_, err = model.NewLoanCompany("***", "", time.Now())
	assert.Error(t, err)
}

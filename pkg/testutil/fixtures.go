package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// Fixed IDs for deterministic testing.
const (
	AcleCompanyID     = "00000000-0000-0000-0000-000000000001"
	UsedVehicleTypeID = "00000000-0000-0000-0000-000000000010"

	DebtToIncomeCategoryID   = "00000000-0000-0000-0000-000000000101"
	LoanToValueCategoryID    = "00000000-0000-0000-0000-000000000102"
	CollateralYearCategoryID = "00000000-0000-0000-0000-000000000103"
	MaximumTermCategoryID    = "00000000-0000-0000-0000-000000000104"
)

// AcleCompany is the "acle-loans" company of the used vehicle fixture.
func AcleCompany() model.LoanCompany {
	return model.LoanCompany{
		ID:         AcleCompanyID,
		Title:      "Acle Loans",
		Slug:       "acle-loans",
		Email:      "quotes@acle-loans.example",
		Disclosure: model.DefaultDisclosure,
	}
}

// UsedVehicleType is the loan type of the used vehicle fixture.
func UsedVehicleType() model.LoanType {
	return model.LoanType{ID: UsedVehicleTypeID, Name: "Used vehicle"}
}

// grid is one category's additions: credit score threshold → one value per
// value index threshold.
type grid struct {
	category   model.AdditionCategory
	indices    []int
	byScore    map[int][]float64
	scoreOrder []int
}

func fixtureGrids() []grid {
	scores := []int{700, 750, 800}
	return []grid{
		{
			category:   fixtureCategory(DebtToIncomeCategoryID, "Debt to income", valueobject.ValueIndexDebtToIncome, true),
			indices:    []int{50, 70, 90, 110},
			scoreOrder: scores,
			byScore: map[int][]float64{
				700: {0.015, 0.020, 0.030, 0.040},
				750: {0.005, 0.010, 0.020, 0.030},
				800: {0.000, 0.005, 0.015, 0.025},
			},
		},
		{
			category:   fixtureCategory(LoanToValueCategoryID, "Loan to value", valueobject.ValueIndexLoanToValue, true),
			indices:    []int{50, 70, 90, 110, 130},
			scoreOrder: scores,
			byScore: map[int][]float64{
				700: {0.030, 0.035, 0.045, 0.055, 0.070},
				750: {0.020, 0.025, 0.035, 0.045, 0.060},
				800: {0.015, 0.020, 0.030, 0.040, 0.050},
			},
		},
		{
			category:   fixtureCategory(CollateralYearCategoryID, "Year of collateral", valueobject.ValueIndexCollateralYear, true),
			indices:    []int{2000, 2005, 2010, 2015, 2020},
			scoreOrder: scores,
			byScore: map[int][]float64{
				700: {0.020, 0.015, 0.012, 0.008, 0.005},
				750: {0.015, 0.010, 0.008, 0.005, 0.003},
				800: {0.012, 0.008, 0.006, 0.004, 0.002},
			},
		},
		{
			category:   fixtureCategory(MaximumTermCategoryID, model.MaximumTermCategory, valueobject.ValueIndexCollateralYear, false),
			indices:    []int{2000, 2005, 2010, 2015, 2020},
			scoreOrder: scores,
			byScore: map[int][]float64{
				700: {24, 24, 36, 48, 60},
				750: {24, 30, 36, 60, 72},
				800: {36, 36, 48, 60, 72},
			},
		},
	}
}

func fixtureCategory(id, name string, strategy valueobject.ValueIndexStrategy, sum bool) model.AdditionCategory {
	return model.AdditionCategory{
		ID:         id,
		CompanyID:  AcleCompanyID,
		LoanTypeID: UsedVehicleTypeID,
		Name:       name,
		Strategy:   strategy,
		SumInRate:  sum,
		Version:    1,
	}
}

// UsedVehicleCategories returns the categories of the used vehicle fixture.
func UsedVehicleCategories() []model.AdditionCategory {
	var out []model.AdditionCategory
	for _, g := range fixtureGrids() {
		out = append(out, g.category)
	}
	return out
}

// UsedVehicleRows returns the rows of one fixture category, keyed by its ID.
func UsedVehicleRows(categoryID string) []model.RateTableRow {
	var out []model.RateTableRow
	for _, g := range fixtureGrids() {
		if g.category.ID != categoryID {
			continue
		}
		for _, score := range g.scoreOrder {
			for i, index := range g.indices {
				out = append(out, model.RateTableRow{
					CategoryID:           categoryID,
					CreditScoreThreshold: score,
					ValueIndexThreshold:  index,
					AdditionValue:        g.byScore[score][i],
				})
			}
		}
	}
	return out
}

// UsedVehicleTable is the complete "acle-loans" used vehicle rate table.
func UsedVehicleTable() model.RateTable {
	var rows []model.RateTableRow
	for _, c := range UsedVehicleCategories() {
		rows = append(rows, UsedVehicleRows(c.ID)...)
	}
	table, err := model.NewRateTable(AcleCompanyID, UsedVehicleTypeID, UsedVehicleCategories(), rows)
	if err != nil {
		panic(err)
	}
	return table
}

// UsedVehicleDefaults are calculator defaults used alongside the fixture.
func UsedVehicleDefaults() model.CalculationDefaults {
	return model.CalculationDefaults{
		CreditScore:     850,
		CollateralValue: decimal.NewFromInt(1000),
		MonthlyIncome:   decimal.NewFromInt(5000),
		MonthlyExpenses: decimal.NewFromInt(2000),
		CollateralYear:  2026,
		MonthlyTerm:     60,
	}
}

// UsedVehicleRequest is the refinancing request quoted at 4.3% over 36 months
// with a 296.58 payment against the fixture table.
func UsedVehicleRequest() model.LoanCalculationRequest {
	return model.NewLoanCalculationRequest(
		UsedVehicleDefaults(),
		AcleCompanyID, UsedVehicleTypeID,
		decimal.NewFromInt(10000),
		model.WithCurrentLoan(
			decimal.NewNullDecimal(decimal.NewFromInt(6000)),
			decimal.NewNullDecimal(decimal.NewFromInt(300)),
			decimal.NewNullDecimal(decimal.RequireFromString("0.15")),
		),
		model.WithCreditScore(750),
		model.WithCollateral(decimal.NewFromInt(15000), 2008),
		model.WithMonthlyIncome(decimal.NewFromInt(6000)),
		model.WithMonthlyExpenses(decimal.NewFromInt(4000)),
		model.WithMonthlyTerm(48),
	)
}

package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// toModelRequest fills the nil estimates of req from defaults.
func toModelRequest(defaults model.CalculationDefaults, req dto.CalculateLoanRequest) model.LoanCalculationRequest {
	opts := []model.RequestOption{
		model.WithCurrentLoan(
			nullDecimal(req.CurrentLoanBalance),
			nullDecimal(req.CurrentLoanMonthlyPayment),
			nullDecimal(req.CurrentLoanRate),
		),
	}
	if req.EstimatedCreditScore != nil {
		opts = append(opts, model.WithCreditScore(*req.EstimatedCreditScore))
	}
	if req.EstimatedCollateralValue != nil {
		opts = append(opts, model.WithCollateralValue(*req.EstimatedCollateralValue))
	}
	if req.EstimatedCollateralYear != nil {
		opts = append(opts, model.WithCollateralYear(*req.EstimatedCollateralYear))
	}
	if req.EstimatedMonthlyIncome != nil {
		opts = append(opts, model.WithMonthlyIncome(*req.EstimatedMonthlyIncome))
	}
	if req.EstimatedMonthlyExpenses != nil {
		opts = append(opts, model.WithMonthlyExpenses(*req.EstimatedMonthlyExpenses))
	}
	if req.MonthlyTerm != nil {
		opts = append(opts, model.WithMonthlyTerm(*req.MonthlyTerm))
	}

	return model.NewLoanCalculationRequest(defaults, req.CompanyID, req.LoanTypeID, req.LoanAmount, opts...)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func toCalculationResponse(calc model.LoanCalculation) dto.CalculationResponse {
	req := calc.Request()

	additions := make([]dto.RateAdditionResponse, 0, len(calc.Additions()))
	for _, a := range calc.Additions() {
		additions = append(additions, dto.RateAdditionResponse{
			Category:   a.Category,
			Strategy:   a.Strategy.String(),
			ValueIndex: a.ValueIndex,
			Value:      a.Value,
		})
	}

	schedule := calc.Schedule()
	entries := make([]dto.AmortizationEntryResponse, 0, len(schedule))
	for _, e := range schedule {
		entries = append(entries, dto.AmortizationEntryResponse{
			Period:           e.Period,
			Principal:        e.Principal,
			Interest:         e.Interest,
			Total:            e.Total,
			RemainingBalance: e.RemainingBalance,
		})
	}

	var remaining *int
	if n, ok := calc.CurrentLoanEstimatedRemainingTerm(); ok {
		remaining = &n
	}

	return dto.CalculationResponse{
		ID:                                calc.ID(),
		CompanyID:                         calc.CompanyID(),
		LoanTypeID:                        calc.LoanTypeID(),
		LoanAmount:                        req.LoanAmount,
		RequestedTerm:                     calc.RequestedTerm(),
		CreditScore:                       req.EstimatedCreditScore,
		Rate:                              calc.Rate(),
		RatePercent:                       valueobject.FormatPercent(calc.Rate()),
		Additions:                         additions,
		MaximumTerm:                       calc.MaximumTerm(),
		MonthlyTerm:                       calc.MonthlyTerm(),
		MonthlyPayment:                    calc.MonthlyPayment(),
		LoanInterest:                      calc.LoanInterest(),
		CurrentLoanEstimatedRemainingTerm: remaining,
		CurrentLoanRemainingInterest:      calc.CurrentLoanRemainingInterest(),
		EstimatedMonthlySavings:           calc.EstimatedMonthlySavings(),
		EstimatedYearlySavings:            calc.EstimatedYearlySavings(),
		InterestSavings:                   calc.InterestSavings(),
		Schedule:                          entries,
		CreatedAt:                         calc.CreatedAt(),
	}
}

func toCompanyResponse(company model.LoanCompany, loanTypes []model.LoanType) dto.CompanyResponse {
	types := make([]dto.LoanTypeResponse, 0, len(loanTypes))
	for _, lt := range loanTypes {
		types = append(types, dto.LoanTypeResponse{ID: lt.ID, Name: lt.Name})
	}
	return dto.CompanyResponse{
		ID:         company.ID,
		Title:      company.Title,
		Slug:       company.Slug,
		Disclosure: company.Disclosure,
		LoanTypes:  types,
	}
}

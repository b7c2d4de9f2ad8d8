package usecase

import (
	"context"
	"fmt"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/port"
)

// GetCompanyUseCase looks a company up by slug together with the loan types
// it has rate tables for.
type GetCompanyUseCase struct {
	refRepo port.ReferenceDataRepository
}

// NewGetCompanyUseCase wires dependencies.
func NewGetCompanyUseCase(refRepo port.ReferenceDataRepository) *GetCompanyUseCase {
	return &GetCompanyUseCase{refRepo: refRepo}
}

// Execute fetches the company and its loan types.
func (uc *GetCompanyUseCase) Execute(ctx context.Context, req dto.GetCompanyRequest) (dto.CompanyResponse, error) {
	company, err := uc.refRepo.FindCompanyBySlug(ctx, req.Slug)
	if err != nil {
		return dto.CompanyResponse{}, fmt.Errorf("find company: %w", err)
	}
	loanTypes, err := uc.refRepo.ListLoanTypes(ctx, company.ID)
	if err != nil {
		return dto.CompanyResponse{}, fmt.Errorf("list loan types: %w", err)
	}
	return toCompanyResponse(company, loanTypes), nil
}

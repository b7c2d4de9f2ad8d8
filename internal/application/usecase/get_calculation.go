package usecase

import (
	"context"
	"fmt"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/port"
)

// GetCalculationUseCase retrieves a stored calculation by ID.
type GetCalculationUseCase struct {
	calcRepo port.CalculationRepository
}

// NewGetCalculationUseCase wires dependencies.
func NewGetCalculationUseCase(calcRepo port.CalculationRepository) *GetCalculationUseCase {
	return &GetCalculationUseCase{calcRepo: calcRepo}
}

// Execute fetches a calculation.
func (uc *GetCalculationUseCase) Execute(ctx context.Context, req dto.GetCalculationRequest) (dto.CalculationResponse, error) {
	calc, err := uc.calcRepo.FindByID(ctx, req.ID)
	if err != nil {
		return dto.CalculationResponse{}, fmt.Errorf("find calculation: %w", err)
	}
	return toCalculationResponse(calc), nil
}

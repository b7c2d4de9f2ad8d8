package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// SubmitCompanyMessageUseCase stores a borrower's message to a loan company.
// The repository records CompanyMessageSubmitted in its outbox in the same
// transaction, so a stored message is always delivered.
type SubmitCompanyMessageUseCase struct {
	refRepo  port.ReferenceDataRepository
	calcRepo port.CalculationRepository
	msgRepo  port.CompanyMessageRepository
	logger   *slog.Logger
}

// NewSubmitCompanyMessageUseCase wires dependencies.
func NewSubmitCompanyMessageUseCase(
	refRepo port.ReferenceDataRepository,
	calcRepo port.CalculationRepository,
	msgRepo port.CompanyMessageRepository,
	logger *slog.Logger,
) *SubmitCompanyMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitCompanyMessageUseCase{
		refRepo:  refRepo,
		calcRepo: calcRepo,
		msgRepo:  msgRepo,
		logger:   logger,
	}
}

// Execute validates and persists the message.
func (uc *SubmitCompanyMessageUseCase) Execute(ctx context.Context, req dto.SubmitCompanyMessageRequest) (dto.CompanyMessageResponse, error) {
	ctx, span := tracer.Start(ctx, "SubmitCompanyMessage")
	defer span.End()

	// 1. Validate the message itself before touching storage.
	msg, err := model.NewCompanyMessage(req.CompanyID, req.CalculationID, req.Sender, req.Message, time.Now().UTC())
	if err != nil {
		return dto.CompanyMessageResponse{}, fail(span, fmt.Errorf("create message: %w", err))
	}

	// 2. The company and the referenced calculation must exist.
	if _, err := uc.refRepo.FindCompanyByID(ctx, msg.CompanyID()); err != nil {
		return dto.CompanyMessageResponse{}, fail(span, fmt.Errorf("find company: %w", err))
	}
	if msg.CalculationID() != "" {
		calc, err := uc.calcRepo.FindByID(ctx, msg.CalculationID())
		if err != nil {
			return dto.CompanyMessageResponse{}, fail(span, fmt.Errorf("find calculation: %w", err))
		}
		if calc.CompanyID() != msg.CompanyID() {
			verr := valueobject.NewValidationError()
			verr.Add("calculation_id", "belongs to another company")
			return dto.CompanyMessageResponse{}, fail(span, verr)
		}
	}

	// 3. Persist together with CompanyMessageSubmitted.
	if err := uc.msgRepo.Save(ctx, msg); err != nil {
		return dto.CompanyMessageResponse{}, fail(span, fmt.Errorf("save message: %w", err))
	}

	uc.logger.InfoContext(ctx, "company message submitted",
		"message_id", msg.ID(),
		"company_id", msg.CompanyID(),
	)

	return dto.CompanyMessageResponse{
		ID:            msg.ID(),
		CompanyID:     msg.CompanyID(),
		CalculationID: msg.CalculationID(),
		CreatedAt:     msg.CreatedAt(),
	}, nil
}

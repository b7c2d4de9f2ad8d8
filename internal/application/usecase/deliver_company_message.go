package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// DeliverCompanyMessageUseCase forwards a submitted message to the loan
// company's contact address.
type DeliverCompanyMessageUseCase struct {
	refRepo port.ReferenceDataRepository
	sink    port.NotificationSink
	logger  *slog.Logger
}

// NewDeliverCompanyMessageUseCase wires dependencies.
func NewDeliverCompanyMessageUseCase(
	refRepo port.ReferenceDataRepository,
	sink port.NotificationSink,
	logger *slog.Logger,
) *DeliverCompanyMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliverCompanyMessageUseCase{refRepo: refRepo, sink: sink, logger: logger}
}

// Execute notifies the company named by msg.
func (uc *DeliverCompanyMessageUseCase) Execute(ctx context.Context, msg event.CompanyMessageSubmitted) error {
	ctx, span := tracer.Start(ctx, "DeliverCompanyMessage")
	defer span.End()

	company, err := uc.refRepo.FindCompanyByID(ctx, msg.CompanyID)
	if err != nil {
		return fail(span, fmt.Errorf("find company: %w", err))
	}
	if company.Email == "" {
		return fail(span, valueobject.NewConfigurationError("company %s has no contact email", company.Slug))
	}

	if err := uc.sink.Notify(ctx, company, msg); err != nil {
		return fail(span, fmt.Errorf("notify company: %w", err))
	}

	uc.logger.InfoContext(ctx, "company message delivered",
		"message_id", msg.AggregateID(),
		"company_id", company.ID,
	)
	return nil
}

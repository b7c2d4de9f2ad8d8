package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/application/usecase"
)

// Compile-time assertion that CalculatorHandler implements CalculatorServiceServer.
var _ CalculatorServiceServer = (*CalculatorHandler)(nil)

// CalculatorHandler implements the gRPC CalculatorServiceServer interface.
type CalculatorHandler struct {
	UnimplementedCalculatorServiceServer
	calculate      *usecase.CalculateLoanUseCase
	getCalculation *usecase.GetCalculationUseCase
	getCompany     *usecase.GetCompanyUseCase
	submitMessage  *usecase.SubmitCompanyMessageUseCase
	importTable    *usecase.ImportRateTableUseCase
	logger         *slog.Logger
}

// NewCalculatorHandler creates a new handler with all use-case dependencies.
func NewCalculatorHandler(
	calculate *usecase.CalculateLoanUseCase,
	getCalculation *usecase.GetCalculationUseCase,
	getCompany *usecase.GetCompanyUseCase,
	submitMessage *usecase.SubmitCompanyMessageUseCase,
	importTable *usecase.ImportRateTableUseCase,
	logger *slog.Logger,
) *CalculatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalculatorHandler{
		calculate:      calculate,
		getCalculation: getCalculation,
		getCompany:     getCompany,
		submitMessage:  submitMessage,
		importTable:    importTable,
		logger:         logger,
	}
}

// Calculate quotes a refinancing loan and stores the calculation.
func (h *CalculatorHandler) Calculate(ctx context.Context, req *dto.CalculateLoanRequest) (*dto.CalculationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.CompanyID == "" || req.LoanTypeID == "" {
		return nil, status.Error(codes.InvalidArgument, "company_id and loan_type_id are required")
	}

	resp, err := h.calculate.Execute(ctx, *req)
	if err != nil {
		return nil, toStatus(err, MethodCalculate, h.logger)
	}
	return &resp, nil
}

// GetCalculation returns a stored calculation with its schedule.
func (h *CalculatorHandler) GetCalculation(ctx context.Context, req *dto.GetCalculationRequest) (*dto.CalculationResponse, error) {
	if req == nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	resp, err := h.getCalculation.Execute(ctx, *req)
	if err != nil {
		return nil, toStatus(err, MethodGetCalculation, h.logger)
	}
	return &resp, nil
}

// GetCompany returns a company and the loan types it quotes.
func (h *CalculatorHandler) GetCompany(ctx context.Context, req *dto.GetCompanyRequest) (*dto.CompanyResponse, error) {
	if req == nil || req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	resp, err := h.getCompany.Execute(ctx, *req)
	if err != nil {
		return nil, toStatus(err, MethodGetCompany, h.logger)
	}
	return &resp, nil
}

// SubmitMessage stores a borrower's message for a company.
func (h *CalculatorHandler) SubmitMessage(ctx context.Context, req *dto.SubmitCompanyMessageRequest) (*dto.CompanyMessageResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	resp, err := h.submitMessage.Execute(ctx, *req)
	if err != nil {
		return nil, toStatus(err, MethodSubmitMessage, h.logger)
	}
	return &resp, nil
}

// ImportRateTable replaces rate table categories. The server restricts it to
// the admin role.
func (h *CalculatorHandler) ImportRateTable(ctx context.Context, req *dto.ImportRateTableRequest) (*dto.ImportRateTableResponse, error) {
	if req == nil || len(req.Sections) == 0 {
		return nil, status.Error(codes.InvalidArgument, "at least one section is required")
	}

	resp, err := h.importTable.Execute(ctx, *req)
	if err != nil {
		return nil, toStatus(err, MethodImportRateTable, h.logger)
	}
	return &resp, nil
}

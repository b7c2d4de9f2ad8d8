package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// ImportRateTableUseCase replaces the rows of rate table categories,
// creating companies, loan types and categories on first sight.
type ImportRateTableUseCase struct {
	refRepo     port.ReferenceDataRepository
	tableRepo   port.RateTableRepository
	invalidator port.RateTableInvalidator
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewImportRateTableUseCase wires dependencies. invalidator may be nil when
// snapshots are not cached.
func NewImportRateTableUseCase(
	refRepo port.ReferenceDataRepository,
	tableRepo port.RateTableRepository,
	invalidator port.RateTableInvalidator,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ImportRateTableUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportRateTableUseCase{
		refRepo:     refRepo,
		tableRepo:   tableRepo,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      logger,
	}
}

// Execute imports every section in order. A later section for the same
// category replaces an earlier one.
func (uc *ImportRateTableUseCase) Execute(ctx context.Context, req dto.ImportRateTableRequest) (dto.ImportRateTableResponse, error) {
	ctx, span := tracer.Start(ctx, "ImportRateTable", trace.WithAttributes(
		attribute.String("source", req.Source),
		attribute.Int("sections", len(req.Sections)),
	))
	defer span.End()

	resp := dto.ImportRateTableResponse{Categories: make([]dto.ImportedCategoryResponse, 0, len(req.Sections))}
	for i, section := range req.Sections {
		imported, err := uc.importSection(ctx, section)
		if err != nil {
			return dto.ImportRateTableResponse{}, fail(span, fmt.Errorf("import section %d (%s): %w", i+1, section.Category, err))
		}
		resp.Categories = append(resp.Categories, imported)
	}

	uc.logger.InfoContext(ctx, "rate table imported",
		"source", req.Source,
		"categories", len(resp.Categories),
	)
	return resp, nil
}

func (uc *ImportRateTableUseCase) importSection(ctx context.Context, section dto.RateTableSection) (dto.ImportedCategoryResponse, error) {
	strategy, err := sectionStrategy(section)
	if err != nil {
		return dto.ImportedCategoryResponse{}, err
	}

	// 1. Resolve reference data.
	company, err := uc.refRepo.GetOrCreateCompany(ctx, section.CompanyTitle)
	if err != nil {
		return dto.ImportedCategoryResponse{}, fmt.Errorf("get or create company: %w", err)
	}
	if section.CompanyEmail != "" && section.CompanyEmail != company.Email {
		company, err = uc.refRepo.UpdateCompanyEmail(ctx, company.ID, section.CompanyEmail)
		if err != nil {
			return dto.ImportedCategoryResponse{}, fmt.Errorf("update company email: %w", err)
		}
	}
	loanType, err := uc.refRepo.GetOrCreateLoanType(ctx, section.LoanTypeName)
	if err != nil {
		return dto.ImportedCategoryResponse{}, fmt.Errorf("get or create loan type: %w", err)
	}
	category, err := uc.refRepo.GetOrCreateCategory(ctx, company.ID, loanType.ID, section.Category, strategy)
	if err != nil {
		return dto.ImportedCategoryResponse{}, fmt.Errorf("get or create category: %w", err)
	}

	// 2. Replace the rows.
	rows := make([]model.RateTableRow, 0, len(section.Cells))
	for _, c := range section.Cells {
		rows = append(rows, model.RateTableRow{
			CategoryID:           category.ID,
			CreditScoreThreshold: c.CreditScore,
			ValueIndexThreshold:  c.ValueIndex,
			AdditionValue:        c.Value,
		})
	}
	category, err = uc.tableRepo.ReplaceRows(ctx, category, rows)
	if err != nil {
		return dto.ImportedCategoryResponse{}, fmt.Errorf("replace rows: %w", err)
	}

	// 3. Drop cached snapshots.
	if uc.invalidator != nil {
		if err := uc.invalidator.Invalidate(ctx, company.ID, loanType.ID); err != nil {
			return dto.ImportedCategoryResponse{}, fmt.Errorf("invalidate cache: %w", err)
		}
	}

	// 4. Publish.
	imported := event.NewRateTableImported(
		category.ID, company.ID, loanType.ID, category.Name, category.Version, len(rows), time.Now().UTC(),
	)
	if err := uc.publisher.Publish(ctx, imported); err != nil {
		return dto.ImportedCategoryResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return dto.ImportedCategoryResponse{
		CompanyID:  company.ID,
		LoanTypeID: loanType.ID,
		Category:   category.Name,
		Version:    category.Version,
		RowCount:   len(rows),
	}, nil
}

// sectionStrategy takes the explicit strategy of a section, falling back to
// the strategy whose label matches the category name. Zero means the
// category default.
func sectionStrategy(section dto.RateTableSection) (valueobject.ValueIndexStrategy, error) {
	if section.Strategy != "" {
		s, err := valueobject.NewValueIndexStrategy(section.Strategy)
		if err != nil {
			verr := valueobject.NewValidationError()
			verr.Add("strategy", err.Error())
			return valueobject.ValueIndexStrategy{}, verr
		}
		return s, nil
	}
	s, _ := valueobject.ValueIndexStrategyForLabel(section.Category)
	return s, nil
}

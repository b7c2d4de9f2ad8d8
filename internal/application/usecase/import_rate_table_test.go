package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/testutil"
)

func termSection() dto.RateTableSection {
	return dto.RateTableSection{
		CompanyTitle: "Acle Loans",
		LoanTypeName: "Used vehicle",
		Category:     model.MaximumTermCategory,
		Strategy:     "year_of_collateral",
		Cells: []dto.RateCell{
			{CreditScore: 700, ValueIndex: 2000, Value: 24},
			{CreditScore: 700, ValueIndex: 2020, Value: 60},
		},
	}
}

func TestImportRateTable_Execute(t *testing.T) {
	t.Run("replaces rows, invalidates cache and publishes per section", func(t *testing.T) {
		refs := &mockReferenceDataRepository{}
		tables := &mockRateTableRepository{}
		inv := &mockInvalidator{}
		pub := &mockEventPublisher{}
		uc := usecase.NewImportRateTableUseCase(refs, tables, inv, pub, nil)

		ltv := dto.RateTableSection{
			CompanyTitle: "Acle Loans",
			LoanTypeName: "Used vehicle",
			Category:     "Loan to value",
			Cells:        []dto.RateCell{{CreditScore: 700, ValueIndex: 50, Value: 0.03}},
		}

		resp, err := uc.Execute(context.Background(), dto.ImportRateTableRequest{
			Source:   "acle.csv",
			Sections: []dto.RateTableSection{termSection(), ltv},
		})
		require.NoError(t, err)

		require.Len(t, resp.Categories, 2)
		assert.Equal(t, model.MaximumTermCategory, resp.Categories[0].Category)
		assert.Equal(t, 2, resp.Categories[0].RowCount)
		assert.Equal(t, 2, resp.Categories[0].Version)

		require.Len(t, refs.categories, 2)
		assert.Equal(t, valueobject.ValueIndexCollateralYear, refs.categories[0].Strategy)
		assert.False(t, refs.categories[0].SumInRate)
		assert.Equal(t, valueobject.ValueIndexLoanToValue, refs.categories[1].Strategy)
		assert.True(t, refs.categories[1].SumInRate)

		rows := tables.replaced[model.MaximumTermCategory]
		require.Len(t, rows, 2)
		assert.Equal(t, refs.categories[0].ID, rows[0].CategoryID)
		assert.Equal(t, 2020, rows[1].ValueIndexThreshold)

		assert.Len(t, inv.calls, 2)
		require.Len(t, pub.publishedEvents, 2)
		imported, ok := pub.publishedEvents[0].(event.RateTableImported)
		require.True(t, ok)
		assert.Equal(t, testutil.AcleCompanyID, imported.CompanyID)
		assert.Equal(t, 2, imported.RowCount)
	})

	t.Run("strategy is inferred from the category label", func(t *testing.T) {
		refs := &mockReferenceDataRepository{}
		uc := usecase.NewImportRateTableUseCase(refs, &mockRateTableRepository{}, nil, &mockEventPublisher{}, nil)

		section := termSection()
		section.Category = "Debt to income"
		section.Strategy = ""

		_, err := uc.Execute(context.Background(), dto.ImportRateTableRequest{Sections: []dto.RateTableSection{section}})
		require.NoError(t, err)
		require.Len(t, refs.categories, 1)
		assert.Equal(t, valueobject.ValueIndexDebtToIncome, refs.categories[0].Strategy)
	})

	t.Run("updates the company email only when it changes", func(t *testing.T) {
		refs := &mockReferenceDataRepository{}
		uc := usecase.NewImportRateTableUseCase(refs, &mockRateTableRepository{}, nil, &mockEventPublisher{}, nil)

		same := termSection()
		same.CompanyEmail = testutil.AcleCompany().Email
		changed := termSection()
		changed.CompanyEmail = "rates@acle-loans.example"

		_, err := uc.Execute(context.Background(), dto.ImportRateTableRequest{Sections: []dto.RateTableSection{same, changed}})
		require.NoError(t, err)
		assert.Equal(t, []string{"rates@acle-loans.example"}, refs.emails)
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		tables := &mockRateTableRepository{}
		uc := usecase.NewImportRateTableUseCase(&mockReferenceDataRepository{}, tables, nil, &mockEventPublisher{}, nil)

		section := termSection()
		section.Strategy = "credit_history"

		_, err := uc.Execute(context.Background(), dto.ImportRateTableRequest{Sections: []dto.RateTableSection{section}})
		require.Error(t, err)
		assert.ErrorIs(t, err, valueobject.ErrValidation)
		assert.Empty(t, tables.replaced)
	})

	t.Run("stops at the first failing section", func(t *testing.T) {
		tables := &mockRateTableRepository{
			replaceRowsFunc: func(_ context.Context, _ model.AdditionCategory, _ []model.RateTableRow) (model.AdditionCategory, error) {
				return model.AdditionCategory{}, errors.New("deadlock detected")
			},
		}
		pub := &mockEventPublisher{}
		uc := usecase.NewImportRateTableUseCase(&mockReferenceDataRepository{}, tables, nil, pub, nil)

		_, err := uc.Execute(context.Background(), dto.ImportRateTableRequest{
			Sections: []dto.RateTableSection{termSection(), termSection()},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import section 1")
		assert.Contains(t, err.Error(), "replace rows")
		assert.Empty(t, pub.publishedEvents)
	})
}

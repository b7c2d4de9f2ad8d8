package usecase_test

import (
	"context"
	"fmt"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/testutil"
)

// --- Mock implementations ---

type mockRateTableRepository struct {
	snapshotFunc    func(ctx context.Context, companyID, loanTypeID string) (model.RateTable, error)
	replaceRowsFunc func(ctx context.Context, category model.AdditionCategory, rows []model.RateTableRow) (model.AdditionCategory, error)
	replaced        map[string][]model.RateTableRow
}

func (m *mockRateTableRepository) Snapshot(ctx context.Context, companyID, loanTypeID string) (model.RateTable, error) {
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx, companyID, loanTypeID)
	}
	return testutil.UsedVehicleTable(), nil
}

func (m *mockRateTableRepository) ReplaceRows(ctx context.Context, category model.AdditionCategory, rows []model.RateTableRow) (model.AdditionCategory, error) {
	if m.replaceRowsFunc != nil {
		return m.replaceRowsFunc(ctx, category, rows)
	}
	if m.replaced == nil {
		m.replaced = make(map[string][]model.RateTableRow)
	}
	m.replaced[category.Name] = rows
	category.Version++
	return category, nil
}

type mockInvalidator struct {
	invalidateFunc func(ctx context.Context, companyID, loanTypeID string) error
	calls          []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, companyID, loanTypeID string) error {
	if m.invalidateFunc != nil {
		return m.invalidateFunc(ctx, companyID, loanTypeID)
	}
	m.calls = append(m.calls, companyID+"/"+loanTypeID)
	return nil
}

type mockReferenceDataRepository struct {
	getOrCreateCompanyFunc  func(ctx context.Context, title string) (model.LoanCompany, error)
	getOrCreateCategoryFunc func(ctx context.Context, companyID, loanTypeID, name string, strategy valueobject.ValueIndexStrategy) (model.AdditionCategory, error)
	findCompanyByIDFunc     func(ctx context.Context, id string) (model.LoanCompany, error)
	findCompanyBySlugFunc   func(ctx context.Context, slug string) (model.LoanCompany, error)
	listLoanTypesFunc       func(ctx context.Context, companyID string) ([]model.LoanType, error)
	categories              []model.AdditionCategory
	emails                  []string
}

func (m *mockReferenceDataRepository) GetOrCreateCompany(ctx context.Context, title string) (model.LoanCompany, error) {
	if m.getOrCreateCompanyFunc != nil {
		return m.getOrCreateCompanyFunc(ctx, title)
	}
	return testutil.AcleCompany(), nil
}

func (m *mockReferenceDataRepository) UpdateCompanyEmail(_ context.Context, companyID, email string) (model.LoanCompany, error) {
	m.emails = append(m.emails, email)
	c := testutil.AcleCompany()
	c.ID = companyID
	c.Email = email
	return c, nil
}

func (m *mockReferenceDataRepository) GetOrCreateLoanType(_ context.Context, name string) (model.LoanType, error) {
	if name == testutil.UsedVehicleType().Name {
		return testutil.UsedVehicleType(), nil
	}
	return model.NewLoanType(name)
}

func (m *mockReferenceDataRepository) GetOrCreateCategory(ctx context.Context, companyID, loanTypeID, name string, strategy valueobject.ValueIndexStrategy) (model.AdditionCategory, error) {
	if m.getOrCreateCategoryFunc != nil {
		return m.getOrCreateCategoryFunc(ctx, companyID, loanTypeID, name, strategy)
	}
	cat, err := model.NewAdditionCategory(companyID, loanTypeID, name, strategy)
	if err != nil {
		return model.AdditionCategory{}, err
	}
	m.categories = append(m.categories, cat)
	return cat, nil
}

func (m *mockReferenceDataRepository) FindCompanyByID(ctx context.Context, id string) (model.LoanCompany, error) {
	if m.findCompanyByIDFunc != nil {
		return m.findCompanyByIDFunc(ctx, id)
	}
	if id == testutil.AcleCompanyID {
		return testutil.AcleCompany(), nil
	}
	return model.LoanCompany{}, fmt.Errorf("company %s: %w", id, valueobject.ErrNotFound)
}

func (m *mockReferenceDataRepository) FindCompanyBySlug(ctx context.Context, slug string) (model.LoanCompany, error) {
	if m.findCompanyBySlugFunc != nil {
		return m.findCompanyBySlugFunc(ctx, slug)
	}
	if slug == testutil.AcleCompany().Slug {
		return testutil.AcleCompany(), nil
	}
	return model.LoanCompany{}, fmt.Errorf("company %s: %w", slug, valueobject.ErrNotFound)
}

func (m *mockReferenceDataRepository) ListLoanTypes(ctx context.Context, companyID string) ([]model.LoanType, error) {
	if m.listLoanTypesFunc != nil {
		return m.listLoanTypesFunc(ctx, companyID)
	}
	return []model.LoanType{testutil.UsedVehicleType()}, nil
}

type mockCalculationRepository struct {
	saveFunc     func(ctx context.Context, calc model.LoanCalculation) error
	findByIDFunc func(ctx context.Context, id string) (model.LoanCalculation, error)
	saved        []model.LoanCalculation
}

func (m *mockCalculationRepository) Save(ctx context.Context, calc model.LoanCalculation) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, calc)
	}
	m.saved = append(m.saved, calc)
	return nil
}

func (m *mockCalculationRepository) FindByID(ctx context.Context, id string) (model.LoanCalculation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	for _, c := range m.saved {
		if c.ID() == id {
			return c, nil
		}
	}
	return model.LoanCalculation{}, fmt.Errorf("calculation %s: %w", id, valueobject.ErrNotFound)
}

type mockCompanyMessageRepository struct {
	saveFunc func(ctx context.Context, msg model.CompanyMessage) error
	saved    []model.CompanyMessage
}

func (m *mockCompanyMessageRepository) Save(ctx context.Context, msg model.CompanyMessage) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, msg)
	}
	m.saved = append(m.saved, msg)
	return nil
}

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type mockNotificationSink struct {
	notifyFunc func(ctx context.Context, company model.LoanCompany, msg event.CompanyMessageSubmitted) error
	delivered  []event.CompanyMessageSubmitted
}

func (m *mockNotificationSink) Notify(ctx context.Context, company model.LoanCompany, msg event.CompanyMessageSubmitted) error {
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, company, msg)
	}
	m.delivered = append(m.delivered, msg)
	return nil
}

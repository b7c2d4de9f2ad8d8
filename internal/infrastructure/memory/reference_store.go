package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// ReferenceStore keeps companies, loan types and rate tables in memory. It
// implements port.ReferenceDataRepository and port.RateTableRepository.
type ReferenceStore struct {
	mu         sync.RWMutex
	companies  map[string]model.LoanCompany
	loanTypes  map[string]model.LoanType
	categories map[string]model.AdditionCategory
	rows       map[string][]model.RateTableRow
	now        func() time.Time
}

// NewReferenceStore returns an empty store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		companies:  make(map[string]model.LoanCompany),
		loanTypes:  make(map[string]model.LoanType),
		categories: make(map[string]model.AdditionCategory),
		rows:       make(map[string][]model.RateTableRow),
		now:        time.Now,
	}
}

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

func (s *ReferenceStore) GetOrCreateCompany(_ context.Context, title string) (model.LoanCompany, error) {
	title = strings.TrimSpace(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.companies {
		if c.Title == title {
			return c, nil
		}
	}

	company, err := model.NewLoanCompany(title, "", s.now())
	if err != nil {
		return model.LoanCompany{}, fmt.Errorf("create company: %w", err)
	}
	company.Slug = s.uniqueSlugLocked(company.Slug)
	s.companies[company.ID] = company
	return company, nil
}

// uniqueSlugLocked suffixes slug with a counter until no company uses it.
func (s *ReferenceStore) uniqueSlugLocked(slug string) string {
	taken := func(candidate string) bool {
		for _, c := range s.companies {
			if c.Slug == candidate {
				return true
			}
		}
		return false
	}
	candidate := slug
	for n := 2; taken(candidate); n++ {
		candidate = slug + "-" + strconv.Itoa(n)
	}
	return candidate
}

func (s *ReferenceStore) UpdateCompanyEmail(_ context.Context, companyID, email string) (model.LoanCompany, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := s.companies[companyID]
	if !ok {
		return model.LoanCompany{}, fmt.Errorf("company %s: %w", companyID, valueobject.ErrNotFound)
	}
	company.Email = strings.TrimSpace(email)
	s.companies[companyID] = company
	return company, nil
}

func (s *ReferenceStore) GetOrCreateLoanType(_ context.Context, name string) (model.LoanType, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lt := range s.loanTypes {
		if lt.Name == name {
			return lt, nil
		}
	}

	lt, err := model.NewLoanType(name)
	if err != nil {
		return model.LoanType{}, fmt.Errorf("create loan type: %w", err)
	}
	s.loanTypes[lt.ID] = lt
	return lt, nil
}

func (s *ReferenceStore) GetOrCreateCategory(
	_ context.Context, companyID, loanTypeID, name string, strategy valueobject.ValueIndexStrategy,
) (model.AdditionCategory, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.CompanyID == companyID && c.LoanTypeID == loanTypeID && c.Name == name {
			return c, nil
		}
	}

	category, err := model.NewAdditionCategory(companyID, loanTypeID, name, strategy)
	if err != nil {
		return model.AdditionCategory{}, fmt.Errorf("create category: %w", err)
	}
	s.categories[category.ID] = category
	return category, nil
}

func (s *ReferenceStore) FindCompanyByID(_ context.Context, id string) (model.LoanCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[id]
	if !ok {
		return model.LoanCompany{}, fmt.Errorf("company %s: %w", id, valueobject.ErrNotFound)
	}
	return company, nil
}

func (s *ReferenceStore) FindCompanyBySlug(_ context.Context, slug string) (model.LoanCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.companies {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.LoanCompany{}, fmt.Errorf("company %s: %w", slug, valueobject.ErrNotFound)
}

func (s *ReferenceStore) ListLoanTypes(_ context.Context, companyID string) ([]model.LoanType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []model.LoanType
	for _, c := range s.categories {
		if c.CompanyID != companyID || seen[c.LoanTypeID] || len(s.rows[c.ID]) == 0 {
			continue
		}
		seen[c.LoanTypeID] = true
		out = append(out, s.loanTypes[c.LoanTypeID])
	}
	slices.SortFunc(out, func(a, b model.LoanType) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Rate tables
// ---------------------------------------------------------------------------

// Snapshot copies the categories and rows of a scope under the read lock.
func (s *ReferenceStore) Snapshot(_ context.Context, companyID, loanTypeID string) (model.RateTable, error) {
	s.mu.RLock()
	var categories []model.AdditionCategory
	var rows []model.RateTableRow
	for _, c := range s.categories {
		if c.CompanyID != companyID || c.LoanTypeID != loanTypeID {
			continue
		}
		categories = append(categories, c)
		rows = append(rows, s.rows[c.ID]...)
	}
	s.mu.RUnlock()

	table, err := model.NewRateTable(companyID, loanTypeID, categories, rows)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("build rate table: %w", err)
	}
	return table, nil
}

// ReplaceRows swaps the rows of category and bumps its version. The stored
// version must match category.Version.
func (s *ReferenceStore) ReplaceRows(_ context.Context, category model.AdditionCategory, rows []model.RateTableRow) (model.AdditionCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.categories[category.ID]
	if !ok {
		return model.AdditionCategory{}, fmt.Errorf("category %s: %w", category.ID, valueobject.ErrNotFound)
	}
	if stored.Version != category.Version {
		return model.AdditionCategory{}, fmt.Errorf("category %s: %w: version %d, stored %d",
			category.Name, valueobject.ErrVersionConflict, category.Version, stored.Version)
	}

	copied := make([]model.RateTableRow, len(rows))
	for i, r := range rows {
		r.CategoryID = stored.ID
		copied[i] = r
	}
	s.rows[stored.ID] = copied
	stored.Version++
	s.categories[stored.ID] = stored
	return stored, nil
}

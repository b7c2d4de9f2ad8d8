package model

import (
	"math"
	"sort"

	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// RateTableRow maps a (credit score, value index) threshold pair to an
// addition for one category.
type RateTableRow struct {
	CategoryID           string
	CreditScoreThreshold int
	ValueIndexThreshold  int
	AdditionValue        float64
}

// ---------------------------------------------------------------------------
// RateTable – immutable snapshot
// ---------------------------------------------------------------------------

// RateTable is a consistent, immutable snapshot of every addition category and
// row a company publishes for one loan type. It is safe for concurrent use.
type RateTable struct {
	companyID  string
	loanTypeID string
	categories []AdditionCategory
	byName     map[string]int
	rows       map[string][]RateTableRow
}

// NewRateTable builds a snapshot. Categories are ordered by name and each
// category's rows by credit score then value index threshold, ascending. A row
// referring to an unknown category, or two categories sharing a name, is a
// configuration error.
func NewRateTable(companyID, loanTypeID string, categories []AdditionCategory, rows []RateTableRow) (RateTable, error) {
	cats := make([]AdditionCategory, len(categories))
	copy(cats, categories)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })

	byName := make(map[string]int, len(cats))
	nameByID := make(map[string]string, len(cats))
	for i, c := range cats {
		if _, dup := byName[c.Name]; dup {
			return RateTable{}, valueobject.NewConfigurationError("duplicate category %q", c.Name)
		}
		byName[c.Name] = i
		nameByID[c.ID] = c.Name
	}

	grouped := make(map[string][]RateTableRow, len(cats))
	for _, r := range rows {
		name, ok := nameByID[r.CategoryID]
		if !ok {
			return RateTable{}, valueobject.NewConfigurationError("rate row references unknown category %q", r.CategoryID)
		}
		grouped[name] = append(grouped[name], r)
	}
	for _, rs := range grouped {
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].CreditScoreThreshold != rs[j].CreditScoreThreshold {
				return rs[i].CreditScoreThreshold < rs[j].CreditScoreThreshold
			}
			return rs[i].ValueIndexThreshold < rs[j].ValueIndexThreshold
		})
	}

	return RateTable{
		companyID:  companyID,
		loanTypeID: loanTypeID,
		categories: cats,
		byName:     byName,
		rows:       grouped,
	}, nil
}

// Lookup returns the addition of category for a borrower's credit score and
// value index. The query is clamped down to the largest thresholds present,
// then the first row in canonical order whose thresholds are both at or above
// the query wins. A category without rows is a MissingRateTableError.
func (t RateTable) Lookup(category string, creditScore int, valueIndex float64) (float64, error) {
	rows := t.rows[category]
	if len(rows) == 0 {
		return 0, &valueobject.MissingRateTableError{Category: category}
	}

	maxScore, maxIndex := rows[0].CreditScoreThreshold, rows[0].ValueIndexThreshold
	for _, r := range rows[1:] {
		maxScore = max(maxScore, r.CreditScoreThreshold)
		maxIndex = max(maxIndex, r.ValueIndexThreshold)
	}

	score := min(creditScore, maxScore)
	index := math.Min(valueIndex, float64(maxIndex))

	for _, r := range rows {
		if r.CreditScoreThreshold >= score && float64(r.ValueIndexThreshold) >= index {
			return r.AdditionValue, nil
		}
	}

	// Only reachable when no single row carries both maxima.
	return 0, valueobject.NewConfigurationError(
		"category %q has no row covering credit score %d and value index %.2f", category, creditScore, valueIndex)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (t RateTable) CompanyID() string  { return t.companyID }
func (t RateTable) LoanTypeID() string { return t.loanTypeID }

// Categories returns a copy of the categories ordered by name.
func (t RateTable) Categories() []AdditionCategory {
	out := make([]AdditionCategory, len(t.categories))
	copy(out, t.categories)
	return out
}

// SummedCategories returns the categories contributing to the annual rate,
// ordered by name.
func (t RateTable) SummedCategories() []AdditionCategory {
	var out []AdditionCategory
	for _, c := range t.categories {
		if c.SumInRate {
			out = append(out, c)
		}
	}
	return out
}

// Category returns the category called name.
func (t RateTable) Category(name string) (AdditionCategory, bool) {
	i, ok := t.byName[name]
	if !ok {
		return AdditionCategory{}, false
	}
	return t.categories[i], true
}

// Rows returns a copy of the rows of category in canonical order.
func (t RateTable) Rows(category string) []RateTableRow {
	rs := t.rows[category]
	out := make([]RateTableRow, len(rs))
	copy(out, rs)
	return out
}

// AllRows returns a copy of every row, grouped by category name order.
func (t RateTable) AllRows() []RateTableRow {
	var out []RateTableRow
	for _, c := range t.categories {
		out = append(out, t.rows[c.Name]...)
	}
	return out
}

// IsEmpty reports whether the snapshot has no rows at all.
func (t RateTable) IsEmpty() bool {
	for _, rs := range t.rows {
		if len(rs) > 0 {
			return false
		}
	}
	return true
}

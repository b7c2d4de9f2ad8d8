// Package csvimport reads and writes rate tables in the bulk CSV format.
//
// A file is a sequence of sections. A row of Type "value_index" selects the
// company, loan type and category, declares up to ten value index thresholds
// in vi1..vi10, and replaces every row of that category. Each following row of
// Type "values" carries one credit score threshold and the addition for each
// declared value index.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/domain/model"
)

// Row types.
const (
	TypeValueIndex = "value_index"
	TypeValues     = "values"
)

// Column names.
const (
	ColType         = "Type"
	ColCompanyTitle = "LoanCompany_title"
	ColCompanyEmail = "LoanCompany_email"
	ColLoanType     = "LoanType_name"
	ColCategory     = "LoanAdditionLookupValueType"
	ColStrategy     = "strategy"
	ColCreditScore  = "credit_score"
)

// ValueColumns is the number of vi columns.
const ValueColumns = 10

var requiredColumns = append([]string{ColType, ColCompanyTitle, ColLoanType, ColCategory, ColCreditScore}, valueColumnNames()...)

func valueColumnNames() []string {
	names := make([]string, ValueColumns)
	for i := range names {
		names[i] = "vi" + strconv.Itoa(i+1)
	}
	return names
}

// LineError locates a malformed CSV record.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// Parse reads every section of r. Blank vi cells are skipped. Columns may
// appear in any order; LoanCompany_email and strategy are optional.
func Parse(r io.Reader) ([]dto.RateTableSection, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty rate table file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		sections []dto.RateTableSection
		current  *dto.RateTableSection
		indices  []*int
		line     int
	)
	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ = reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		switch rowType := field(record, ColType); rowType {
		case TypeValueIndex:
			section := dto.RateTableSection{
				CompanyTitle: field(record, ColCompanyTitle),
				CompanyEmail: field(record, ColCompanyEmail),
				LoanTypeName: field(record, ColLoanType),
				Category:     field(record, ColCategory),
				Strategy:     field(record, ColStrategy),
			}
			switch {
			case section.CompanyTitle == "":
				return nil, &LineError{Line: line, Err: fmt.Errorf("%s is required", ColCompanyTitle)}
			case section.LoanTypeName == "":
				return nil, &LineError{Line: line, Err: fmt.Errorf("%s is required", ColLoanType)}
			case section.Category == "":
				return nil, &LineError{Line: line, Err: fmt.Errorf("%s is required", ColCategory)}
			}

			indices = make([]*int, ValueColumns)
			for i, name := range valueColumnNames() {
				raw := field(record, name)
				if raw == "" {
					continue
				}
				v, err := strconv.Atoi(raw)
				if err != nil {
					return nil, &LineError{Line: line, Err: fmt.Errorf("%s: value index %q is not an integer", name, raw)}
				}
				indices[i] = &v
			}
			sections = append(sections, section)
			current = &sections[len(sections)-1]

		case TypeValues:
			if current == nil {
				return nil, &LineError{Line: line, Err: errors.New("values row before any value_index row")}
			}
			raw := field(record, ColCreditScore)
			score, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &LineError{Line: line, Err: fmt.Errorf("credit score %q is not an integer", raw)}
			}
			for i, name := range valueColumnNames() {
				rawValue := field(record, name)
				if rawValue == "" {
					continue
				}
				if indices[i] == nil {
					return nil, &LineError{Line: line, Err: fmt.Errorf("%s has a value but no value index", name)}
				}
				v, err := strconv.ParseFloat(rawValue, 64)
				if err != nil {
					return nil, &LineError{Line: line, Err: fmt.Errorf("%s: value %q is not a number", name, rawValue)}
				}
				current.Cells = append(current.Cells, dto.RateCell{
					CreditScore: score,
					ValueIndex:  *indices[i],
					Value:       v,
				})
			}

		default:
			return nil, &LineError{Line: line, Err: fmt.Errorf("unknown row type %q", rowType)}
		}
	}
	return sections, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Header returns the columns Write emits.
func Header() []string {
	cols := []string{ColType, ColCompanyTitle, ColLoanType, ColCategory, ColCreditScore}
	cols = append(cols, valueColumnNames()...)
	return append(cols, ColStrategy, ColCompanyEmail)
}

// Write renders sections in the format Parse reads. A section may use at most
// ten distinct value indices; missing cells are left blank.
func Write(w io.Writer, sections []dto.RateTableSection) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	width := len(Header())
	for _, section := range sections {
		indices, scores, values := grid(section.Cells)
		if len(indices) > ValueColumns {
			return fmt.Errorf("category %s: %d value indices exceed %d columns", section.Category, len(indices), ValueColumns)
		}

		head := make([]string, width)
		head[0] = TypeValueIndex
		head[1] = section.CompanyTitle
		head[2] = section.LoanTypeName
		head[3] = section.Category
		for i, vi := range indices {
			head[5+i] = strconv.Itoa(vi)
		}
		head[5+ValueColumns] = section.Strategy
		head[6+ValueColumns] = section.CompanyEmail
		if err := writer.Write(head); err != nil {
			return fmt.Errorf("write category %s: %w", section.Category, err)
		}

		for _, score := range scores {
			rec := make([]string, width)
			rec[0] = TypeValues
			rec[4] = strconv.Itoa(score)
			for i, vi := range indices {
				if v, ok := values[[2]int{score, vi}]; ok {
					rec[5+i] = strconv.FormatFloat(v, 'f', -1, 64)
				}
			}
			if err := writer.Write(rec); err != nil {
				return fmt.Errorf("write category %s: %w", section.Category, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// grid returns the sorted distinct value indices and credit scores of cells
// and the value at each (score, index).
func grid(cells []dto.RateCell) ([]int, []int, map[[2]int]float64) {
	indexSet := make(map[int]struct{})
	scoreSet := make(map[int]struct{})
	values := make(map[[2]int]float64, len(cells))
	for _, c := range cells {
		indexSet[c.ValueIndex] = struct{}{}
		scoreSet[c.CreditScore] = struct{}{}
		values[[2]int{c.CreditScore, c.ValueIndex}] = c.Value
	}
	return sortedKeys(indexSet), sortedKeys(scoreSet), values
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// SectionsFromTable converts a snapshot into one section per category, in
// category name order.
func SectionsFromTable(company model.LoanCompany, loanTypeName string, table model.RateTable) []dto.RateTableSection {
	categories := table.Categories()
	sections := make([]dto.RateTableSection, 0, len(categories))
	for _, c := range categories {
		section := dto.RateTableSection{
			CompanyTitle: company.Title,
			CompanyEmail: company.Email,
			LoanTypeName: loanTypeName,
			Category:     c.Name,
			Strategy:     c.Strategy.String(),
		}
		for _, r := range table.Rows(c.Name) {
			section.Cells = append(section.Cells, dto.RateCell{
				CreditScore: r.CreditScoreThreshold,
				ValueIndex:  r.ValueIndexThreshold,
				Value:       r.AdditionValue,
			})
		}
		sections = append(sections, section)
	}
	return sections
}

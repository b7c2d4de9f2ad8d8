package csvimport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/pkg/testutil"
)

const sample = `Type,LoanCompany_title,LoanType_name,LoanAdditionLookupValueType,credit_score,vi1,vi2,vi3,vi4,vi5,vi6,vi7,vi8,vi9,vi10
value_index,Acle Loans,Used vehicle,Loan to value,,50,70,90,,,,,,,
values,,,,700,0.03,0.035,0.045,,,,,,,
values,,,,750,0.02,,0.035,,,,,,,

value_index,Acle Loans,Used vehicle,Maximum term,,2000,2010,,,,,,,,
values,,,,700,24,36,,,,,,,,
`

func TestParse(t *testing.T) {
	sections, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, sections, 2)

	ltv := sections[0]
	assert.Equal(t, "Acle Loans", ltv.CompanyTitle)
	assert.Equal(t, "Used vehicle", ltv.LoanTypeName)
	assert.Equal(t, "Loan to value", ltv.Category)
	assert.Empty(t, ltv.Strategy)
	assert.Equal(t, []dto.RateCell{
		{CreditScore: 700, ValueIndex: 50, Value: 0.03},
		{CreditScore: 700, ValueIndex: 70, Value: 0.035},
		{CreditScore: 700, ValueIndex: 90, Value: 0.045},
		{CreditScore: 750, ValueIndex: 50, Value: 0.02},
		{CreditScore: 750, ValueIndex: 90, Value: 0.035},
	}, ltv.Cells, "blank cells are skipped")

	term := sections[1]
	assert.Equal(t, "Maximum term", term.Category)
	assert.Len(t, term.Cells, 2)
}

func TestParse_OptionalColumns(t *testing.T) {
	in := "credit_score,Type,LoanCompany_title,LoanType_name,LoanAdditionLookupValueType,strategy,LoanCompany_email,vi1,vi2,vi3,vi4,vi5,vi6,vi7,vi8,vi9,vi10\n" +
		",value_index,Acle Loans,Used vehicle,Age,year_of_collateral,quotes@acle.example,2000,,,,,,,,,\n" +
		"800,values,,,,,,0.01,,,,,,,,,\n"

	sections, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "year_of_collateral", sections[0].Strategy)
	assert.Equal(t, "quotes@acle.example", sections[0].CompanyEmail)
	assert.Equal(t, []dto.RateCell{{CreditScore: 800, ValueIndex: 2000, Value: 0.01}}, sections[0].Cells)
}

func TestParse_Errors(t *testing.T) {
	header := "Type,LoanCompany_title,LoanType_name,LoanAdditionLookupValueType,credit_score,vi1,vi2,vi3,vi4,vi5,vi6,vi7,vi8,vi9,vi10\n"
	head := "value_index,Acle Loans,Used vehicle,Loan to value,,50,,,,,,,,,\n"

	tests := []struct {
		name    string
		input   string
		line    int
		message string
	}{
		{name: "empty file", input: "", message: "empty rate table file"},
		{name: "missing column", input: "Type,LoanCompany_title\n", message: `missing column "LoanType_name"`},
		{name: "values first", input: header + "values,,,,700,0.01,,,,,,,,,\n", line: 2, message: "values row before any value_index row"},
		{name: "unknown type", input: header + "bogus,,,,,,,,,,,,,,\n", line: 2, message: `unknown row type "bogus"`},
		{name: "missing company", input: header + "value_index,,Used vehicle,LTV,,50,,,,,,,,,\n", line: 2, message: "LoanCompany_title is required"},
		{name: "bad index", input: header + "value_index,Acle,Used vehicle,LTV,,fifty,,,,,,,,,\n", line: 2, message: `value index "fifty" is not an integer`},
		{name: "bad score", input: header + head + "values,,,,high,0.01,,,,,,,,,\n", line: 3, message: `credit score "high" is not an integer`},
		{name: "bad value", input: header + head + "values,,,,700,abc,,,,,,,,,\n", line: 3, message: `value "abc" is not a number`},
		{name: "value without index", input: header + head + "values,,,,700,0.01,0.02,,,,,,,,\n", line: 3, message: "vi2 has a value but no value index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			if tt.line > 0 {
				var lineErr *LineError
				require.ErrorAs(t, err, &lineErr)
				assert.Equal(t, tt.line, lineErr.Line)
			}
		})
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	sections := SectionsFromTable(testutil.AcleCompany(), "Used vehicle", testutil.UsedVehicleTable())
	require.Len(t, sections, 4)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sections))

	parsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, sections, parsed)

	var cells int
	for _, s := range parsed {
		cells += len(s.Cells)
	}
	assert.Equal(t, 57, cells)
}

func TestWrite_TooManyIndices(t *testing.T) {
	section := dto.RateTableSection{CompanyTitle: "Acle", LoanTypeName: "Used vehicle", Category: "Wide"}
	for i := 0; i <= ValueColumns; i++ {
		section.Cells = append(section.Cells, dto.RateCell{CreditScore: 700, ValueIndex: i, Value: 0.01})
	}
	err := Write(&bytes.Buffer{}, []dto.RateTableSection{section})
	assert.ErrorContains(t, err, "exceed")
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sintetico/parsers"
)

func descriptorTable(rows ...[]string) *parsers.Table {
	t := &parsers.Table{Header: []string{"Contenido #", "Eje", "PDA #", "Grado", "Descripción"}}
	for i, r := range rows {
		t.Rows = append(t.Rows, parsers.Row{Line: i + 2, Cells: r})
	}
	return t
}

func TestExtractDescriptorsFromColumn(t *testing.T) {
	table := descriptorTable(
		[]string{"1", "", "1", "1°", "Primero"},
		[]string{"1", "", "1", "2º", "Segundo"},
		[]string{"1", "", "", "2°", "Segundo sin número"},
		[]string{"1", "", "1", "3°", "Otra fase"},
		[]string{"", "", "1", "2°", "Sin contenido"},
		[]string{"1", "", "2", "2°", "null"},
	)
	cols := parsers.ResolveColumns(table.Header, parsers.DescriptorLayout)
	records, skipped := ExtractDescriptors(table, cols, GradeScope{Grades: []string{"2°"}, FromColumn: true})

	assert.Equal(t, []DescriptorRecord{
		{Line: 3, ContentNumber: 1, Number: 1, Grade: "2°", Description: "Segundo"},
		{Line: 4, ContentNumber: 1, Number: 2, Grade: "2°", Description: "Segundo sin número"},
	}, records)
	assert.Equal(t, []RowOutcome{
		{Line: 2, Reason: ReasonGradeMismatch},
		{Line: 5, Reason: ReasonGradeMismatch},
		{Line: 6, Reason: ReasonBadSequence},
		{Line: 7, Reason: ReasonBlankText},
	}, skipped)
}

func TestExtractDescriptorsSingleGrade(t *testing.T) {
	table := descriptorTable([]string{"4", "", "1", "", "Texto"})
	cols := parsers.ResolveColumns(table.Header, parsers.DescriptorLayout)

	records, skipped := ExtractDescriptors(table, cols, GradeScope{Grades: []string{"5°"}})
	assert.Empty(t, skipped)
	assert.Equal(t, []DescriptorRecord{{Line: 2, ContentNumber: 4, Number: 1, Grade: "5°", Description: "Texto"}}, records)

	// An empty scope accepts nothing.
	records, skipped = ExtractDescriptors(table, cols, GradeScope{})
	assert.Empty(t, records)
	assert.Len(t, skipped, 1)
}

func TestExtractContentsUnreadableLines(t *testing.T) {
	table := &parsers.Table{
		Header:     []string{"Contenido #", "Título"},
		Rows:       []parsers.Row{{Line: 2, Cells: []string{"1", "Uno"}}},
		Unreadable: []parsers.LineError{{Line: 3}},
	}
	cols := parsers.ResolveColumns(table.Header, parsers.ContentLayout)
	records, skipped := ExtractContents(table, cols)
	assert.Equal(t, []ContentRecord{{Line: 2, Number: 1, Title: "Uno"}}, records)
	assert.Equal(t, []RowOutcome{{Line: 3, Reason: ReasonUnreadable}}, skipped)
}

func TestExtractDescriptorsFallbackAvoidsExplicitNumbers(t *testing.T) {
	table := descriptorTable(
		[]string{"1", "", "", "1°", "Sin número"},
		[]string{"1", "", "1", "1°", "Con número"},
		[]string{"1", "", "", "1°", "Otro sin número"},
		[]string{"2", "", "", "1°", "Otro contenido"},
	)
	cols := parsers.ResolveColumns(table.Header, parsers.DescriptorLayout)
	records, skipped := ExtractDescriptors(table, cols, GradeScope{Grades: []string{"1°"}, FromColumn: true})

	assert.Empty(t, skipped)
	assert.Equal(t, []DescriptorRecord{
		{Line: 2, ContentNumber: 1, Number: 2, Grade: "1°", Description: "Sin número"},
		{Line: 3, ContentNumber: 1, Number: 1, Grade: "1°", Description: "Con número"},
		{Line: 4, ContentNumber: 1, Number: 3, Grade: "1°", Description: "Otro sin número"},
		{Line: 5, ContentNumber: 2, Number: 4, Grade: "1°", Description: "Otro contenido"},
	}, records)
}

func TestExtractDescriptorsDuplicateKeyKeepsLastRow(t *testing.T) {
	table := descriptorTable(
		[]string{"1", "", "1", "1°", "Primera versión"},
		[]string{"1", "", "1", "2°", "Otro grado"},
		[]string{"1", "", "1", "1°", "Segunda versión"},
	)
	cols := parsers.ResolveColumns(table.Header, parsers.DescriptorLayout)
	records, skipped := ExtractDescriptors(table, cols, GradeScope{Grades: []string{"1°", "2°"}, FromColumn: true})

	assert.Equal(t, []DescriptorRecord{
		{Line: 4, ContentNumber: 1, Number: 1, Grade: "1°", Description: "Segunda versión"},
		{Line: 3, ContentNumber: 1, Number: 1, Grade: "2°", Description: "Otro grado"},
	}, records)
	assert.Equal(t, []RowOutcome{{Line: 2, Reason: ReasonDuplicateKey}}, skipped)
}

func TestExtractContentsDuplicateNumberKeepsLastRow(t *testing.T) {
	table := &parsers.Table{
		Header: []string{"Contenido #", "Título"},
		Rows: []parsers.Row{
			{Line: 2, Cells: []string{"1", "Viejo"}},
			{Line: 3, Cells: []string{"2", "Dos"}},
			{Line: 4, Cells: []string{"01", "Nuevo"}},
		},
	}
	cols := parsers.ResolveColumns(table.Header, parsers.ContentLayout)
	records, skipped := ExtractContents(table, cols)
	assert.Equal(t, []ContentRecord{{Line: 4, Number: 1, Title: "Nuevo"}, {Line: 3, Number: 2, Title: "Dos"}}, records)
	assert.Equal(t, []RowOutcome{{Line: 2, Reason: ReasonDuplicateKey}}, skipped)
}

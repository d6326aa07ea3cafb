package parsers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestResolveColumnsByHeader(t *testing.T) {
	header := []string{"Título", "Contenido #"}
	got := ResolveColumns(header, ContentLayout)
	want := Columns{
		FieldSequence: {Index: 1, ByHeader: true},
		FieldTitle:    {Index: 0, ByHeader: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveColumns mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveColumnsRightmostHeaderWins(t *testing.T) {
	header := []string{"Contenido #", "Titulo viejo", "TÍTULO"}
	got := ResolveColumns(header, ContentLayout)
	assert.Equal(t, 2, got.Index(FieldTitle))
	assert.Equal(t, 0, got.Index(FieldSequence))
}

func TestResolveColumnsFallback(t *testing.T) {
	// No header matches: positions apply as long as the header is wide enough.
	header := []string{"a", "b", "c"}
	got := ResolveColumns(header, DescriptorLayout)
	assert.Equal(t, Resolution{Index: 0}, got[FieldContentSequence])
	assert.Equal(t, Resolution{Index: 2}, got[FieldPDASequence])
	assert.Equal(t, -1, got.Index(FieldGrade))
	assert.Equal(t, -1, got.Index(FieldDescription))
	assert.False(t, got.Has(FieldDescription))
}

func TestResolveColumnsFirstRuleClaimsHeader(t *testing.T) {
	// "Contenido # PDA #" matches both sequence rules; the earlier rule takes it.
	header := []string{"Contenido # PDA #", "x", "y", "Grado", "Descripción"}
	got := ResolveColumns(header, DescriptorLayout)
	assert.Equal(t, Resolution{Index: 0, ByHeader: true}, got[FieldContentSequence])
	assert.Equal(t, Resolution{Index: 2}, got[FieldPDASequence])
	assert.Equal(t, Resolution{Index: 3, ByHeader: true}, got[FieldGrade])
	assert.Equal(t, Resolution{Index: 4, ByHeader: true}, got[FieldDescription])
}

func TestPositionalColumns(t *testing.T) {
	cols := PositionalColumns(DescriptorLayout)
	row := Row{Cells: []string{"1", "", "2"}}
	assert.Equal(t, "1", cols.Cell(row, FieldContentSequence))
	assert.Equal(t, "2", cols.Cell(row, FieldPDASequence))
	assert.Equal(t, "", cols.Cell(row, FieldDescription))
}

func TestProperty_HeaderMatchBeatsPosition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a matching title header is always chosen over the fallback", prop.ForAll(
		func(width, at int) bool {
			at = at % width
			header := make([]string, width)
			for i := range header {
				header[i] = "columna"
			}
			header[at] = "Título del contenido"
			cols := ResolveColumns(header, ContentLayout)
			res := cols[FieldTitle]
			return res.ByHeader && res.Index == at
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 100),
	))

	properties.Property("without matching headers, resolution is positional or unresolved", prop.ForAll(
		func(width int) bool {
			header := make([]string, width)
			for i := range header {
				header[i] = "x"
			}
			cols := ResolveColumns(header, DescriptorLayout)
			for _, rule := range DescriptorLayout.Rules {
				res := cols[rule.Field]
				if res.ByHeader {
					return false
				}
				if rule.Fallback < width && res.Index != rule.Fallback {
					return false
				}
				if rule.Fallback >= width && res.Index != -1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}

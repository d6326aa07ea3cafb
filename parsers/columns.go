package parsers

// Field names a logical column of a curriculum sheet.
type Field string

const (
	FieldSequence        Field = "sequence"
	FieldTitle           Field = "title"
	FieldContentSequence Field = "content_sequence"
	FieldPDASequence     Field = "pda_sequence"
	FieldGrade           Field = "grade"
	FieldDescription     Field = "description"
)

// HeaderRule maps a header to a field when the folded header contains every
// keyword. Fallback is the column used when no header matches.
type HeaderRule struct {
	Field    Field
	Keywords []string
	Fallback int
}

// Layout is an ordered rule table. For a given header, the first rule that
// matches claims it; later rules do not see it.
type Layout struct {
	Name  string
	Rules []HeaderRule
}

// ContentLayout describes content-list sheets: "Contenido #", "Título".
var ContentLayout = Layout{
	Name: "content",
	Rules: []HeaderRule{
		{Field: FieldSequence, Keywords: []string{"contenido", "#"}, Fallback: 0},
		{Field: FieldTitle, Keywords: []string{"titulo"}, Fallback: 1},
	},
}

// DescriptorLayout describes PDA sheets:
// "Contenido #", (unused), "PDA #", "Grado", "Descripción".
var DescriptorLayout = Layout{
	Name: "descriptor",
	Rules: []HeaderRule{
		{Field: FieldContentSequence, Keywords: []string{"contenido", "#"}, Fallback: 0},
		{Field: FieldPDASequence, Keywords: []string{"pda", "#"}, Fallback: 2},
		{Field: FieldGrade, Keywords: []string{"grado"}, Fallback: 3},
		{Field: FieldDescription, Keywords: []string{"descripcion"}, Fallback: 4},
	},
}

// Resolution is where a field was found. Index is -1 when unresolved.
type Resolution struct {
	Index    int
	ByHeader bool
}

// Columns maps each field of a layout to its resolved column.
type Columns map[Field]Resolution

// Index returns the column index of f, or -1.
func (c Columns) Index(f Field) int {
	res, ok := c[f]
	if !ok {
		return -1
	}
	return res.Index
}

// Has reports whether f resolved to a column.
func (c Columns) Has(f Field) bool {
	return c.Index(f) >= 0
}

// Cell returns the trimmed value of field f in row, or "" when f is unresolved.
func (c Columns) Cell(row Row, f Field) string {
	return row.Cell(c.Index(f))
}

// ResolveColumns resolves every field of layout against header.
// Header matching always wins: when several headers match the same field the
// rightmost one is used. A field with no matching header falls back to its
// fixed position when the header is wide enough, otherwise it stays unresolved.
func ResolveColumns(header []string, layout Layout) Columns {
	cols := make(Columns, len(layout.Rules))

	for i, h := range header {
		folded := Fold(h)
		for _, rule := range layout.Rules {
			if ContainsAll(folded, rule.Keywords...) {
				cols[rule.Field] = Resolution{Index: i, ByHeader: true}
				break
			}
		}
	}

	for _, rule := range layout.Rules {
		if _, ok := cols[rule.Field]; ok {
			continue
		}
		if rule.Fallback < len(header) {
			cols[rule.Field] = Resolution{Index: rule.Fallback}
		} else {
			cols[rule.Field] = Resolution{Index: -1}
		}
	}
	return cols
}

// PositionalColumns resolves layout purely by fixed position, for sources whose
// column order is known. Rows shorter than a position read that cell as "".
func PositionalColumns(layout Layout) Columns {
	cols := make(Columns, len(layout.Rules))
	for _, rule := range layout.Rules {
		cols[rule.Field] = Resolution{Index: rule.Fallback}
	}
	return cols
}

package reconcile

import (
	"sintetico/parsers"
)

// ContentRecord is an accepted content-list row.
type ContentRecord struct {
	Line   int
	Number int
	Title  string
}

// DescriptorRecord is an accepted descriptor row, already attributed to a grade.
type DescriptorRecord struct {
	Line          int
	ContentNumber int
	Number        int
	Grade         string
	Description   string
}

// GradeScope says which grades a descriptor sheet may feed.
// With FromColumn set each row names its grade and must match one of Grades;
// otherwise every row belongs to the single grade in Grades.
type GradeScope struct {
	Grades     []string
	FromColumn bool
}

func (s GradeScope) contains(label string) bool {
	for _, g := range s.Grades {
		if g == label {
			return true
		}
	}
	return false
}

// ExtractContents validates content rows: the sequence cell must be a
// non-negative integer and the title must not be blank.
func ExtractContents(t *parsers.Table, cols parsers.Columns) ([]ContentRecord, []RowOutcome) {
	var records []ContentRecord
	var skipped []RowOutcome
	for _, le := range t.Unreadable {
		skipped = append(skipped, RowOutcome{Line: le.Line, Reason: ReasonUnreadable})
	}

	seen := make(map[int]int)
	for _, row := range t.Rows {
		number, ok := parsers.ParseSequence(cols.Cell(row, parsers.FieldSequence))
		if !ok {
			skipped = append(skipped, RowOutcome{Line: row.Line, Reason: ReasonBadSequence})
			continue
		}
		title := cols.Cell(row, parsers.FieldTitle)
		if parsers.IsBlank(title) {
			skipped = append(skipped, RowOutcome{Line: row.Line, Reason: ReasonBlankText})
			continue
		}
		rec := ContentRecord{Line: row.Line, Number: number, Title: title}
		if i, dup := seen[number]; dup {
			// The upsert keeps the last row for a key.
			skipped = append(skipped, RowOutcome{Line: records[i].Line, Reason: ReasonDuplicateKey})
			records[i] = rec
			continue
		}
		seen[number] = len(records)
		records = append(records, rec)
	}
	return records, skipped
}

// descriptorKey identifies the stored row a descriptor record upserts.
type descriptorKey struct {
	content int
	grade   string
	number  int
}

// ExtractDescriptors validates descriptor rows against a grade scope.
// A missing or malformed PDA number is replaced by the row's ordinal among the
// accepted rows of its grade, moved past any number the file uses explicitly
// for the same content item and grade. When two rows share a key the last one
// is kept.
func ExtractDescriptors(t *parsers.Table, cols parsers.Columns, scope GradeScope) ([]DescriptorRecord, []RowOutcome) {
	var skipped []RowOutcome
	for _, le := range t.Unreadable {
		skipped = append(skipped, RowOutcome{Line: le.Line, Reason: ReasonUnreadable})
	}

	type pending struct {
		rec      DescriptorRecord
		explicit bool
		ordinal  int
	}
	var rows []pending
	used := make(map[descriptorKey]bool)
	ordinal := make(map[string]int)
	for _, row := range t.Rows {
		var grade string
		if scope.FromColumn {
			grade = NormalizeGradeLabel(cols.Cell(row, parsers.FieldGrade))
		} else if len(scope.Grades) > 0 {
			grade = scope.Grades[0]
		}
		if !scope.contains(grade) {
			skipped = append(skipped, RowOutcome{Line: row.Line, Reason: ReasonGradeMismatch})
			continue
		}

		contentNumber, ok := parsers.ParseSequence(cols.Cell(row, parsers.FieldContentSequence))
		if !ok {
			skipped = append(skipped, RowOutcome{Line: row.Line, Reason: ReasonBadSequence})
			continue
		}
		description := cols.Cell(row, parsers.FieldDescription)
		if parsers.IsBlank(description) {
			skipped = append(skipped, RowOutcome{Line: row.Line, Reason: ReasonBlankText})
			continue
		}

		ordinal[grade]++
		p := pending{
			rec: DescriptorRecord{
				Line:          row.Line,
				ContentNumber: contentNumber,
				Grade:         grade,
				Description:   description,
			},
			ordinal: ordinal[grade],
		}
		p.rec.Number, p.explicit = parsers.ParseSequence(cols.Cell(row, parsers.FieldPDASequence))
		if p.explicit {
			used[descriptorKey{contentNumber, grade, p.rec.Number}] = true
		}
		rows = append(rows, p)
	}

	var records []DescriptorRecord
	seen := make(map[descriptorKey]int)
	for _, p := range rows {
		if !p.explicit {
			n := p.ordinal
			for used[descriptorKey{p.rec.ContentNumber, p.rec.Grade, n}] {
				n++
			}
			p.rec.Number = n
			used[descriptorKey{p.rec.ContentNumber, p.rec.Grade, n}] = true
		}
		key := descriptorKey{p.rec.ContentNumber, p.rec.Grade, p.rec.Number}
		if i, dup := seen[key]; dup {
			skipped = append(skipped, RowOutcome{Line: records[i].Line, Reason: ReasonDuplicateKey})
			records[i] = p.rec
			continue
		}
		seen[key] = len(records)
		records = append(records, p.rec)
	}
	return records, skipped
}

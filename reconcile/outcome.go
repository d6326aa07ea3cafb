package reconcile

import (
	"sort"
)

// SourceKind is the spreadsheet encoding a file came from.
type SourceKind string

const (
	SourceCSV  SourceKind = "csv"
	SourceXLSX SourceKind = "xlsx"
)

// RecordClass is the kind of records a sheet holds.
type RecordClass string

const (
	ClassContent    RecordClass = "content"
	ClassDescriptor RecordClass = "descriptor"
)

// SkipReason explains why a file or row was not imported.
type SkipReason string

// File-level reasons.
const (
	ReasonUnknownPhase     SkipReason = "unknown_phase"
	ReasonUnknownField     SkipReason = "unknown_field"
	ReasonUnknownClass     SkipReason = "unknown_record_class"
	ReasonMissingReference SkipReason = "missing_reference_data"
	ReasonMissingColumns   SkipReason = "missing_columns"
	ReasonSuperseded       SkipReason = "superseded_by_grade_file"
	ReasonAmbiguousGrade   SkipReason = "ambiguous_grade_scope"
	ReasonParseError       SkipReason = "parse_error"
	ReasonStoreError       SkipReason = "store_error"
)

// Row-level reasons.
const (
	ReasonBadSequence    SkipReason = "bad_sequence_number"
	ReasonBlankText      SkipReason = "blank_text"
	ReasonGradeMismatch  SkipReason = "grade_mismatch"
	ReasonMissingContent SkipReason = "missing_parent_content"
	ReasonUnreadable     SkipReason = "unreadable_line"
	ReasonDuplicateKey   SkipReason = "duplicate_key"
)

// FileStatus is the final state of one file.
type FileStatus string

const (
	StatusImported FileStatus = "imported"
	StatusSkipped  FileStatus = "skipped"
)

// RowOutcome records one skipped row.
type RowOutcome struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
}

// FileOutcome is the result of processing one file (or one sheet of a workbook).
type FileOutcome struct {
	Path     string       `json:"path"`
	Source   SourceKind   `json:"source"`
	Class    RecordClass  `json:"class,omitempty"`
	Phase    int          `json:"phase,omitempty"`
	Field    string       `json:"field,omitempty"`
	Grades   []string     `json:"grades,omitempty"`
	Status   FileStatus   `json:"status"`
	Reason   SkipReason   `json:"reason,omitempty"`
	Detail   string       `json:"detail,omitempty"`
	Accepted int          `json:"accepted"`
	Skipped  []RowOutcome `json:"skipped,omitempty"`
}

// SkipCount returns how many rows were skipped for reason.
func (o FileOutcome) SkipCount(reason SkipReason) int {
	n := 0
	for _, s := range o.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

func skippedFile(path string, source SourceKind, reason SkipReason, detail string) FileOutcome {
	return FileOutcome{Path: path, Source: source, Status: StatusSkipped, Reason: reason, Detail: detail}
}

// SummaryKey identifies a (phase, field) pair.
type SummaryKey struct {
	Phase int
	Field string
}

// Counts are accepted record counts.
type Counts struct {
	Contents    int `json:"contenidos"`
	Descriptors int `json:"pdas"`
}

// SummaryLine is one (phase, field) entry of a batch summary.
type SummaryLine struct {
	Phase int    `json:"fase"`
	Field string `json:"campo"`
	Counts
}

// Summary accumulates accepted rows per phase and field.
type Summary struct {
	counts map[SummaryKey]*Counts
}

func newSummary() *Summary {
	return &Summary{counts: make(map[SummaryKey]*Counts)}
}

// Add counts accepted records of a class.
func (s *Summary) Add(phase int, field string, class RecordClass, n int) {
	key := SummaryKey{Phase: phase, Field: field}
	c, ok := s.counts[key]
	if !ok {
		c = &Counts{}
		s.counts[key] = c
	}
	switch class {
	case ClassContent:
		c.Contents += n
	case ClassDescriptor:
		c.Descriptors += n
	}
}

// Get returns the counts for a (phase, field) pair.
func (s *Summary) Get(phase int, field string) Counts {
	if c, ok := s.counts[SummaryKey{Phase: phase, Field: field}]; ok {
		return *c
	}
	return Counts{}
}

// Lines returns the summary ordered by phase, then field name.
func (s *Summary) Lines() []SummaryLine {
	lines := make([]SummaryLine, 0, len(s.counts))
	for k, c := range s.counts {
		lines = append(lines, SummaryLine{Phase: k.Phase, Field: k.Field, Counts: *c})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Phase != lines[j].Phase {
			return lines[i].Phase < lines[j].Phase
		}
		return lines[i].Field < lines[j].Field
	})
	return lines
}

// Report is the outcome of one import batch.
type Report struct {
	BatchID string        `json:"batch"`
	Files   []FileOutcome `json:"files"`
	Summary *Summary      `json:"-"`
}

func newReport(batchID string) *Report {
	return &Report{BatchID: batchID, Summary: newSummary()}
}

func (r *Report) add(o FileOutcome) {
	r.Files = append(r.Files, o)
	if o.Status == StatusImported {
		r.Summary.Add(o.Phase, o.Field, o.Class, o.Accepted)
	}
}

// Totals returns the accepted content and descriptor rows of the whole batch.
func (r *Report) Totals() Counts {
	var t Counts
	for _, l := range r.Summary.Lines() {
		t.Contents += l.Contents
		t.Descriptors += l.Descriptors
	}
	return t
}

// SkippedFiles returns the outcomes of files that were not imported.
func (r *Report) SkippedFiles() []FileOutcome {
	var out []FileOutcome
	for _, f := range r.Files {
		if f.Status == StatusSkipped {
			out = append(out, f)
		}
	}
	return out
}

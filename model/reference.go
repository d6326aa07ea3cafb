package model

// PhaseGrades is the fixed grade mapping of primary school phases.
var PhaseGrades = map[int][]string{
	3: {"1°", "2°"},
	4: {"3°", "4°"},
	5: {"5°", "6°"},
}

// KnownPhases lists the phase numbers in ascending order.
var KnownPhases = []int{3, 4, 5}

// GradesForPhase returns the grade labels valid for a phase, or nil for an unknown phase.
func GradesForPhase(phaseNumber int) []string {
	return PhaseGrades[phaseNumber]
}

// ReferenceData is an immutable snapshot of the seeded reference tables,
// loaded once at the start of an import batch.
type ReferenceData struct {
	Phases map[int]Phase
	Fields map[string]FormativeField
	// Grades is keyed by phase number, then grade label.
	Grades map[int]map[string]Grade
}

// Phase returns the phase row for a phase number.
func (r *ReferenceData) Phase(number int) (Phase, bool) {
	p, ok := r.Phases[number]
	return p, ok
}

// Field returns the formative field row for a canonical field name.
func (r *ReferenceData) Field(name string) (FormativeField, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

// Grade returns the grade row for a label within a phase.
func (r *ReferenceData) Grade(phaseNumber int, label string) (Grade, bool) {
	byLabel, ok := r.Grades[phaseNumber]
	if !ok {
		return Grade{}, false
	}
	g, ok := byLabel[label]
	return g, ok
}

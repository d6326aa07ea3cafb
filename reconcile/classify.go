package reconcile

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"sintetico/database"
	"sintetico/model"
	"sintetico/parsers"
)

// fieldRule matches a formative field when any of its keywords appears in a
// folded name.
type fieldRule struct {
	Field    string
	Keywords []string
}

// fieldRules are tried in order; the first match wins.
var fieldRules = []fieldRule{
	{Field: database.FieldSaberes, Keywords: []string{"saberes", "cientific"}},
	{Field: database.FieldLenguajes, Keywords: []string{"lenguaj", "lengiaj"}},
	{Field: database.FieldHumano, Keywords: []string{"humano", "comunitario"}},
	{Field: database.FieldEtica, Keywords: []string{"etica", "naturaleza"}},
}

// DetectField infers the formative field from a file or directory name.
func DetectField(name string) (string, bool) {
	folded := parsers.Fold(name)
	for _, rule := range fieldRules {
		for _, k := range rule.Keywords {
			if strings.Contains(folded, k) {
				return rule.Field, true
			}
		}
	}
	return "", false
}

// phasePattern matches "fase" followed by optional separators and the whole
// digit run after them, so "fase30" reads as 30 and never as 3.
var phasePattern = regexp.MustCompile(`fase[^\p{L}\p{N}]*([0-9]+)`)

// DetectPhase infers the phase number from a directory name such as
// "Fase_3", "FASE 4 Excel", "fase5_lenguajes" or "Fase 3 - 2024".
func DetectPhase(name string) (int, bool) {
	for _, m := range phasePattern.FindAllStringSubmatch(parsers.Fold(name), -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if model.GradesForPhase(n) != nil {
			return n, true
		}
	}
	return 0, false
}

// PhaseFromPath checks the directories between root and path, nearest first.
// When includeSelf is set, the last element of path is checked before its parents.
func PhaseFromPath(root, path string, includeSelf bool) (int, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if !includeSelf {
		parts = parts[:len(parts)-1]
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if n, ok := DetectPhase(parts[i]); ok {
			return n, true
		}
	}
	// The root itself may name the phase (import of a single phase directory).
	if n, ok := DetectPhase(filepath.Base(root)); ok {
		return n, true
	}
	return 0, false
}

// DetectClass infers the record class of a CSV export from its filename.
func DetectClass(filename string) (RecordClass, bool) {
	folded := parsers.Fold(filename)
	switch {
	case strings.Contains(folded, "contenidos"):
		return ClassContent, true
	case strings.Contains(folded, "pdas"):
		return ClassDescriptor, true
	default:
		return "", false
	}
}

// NormalizeGradeLabel maps the ordinal indicator "º" to the degree sign used
// by the grade labels.
func NormalizeGradeLabel(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "º", "°")
}

// DetectGrade finds which of the phase's grade labels appears in a filename.
func DetectGrade(filename string, phase int) (string, bool) {
	name := NormalizeGradeLabel(filename)
	for _, g := range model.GradesForPhase(phase) {
		if strings.Contains(name, g) {
			return g, true
		}
	}
	return "", false
}

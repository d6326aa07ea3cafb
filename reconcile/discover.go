package reconcile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sintetico/model"
)

// CSVJob is a classified CSV export ready for import.
type CSVJob struct {
	Path  string
	Phase int
	Field string
	Class RecordClass
	// Grade is the grade named in the filename; empty for a general descriptor file.
	Grade string
	// Grades is the grade scope of a descriptor file.
	Grades []string
}

// WorkbookJob is a classified packed-XML container (directory or .xlsx file).
type WorkbookJob struct {
	Path  string
	Phase int
	Field string
}

type phaseField struct {
	phase int
	field string
}

// PlanCSV walks root, classifies every .csv file and returns the import jobs in
// processing order: content lists first, then descriptor lists, each in
// directory-listing order. Files that cannot be classified come back as
// skipped outcomes.
func PlanCSV(root string) ([]CSVJob, []FileOutcome, error) {
	var contents, descriptors []CSVJob
	var skipped []FileOutcome

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return walkError(root, path, d, err, SourceCSV, &skipped)
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		name := d.Name()

		phase, ok := PhaseFromPath(root, path, false)
		if !ok {
			skipped = append(skipped, skippedFile(path, SourceCSV, ReasonUnknownPhase, "no phase in directory name"))
			return nil
		}
		field, ok := DetectField(name)
		if !ok {
			skipped = append(skipped, skippedFile(path, SourceCSV, ReasonUnknownField, name))
			return nil
		}
		class, ok := DetectClass(name)
		if !ok {
			skipped = append(skipped, skippedFile(path, SourceCSV, ReasonUnknownClass, name))
			return nil
		}

		job := CSVJob{Path: path, Phase: phase, Field: field, Class: class}
		if class == ClassContent {
			contents = append(contents, job)
			return nil
		}
		if grade, ok := DetectGrade(name, phase); ok {
			job.Grade = grade
			job.Grades = []string{grade}
		}
		descriptors = append(descriptors, job)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}

	// A grade-specific file takes precedence; a general file covers the rest.
	specific := make(map[phaseField]map[string]bool)
	for _, j := range descriptors {
		if j.Grade == "" {
			continue
		}
		key := phaseField{j.Phase, j.Field}
		if specific[key] == nil {
			specific[key] = make(map[string]bool)
		}
		specific[key][j.Grade] = true
	}

	jobs := contents
	for _, j := range descriptors {
		if j.Grade == "" {
			covered := specific[phaseField{j.Phase, j.Field}]
			for _, g := range model.GradesForPhase(j.Phase) {
				if !covered[g] {
					j.Grades = append(j.Grades, g)
				}
			}
			if len(j.Grades) == 0 {
				o := skippedFile(j.Path, SourceCSV, ReasonSuperseded, "every grade has its own file")
				o.Class, o.Phase, o.Field = j.Class, j.Phase, j.Field
				skipped = append(skipped, o)
				continue
			}
		}
		jobs = append(jobs, j)
	}
	return jobs, skipped, nil
}

// PlanWorkbooks walks root looking for packed-XML containers: directories that
// hold an xl/worksheets folder, and .xlsx files.
func PlanWorkbooks(root string) ([]WorkbookJob, []FileOutcome, error) {
	var jobs []WorkbookJob
	var skipped []FileOutcome

	classify := func(path, name string) {
		phase, ok := PhaseFromPath(root, path, true)
		if !ok {
			skipped = append(skipped, skippedFile(path, SourceXLSX, ReasonUnknownPhase, name))
			return
		}
		field, ok := DetectField(name)
		if !ok {
			skipped = append(skipped, skippedFile(path, SourceXLSX, ReasonUnknownField, name))
			return
		}
		jobs = append(jobs, WorkbookJob{Path: path, Phase: phase, Field: field})
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return walkError(root, path, d, err, SourceXLSX, &skipped)
		}
		if d.IsDir() {
			if isContainerDir(path) {
				classify(path, d.Name())
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.EqualFold(filepath.Ext(name), ".xlsx") && !strings.HasPrefix(name, "~$") {
			classify(path, strings.TrimSuffix(name, filepath.Ext(name)))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return jobs, skipped, nil
}

// walkError records an entry the walk could not read as a skipped outcome and
// moves on. Only a failure on root itself ends the walk.
func walkError(root, path string, d fs.DirEntry, err error, source SourceKind, skipped *[]FileOutcome) error {
	if path == root {
		return err
	}
	*skipped = append(*skipped, skippedFile(path, source, ReasonParseError, err.Error()))
	if d != nil && d.IsDir() {
		return fs.SkipDir
	}
	return nil
}

func isContainerDir(path string) bool {
	info, err := os.Stat(filepath.Join(path, "xl", "worksheets"))
	return err == nil && info.IsDir()
}

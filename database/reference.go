package database

import (
	"fmt"
	"slices"

	"sintetico/model"
)

// ListPhases returns the phases ordered by number.
func ListPhases(db DBTX) ([]model.Phase, error) {
	var phases []model.Phase
	const q = `SELECT id, numero, nombre, COALESCE(descripcion, '') AS descripcion, COALESCE(grados_incluidos, '') AS grados_incluidos FROM fases ORDER BY numero`
	if err := db.Select(&phases, q); err != nil {
		return nil, fmt.Errorf("failed to get all phases: %w", err)
	}
	return phases, nil
}

// ListFields returns the formative fields ordered by id.
func ListFields(db DBTX) ([]model.FormativeField, error) {
	var fields []model.FormativeField
	const q = `SELECT id, nombre, COALESCE(descripcion, '') AS descripcion FROM campos_formativos ORDER BY id`
	if err := db.Select(&fields, q); err != nil {
		return nil, fmt.Errorf("failed to get all formative fields: %w", err)
	}
	return fields, nil
}

// LoadReferenceData reads the three reference tables into an immutable snapshot.
func LoadReferenceData(db DBTX) (*model.ReferenceData, error) {
	phases, err := ListPhases(db)
	if err != nil {
		return nil, err
	}
	fields, err := ListFields(db)
	if err != nil {
		return nil, err
	}

	var grades []struct {
		model.Grade
		PhaseNumber int `db:"fase_numero"`
	}
	const q = `
		SELECT g.id, g.numero, g.nombre, g.fase_id, f.numero AS fase_numero
		FROM grados g
		JOIN fases f ON g.fase_id = f.id
		ORDER BY g.numero
	`
	if err := db.Select(&grades, q); err != nil {
		return nil, fmt.Errorf("failed to get grades: %w", err)
	}

	ref := &model.ReferenceData{
		Phases: make(map[int]model.Phase, len(phases)),
		Fields: make(map[string]model.FormativeField, len(fields)),
		Grades: make(map[int]map[string]model.Grade),
	}
	for _, p := range phases {
		ref.Phases[p.Number] = p
	}
	for _, f := range fields {
		ref.Fields[f.Name] = f
	}
	for _, g := range grades {
		// Older databases linked grades to phase row ids instead of phase numbers.
		if !slices.Contains(model.GradesForPhase(g.PhaseNumber), g.Label) {
			continue
		}
		if ref.Grades[g.PhaseNumber] == nil {
			ref.Grades[g.PhaseNumber] = make(map[string]model.Grade)
		}
		ref.Grades[g.PhaseNumber][g.Label] = g.Grade
	}
	return ref, nil
}

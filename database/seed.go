package database

import (
	"fmt"

	"sintetico/model"

	"github.com/jmoiron/sqlx"
)

// Canonical formative field names, as stored in campos_formativos.nombre.
const (
	FieldSaberes   = "Saberes y Pensamiento Científico"
	FieldLenguajes = "Lenguajes"
	FieldHumano    = "De lo Humano y lo Comunitario"
	FieldEtica     = "Ética, Naturaleza y Sociedades"
)

// SeedPhases are the primary school phases.
var SeedPhases = []model.Phase{
	{Number: 3, Name: "Fase 3", Description: "Educación Primaria - Primeros grados", GradeRange: "1° y 2°"},
	{Number: 4, Name: "Fase 4", Description: "Educación Primaria - Grados intermedios", GradeRange: "3° y 4°"},
	{Number: 5, Name: "Fase 5", Description: "Educación Primaria - Últimos grados", GradeRange: "5° y 6°"},
}

// SeedFields are the four formative fields, in display order.
var SeedFields = []model.FormativeField{
	{Name: FieldSaberes, Description: "Pensamiento matemático y científico para comprender el mundo natural y social."},
	{Name: FieldLenguajes, Description: "Lenguas, lectura, escritura y expresiones artísticas."},
	{Name: FieldHumano, Description: "Vida saludable, convivencia y desarrollo comunitario."},
	{Name: FieldEtica, Description: "Formación cívica, historia, geografía y cuidado de la naturaleza."},
}

// SeedReferenceData inserts phases, formative fields and grades if absent.
// Existing reference rows are never overwritten.
func SeedReferenceData(db *sqlx.DB) (err error) {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for seeding: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, p := range SeedPhases {
		const q = `INSERT OR IGNORE INTO fases (numero, nombre, descripcion, grados_incluidos) VALUES (?, ?, ?, ?)`
		if _, err = tx.Exec(q, p.Number, p.Name, p.Description, p.GradeRange); err != nil {
			return fmt.Errorf("seed phase %d failed: %w", p.Number, err)
		}
	}

	for _, f := range SeedFields {
		const q = `INSERT OR IGNORE INTO campos_formativos (nombre, descripcion) VALUES (?, ?)`
		if _, err = tx.Exec(q, f.Name, f.Description); err != nil {
			return fmt.Errorf("seed field %q failed: %w", f.Name, err)
		}
	}

	// fase_id is resolved through the phase number; the ids of fases are not the phase numbers.
	gradeNumber := 0
	for _, phase := range model.KnownPhases {
		for _, label := range model.GradesForPhase(phase) {
			gradeNumber++
			const q = `
				INSERT OR IGNORE INTO grados (numero, nombre, fase_id)
				SELECT ?, ?, id FROM fases WHERE numero = ?
			`
			if _, err = tx.Exec(q, gradeNumber, label, phase); err != nil {
				return fmt.Errorf("seed grade %s (phase %d) failed: %w", label, phase, err)
			}
		}
	}

	return nil
}

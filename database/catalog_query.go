package database

import (
	"database/sql"
	"errors"
	"fmt"

	"sintetico/model"
)

// ErrPhaseNotFound is returned by phase-scoped queries when the phase number is unknown.
var ErrPhaseNotFound = errors.New("phase not found")

// GetPhaseID resolves a phase number to its row id.
func GetPhaseID(db DBTX, phaseNumber int) (int64, error) {
	var id int64
	err := db.Get(&id, `SELECT id FROM fases WHERE numero = ?`, phaseNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("phase %d: %w", phaseNumber, ErrPhaseNotFound)
		}
		return 0, fmt.Errorf("GetPhaseID (%d) failed: %w", phaseNumber, err)
	}
	return id, nil
}

// GetFieldByID returns one formative field, or sql.ErrNoRows.
func GetFieldByID(db DBTX, fieldID int64) (*model.FormativeField, error) {
	var f model.FormativeField
	const q = `SELECT id, nombre, COALESCE(descripcion, '') AS descripcion FROM campos_formativos WHERE id = ?`
	if err := db.Get(&f, q, fieldID); err != nil {
		return nil, err
	}
	return &f, nil
}

// SummarizePhase counts content items and descriptors per formative field for one phase.
// Every field is listed, including those with no content.
func SummarizePhase(db DBTX, phaseNumber int) ([]model.FieldSummary, error) {
	phaseID, err := GetPhaseID(db, phaseNumber)
	if err != nil {
		return nil, err
	}
	const q = `
		SELECT
			cf.id AS campo_id,
			cf.nombre AS campo_nombre,
			COUNT(DISTINCT c.id) AS num_contenidos,
			COUNT(p.id) AS num_pdas
		FROM campos_formativos cf
		LEFT JOIN contenidos c ON cf.id = c.campo_formativo_id AND c.fase_id = ?
		LEFT JOIN pdas p ON c.id = p.contenido_id
		GROUP BY cf.id, cf.nombre
		ORDER BY cf.id
	`
	var rows []model.FieldSummary
	if err := db.Select(&rows, q, phaseID); err != nil {
		return nil, fmt.Errorf("SummarizePhase (%d) failed: %w", phaseNumber, err)
	}
	return rows, nil
}

// CountsByPhaseField counts content items and descriptors for every (phase, field) pair.
func CountsByPhaseField(db DBTX) ([]model.PhaseFieldCount, error) {
	const q = `
		SELECT
			f.numero AS fase_numero,
			cf.nombre AS campo_nombre,
			COUNT(DISTINCT c.id) AS num_contenidos,
			COUNT(p.id) AS num_pdas
		FROM fases f
		CROSS JOIN campos_formativos cf
		LEFT JOIN contenidos c ON c.fase_id = f.id AND c.campo_formativo_id = cf.id
		LEFT JOIN pdas p ON c.id = p.contenido_id
		GROUP BY f.numero, cf.id, cf.nombre
		ORDER BY f.numero, cf.id
	`
	var rows []model.PhaseFieldCount
	if err := db.Select(&rows, q); err != nil {
		return nil, fmt.Errorf("CountsByPhaseField failed: %w", err)
	}
	return rows, nil
}

// ListContentItems lists the content items of a field within a phase, ordered by number.
func ListContentItems(db DBTX, fieldID int64, phaseNumber int) ([]model.ContentListItem, error) {
	phaseID, err := GetPhaseID(db, phaseNumber)
	if err != nil {
		return nil, err
	}
	const q = `
		SELECT id, numero, titulo
		FROM contenidos
		WHERE campo_formativo_id = ? AND fase_id = ?
		ORDER BY numero
	`
	items := []model.ContentListItem{}
	if err := db.Select(&items, q, fieldID, phaseID); err != nil {
		return nil, fmt.Errorf("ListContentItems (field %d, phase %d) failed: %w", fieldID, phaseNumber, err)
	}
	return items, nil
}

// GetContentItem returns one content item row, or sql.ErrNoRows.
func GetContentItem(db DBTX, contentID int64) (*model.ContentItem, error) {
	var c model.ContentItem
	const q = `SELECT id, numero, titulo, fase_id, campo_formativo_id FROM contenidos WHERE id = ?`
	if err := db.Get(&c, q, contentID); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListDescriptors lists the descriptors of a field within a phase, ordered by
// content number, grade and descriptor number. A contentID of zero lists every content item.
func ListDescriptors(db DBTX, phaseNumber int, fieldID, contentID int64) ([]model.FilteredDescriptor, error) {
	phaseID, err := GetPhaseID(db, phaseNumber)
	if err != nil {
		return nil, err
	}
	q := `
		SELECT
			p.id, p.numero_pda, p.descripcion, p.contenido_id, p.grado_id,
			c.id AS "contenido.id",
			c.numero AS "contenido.numero",
			c.titulo AS "contenido.titulo",
			cf.nombre AS campo,
			g.nombre AS grado,
			g.numero AS grado_numero,
			f.numero AS fase_numero
		FROM pdas p
		JOIN contenidos c ON p.contenido_id = c.id
		JOIN campos_formativos cf ON c.campo_formativo_id = cf.id
		JOIN grados g ON p.grado_id = g.id
		JOIN fases f ON c.fase_id = f.id
		WHERE c.campo_formativo_id = ? AND c.fase_id = ?
	`
	args := []interface{}{fieldID, phaseID}
	if contentID != 0 {
		q += " AND c.id = ?"
		args = append(args, contentID)
	}
	q += " ORDER BY c.numero, g.numero, p.numero_pda"

	descriptors := []model.FilteredDescriptor{}
	if err := db.Select(&descriptors, q, args...); err != nil {
		return nil, fmt.Errorf("ListDescriptors (field %d, phase %d) failed: %w", fieldID, phaseNumber, err)
	}
	return descriptors, nil
}

// GetContentDetail returns a content item and its descriptors grouped by grade.
// It returns sql.ErrNoRows when the item does not exist.
func GetContentDetail(db DBTX, contentID int64) (*model.ContentDetail, error) {
	var detail model.ContentDetail
	const q = `
		SELECT c.id, c.numero, c.titulo, f.numero AS fase_num, cf.nombre AS campo_nombre
		FROM contenidos c
		JOIN fases f ON c.fase_id = f.id
		JOIN campos_formativos cf ON c.campo_formativo_id = cf.id
		WHERE c.id = ?
	`
	if err := db.Get(&detail, q, contentID); err != nil {
		return nil, err
	}

	const pq = `
		SELECT g.nombre AS grado, p.numero_pda, p.descripcion
		FROM pdas p
		JOIN grados g ON p.grado_id = g.id
		WHERE p.contenido_id = ?
		ORDER BY g.numero, p.numero_pda
	`
	var descriptors []model.DescriptorView
	if err := db.Select(&descriptors, pq, contentID); err != nil {
		return nil, fmt.Errorf("GetContentDetail descriptors (%d) failed: %w", contentID, err)
	}
	detail.Grades = GroupByGrade(descriptors)
	return &detail, nil
}

// GroupByGrade groups descriptors that are already ordered by grade.
func GroupByGrade(descriptors []model.DescriptorView) []model.GradeDescriptors {
	groups := []model.GradeDescriptors{}
	for _, d := range descriptors {
		if n := len(groups); n == 0 || groups[n-1].Grade != d.Grade {
			groups = append(groups, model.GradeDescriptors{Grade: d.Grade})
		}
		last := &groups[len(groups)-1]
		last.Descriptors = append(last.Descriptors, d)
	}
	return groups
}

// Search finds content titles and descriptor texts containing q within one phase.
func Search(db DBTX, phaseNumber int, q string) (*model.SearchResult, error) {
	result := &model.SearchResult{
		Contents:    []model.ContentMatch{},
		Descriptors: []model.DescriptorMatch{},
	}
	if q == "" {
		return result, nil
	}
	phaseID, err := GetPhaseID(db, phaseNumber)
	if err != nil {
		return nil, err
	}
	pattern := "%" + q + "%"

	const cq = `
		SELECT c.id, cf.nombre AS campo, c.numero, c.titulo
		FROM contenidos c
		JOIN campos_formativos cf ON c.campo_formativo_id = cf.id
		WHERE c.titulo LIKE ? AND c.fase_id = ?
		ORDER BY cf.nombre, c.numero
	`
	if err := db.Select(&result.Contents, cq, pattern, phaseID); err != nil {
		return nil, fmt.Errorf("Search contents (%q) failed: %w", q, err)
	}

	const pq = `
		SELECT c.id AS contenido_id, cf.nombre AS campo, c.titulo, g.nombre AS grado, p.numero_pda, p.descripcion
		FROM pdas p
		JOIN contenidos c ON p.contenido_id = c.id
		JOIN campos_formativos cf ON c.campo_formativo_id = cf.id
		JOIN grados g ON p.grado_id = g.id
		WHERE p.descripcion LIKE ? AND c.fase_id = ?
		ORDER BY cf.nombre, c.numero, g.numero, p.numero_pda
	`
	if err := db.Select(&result.Descriptors, pq, pattern, phaseID); err != nil {
		return nil, fmt.Errorf("Search descriptors (%q) failed: %w", q, err)
	}
	return result, nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UpsertContentItemInTx inserts a content item or overwrites the title of the
// existing one with the same (numero, fase_id, campo_formativo_id) key.
// The row id survives an overwrite, so descriptors keep pointing at it.
func UpsertContentItemInTx(tx *sqlx.Tx, number int, title string, phaseID, fieldID int64) (int64, error) {
	const q = `
		INSERT INTO contenidos (numero, titulo, fase_id, campo_formativo_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(numero, fase_id, campo_formativo_id) DO UPDATE SET
			titulo = excluded.titulo
		RETURNING id
	`
	var id int64
	if err := tx.Get(&id, q, number, title, phaseID, fieldID); err != nil {
		return 0, fmt.Errorf("UpsertContentItemInTx (No: %d, Phase: %d, Field: %d) failed: %w", number, phaseID, fieldID, err)
	}
	return id, nil
}

// FindContentItemIDInTx looks up a content item by its natural key.
// found is false when no such item exists.
func FindContentItemIDInTx(tx *sqlx.Tx, number int, phaseID, fieldID int64) (id int64, found bool, err error) {
	const q = `SELECT id FROM contenidos WHERE numero = ? AND fase_id = ? AND campo_formativo_id = ?`
	err = tx.Get(&id, q, number, phaseID, fieldID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("FindContentItemIDInTx (No: %d) failed: %w", number, err)
	}
	return id, true, nil
}

// UpsertDescriptorInTx inserts a descriptor or overwrites the description of the
// existing one with the same (contenido_id, grado_id, numero_pda) key.
func UpsertDescriptorInTx(tx *sqlx.Tx, number int, description string, contentID, gradeID int64) error {
	const q = `
		INSERT INTO pdas (numero_pda, descripcion, contenido_id, grado_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(contenido_id, grado_id, numero_pda) DO UPDATE SET
			descripcion = excluded.descripcion
	`
	if _, err := tx.Exec(q, number, description, contentID, gradeID); err != nil {
		return fmt.Errorf("UpsertDescriptorInTx (PDA: %d, Content: %d, Grade: %d) failed: %w", number, contentID, gradeID, err)
	}
	return nil
}

// ClearCurriculum deletes every descriptor and content item.
// Reference data is left untouched.
func ClearCurriculum(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pdas`); err != nil {
		return fmt.Errorf("failed to clear pdas: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM contenidos`); err != nil {
		return fmt.Errorf("failed to clear contenidos: %w", err)
	}
	return tx.Commit()
}

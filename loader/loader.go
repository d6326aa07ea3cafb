package loader

import (
	"fmt"

	"sintetico/database"

	"github.com/jmoiron/sqlx"
)

// InitDatabase applies the schema and seeds the reference rows.
// Running it against an initialized database changes nothing.
func InitDatabase(db *sqlx.DB) error {
	if err := database.ApplySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}
	if err := database.SeedReferenceData(db); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}
	return nil
}

// Prepare opens the database at path and initializes it, so every command
// works against a complete schema.
func Prepare(path string) (*sqlx.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	if err := InitDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

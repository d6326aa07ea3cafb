package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sintetico/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openSeeded(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, ApplySchema(db))
	require.NoError(t, SeedReferenceData(db))
	return db
}

// insertCurriculum stores content items and descriptors through the same upserts the importer uses.
func insertCurriculum(t *testing.T, db *sqlx.DB) {
	t.Helper()
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	phase3, _ := ref.Phase(3)
	phase4, _ := ref.Phase(4)
	saberes, _ := ref.Field(FieldSaberes)
	lenguajes, _ := ref.Field(FieldLenguajes)
	g1, _ := ref.Grade(3, "1°")
	g2, _ := ref.Grade(3, "2°")
	g3, _ := ref.Grade(4, "3°")

	tx, err := db.Beginx()
	require.NoError(t, err)
	c1, err := UpsertContentItemInTx(tx, 1, "Los números y el conteo", phase3.ID, saberes.ID)
	require.NoError(t, err)
	c2, err := UpsertContentItemInTx(tx, 2, "Medición de longitudes", phase3.ID, saberes.ID)
	require.NoError(t, err)
	c3, err := UpsertContentItemInTx(tx, 1, "Narraciones", phase4.ID, lenguajes.ID)
	require.NoError(t, err)

	require.NoError(t, UpsertDescriptorInTx(tx, 2, "Compara colecciones", c1, g1.ID))
	require.NoError(t, UpsertDescriptorInTx(tx, 1, "Cuenta hasta 10", c1, g1.ID))
	require.NoError(t, UpsertDescriptorInTx(tx, 1, "Cuenta hasta 100", c1, g2.ID))
	require.NoError(t, UpsertDescriptorInTx(tx, 1, "Mide con unidades no convencionales", c2, g2.ID))
	require.NoError(t, UpsertDescriptorInTx(tx, 1, "Escucha narraciones", c3, g3.ID))
	require.NoError(t, tx.Commit())
}

func TestSeedReferenceDataIsIdempotent(t *testing.T) {
	db := openSeeded(t)
	require.NoError(t, ApplySchema(db))
	require.NoError(t, SeedReferenceData(db))

	counts := map[string]int{}
	for _, table := range []string{"fases", "campos_formativos", "grados"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
		counts[table] = n
	}
	assert.Equal(t, map[string]int{"fases": 3, "campos_formativos": 4, "grados": 6}, counts)
}

func TestGradesBelongToTheirPhase(t *testing.T) {
	db := openSeeded(t)
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)

	for phase, labels := range map[int][]string{3: {"1°", "2°"}, 4: {"3°", "4°"}, 5: {"5°", "6°"}} {
		p, ok := ref.Phase(phase)
		require.True(t, ok)
		for _, label := range labels {
			g, ok := ref.Grade(phase, label)
			require.True(t, ok, "%d %s", phase, label)
			assert.Equal(t, p.ID, g.PhaseID)
		}
	}
	_, ok := ref.Grade(3, "3°")
	assert.False(t, ok)
}

// openLegacy opens a database laid out by testdata/legacy_schema.sql.
func openLegacy(t *testing.T) *sqlx.DB {
	t.Helper()
	ddl, err := os.ReadFile(filepath.Join("testdata", "legacy_schema.sql"))
	require.NoError(t, err)
	db, err := Open(filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(string(ddl))
	require.NoError(t, err)
	return db
}

func TestApplySchemaUpgradesLegacyDescriptorTable(t *testing.T) {
	db := openLegacy(t)
	require.NoError(t, ApplySchema(db))
	require.NoError(t, SeedReferenceData(db))

	var texts []string
	require.NoError(t, db.Select(&texts, `SELECT descripcion FROM pdas`))
	assert.Equal(t, []string{"Mide otra vez"}, texts, "the newest duplicate is kept")

	var index int
	require.NoError(t, db.Get(&index, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'ux_pdas_key'`))
	assert.Equal(t, 1, index)

	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	phase3, _ := ref.Phase(3)
	g1, ok := ref.Grade(3, "1°")
	require.True(t, ok)
	assert.Equal(t, phase3.ID, g1.PhaseID)
	_, ok = ref.Grade(5, "1°")
	assert.False(t, ok, "grades stored against the wrong phase row are ignored")

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, UpsertDescriptorInTx(tx, 1, "Mide con reglas", 1, g1.ID))
	require.NoError(t, UpsertDescriptorInTx(tx, 1, "Mide con reglas graduadas", 1, g1.ID))
	var n int
	require.NoError(t, tx.Get(&n, `SELECT COUNT(*) FROM pdas WHERE grado_id = ?`, g1.ID))
	assert.Equal(t, 1, n)
}

func TestListPhasesAndFields(t *testing.T) {
	db := openSeeded(t)

	phases, err := ListPhases(db)
	require.NoError(t, err)
	require.Len(t, phases, 3)
	assert.Equal(t, "Fase 3", phases[0].Name)
	assert.Equal(t, "1° y 2°", phases[0].GradeRange)

	fields, err := ListFields(db)
	require.NoError(t, err)
	require.Len(t, fields, 4)
	assert.Equal(t, FieldSaberes, fields[0].Name)
}

func TestUpsertContentItemKeepsID(t *testing.T) {
	db := openSeeded(t)
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	phase, _ := ref.Phase(3)
	field, _ := ref.Field(FieldEtica)

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	id1, err := UpsertContentItemInTx(tx, 4, "Primero", phase.ID, field.ID)
	require.NoError(t, err)
	id2, err := UpsertContentItemInTx(tx, 4, "Segundo", phase.ID, field.ID)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	found, ok, err := FindContentItemIDInTx(tx, 4, phase.ID, field.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id1, found)

	_, ok, err = FindContentItemIDInTx(tx, 5, phase.ID, field.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDescriptorRequiresExistingContent(t *testing.T) {
	db := openSeeded(t)
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	g, _ := ref.Grade(3, "1°")

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	assert.Error(t, UpsertDescriptorInTx(tx, 1, "huérfano", 999, g.ID), "foreign keys are enforced")
}

func TestSummarizePhase(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)

	rows, err := SummarizePhase(db, 3)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, FieldSaberes, rows[0].FieldName)
	assert.Equal(t, 2, rows[0].ContentCount)
	assert.Equal(t, 4, rows[0].DescriptorCount)
	assert.Equal(t, 0, rows[1].ContentCount)

	_, err = SummarizePhase(db, 9)
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

func TestCountsByPhaseField(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)

	rows, err := CountsByPhaseField(db)
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, 3, rows[0].PhaseNumber)
	assert.Equal(t, 2, rows[0].ContentCount)
	// Phase 4, Lenguajes.
	assert.Equal(t, 4, rows[5].PhaseNumber)
	assert.Equal(t, FieldLenguajes, rows[5].FieldName)
	assert.Equal(t, 1, rows[5].ContentCount)
	assert.Equal(t, 1, rows[5].DescriptorCount)
}

func TestListContentItems(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	saberes, _ := ref.Field(FieldSaberes)

	items, err := ListContentItems(db, saberes.ID, 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Number)
	assert.Equal(t, "Medición de longitudes", items[1].Title)

	items, err = ListContentItems(db, saberes.ID, 5)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGetContentDetail(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)

	var id int64
	require.NoError(t, db.Get(&id, `SELECT id FROM contenidos WHERE titulo = 'Los números y el conteo'`))

	detail, err := GetContentDetail(db, id)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.PhaseNumber)
	assert.Equal(t, FieldSaberes, detail.FieldName)
	require.Len(t, detail.Grades, 2)
	assert.Equal(t, "1°", detail.Grades[0].Grade)
	require.Len(t, detail.Grades[0].Descriptors, 2)
	assert.Equal(t, "Cuenta hasta 10", detail.Grades[0].Descriptors[0].Description)
	assert.Equal(t, "2°", detail.Grades[1].Grade)

	_, err = GetContentDetail(db, 12345)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListDescriptors(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	saberes, _ := ref.Field(FieldSaberes)

	all, err := ListDescriptors(db, 3, saberes.ID, 0)
	require.NoError(t, err)
	got := make([]string, len(all))
	for i, d := range all {
		got[i] = fmt.Sprintf("%d/%s/%d", d.Content.Number, d.Grade, d.Number)
	}
	assert.Equal(t, []string{"1/1°/1", "1/1°/2", "1/2°/1", "2/2°/1"}, got)
	assert.Equal(t, FieldSaberes, all[0].FieldName)
	assert.Equal(t, "Cuenta hasta 10", all[0].Description)

	one, err := ListDescriptors(db, 3, saberes.ID, all[3].ContentItemID)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Medición de longitudes", one[0].Content.Title)

	none, err := ListDescriptors(db, 5, saberes.ID, 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = ListDescriptors(db, 9, saberes.ID, 0)
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

func TestGetContentItem(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)
	ref, err := LoadReferenceData(db)
	require.NoError(t, err)
	phase4, _ := ref.Phase(4)
	lenguajes, _ := ref.Field(FieldLenguajes)

	var id int64
	require.NoError(t, db.Get(&id, `SELECT id FROM contenidos WHERE titulo = 'Narraciones'`))
	item, err := GetContentItem(db, id)
	require.NoError(t, err)
	assert.Equal(t, model.ContentItem{ID: id, Number: 1, Title: "Narraciones", PhaseID: phase4.ID, FieldID: lenguajes.ID}, *item)

	_, err = GetContentItem(db, 4242)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSearch(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)

	result, err := Search(db, 3, "cuenta")
	require.NoError(t, err)
	assert.Empty(t, result.Contents)
	require.Len(t, result.Descriptors, 2)
	assert.Equal(t, "1°", result.Descriptors[0].Grade)

	result, err = Search(db, 3, "Medición")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	// Phase scoped: "Narraciones" lives in phase 4.
	result, err = Search(db, 3, "Narraciones")
	require.NoError(t, err)
	assert.Empty(t, result.Contents)

	result, err = Search(db, 3, "")
	require.NoError(t, err)
	assert.NotNil(t, result.Contents)
	assert.Empty(t, result.Descriptors)
}

func TestClearCurriculum(t *testing.T) {
	db := openSeeded(t)
	insertCurriculum(t, db)
	require.NoError(t, ClearCurriculum(db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM contenidos`))
	assert.Zero(t, n)
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM grados`))
	assert.Equal(t, 6, n)
}

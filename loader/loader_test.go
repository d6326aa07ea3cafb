package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPrepareTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sintetico.db")
	for i := 0; i < 2; i++ {
		db, err := Prepare(path)
		require.NoError(t, err)
		require.NoError(t, InitDatabase(db))

		var grades int
		require.NoError(t, db.Get(&grades, `SELECT COUNT(*) FROM grados`))
		assert.Equal(t, 6, grades)
		require.NoError(t, db.Close())
	}
}

func TestPrepareUnwritablePath(t *testing.T) {
	_, err := Prepare(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}

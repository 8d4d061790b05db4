package cfdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfdb.sqlite")
	db, err := Open(path, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTempDB(t)
	n, err := db.CountGames()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenReadOnlyMissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sqlite")
	_, err := Open(path, false)
	assert.Error(t, err)
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sqlite")
	db, err := Open(path, true)
	require.NoError(t, err)
	_, err = db.sql.Exec(`UPDATE metadata SET val = '0' WHERE name = 'schema_version'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path, true)
	require.Error(t, err)
	var mismatch *ErrSchemaMismatch
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "0", mismatch.Found)
}

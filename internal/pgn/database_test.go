package pgn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempPGN(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "games.pgn")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDatabaseOpenAndReadAt(t *testing.T) {
	dir := t.TempDir()
	pgnPath := writeTempPGN(t, dir, sampleGame+sampleGame)
	indexDir := filepath.Join(dir, "idx")

	db, err := Open(pgnPath, indexDir, nil)
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())

	g, err := db.ReadAt(1)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", g.Roster.White)
}

func TestDatabaseIndexReusedWhenFresh(t *testing.T) {
	dir := t.TempDir()
	pgnPath := writeTempPGN(t, dir, sampleGame)
	indexDir := filepath.Join(dir, "idx")

	db1, err := Open(pgnPath, indexDir, nil)
	require.NoError(t, err)
	require.Equal(t, 1, db1.Len())

	var calls int
	db2, err := Open(pgnPath, indexDir, func(int) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, db2.Len())
	assert.Zero(t, calls, "a fresh sidecar should be loaded, not rebuilt")
}

func TestDatabaseAppendGrowsIndex(t *testing.T) {
	dir := t.TempDir()
	pgnPath := writeTempPGN(t, dir, sampleGame)
	indexDir := filepath.Join(dir, "idx")

	db, err := Open(pgnPath, indexDir, nil)
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())

	g, err := db.ReadAt(0)
	require.NoError(t, err)

	require.NoError(t, db.Append(g))
	assert.Equal(t, 2, db.Len())

	g2, err := db.ReadAt(1)
	require.NoError(t, err)
	assert.Equal(t, g.Roster.White, g2.Roster.White)
}

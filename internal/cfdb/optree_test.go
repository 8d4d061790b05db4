package cfdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOpeningTreeInsertsOneRowPerPly(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)

	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)

	require.NoError(t, db.BuildOpeningTree(g, id, 10))

	var n int
	require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE game_id = ?`, id).Scan(&n))
	assert.Equal(t, 3, n)

	occ, err := db.OpeningOccurrences(g.Start.Hash)
	require.NoError(t, err)
	assert.Equal(t, 1, occ)
}

func TestBuildOpeningTreeRespectsDepthLimit(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)
	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)

	require.NoError(t, db.BuildOpeningTree(g, id, 2))

	var n int
	require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE game_id = ?`, id).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestBuildOpeningTreeIsIdempotent(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)
	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)

	require.NoError(t, db.BuildOpeningTree(g, id, 10))
	require.NoError(t, db.BuildOpeningTree(g, id, 10))

	var n int
	require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE game_id = ?`, id).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestDeleteOpeningTreeRange(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)
	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)
	require.NoError(t, db.BuildOpeningTree(g, id, 10))

	require.NoError(t, db.DeleteOpeningTreeRange(id, id))

	var n int
	require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE game_id = ?`, id).Scan(&n))
	assert.Zero(t, n)
}

func TestRebuildOpeningTreeRangeCoversEveryGame(t *testing.T) {
	db := openTempDB(t)
	g1 := sampleGameRecord(t)
	id1, err := db.WriteGame(g1, 0)
	require.NoError(t, err)
	g2 := sampleGameRecord(t)
	id2, err := db.WriteGame(g2, 0)
	require.NoError(t, err)

	lowID, highID := id1, id2
	if id2 < id1 {
		lowID, highID = id2, id1
	}

	require.NoError(t, db.RebuildOpeningTreeRange(context.Background(), lowID, highID, 10, 2))

	for _, id := range []int64{id1, id2} {
		var n int
		require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE game_id = ?`, id).Scan(&n))
		assert.Equal(t, 3, n)
	}
}

func TestRebuildOpeningTreeRangeClearsStaleRows(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)
	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)
	require.NoError(t, db.BuildOpeningTree(g, id, 10))

	_, err = db.sql.Exec(`INSERT INTO optree(pos, move, score, last_move, game_id) VALUES (?,?,?,?,?)`,
		int64(999), 0, 0, 1, id)
	require.NoError(t, err)

	require.NoError(t, db.RebuildOpeningTreeRange(context.Background(), id, id, 10, 0))

	var n int
	require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE game_id = ? AND pos = ?`, id, int64(999)).Scan(&n))
	assert.Zero(t, n)
}

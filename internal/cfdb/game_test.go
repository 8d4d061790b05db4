package cfdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/game"
)

func sampleGameRecord(t *testing.T) *game.Game {
	t.Helper()
	g := game.New()
	_, err := g.MakeMoveSAN("e4")
	require.NoError(t, err)
	_, err = g.MakeMoveSAN("e5")
	require.NoError(t, err)
	_, err = g.MakeMoveSAN("Nf3")
	require.NoError(t, err)
	g.Roster.White = "Carlsen, Magnus"
	g.Roster.Black = "Nepomniachtchi, Ian"
	g.Roster.Event = "World Championship"
	g.Roster.Site = "Dubai"
	g.Roster.ECO = "C20"
	g.Roster.WhiteElo = 2850
	g.Roster.BlackElo = 2790
	g.Roster.Result = game.WhiteWin
	g.Roster.Year = 2021
	g.Roster.Month = 12
	g.Roster.Day = 3
	return g
}

func TestWriteAndReadGameRoundTrip(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)

	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)
	assert.NotZero(t, id)

	back, err := db.ReadGame(id)
	require.NoError(t, err)
	assert.Equal(t, "Carlsen, Magnus", back.Roster.White)
	assert.Equal(t, "Nepomniachtchi, Ian", back.Roster.Black)
	assert.Equal(t, "World Championship", back.Roster.Event)
	assert.Equal(t, "C20", back.Roster.ECO)
	assert.Equal(t, 2850, back.Roster.WhiteElo)
	assert.Equal(t, game.WhiteWin, back.Roster.Result)
	assert.Equal(t, 2021, back.Roster.Year)
	assert.Equal(t, 3, mainlineLength(back.Tree))
}

func TestWriteGameUpdateExisting(t *testing.T) {
	db := openTempDB(t)
	g := sampleGameRecord(t)

	id, err := db.WriteGame(g, 0)
	require.NoError(t, err)

	g.Roster.White = "Ding, Liren"
	_, err = db.WriteGame(g, id)
	require.NoError(t, err)

	back, err := db.ReadGame(id)
	require.NoError(t, err)
	assert.Equal(t, "Ding, Liren", back.Roster.White)

	n, err := db.CountGames()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSplitAndJoinPlayerName(t *testing.T) {
	last, first := splitPlayerName("Carlsen, Magnus")
	assert.Equal(t, "Carlsen", last)
	assert.Equal(t, "Magnus", first)
	assert.Equal(t, "Carlsen, Magnus", joinPlayerName(last, first))

	last, first = splitPlayerName("Deep Blue")
	assert.Equal(t, "Deep Blue", last)
	assert.Equal(t, "", first)
	assert.Equal(t, "Deep Blue", joinPlayerName(last, first))
}

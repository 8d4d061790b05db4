package pgn

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/game"
)

const sampleGame = `[Event "Test Open"]
[Site "?"]
[Date "2024.01.01"]
[Round "1"]
[White "Alpha"]
[Black "Beta"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 1-0

`

func TestReadGameHeadersAndMoves(t *testing.T) {
	rd := NewReader(strings.NewReader(sampleGame))
	g, err := rd.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", g.Roster.White)
	assert.Equal(t, "Beta", g.Roster.Black)
	assert.Equal(t, 2024, g.Roster.Year)
	assert.Equal(t, game.WhiteWin, g.Roster.Result)

	_, err = rd.ReadGame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadGameWithVariationAndComment(t *testing.T) {
	pgnText := `[Event "?"]
[Site "?"]
[Date "????.??.??"]
[Round "?"]
[White "?"]
[Black "?"]
[Result "*"]

1. e4 {main line} e5 (1... c5 2. Nf3) 2. Nf3 *

`
	rd := NewReader(strings.NewReader(pgnText))
	g, err := rd.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, game.Unfinished, g.Roster.Result)
}

func TestWriteGameRoundTrip(t *testing.T) {
	rd := NewReader(strings.NewReader(sampleGame))
	g, err := rd.ReadGame()
	require.NoError(t, err)

	var buf bytes.Buffer
	wr := NewWriter(&buf)
	require.NoError(t, wr.WriteGame(g))

	rd2 := NewReader(&buf)
	g2, err := rd2.ReadGame()
	require.NoError(t, err)

	assert.Equal(t, g.Roster.White, g2.Roster.White)
	assert.Equal(t, g.Roster.Black, g2.Roster.Black)
	assert.Equal(t, g.Roster.Result, g2.Roster.Result)
}

func TestReadMultipleGamesSequentially(t *testing.T) {
	both := sampleGame + sampleGame
	rd := NewReader(strings.NewReader(both))

	g1, err := rd.ReadGame()
	require.NoError(t, err)
	g2, err := rd.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, g1.Roster.White, g2.Roster.White)

	_, err = rd.ReadGame()
	assert.ErrorIs(t, err, io.EOF)
}

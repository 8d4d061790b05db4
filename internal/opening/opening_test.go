package opening

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/game"
	"github.com/chesscore/chesscore/internal/position"
)

func TestClassifyMatchesDeepestLine(t *testing.T) {
	start := position.NewPosition()
	e4, err := position.ParseCoordMove("e2e4", start)
	require.NoError(t, err)

	tree := New()
	tree.Add(start.Hash, Entry{Move: e4, ECO: "C20", Opening: "King's Pawn Game"})

	afterE4 := *start
	_, ok := afterE4.MakeMove(e4)
	require.True(t, ok)
	e5, err := position.ParseCoordMove("e7e5", &afterE4)
	require.NoError(t, err)
	tree.Add(afterE4.Hash, Entry{Move: e5, LastMove: true, ECO: "C20", Opening: "King's Pawn Game", Variation: "Open Game"})

	g := game.New()
	_, err = g.MakeMoveSAN("e4")
	require.NoError(t, err)
	_, err = g.MakeMoveSAN("e5")
	require.NoError(t, err)

	eco, op, variation, matched := tree.Classify(g)
	assert.True(t, matched)
	assert.Equal(t, "C20", eco)
	assert.Equal(t, "King's Pawn Game", op)
	assert.Equal(t, "Open Game", variation)
}

func TestClassifyNoMatch(t *testing.T) {
	tree := New()
	g := game.New()
	_, err := g.MakeMoveSAN("e4")
	require.NoError(t, err)

	_, _, _, matched := tree.Classify(g)
	assert.False(t, matched)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	start := position.NewPosition()
	e4, err := position.ParseCoordMove("e2e4", start)
	require.NoError(t, err)

	tree := New()
	tree.Add(start.Hash, Entry{Move: e4, LastMove: true, ECO: "C20", Opening: "King's Pawn Game", Variation: ""})

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, tree))

	reloaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, tree.Size(), reloaded.Size())

	entry, ok := reloaded.bestEntryFor(start.Hash, e4)
	require.True(t, ok)
	assert.Equal(t, "C20", entry.ECO)
	assert.True(t, entry.LastMove)
}

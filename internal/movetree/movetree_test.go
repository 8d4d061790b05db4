package movetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/position"
)

func mustMove(t *testing.T, coord string, pos *position.Position) position.Move {
	t.Helper()
	m, err := position.ParseCoordMove(coord, pos)
	require.NoError(t, err)
	return m
}

func TestAddNextBuildsMainline(t *testing.T) {
	start := position.NewPosition()
	e4 := mustMove(t, "e2e4", start)
	afterE4 := *start
	_, ok := afterE4.MakeMove(e4)
	require.True(t, ok)
	e5 := mustMove(t, "e7e5", &afterE4)
	afterE5 := afterE4
	afterE5.MakeMove(e5)

	tree := New()
	id1 := tree.AddNext(NoNode, e4, afterE4.Hash, start)
	id2 := tree.AddNext(id1, e5, afterE5.Hash, nil)

	assert.Equal(t, id1, tree.Root)
	n1 := tree.Node(id1)
	require.NotNil(t, n1)
	assert.True(t, n1.IsMainline())
	assert.Equal(t, id2, n1.Next)
	assert.NotNil(t, n1.PriorPosition)

	n2 := tree.Node(id2)
	require.NotNil(t, n2)
	assert.Equal(t, id1, n2.Prev)
}

func TestAddVariationAndPromote(t *testing.T) {
	start := position.NewPosition()
	e4 := mustMove(t, "e2e4", start)
	d4 := mustMove(t, "d2d4", start)
	afterE4 := *start
	afterE4.MakeMove(e4)
	afterD4 := *start
	afterD4.MakeMove(d4)

	tree := New()
	mainID := tree.AddNext(NoNode, e4, afterE4.Hash, start)
	varID := tree.AddVariation(mainID, d4, afterD4.Hash, start, false)

	main := tree.Node(mainID)
	assert.Equal(t, varID, main.Variation)
	v := tree.Node(varID)
	assert.True(t, v.IsVariationStart())

	require.NoError(t, tree.Promote(varID))
	assert.Equal(t, varID, tree.Root)

	promoted := tree.Node(varID)
	assert.True(t, promoted.IsMainline())
	assert.Equal(t, mainID, promoted.Next)

	demoted := tree.Node(mainID)
	assert.True(t, demoted.IsVariationStart())
}

func TestRemoveAndRestore(t *testing.T) {
	start := position.NewPosition()
	e4 := mustMove(t, "e2e4", start)
	afterE4 := *start
	afterE4.MakeMove(e4)
	e5 := mustMove(t, "e7e5", &afterE4)
	afterE5 := afterE4
	afterE5.MakeMove(e5)

	tree := New()
	id1 := tree.AddNext(NoNode, e4, afterE4.Hash, start)
	id2 := tree.AddNext(id1, e5, afterE5.Hash, nil)

	tree.Remove(id2, false)
	assert.Nil(t, tree.Node(id2))
	assert.Equal(t, NoNode, tree.Node(id1).Next)

	displaced := tree.Restore(id2)
	assert.Equal(t, NoNode, displaced)
	assert.NotNil(t, tree.Node(id2))
	assert.Equal(t, id2, tree.Node(id1).Next)
}

func TestDeepCopyIsIndependent(t *testing.T) {
	start := position.NewPosition()
	e4 := mustMove(t, "e2e4", start)
	afterE4 := *start
	afterE4.MakeMove(e4)

	tree := New()
	id1 := tree.AddNext(NoNode, e4, afterE4.Hash, start)
	tree.Node(id1).PreComment = "original"

	clone := tree.DeepCopy(id1)
	clone.Node(clone.Root).PreComment = "changed"

	assert.Equal(t, "original", tree.Node(id1).PreComment)
	assert.Equal(t, "changed", clone.Node(clone.Root).PreComment)
}

func TestCountAggregatesMovesAndVariations(t *testing.T) {
	start := position.NewPosition()
	e4 := mustMove(t, "e2e4", start)
	d4 := mustMove(t, "d2d4", start)
	afterE4 := *start
	afterE4.MakeMove(e4)
	afterD4 := *start
	afterD4.MakeMove(d4)

	tree := New()
	mainID := tree.AddNext(NoNode, e4, afterE4.Hash, start)
	tree.AddVariation(mainID, d4, afterD4.Hash, start, false)
	tree.Node(mainID).NAGCount = 1
	tree.Node(mainID).NAGs[0] = 1

	c := tree.Count(tree.Root)
	assert.Equal(t, 2, c.Moves)
	assert.Equal(t, 1, c.Variations)
	assert.Equal(t, 1, c.NAGs)
}

func TestRepeatedPositionCount(t *testing.T) {
	start := position.NewPosition()
	e4 := mustMove(t, "e2e4", start)
	afterE4 := *start
	afterE4.MakeMove(e4)

	const repeatedHash = 0xabc123
	tree := New()
	id1 := tree.AddNext(NoNode, e4, repeatedHash, start)
	id2 := tree.AddNext(id1, e4, repeatedHash, nil)

	assert.Equal(t, 2, tree.RepeatedPositionCount(id2, repeatedHash, true))
	assert.Equal(t, 1, tree.RepeatedPositionCount(id2, repeatedHash, false))
}

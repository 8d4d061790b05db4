package movecodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/game"
	"github.com/chesscore/chesscore/internal/pgn"
	"github.com/chesscore/chesscore/internal/position"
)

func TestEncodeDecodeMainlineRoundTrip(t *testing.T) {
	g := game.New()
	_, err := g.MakeMoveSAN("e4")
	require.NoError(t, err)
	_, err = g.MakeMoveSAN("e5")
	require.NoError(t, err)
	_, err = g.MakeMoveSAN("Nf3")
	require.NoError(t, err)

	moves, annotations, err := Encode(g.Tree, g.Tree.Root, g.Start)
	require.NoError(t, err)

	start := *g.Start
	out := game.FromPosition(&start)
	var replayed []position.Move
	err = Decode(moves, annotations, &start, out, func(m position.Move, pre, post string, nags []uint8) error {
		replayed = append(replayed, m)
		_, err := out.MakeMove(m)
		return err
	})
	require.NoError(t, err)
	require.Len(t, replayed, 3)
	assert.Equal(t, "e2e4", replayed[0].String())
	assert.Equal(t, "e7e5", replayed[1].String())
	assert.Equal(t, "g1f3", replayed[2].String())
}

func TestEncodeDecodePreservesAnnotations(t *testing.T) {
	g := game.New()
	id, err := g.MakeMoveSAN("e4")
	require.NoError(t, err)
	node := g.Tree.Node(id)
	node.PreComment = "main try"
	node.PostComment = "solid"
	node.NAGCount = 2
	node.NAGs[0] = 1
	node.NAGs[1] = 10

	moves, annotations, err := Encode(g.Tree, g.Tree.Root, g.Start)
	require.NoError(t, err)

	start := *g.Start
	out := game.FromPosition(&start)
	var gotPre, gotPost string
	var gotNAGs []uint8
	err = Decode(moves, annotations, &start, out, func(m position.Move, pre, post string, nags []uint8) error {
		gotPre, gotPost, gotNAGs = pre, post, nags
		_, err := out.MakeMove(m)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "main try", gotPre)
	assert.Equal(t, "solid", gotPost)
	assert.Equal(t, []uint8{1, 10}, gotNAGs)
}

func TestEncodeDecodeVariationRoundTrip(t *testing.T) {
	rd := pgn.NewReader(strings.NewReader(
		"[Event \"?\"]\n[Site \"?\"]\n[Date \"????.??.??\"]\n[Round \"?\"]\n[White \"?\"]\n[Black \"?\"]\n[Result \"*\"]\n\n1. e4 e5 (1... c5 2. Nf3) 2. Nf3 *\n\n"))
	g, err := rd.ReadGame()
	require.NoError(t, err)

	moves, annotations, err := Encode(g.Tree, g.Tree.Root, g.Start)
	require.NoError(t, err)

	replayStart := *g.Start
	out := game.FromPosition(&replayStart)
	var seen []string
	err = Decode(moves, annotations, &replayStart, out, func(m position.Move, pre, post string, nags []uint8) error {
		seen = append(seen, m.String())
		_, err := out.MakeMove(m)
		return err
	})
	require.NoError(t, err)
	assert.Contains(t, seen, "e7e5")
	assert.Contains(t, seen, "c7c5")
}

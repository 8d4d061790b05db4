package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/position"
)

func TestBuildPositionStartpos(t *testing.T) {
	assert.Equal(t, "position startpos", buildPosition(PositionSpec{}))
}

func TestBuildPositionFENWithMoves(t *testing.T) {
	pos := position.NewPosition()
	e4, err := position.ParseCoordMove("e2e4", pos)
	require.NoError(t, err)

	spec := PositionSpec{FEN: position.StartFEN, Moves: []position.Move{e4}}
	assert.Equal(t, "position fen "+position.StartFEN+" moves e2e4", buildPosition(spec))
}

func TestBuildGoModePriority(t *testing.T) {
	assert.Equal(t, "go infinite", buildGo(GoLimits{Mode: GoInfinite, Depth: 5}))
	assert.Equal(t, "go depth 12", buildGo(GoLimits{Mode: GoDepth, Depth: 12}))
	assert.Equal(t, "go movetime 500", buildGo(GoLimits{Mode: GoMoveTime, MoveTime: 500 * time.Millisecond}))

	clock := buildGo(GoLimits{Mode: GoClock, WTime: 60000 * time.Millisecond, BTime: 59000 * time.Millisecond, MovesToGo: 20})
	assert.Equal(t, "go wtime 60000 btime 59000 movestogo 20", clock)
}

func TestBuildSetOption(t *testing.T) {
	assert.Equal(t, "setoption name Hash value 128", buildSetOption("Hash", "128"))
	assert.Equal(t, "setoption name Clear Hash", buildSetOption("Clear Hash", ""))
}

func TestParseOptionSpin(t *testing.T) {
	opt := parseOption([]string{"name", "Hash", "type", "spin", "default", "64", "min", "1", "max", "4096"})
	assert.Equal(t, "Hash", opt.Name)
	assert.Equal(t, OptionSpin, opt.Kind)
	assert.Equal(t, "64", opt.Default)
	assert.Equal(t, 1, opt.Min)
	assert.Equal(t, 4096, opt.Max)
}

func TestParseOptionCombo(t *testing.T) {
	opt := parseOption([]string{"name", "Style", "type", "combo", "default", "Normal", "var", "Solid", "var", "Normal", "var", "Risky"})
	assert.Equal(t, "Style", opt.Name)
	assert.Equal(t, OptionCombo, opt.Kind)
	assert.Equal(t, []string{"Solid", "Normal", "Risky"}, opt.Vars)
}

func TestParseInfoScoreAndPV(t *testing.T) {
	w := &Worker{lastPosition: PositionSpec{}}
	info := w.parseInfo([]string{"depth", "12", "score", "cp", "34", "nodes", "123456", "time", "1000", "pv", "e2e4", "e7e5"})
	assert.Equal(t, 12, info.Depth)
	assert.Equal(t, 34, info.Score.CP)
	assert.False(t, info.Score.IsMate)
	assert.EqualValues(t, 123456, info.Nodes)
	assert.Equal(t, time.Second, info.Time)
	require.Len(t, info.PV, 2)
	assert.Equal(t, "e2e4", info.PV[0].String())
	assert.Equal(t, "e7e5", info.PV[1].String())
}

func TestParseInfoMateScore(t *testing.T) {
	w := &Worker{}
	info := w.parseInfo([]string{"depth", "3", "score", "mate", "2"})
	assert.True(t, info.Score.IsMate)
	assert.Equal(t, 2, info.Score.Mate)
}

func TestParseInfoTruncatesOnIllegalPVMove(t *testing.T) {
	w := &Worker{lastPosition: PositionSpec{}}
	info := w.parseInfo([]string{"pv", "e2e4", "z9z9"})
	require.Len(t, info.PV, 1)
	assert.Equal(t, "e2e4", info.PV[0].String())
}

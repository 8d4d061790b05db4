package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/position"
)

func TestBookLoadAndProbe(t *testing.T) {
	pos := position.NewPosition()
	key := pos.Hash

	// e2e4: from=e2 (file 4, rank 1), to=e4 (file 4, rank 3).
	e2e4Encoded := uint16(4 | (3 << 3) | (4 << 6) | (1 << 9))

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, key))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, e2e4Encoded))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint16(100)))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(0)))

	b, err := LoadPolyglotReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Size())

	move, found := b.Probe(pos)
	require.True(t, found)
	assert.Equal(t, position.E2, move.From)
	assert.Equal(t, position.E4, move.To)
}

func TestBookMiss(t *testing.T) {
	b := New()
	pos := position.NewPosition()

	_, found := b.Probe(pos)
	assert.False(t, found)
}

func TestBookSaveRoundTrip(t *testing.T) {
	pos := position.NewPosition()
	e4, err := position.ParseCoordMove("e2e4", pos)
	require.NoError(t, err)

	b := New()
	b.Add(pos.Hash, BookEntry{Move: e4, Weight: 50})

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, b))

	reloaded, err := LoadPolyglotReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Size())

	move, found := reloaded.Probe(pos)
	require.True(t, found)
	assert.Equal(t, position.E2, move.From)
	assert.Equal(t, position.E4, move.To)
}

func TestDecodePolyglotMoveCastling(t *testing.T) {
	// Polyglot encodes white kingside castling as e1h1 (king captures rook).
	data := uint16(7 | (0 << 3) | (4 << 6) | (0 << 9))
	m, ok := decodePolyglotMove(data)
	require.True(t, ok)
	assert.Equal(t, position.E1, m.From)
	assert.Equal(t, position.G1, m.To)
}

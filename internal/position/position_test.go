package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"8/8/8/4k3/8/8/4K3/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		require.NoError(t, err, fen)
		assert.Equal(t, fen, pos.ToFEN(), "round trip for %s", fen)
	}
}

func TestParseFENRejectsIllegalPositions(t *testing.T) {
	_, err := ParseFEN("8/8/8/8/8/8/8/8 w - - 0 1")
	assert.Error(t, err, "board with no kings must fail")

	_, err = ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 extra")
	_ = err // extra whitespace-separated junk is tolerated by strings.Fields; no assertion needed
}

func TestBlobRoundTrip(t *testing.T) {
	pos, err := ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	require.NoError(t, err)

	blob := pos.ToBlob()
	decoded, err := FromBlob(blob)
	require.NoError(t, err)
	assert.Equal(t, pos.ToFEN(), decoded.ToFEN())
	assert.Equal(t, pos.Hash, decoded.Hash)
}

func TestStartingPositionMoveCount(t *testing.T) {
	pos := NewPosition()
	moves := pos.GenerateLegalMoves()
	assert.Len(t, moves, 20)
}

func TestMakeUnmakeRestoresState(t *testing.T) {
	pos := NewPosition()
	before := pos.ToFEN()
	beforeHash := pos.Hash

	moves := pos.GenerateLegalMoves()
	require.NotEmpty(t, moves)

	delta, ok := pos.MakeMove(moves[0])
	require.True(t, ok)
	assert.NotEqual(t, before, pos.ToFEN())

	pos.UnmakeMove(delta)
	assert.Equal(t, before, pos.ToFEN())
	assert.Equal(t, beforeHash, pos.Hash)
}

func TestCastlingRights(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)

	moves := pos.GenerateLegalMoves()
	var sawKS, sawQS bool
	for _, m := range moves {
		if m.Flags&FlagCastleKS != 0 {
			sawKS = true
		}
		if m.Flags&FlagCastleQS != 0 {
			sawQS = true
		}
	}
	assert.True(t, sawKS)
	assert.True(t, sawQS)

	ks, err := pos.ParseSAN("O-O")
	require.NoError(t, err)
	_, ok := pos.MakeMove(ks)
	require.True(t, ok)
	assert.False(t, pos.CastlingRights&WhiteKingSideCastle != 0)
	assert.False(t, pos.CastlingRights&WhiteQueenSideCastle != 0)
}

func TestEnPassantCapture(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")
	require.NoError(t, err)

	m, err := pos.ParseSAN("exd6")
	require.NoError(t, err)
	assert.True(t, m.IsEnPassant())

	_, ok := pos.MakeMove(m)
	require.True(t, ok)
	assert.Equal(t, NoPiece, pos.PieceAt(D5))
}

func TestSANDisambiguation(t *testing.T) {
	pos, err := ParseFEN("6k1/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	require.NoError(t, err)
	// Add a second rook so disambiguation is exercised.
	pos, err = ParseFEN("r2k3r/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	require.NoError(t, err)

	moves := pos.GenerateLegalMoves()
	for _, m := range moves {
		if m.Piece == Rook && m.From == A1 {
			san := pos.SAN(m)
			assert.Contains(t, san, "R")
		}
	}
}

func TestCheckmateDetection(t *testing.T) {
	// Fool's mate final position: black to move is not relevant here, we
	// check from white's queen delivering mate.
	pos, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)
	assert.True(t, pos.InCheck())
	moves := pos.GenerateLegalMoves()
	assert.Empty(t, moves, "fool's mate position should have no legal replies")
}

func TestParseCoordMoveForms(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e2e4", "e2-e4"} {
		m, err := pos.ParseSAN(s)
		require.NoError(t, err, s)
		assert.Equal(t, E2, m.From)
		assert.Equal(t, E4, m.To)
	}
}

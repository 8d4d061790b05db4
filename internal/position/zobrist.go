package position

import "math/rand"

// Zobrist key tables, filled once at init time from a seeded, reproducible
// generator so that two processes hash the same position identically.
var (
	zobristPiece      [12][64]uint64 // [Piece][Square], NoPiece never indexed
	zobristEnPassant  [8]uint64      // one key per file
	zobristCastling   [16]uint64     // one key per CastlingRights bitmask
	zobristSideToMove uint64
)

// zobristSeed is fixed so every process derives the same key table; the
// seed's value has no meaning beyond being a source of 64-bit noise.
const zobristSeed = 0x98F107A2BEEF1234

func init() {
	seed := uint64(zobristSeed)
	src := rand.New(rand.NewSource(int64(seed)))
	next := func() uint64 { return src.Uint64() }

	for pc := WhitePawn; pc < NoPiece; pc++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[pc][sq] = next()
		}
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = next()
	}
	for mask := range zobristCastling {
		zobristCastling[mask] = next()
	}
	zobristSideToMove = next()
}

// ZobristPiece returns the key for placing the piece of type pt and color c
// on square sq.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[NewPiece(pt, c)][sq]
}

// ZobristEnPassant returns the key for an en passant target on the given
// file.
func ZobristEnPassant(file int) uint64 { return zobristEnPassant[file] }

// ZobristCastling returns the key for a full castling-rights bitmask.
func ZobristCastling(cr CastlingRights) uint64 { return zobristCastling[cr] }

// ZobristSideToMove returns the key XORed in whenever it is Black to move.
func ZobristSideToMove() uint64 { return zobristSideToMove }

// Package position implements chess position representation: bitboards,
// mailbox, magic-bitboard move generation, Zobrist hashing, and the FEN/SAN/
// blob encodings of spec section 4.1.
package position

import "fmt"

// Square identifies one of the 64 board squares using Little-Endian
// Rank-File Mapping: A1 is square 0, H1 is 7, A8 is 56, H8 is 63 — so
// file = sq % 8 and rank = sq / 8.
type Square uint8

// NoSquare is the sentinel for "no square" (an empty en passant field, a
// captured piece's location, etc).
const NoSquare Square = 64

// Square constants, one rank at a time from White's first rank to Black's.
const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

// NewSquare builds a Square from a 0-indexed file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank<<3 | file)
}

// File returns the column, 0 (a-file) through 7 (h-file).
func (sq Square) File() int { return int(sq) & 7 }

// Rank returns the row, 0 (rank 1) through 7 (rank 8).
func (sq Square) Rank() int { return int(sq) >> 3 }

// IsValid reports whether sq names one of the 64 real board squares.
func (sq Square) IsValid() bool { return sq < NoSquare }

// String renders algebraic notation ("e4"), or "-" for NoSquare.
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare parses algebraic notation ("e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("position: malformed square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("position: malformed square %q", s)
	}
	return NewSquare(file, rank), nil
}

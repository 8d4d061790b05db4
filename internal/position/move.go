package position

import "fmt"

// MoveFlags records the derived properties of a move: how it is special
// (castle, en passant, promotion) and what it did to the position it was
// played in (capture, check, mate, draw). Only From/To/Piece/Promotion are
// required to replay a move; the rest is status attached after generation
// or after make_move, mirroring AnnotMove's "last_move" flags in the
// original C++ source.
type MoveFlags uint16

const (
	FlagCastleKS MoveFlags = 1 << iota
	FlagCastleQS
	FlagEPMove    // two-square pawn push that makes en passant available
	FlagEPCapture // en passant capture
	FlagPromotion
	FlagCapture
	FlagCheck
	FlagDoubleCheck
	FlagMate
	FlagDraw
	FlagIllegal
	FlagCanMove
)

// Move is the packed representation of spec section 3: from, to, moving
// piece type, promotion piece type, and a flag set. From/To/Piece/Promotion
// pack into the low 18 bits of Pack(); Flags occupies the remaining bits.
// FlagIllegal and FlagCanMove are transient annotations (set by callers
// inspecting a generated move) and are not persisted by Pack/Unpack.
type Move struct {
	From      Square
	To        Square
	Piece     PieceType
	Promotion PieceType
	Flags     MoveFlags
}

// NullMove is the distinguished zero-value move used for the null-move path
// in make_move/unmake_move and as the sentinel "no move" value.
var NullMove = Move{From: A1, To: A1, Piece: NoPieceType, Promotion: NoPieceType}

// IsNull reports whether m is the null move.
func (m Move) IsNull() bool {
	return m.Piece == NoPieceType && m.From == A1 && m.To == A1
}

const packableFlags = FlagCastleKS | FlagCastleQS | FlagEPMove | FlagEPCapture |
	FlagPromotion | FlagCapture | FlagCheck | FlagDoubleCheck | FlagMate | FlagDraw

// Pack encodes the move into a 32-bit value: from(6) | to(6) | piece(3) |
// promotion(3) | flags(10), low bit first. Used by anything persisting a
// move outside the canonical generated-move-index encoding, such as the
// opening package's reference-tree records.
func (m Move) Pack() uint32 {
	v := uint32(m.From) | uint32(m.To)<<6 | uint32(m.Piece)<<12 | uint32(m.Promotion)<<15
	v |= uint32(m.Flags&packableFlags) << 18
	return v
}

// UnpackMove decodes a value produced by Pack.
func UnpackMove(v uint32) Move {
	return Move{
		From:      Square(v & 0x3F),
		To:        Square((v >> 6) & 0x3F),
		Piece:     PieceType((v >> 12) & 0x7),
		Promotion: PieceType((v >> 15) & 0x7),
		Flags:     MoveFlags(v>>18) & packableFlags,
	}
}

// IsCastle reports whether the move is either castling move.
func (m Move) IsCastle() bool { return m.Flags&(FlagCastleKS|FlagCastleQS) != 0 }

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool { return m.Flags&FlagEPCapture != 0 }

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool { return m.Flags&FlagPromotion != 0 }

// IsCapture reports whether the move captures a piece (including en passant).
func (m Move) IsCapture() bool { return m.Flags&FlagCapture != 0 }

// String renders the move in pure coordinate form (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string("  nbrq"[m.Promotion])
	}
	return s
}

// ParseCoordMove parses pure coordinate notation ("e2e4", "e7e8q") against a
// position, filling in Piece/flags by consulting the board. It does not
// validate legality; callers match the result against generated moves.
func ParseCoordMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return Move{}, fmt.Errorf("invalid coordinate move: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return Move{}, fmt.Errorf("no piece on %s", from)
	}
	m := Move{From: from, To: to, Piece: piece.Type(), Promotion: NoPieceType}

	if len(s) == 5 {
		switch s[4] {
		case 'q':
			m.Promotion = Queen
		case 'r':
			m.Promotion = Rook
		case 'b':
			m.Promotion = Bishop
		case 'n':
			m.Promotion = Knight
		default:
			return Move{}, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		m.Flags |= FlagPromotion
	}

	if m.Piece == King && abs(int(to)-int(from)) == 2 {
		if to > from {
			m.Flags |= FlagCastleKS
		} else {
			m.Flags |= FlagCastleQS
		}
	}
	if m.Piece == Pawn && to == pos.EnPassant && pos.EnPassant != NoSquare {
		m.Flags |= FlagEPCapture
	}
	if m.Piece == Pawn && abs(int(to)-int(from)) == 16 {
		m.Flags |= FlagEPMove
	}
	if !pos.IsEmpty(to) && !m.IsCastle() {
		m.Flags |= FlagCapture
	}
	if m.IsEnPassant() {
		m.Flags |= FlagCapture
	}
	return m, nil
}

// MoveList is a fixed-capacity slice of moves sized for the legal-move
// upper bound, avoiding per-generation allocation in the common path.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves held.
func (ml *MoveList) Len() int { return ml.count }

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

// Slice returns the moves as a slice backed by the list's storage.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// IndexOf returns the position of m in generation order, or -1. Used by the
// move/annotation bitstream codec, which encodes moves by their index into
// this canonical generated order.
func (ml *MoveList) IndexOf(m Move) int {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return i
		}
	}
	return -1
}

package position

import "fmt"

// CastlingRights is a 4-bit set of the remaining castling rights, indexed
// directly as a zobristCastling table key.
type CastlingRights uint8

const (
	WhiteKingSideCastle CastlingRights = 1 << iota
	WhiteQueenSideCastle
	BlackKingSideCastle
	BlackQueenSideCastle
	NoCastling CastlingRights = 0
)

// String renders castling rights in FEN order (KQkq), "-" if none remain.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// castlingPathMask/castlingSafeMask index by a rights bit's position (0..3)
// and hold the squares that must be empty, and must not be attacked,
// for that specific castle to be legal.
var castlingPathMask = [4]Bitboard{
	SquareBB(F1) | SquareBB(G1),             // white king side
	SquareBB(B1) | SquareBB(C1) | SquareBB(D1), // white queen side
	SquareBB(F8) | SquareBB(G8),             // black king side
	SquareBB(B8) | SquareBB(C8) | SquareBB(D8), // black queen side
}

var castlingSafeMask = [4]Bitboard{
	SquareBB(E1) | SquareBB(F1) | SquareBB(G1),
	SquareBB(C1) | SquareBB(D1) | SquareBB(E1),
	SquareBB(E8) | SquareBB(F8) | SquareBB(G8),
	SquareBB(C8) | SquareBB(D8) | SquareBB(E8),
}

var castlingKingTo = [4]Square{G1, C1, G8, C8}
var castlingRookFromTo = [4][2]Square{{H1, F1}, {A1, D1}, {H8, F8}, {A8, D8}}

// Position is the full chess position: piece bitboards, mailbox, the move
// counters and rights that round-trip through FEN, and the derived Zobrist
// hash and pawn hash used by callers that cache by position identity.
type Position struct {
	Pieces      [2][6]Bitboard // [Color][PieceType]
	Occupied    [2]Bitboard    // [Color]
	AllOccupied Bitboard
	Board       [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
	Ply            int

	KingSquare [2]Square
	Checkers   Bitboard

	Hash    uint64
	PawnKey uint64

	LastMove Move

	lastError string
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic("position: start FEN failed to parse: " + err.Error())
	}
	return pos
}

// LastError returns the reason recorded by the most recent failed Validate
// call on the position, or "" if none has failed. A later successful
// operation does not clear it.
func (p *Position) LastError() string { return p.lastError }

func (p *Position) setLastError(format string, args ...any) {
	p.lastError = fmt.Sprintf(format, args...)
}

// PieceAt returns the piece on a square, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return p.Board[sq]
}

// IsEmpty reports whether a square holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.PieceAt(sq) == NoPiece
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// LastMoveNoisy reports whether the last move played was a capture, castle,
// or promotion. Used to exclude noisy positions from repetition bookkeeping.
func (p *Position) LastMoveNoisy() bool {
	return p.LastMove.IsCapture() || p.LastMove.IsCastle() || p.LastMove.IsPromotion()
}

// Dump renders the board as an ASCII diagram distinct from FEN, for
// diagnostics.
func (p *Position) Dump() string {
	s := ""
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "  a b c d e f g h\n"
	s += fmt.Sprintf("side=%s castle=%s ep=%s half=%d full=%d\n",
		p.SideToMove, p.CastlingRights, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return s
}

func (p *Position) setPiece(piece Piece, sq Square) {
	p.Board[sq] = piece
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
}

func (p *Position) clearPiece(piece Piece, sq Square) {
	p.Board[sq] = NoPiece
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
}

func (p *Position) updateOccupied() {
	p.Occupied[White] = 0
	p.Occupied[Black] = 0
	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
	p.UpdateCheckers()
}

// UnmakeDelta is the information make_move squirrels away so unmake_move can
// restore the position exactly: everything that isn't recoverable from the
// move itself.
type UnmakeDelta struct {
	Move           Move
	Captured       Piece
	CapturedSquare Square
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	LastMove       Move
}

// castleIndex maps a castling move to its castlingPathMask index.
func castleIndex(m Move) int {
	switch {
	case m.Flags&FlagCastleKS != 0 && m.From == E1:
		return 0
	case m.Flags&FlagCastleQS != 0 && m.From == E1:
		return 1
	case m.Flags&FlagCastleKS != 0 && m.From == E8:
		return 2
	default:
		return 3
	}
}

// MakeMove applies a pseudo-legal move to the position. It returns false
// (and restores the position) if the move leaves the mover's own king in
// check, implementing the spec's "illegal moves are rejected, not merely
// flagged" rule. On success, delta can be passed to UnmakeMove to undo it.
func (p *Position) MakeMove(m Move) (UnmakeDelta, bool) {
	delta := UnmakeDelta{
		Move:           m,
		Captured:       NoPiece,
		CapturedSquare: NoSquare,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
		KingSquare:     p.KingSquare,
		LastMove:       p.LastMove,
	}

	us := p.SideToMove
	them := us.Other()
	moving := NewPiece(m.Piece, us)

	p.clearPiece(moving, m.From)

	captureSq := m.To
	if m.IsEnPassant() {
		if us == White {
			captureSq = m.To - 8
		} else {
			captureSq = m.To + 8
		}
	}
	if m.IsCapture() {
		delta.Captured = p.PieceAt(captureSq)
		delta.CapturedSquare = captureSq
		p.clearPiece(delta.Captured, captureSq)
	}

	placed := moving
	if m.IsPromotion() {
		placed = NewPiece(m.Promotion, us)
	}
	p.setPiece(placed, m.To)

	if m.IsCastle() {
		idx := castleIndex(m)
		rookSqs := castlingRookFromTo[idx]
		rook := NewPiece(Rook, us)
		p.clearPiece(rook, rookSqs[0])
		p.setPiece(rook, rookSqs[1])
	}

	if m.Piece == King {
		p.KingSquare[us] = m.To
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	clearCastlingRightsForSquare(p, m.From)
	clearCastlingRightsForSquare(p, m.To)

	if m.Piece == Pawn || m.IsCapture() {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	p.EnPassant = NoSquare
	if m.Flags&FlagEPMove != 0 {
		var epSq Square
		if us == White {
			epSq = m.From + 8
		} else {
			epSq = m.From - 8
		}
		if pawnAttacks[us][epSq]&p.Pieces[them][Pawn] != 0 {
			p.EnPassant = epSq
		}
	}

	if us == Black {
		p.FullMoveNumber++
	}
	p.Ply++
	p.SideToMove = them
	p.LastMove = m

	if p.IsSquareAttacked(p.KingSquare[us], them) {
		p.unmakeMove(delta)
		return delta, false
	}

	p.UpdateCheckers()
	p.Hash = p.ComputeHash()
	p.PawnKey = p.ComputePawnKey()

	return delta, true
}

func clearCastlingRightsForSquare(p *Position, sq Square) {
	switch sq {
	case E1:
		p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
	case A1:
		p.CastlingRights &^= WhiteQueenSideCastle
	case H1:
		p.CastlingRights &^= WhiteKingSideCastle
	case E8:
		p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
	case A8:
		p.CastlingRights &^= BlackQueenSideCastle
	case H8:
		p.CastlingRights &^= BlackKingSideCastle
	}
}

// UnmakeMove restores the position to the state before the corresponding
// MakeMove call. Only valid for the delta returned by the matching call.
func (p *Position) UnmakeMove(delta UnmakeDelta) {
	p.unmakeMove(delta)
	p.Hash = delta.Hash
	p.PawnKey = delta.PawnKey
}

func (p *Position) unmakeMove(delta UnmakeDelta) {
	m := delta.Move
	them := p.SideToMove
	us := them.Other()

	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}
	p.Ply--

	placed := NewPiece(m.Piece, us)
	currentAtTo := placed
	if m.IsPromotion() {
		currentAtTo = NewPiece(m.Promotion, us)
	}
	p.clearPiece(currentAtTo, m.To)
	p.setPiece(placed, m.From)

	if m.IsCapture() {
		p.setPiece(delta.Captured, delta.CapturedSquare)
	}

	if m.IsCastle() {
		idx := castleIndex(m)
		rookSqs := castlingRookFromTo[idx]
		rook := NewPiece(Rook, us)
		p.clearPiece(rook, rookSqs[1])
		p.setPiece(rook, rookSqs[0])
	}

	p.CastlingRights = delta.CastlingRights
	p.EnPassant = delta.EnPassant
	p.HalfMoveClock = delta.HalfMoveClock
	p.Checkers = delta.Checkers
	p.KingSquare = delta.KingSquare
	p.LastMove = delta.LastMove
}

// fenFailureReason enumerates the closed set of reasons set_from_fen can
// fail validation beyond basic grammar, matching the original implementation's
// post-parse legality sweep.
type fenFailureReason int

const (
	fenOK fenFailureReason = iota
	fenMissingKing
	fenExtraKing
	fenTooManyPieces
	fenBadCastlingRights
	fenBadEnPassant
	fenOpponentInCheck
)

func (r fenFailureReason) String() string {
	switch r {
	case fenMissingKing:
		return "missing king"
	case fenExtraKing:
		return "more than one king for a color"
	case fenTooManyPieces:
		return "more than 16 pieces for a color"
	case fenBadCastlingRights:
		return "castling right claimed without king/rook on home square"
	case fenBadEnPassant:
		return "en passant square not consistent with a just-played double pawn push"
	case fenOpponentInCheck:
		return "side not to move is in check"
	default:
		return "ok"
	}
}

// Validate runs the post-parse legality sweep spec section 4.1 requires of
// set_from_fen beyond grammatical well-formedness, recording a LastError and
// returning false on the first violation found.
func (p *Position) Validate() bool {
	if p.Pieces[White][King].PopCount() != 1 {
		p.setLastError(fenReasonFor(p.Pieces[White][King].PopCount(), "white").String())
		return false
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		p.setLastError(fenReasonFor(p.Pieces[Black][King].PopCount(), "black").String())
		return false
	}
	if p.Occupied[White].PopCount() > 16 || p.Occupied[Black].PopCount() > 16 {
		p.setLastError(fenTooManyPieces.String())
		return false
	}
	if p.CastlingRights&WhiteKingSideCastle != 0 && (p.PieceAt(E1) != WhiteKing || p.PieceAt(H1) != WhiteRook) {
		p.setLastError(fenBadCastlingRights.String())
		return false
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 && (p.PieceAt(E1) != WhiteKing || p.PieceAt(A1) != WhiteRook) {
		p.setLastError(fenBadCastlingRights.String())
		return false
	}
	if p.CastlingRights&BlackKingSideCastle != 0 && (p.PieceAt(E8) != BlackKing || p.PieceAt(H8) != BlackRook) {
		p.setLastError(fenBadCastlingRights.String())
		return false
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 && (p.PieceAt(E8) != BlackKing || p.PieceAt(A8) != BlackRook) {
		p.setLastError(fenBadCastlingRights.String())
		return false
	}
	if p.EnPassant != NoSquare {
		rank := p.EnPassant.Rank()
		if p.SideToMove == White && rank != 5 {
			p.setLastError(fenBadEnPassant.String())
			return false
		}
		if p.SideToMove == Black && rank != 2 {
			p.setLastError(fenBadEnPassant.String())
			return false
		}
	}
	if p.IsSquareAttacked(p.KingSquare[p.SideToMove.Other()], p.SideToMove) {
		p.setLastError(fenOpponentInCheck.String())
		return false
	}
	return true
}

func fenReasonFor(count int, _ string) fenFailureReason {
	if count == 0 {
		return fenMissingKing
	}
	return fenExtraKing
}
